package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/xzajyb/MXacc-sub002/internal/domain"
)

// API is the subset of the DynamoDB client the repos use.
type API interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// AccountRepo stores accounts, their send window and pending code in one item.
// PK: account_id. Writes that touch the send window are conditional on version.
type AccountRepo struct {
	client    API
	tableName string
	now       func() time.Time
}

// NewAccountRepo returns a repo over tableName.
func NewAccountRepo(client API, tableName string) *AccountRepo {
	return &AccountRepo{client: client, tableName: tableName, now: time.Now}
}

// Get reads the account with a consistent read. A missing item returns
// domain.ErrNotFound.
func (r *AccountRepo) Get(ctx context.Context, accountID string) (*domain.Account, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(fieldAccountID, accountID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("account %s: %w", accountID, domain.ErrNotFound)
	}
	var a domain.Account
	if err := attributevalue.UnmarshalMap(out.Item, &a); err != nil {
		return nil, fmt.Errorf("unmarshal account: %w", err)
	}
	return &a, nil
}

// SaveSendWindow writes w (and pending, when non-nil) if the stored version
// still equals expectedVersion. A lost race returns domain.ErrConflict.
func (r *AccountRepo) SaveSendWindow(ctx context.Context, accountID string, expectedVersion int64, w domain.SendWindow, pending *domain.PendingVerification) error {
	set := map[string]interface{}{
		fieldSendWindow: w,
		fieldVersion:    expectedVersion + 1,
		fieldUpdatedAt:  r.now().UTC(),
	}
	if pending != nil {
		set[fieldPending] = pending
	}
	ue, err := buildUpdateExpr(set)
	if err != nil {
		return err
	}
	return r.conditionalUpdate(ctx, accountID, expectedVersion, ue)
}

// MarkVerified flags the account verified and removes its pending code.
func (r *AccountRepo) MarkVerified(ctx context.Context, accountID string, expectedVersion int64) error {
	ue, err := buildUpdateExpr(map[string]interface{}{
		fieldVerified:  true,
		fieldVersion:   expectedVersion + 1,
		fieldUpdatedAt: r.now().UTC(),
	}, fieldPending)
	if err != nil {
		return err
	}
	return r.conditionalUpdate(ctx, accountID, expectedVersion, ue)
}

func (r *AccountRepo) conditionalUpdate(ctx context.Context, accountID string, expectedVersion int64, ue updateExpr) error {
	cond, err := ue.versionCondition(expectedVersion)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldAccountID, accountID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String(cond),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return fmt.Errorf("account %s changed concurrently: %w", accountID, domain.ErrConflict)
	}
	return err
}

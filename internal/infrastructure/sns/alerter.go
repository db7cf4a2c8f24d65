package sns

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/xzajyb/MXacc-sub002/internal/domain"
)

// PublishAPI is the subset of the SNS client the alerter needs.
type PublishAPI interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// NewClient creates an SNS client, honouring a LocalStack endpoint when set.
func NewClient(awsCfg aws.Config, endpointURL string) *sns.Client {
	var clientOpts []func(*sns.Options)
	if endpointURL != "" {
		clientOpts = append(clientOpts, func(o *sns.Options) {
			o.BaseEndpoint = aws.String(endpointURL)
		})
	}
	return sns.NewFromConfig(awsCfg, clientOpts...)
}

type alert struct {
	TaskID    string `json:"task_id"`
	Kind      string `json:"kind"`
	Recipient string `json:"recipient"`
	Channel   string `json:"channel,omitempty"`
	Error     string `json:"error"`
}

// FailureAlerter publishes failed deliveries to an operator topic.
type FailureAlerter struct {
	client   PublishAPI
	topicARN string
}

func NewFailureAlerter(client PublishAPI, topicARN string) *FailureAlerter {
	return &FailureAlerter{client: client, topicARN: topicARN}
}

// Record implements delivery.OutcomeSink. It is meant to sit behind
// delivery.FailuresOnly.
func (a *FailureAlerter) Record(ctx context.Context, task domain.EmailTask, out domain.DeliveryOutcome) error {
	msg := alert{TaskID: task.ID, Kind: string(task.Kind), Recipient: task.Recipient, Channel: out.Channel}
	if out.Err != nil {
		msg.Error = out.Err.Error()
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}
	_, err = a.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(a.topicARN),
		Subject:  aws.String("Email delivery failed: " + string(task.Kind)),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"kind": {DataType: aws.String("String"), StringValue: aws.String(string(task.Kind))},
		},
	})
	if err != nil {
		return fmt.Errorf("sns publish: %w", err)
	}
	return nil
}

package s3infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/xzajyb/MXacc-sub002/internal/domain"
)

// PutObjectAPI is the subset of the S3 client the archive needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// NewClient creates an S3 client. When endpointURL is set (LocalStack),
// it overrides the endpoint and enables path-style addressing.
func NewClient(awsCfg aws.Config, endpointURL string) *s3.Client {
	var clientOpts []func(*s3.Options)
	if endpointURL != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpointURL)
			o.UsePathStyle = true
		})
	}
	return s3.NewFromConfig(awsCfg, clientOpts...)
}

// deadLetter is the archived form of a failed task.
type deadLetter struct {
	Task     domain.EmailTask `json:"task"`
	Channel  string           `json:"channel,omitempty"`
	Error    string           `json:"error"`
	FailedAt time.Time        `json:"failed_at"`
}

// DeadLetterArchive keeps a JSON copy of every failed task so operators can
// inspect or replay it by hand. Nothing re-enqueues from here.
type DeadLetterArchive struct {
	client PutObjectAPI
	bucket string
	now    func() time.Time
}

func NewDeadLetterArchive(client PutObjectAPI, bucket string) *DeadLetterArchive {
	return &DeadLetterArchive{client: client, bucket: bucket, now: time.Now}
}

// Record implements delivery.OutcomeSink. Wrap it in delivery.FailuresOnly to
// archive failures only.
func (a *DeadLetterArchive) Record(ctx context.Context, task domain.EmailTask, out domain.DeliveryOutcome) error {
	now := a.now().UTC()
	dl := deadLetter{Task: task, Channel: out.Channel, FailedAt: now}
	if out.Err != nil {
		dl.Error = out.Err.Error()
	}
	body, err := json.Marshal(dl)
	if err != nil {
		return fmt.Errorf("marshal dead letter: %w", err)
	}
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(Key(task, now)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("s3 put object: %w", err)
	}
	return nil
}

// Key partitions dead letters by day and kind.
func Key(task domain.EmailTask, failedAt time.Time) string {
	return fmt.Sprintf("dead-letter/%s/%s/%s.json", failedAt.Format("2006-01-02"), task.Kind, task.ID)
}

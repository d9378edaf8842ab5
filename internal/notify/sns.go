// Package notify publishes finished job runs to an SNS topic.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/toolsdir/api/internal/config"
	"github.com/toolsdir/api/internal/jobs"
	"github.com/toolsdir/api/internal/models"
	"go.uber.org/zap"
)

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSNotifier implements jobs.Notifier.
type SNSNotifier struct {
	client   SNSService
	topicARN string
	logger   *zap.Logger
}

// NewSNSNotifier returns nil when no topic is configured. Credentials come
// from the standard AWS_* environment variables.
func NewSNSNotifier(cfg config.NotifyConfig, logger *zap.Logger) *SNSNotifier {
	if cfg.SNSTopicARN == "" {
		return nil
	}
	awsCfg := aws.Config{Region: cfg.Region}
	if key := os.Getenv("AWS_ACCESS_KEY_ID"); key != "" {
		awsCfg.Credentials = aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider(
			key, os.Getenv("AWS_SECRET_ACCESS_KEY"), os.Getenv("AWS_SESSION_TOKEN")))
	}
	return NewSNSNotifierWithClient(sns.NewFromConfig(awsCfg), cfg.SNSTopicARN, logger)
}

func NewSNSNotifierWithClient(client SNSService, topicARN string, logger *zap.Logger) *SNSNotifier {
	return &SNSNotifier{client: client, topicARN: topicARN, logger: logger}
}

type message struct {
	RunID   string            `json:"runId"`
	Job     string            `json:"job"`
	Status  jobs.RunStatus    `json:"status"`
	Summary models.JobSummary `json:"summary"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// NotifyJobFinished publishes the run summary.
func (n *SNSNotifier) NotifyJobFinished(ctx context.Context, rec *jobs.RunRecord) error {
	if n == nil {
		return nil
	}
	body, err := json.Marshal(message{
		RunID:   rec.ID,
		Job:     rec.Job,
		Status:  rec.Status,
		Summary: rec.Summary,
		Errors:  rec.Errors,
	})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	out, err := n.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.topicARN),
		Subject:  aws.String(fmt.Sprintf("Job %s %s", rec.Job, rec.Status)),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"job":    {DataType: aws.String("String"), StringValue: aws.String(rec.Job)},
			"status": {DataType: aws.String("String"), StringValue: aws.String(string(rec.Status))},
		},
	})
	if err != nil {
		return fmt.Errorf("sns publish: %w", err)
	}
	n.logger.Debug("job notification sent", zap.String("run_id", rec.ID), zap.String("message_id", aws.ToString(out.MessageId)))
	return nil
}

package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toolsdir/api/internal/config"
	"github.com/toolsdir/api/internal/jobs"
	"github.com/toolsdir/api/internal/models"
	"go.uber.org/zap/zaptest"
)

type mockSNS struct {
	input *sns.PublishInput
	err   error
}

func (m *mockSNS) Publish(_ context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	m.input = in
	if m.err != nil {
		return nil, m.err
	}
	return &sns.PublishOutput{MessageId: aws.String("msg-1")}, nil
}

func TestNotifyJobFinished(t *testing.T) {
	client := &mockSNS{}
	n := NewSNSNotifierWithClient(client, "arn:aws:sns:us-east-1:123456789012:jobs", zaptest.NewLogger(t))

	rec := &jobs.RunRecord{
		ID:      "run-1",
		Job:     jobs.SEOPages,
		Status:  jobs.RunSucceeded,
		Summary: models.JobSummary{Researched: 2, Generated: 1, Errors: 1},
		Errors:  map[string]string{"bad keyword": "boom"},
	}
	require.NoError(t, n.NotifyJobFinished(context.Background(), rec))

	assert.Equal(t, "arn:aws:sns:us-east-1:123456789012:jobs", aws.ToString(client.input.TopicArn))
	assert.Equal(t, "Job seo-pages succeeded", aws.ToString(client.input.Subject))
	assert.Equal(t, "seo-pages", aws.ToString(client.input.MessageAttributes["job"].StringValue))

	var body message
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(client.input.Message)), &body))
	assert.Equal(t, "run-1", body.RunID)
	assert.Equal(t, 1, body.Summary.Generated)
	assert.Equal(t, "boom", body.Errors["bad keyword"])
}

func TestNotifyJobFinishedError(t *testing.T) {
	n := NewSNSNotifierWithClient(&mockSNS{err: errors.New("throttled")}, "arn", zaptest.NewLogger(t))
	err := n.NotifyJobFinished(context.Background(), &jobs.RunRecord{ID: "r", Job: "j", Status: jobs.RunFailed})
	assert.ErrorContains(t, err, "throttled")
}

func TestNewSNSNotifierDisabled(t *testing.T) {
	n := NewSNSNotifier(config.NotifyConfig{Region: "us-east-1"}, zaptest.NewLogger(t))
	assert.Nil(t, n)
	assert.NoError(t, n.NotifyJobFinished(context.Background(), &jobs.RunRecord{}))
}

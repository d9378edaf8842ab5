package orchestration

import (
	"context"
	"fmt"

	"github.com/toolsdir/api/internal/models"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"
)

// TemporalDispatcher starts RunJobWorkflow for every run.
type TemporalDispatcher struct {
	client    client.Client
	taskQueue string
	logger    *zap.Logger
}

func NewTemporalDispatcher(c client.Client, taskQueue string, logger *zap.Logger) *TemporalDispatcher {
	return &TemporalDispatcher{client: c, taskQueue: taskQueue, logger: logger}
}

// Dispatch returns once the workflow is accepted by the cluster.
func (d *TemporalDispatcher) Dispatch(ctx context.Context, in models.JobInput) error {
	run, err := d.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        WorkflowID(in.RunID),
		TaskQueue: d.taskQueue,
	}, RunJobWorkflowName, in)
	if err != nil {
		return fmt.Errorf("start workflow for %s: %w", in.Job, err)
	}
	d.logger.Info("job workflow scheduled",
		zap.String("job", in.Job),
		zap.String("run_id", in.RunID),
		zap.String("workflow_id", run.GetID()),
		zap.String("workflow_run_id", run.GetRunID()),
	)
	return nil
}

// WorkflowID is the Temporal workflow id of a job run.
func WorkflowID(runID string) string {
	return "toolsdir-job-" + runID
}

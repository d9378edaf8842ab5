package orchestration

import (
	"context"
	"errors"
	"time"

	"github.com/toolsdir/api/internal/jobs"
	"github.com/toolsdir/api/internal/models"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

const (
	RunJobWorkflowName = "RunJobWorkflow"
	RunJobActivityName = "RunJob"

	// Runs are attempted once; a retry would reprocess items that already succeeded.
	jobActivityTimeout = 2 * time.Hour
)

var jobActivityOptions = workflow.ActivityOptions{
	StartToCloseTimeout: jobActivityTimeout,
	RetryPolicy: &temporal.RetryPolicy{
		MaximumAttempts: 1,
	},
}

// RunJobWorkflow executes one job run as a single activity.
func RunJobWorkflow(ctx workflow.Context, in models.JobInput) (models.JobSummary, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("job workflow started", "job", in.Job, "run_id", in.RunID)

	var summary models.JobSummary
	actCtx := workflow.WithActivityOptions(ctx, jobActivityOptions)
	if err := workflow.ExecuteActivity(actCtx, RunJobActivityName, in).Get(ctx, &summary); err != nil {
		return models.JobSummary{}, err
	}

	logger.Info("job workflow completed", "job", in.Job, "run_id", in.RunID,
		"generated", summary.Generated, "errors", summary.Errors)
	return summary, nil
}

// Activities exposes the job runner to Temporal workers.
type Activities struct {
	runner *jobs.Runner
}

func NewActivities(runner *jobs.Runner) *Activities {
	return &Activities{runner: runner}
}

// RunJob runs the job to completion inside the worker.
func (a *Activities) RunJob(ctx context.Context, in models.JobInput) (models.JobSummary, error) {
	summary, err := a.runner.Run(ctx, in)
	if errors.Is(err, jobs.ErrUnknownJob) {
		return summary, temporal.NewNonRetryableApplicationError(err.Error(), "UNKNOWN_JOB", err)
	}
	return summary, err
}

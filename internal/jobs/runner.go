package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/toolsdir/api/internal/eventbus"
	"github.com/toolsdir/api/internal/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Publisher receives the job completion event.
type Publisher interface {
	Publish(subject string, v any) error
}

// Notifier is told about every finished run.
type Notifier interface {
	NotifyJobFinished(ctx context.Context, rec *RunRecord) error
}

// RunnerOptions are the optional collaborators of a Runner.
type RunnerOptions struct {
	Status      StatusStore
	Publisher   Publisher
	Notifier    Notifier
	Concurrency int
}

// Runner executes job runs. Items are processed in list order, at most
// Concurrency at a time; one item's failure never stops the others.
type Runner struct {
	registry *Registry
	opts     RunnerOptions
	logger   *zap.Logger
	now      func() time.Time
}

func NewRunner(registry *Registry, logger *zap.Logger, opts RunnerOptions) *Runner {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &Runner{registry: registry, opts: opts, logger: logger, now: time.Now}
}

// Registry returns the job registry.
func (r *Runner) Registry() *Registry {
	return r.registry
}

// Status returns the status store, which may be nil.
func (r *Runner) Status() StatusStore {
	return r.opts.Status
}

// Queue records a queued run before it is dispatched.
func (r *Runner) Queue(ctx context.Context, in models.JobInput) *RunRecord {
	rec := &RunRecord{
		ID:       in.RunID,
		Job:      in.Job,
		Status:   RunQueued,
		Items:    len(in.Items),
		QueuedAt: r.now().UTC(),
	}
	r.save(ctx, rec)
	return rec
}

// MarkFailed records a run that never started, e.g. because dispatch failed.
func (r *Runner) MarkFailed(ctx context.Context, rec *RunRecord, reason string) {
	now := r.now().UTC()
	rec.Status = RunFailed
	rec.Message = reason
	rec.FinishedAt = &now
	r.save(ctx, rec)
}

// Run executes one run to completion and returns its summary. The error is
// non-nil only when the job is unknown.
func (r *Runner) Run(ctx context.Context, in models.JobInput) (models.JobSummary, error) {
	job, ok := r.registry.Get(in.Job)
	if !ok {
		return models.JobSummary{}, fmt.Errorf("%w: %s", ErrUnknownJob, in.Job)
	}

	items := in.Items
	if len(items) == 0 {
		items, _ = r.registry.Items(in.Job, nil)
	}

	started := r.now().UTC()
	rec := &RunRecord{
		ID:        in.RunID,
		Job:       in.Job,
		Status:    RunRunning,
		Items:     len(items),
		QueuedAt:  started,
		StartedAt: &started,
	}
	if prev := r.load(ctx, in.RunID); prev != nil {
		rec.QueuedAt = prev.QueuedAt
	}
	r.save(ctx, rec)
	r.publish(eventbus.SubjectJobsStarted, rec)

	log := r.logger.With(zap.String("job", in.Job), zap.String("run_id", in.RunID))
	log.Info("job started", zap.Int("items", len(items)), zap.Int("concurrency", r.opts.Concurrency))

	ctx = WithRunID(ctx, in.RunID)

	var (
		mu      sync.Mutex
		summary models.JobSummary
		errs    = map[string]string{}
	)
	var g errgroup.Group
	g.SetLimit(r.opts.Concurrency)
	for _, item := range items {
		g.Go(func() error {
			out, err := r.processItem(ctx, job, item)

			mu.Lock()
			defer mu.Unlock()
			if out.Researched {
				summary.Researched++
			}
			switch {
			case err != nil:
				summary.Errors++
				errs[item] = err.Error()
				log.Error("job item failed", zap.String("item", item), zap.Error(err))
			case out.Status == Generated:
				summary.Generated++
				log.Debug("job item generated", zap.String("item", item))
			default:
				summary.Skipped++
				log.Info("job item skipped", zap.String("item", item), zap.String("reason", out.Reason))
			}
			return nil
		})
	}
	_ = g.Wait()

	finished := r.now().UTC()
	rec.Status = RunSucceeded
	if ctx.Err() != nil {
		rec.Status = RunFailed
		rec.Message = ctx.Err().Error()
	}
	rec.Summary = summary
	rec.FinishedAt = &finished
	if len(errs) > 0 {
		rec.Errors = errs
	}

	log.Info("job completed",
		zap.String("status", string(rec.Status)),
		zap.Int("researched", summary.Researched),
		zap.Int("generated", summary.Generated),
		zap.Int("skipped", summary.Skipped),
		zap.Int("errors", summary.Errors),
		zap.Duration("duration", finished.Sub(started)),
	)

	// The run context may have expired; completion bookkeeping still happens.
	done := context.WithoutCancel(ctx)
	r.save(done, rec)
	r.publish(eventbus.SubjectJobsComplete, rec)
	if r.opts.Notifier != nil {
		if err := r.opts.Notifier.NotifyJobFinished(done, rec); err != nil {
			log.Warn("job notification failed", zap.Error(err))
		}
	}
	return summary, nil
}

// processItem isolates one item: a panic becomes that item's error.
func (r *Runner) processItem(ctx context.Context, job Job, item string) (out Outcome, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}
	return job.Process(ctx, item)
}

func (r *Runner) save(ctx context.Context, rec *RunRecord) {
	if r.opts.Status == nil {
		return
	}
	if err := r.opts.Status.Save(ctx, rec); err != nil {
		r.logger.Warn("failed to save job status", zap.String("run_id", rec.ID), zap.Error(err))
	}
}

func (r *Runner) load(ctx context.Context, id string) *RunRecord {
	if r.opts.Status == nil {
		return nil
	}
	rec, err := r.opts.Status.Get(ctx, id)
	if err != nil {
		return nil
	}
	return rec
}

func (r *Runner) publish(subject string, rec *RunRecord) {
	if r.opts.Publisher == nil {
		return
	}
	if err := r.opts.Publisher.Publish(subject, rec); err != nil {
		r.logger.Debug("job event not published", zap.String("subject", subject), zap.Error(err))
	}
}

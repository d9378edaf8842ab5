package jobs

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/toolsdir/api/internal/models"
	"go.uber.org/zap"
)

// Dispatcher schedules a run and returns as soon as it is scheduled.
type Dispatcher interface {
	Dispatch(ctx context.Context, in models.JobInput) error
}

// LocalDispatcher runs jobs in detached goroutines inside this process.
type LocalDispatcher struct {
	runner  *Runner
	timeout time.Duration
	logger  *zap.Logger
	wg      sync.WaitGroup
}

func NewLocalDispatcher(runner *Runner, timeout time.Duration, logger *zap.Logger) *LocalDispatcher {
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	return &LocalDispatcher{runner: runner, timeout: timeout, logger: logger}
}

// Dispatch starts the run in the background. The run gets a fresh context
// bounded by the dispatcher timeout; ctx is not inherited.
func (d *LocalDispatcher) Dispatch(_ context.Context, in models.JobInput) error {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if p := recover(); p != nil {
				d.logger.Error("job run panicked",
					zap.String("job", in.Job),
					zap.String("run_id", in.RunID),
					zap.Any("panic", p),
					zap.ByteString("stack", debug.Stack()),
				)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		if _, err := d.runner.Run(ctx, in); err != nil {
			d.logger.Error("job run failed", zap.String("job", in.Job), zap.String("run_id", in.RunID), zap.Error(err))
		}
	}()
	return nil
}

// Wait blocks until every dispatched run has returned, or ctx is done.
func (d *LocalDispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// FallbackDispatcher tries Primary and hands the run to Secondary when
// scheduling fails.
type FallbackDispatcher struct {
	Primary   Dispatcher
	Secondary Dispatcher
	Logger    *zap.Logger
}

func (d *FallbackDispatcher) Dispatch(ctx context.Context, in models.JobInput) error {
	err := d.Primary.Dispatch(ctx, in)
	if err == nil {
		return nil
	}
	d.Logger.Warn("primary dispatcher failed, running job locally",
		zap.String("job", in.Job), zap.String("run_id", in.RunID), zap.Error(err))
	if serr := d.Secondary.Dispatch(ctx, in); serr != nil {
		return fmt.Errorf("dispatch %s: %w", in.Job, errors.Join(err, serr))
	}
	return nil
}

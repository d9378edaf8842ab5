package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toolsdir/api/internal/eventbus"
	"github.com/toolsdir/api/internal/models"
	"go.uber.org/zap/zaptest"
)

func TestRunnerCompletesEveryItemDespiteFailures(t *testing.T) {
	items := []string{"k1", "k2", "k3", "k4", "k5", "k6", "k7"}
	job := &stubJob{name: SEOPages, fail: map[string]bool{"k2": true, "k5": true}, panics: map[string]bool{"k6": true}}
	status := newMemoryStatus()
	pub := &recordingPublisher{}
	notifier := &recordingNotifier{got: make(chan *RunRecord, 1)}

	runner := NewRunner(NewRegistry(nil, job), zaptest.NewLogger(t), RunnerOptions{
		Status: status, Publisher: pub, Notifier: notifier,
	})
	summary, err := runner.Run(context.Background(), input(SEOPages, items...))
	require.NoError(t, err)

	const n, m = 7, 3
	assert.Equal(t, models.JobSummary{Researched: n - 1, Generated: n - m, Errors: m}, summary)
	assert.Equal(t, items, job.order, "sequential run keeps list order")
	assert.Equal(t, "run-"+SEOPages, job.runID)

	rec, err := status.Get(context.Background(), "run-"+SEOPages)
	require.NoError(t, err)
	assert.Equal(t, RunSucceeded, rec.Status)
	assert.Equal(t, summary, rec.Summary)
	assert.Len(t, rec.Errors, m)
	assert.Contains(t, rec.Errors["k2"], "provider exploded")
	assert.Contains(t, rec.Errors["k6"], "panic: boom k6")
	require.NotNil(t, rec.FinishedAt)

	assert.Equal(t, []RunStatus{RunRunning, RunSucceeded}, status.history)
	assert.Equal(t, []string{eventbus.SubjectJobsStarted, eventbus.SubjectJobsComplete}, pub.subjects)
	select {
	case got := <-notifier.got:
		assert.Equal(t, summary, got.Summary)
	default:
		t.Fatal("notifier not called")
	}
}

func TestRunnerCountsSkips(t *testing.T) {
	job := &stubJob{name: DiscoverTools, skip: map[string]bool{"b": true}}
	runner := NewRunner(NewRegistry(nil, job), zaptest.NewLogger(t), RunnerOptions{})

	summary, err := runner.Run(context.Background(), input(DiscoverTools, "a", "b", "c"))
	require.NoError(t, err)
	assert.Equal(t, models.JobSummary{Researched: 3, Generated: 2, Skipped: 1}, summary)
}

func TestRunnerConcurrentFanOut(t *testing.T) {
	job := &stubJob{name: DiscoverPrompts, delay: 50 * time.Millisecond}
	runner := NewRunner(NewRegistry(nil, job), zaptest.NewLogger(t), RunnerOptions{Concurrency: 4})

	start := time.Now()
	summary, err := runner.Run(context.Background(), input(DiscoverPrompts, "a", "b", "c", "d"))
	require.NoError(t, err)
	assert.Equal(t, 4, summary.Generated)
	assert.Less(t, time.Since(start), 180*time.Millisecond, "items ran in parallel")
}

func TestRunnerUsesRegistryItemsWhenNoneGiven(t *testing.T) {
	job := &stubJob{name: NewsDigest, defaults: []string{"https://a.example/x"}}
	runner := NewRunner(NewRegistry(Seeds{NewsDigest: {"https://b.example/y"}}, job), zaptest.NewLogger(t), RunnerOptions{})

	summary, err := runner.Run(context.Background(), input(NewsDigest))
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Generated)
	assert.Equal(t, []string{"https://b.example/y"}, job.order)
}

func TestRunnerExpiredContextMarksRunFailed(t *testing.T) {
	job := &stubJob{name: SEOPages}
	status := newMemoryStatus()
	runner := NewRunner(NewRegistry(nil, job), zaptest.NewLogger(t), RunnerOptions{Status: status})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	summary, err := runner.Run(ctx, input(SEOPages, "a", "b"))
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Errors)
	assert.Zero(t, job.calls.Load())

	rec, _ := status.Get(context.Background(), "run-"+SEOPages)
	assert.Equal(t, RunFailed, rec.Status)
}

func TestRunnerUnknownJob(t *testing.T) {
	runner := NewRunner(NewRegistry(nil), zaptest.NewLogger(t), RunnerOptions{})
	_, err := runner.Run(context.Background(), input("nope"))
	assert.ErrorIs(t, err, ErrUnknownJob)
}

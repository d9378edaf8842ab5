package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/toolsdir/api/internal/models"
)

// stubJob fails the items listed in fail and records the processing order.
type stubJob struct {
	name     string
	defaults []string
	fail     map[string]bool
	skip     map[string]bool
	panics   map[string]bool
	delay    time.Duration
	block    chan struct{}

	mu    sync.Mutex
	order []string
	runID string
	calls atomic.Int32
}

func (j *stubJob) Name() string           { return j.name }
func (j *stubJob) DefaultItems() []string { return j.defaults }

func (j *stubJob) Process(ctx context.Context, item string) (Outcome, error) {
	j.calls.Add(1)
	j.mu.Lock()
	j.order = append(j.order, item)
	j.runID = RunIDFrom(ctx)
	j.mu.Unlock()

	if j.block != nil {
		<-j.block
	}
	if j.delay > 0 {
		time.Sleep(j.delay)
	}
	switch {
	case j.panics[item]:
		panic("boom " + item)
	case j.fail[item]:
		return Outcome{Researched: true}, fmt.Errorf("generate %s: %w", item, errors.New("provider exploded"))
	case j.skip[item]:
		return Outcome{Status: Skipped, Researched: true, Reason: "duplicate"}, nil
	}
	return Outcome{Status: Generated, Researched: true}, nil
}

type memoryStatus struct {
	mu      sync.Mutex
	records map[string]RunRecord
	history []RunStatus
}

func newMemoryStatus() *memoryStatus {
	return &memoryStatus{records: map[string]RunRecord{}}
}

func (m *memoryStatus) Save(_ context.Context, rec *RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.ID] = *rec
	m.history = append(m.history, rec.Status)
	return nil
}

func (m *memoryStatus) Get(_ context.Context, id string) (*RunRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, ErrRunNotFound
	}
	return &rec, nil
}

func (m *memoryStatus) Latest(_ context.Context, job string) (*RunRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *RunRecord
	for _, rec := range m.records {
		if rec.Job == job && (latest == nil || rec.QueuedAt.After(latest.QueuedAt)) {
			r := rec
			latest = &r
		}
	}
	if latest == nil {
		return nil, ErrRunNotFound
	}
	return latest, nil
}

type recordingPublisher struct {
	mu       sync.Mutex
	subjects []string
}

func (p *recordingPublisher) Publish(subject string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	return nil
}

type recordingNotifier struct {
	got chan *RunRecord
}

func (n *recordingNotifier) NotifyJobFinished(_ context.Context, rec *RunRecord) error {
	n.got <- rec
	return nil
}

func input(job string, items ...string) models.JobInput {
	return models.JobInput{RunID: "run-" + job, Job: job, Items: items}
}

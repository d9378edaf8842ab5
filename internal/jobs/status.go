package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/toolsdir/api/internal/models"
)

// RunStatus is the lifecycle state of a job run
type RunStatus string

const (
	RunQueued    RunStatus = "queued"
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// RunRecord is the job-status record of one run. Errors maps item keys to
// their failure messages.
type RunRecord struct {
	ID         string            `json:"id"`
	Job        string            `json:"job"`
	Status     RunStatus         `json:"status"`
	Items      int               `json:"items"`
	Summary    models.JobSummary `json:"summary"`
	Errors     map[string]string `json:"errors,omitempty"`
	Message    string            `json:"message,omitempty"`
	QueuedAt   time.Time         `json:"queued_at"`
	StartedAt  *time.Time        `json:"started_at,omitempty"`
	FinishedAt *time.Time        `json:"finished_at,omitempty"`
}

// ErrRunNotFound is returned by StatusStore.Get for unknown or expired runs.
var ErrRunNotFound = errors.New("job run not found")

// StatusStore keeps run records. The runner treats every store error as
// non-fatal.
type StatusStore interface {
	Save(ctx context.Context, rec *RunRecord) error
	Get(ctx context.Context, id string) (*RunRecord, error)
	Latest(ctx context.Context, job string) (*RunRecord, error)
}

// RedisStatusStore keeps run records as JSON strings with a TTL.
type RedisStatusStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStatusStore(client *redis.Client, ttl time.Duration) *RedisStatusStore {
	return &RedisStatusStore{client: client, ttl: ttl}
}

func runKey(id string) string {
	return "toolsdir:jobs:run:" + id
}

func latestKey(job string) string {
	return "toolsdir:jobs:latest:" + job
}

// Save writes the record. Queueing a run points the job's latest-run key at
// it; later transitions only fill the key when it is missing, so an older run
// finishing after a newer one was queued leaves the newer one as latest.
func (s *RedisStatusStore) Save(ctx context.Context, rec *RunRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal run record: %w", err)
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, runKey(rec.ID), data, s.ttl)
	if rec.Status == RunQueued {
		pipe.Set(ctx, latestKey(rec.Job), rec.ID, s.ttl)
	} else {
		pipe.SetNX(ctx, latestKey(rec.Job), rec.ID, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save run record %s: %w", rec.ID, err)
	}
	return nil
}

func (s *RedisStatusStore) Get(ctx context.Context, id string) (*RunRecord, error) {
	data, err := s.client.Get(ctx, runKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run record %s: %w", id, err)
	}
	var rec RunRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode run record %s: %w", id, err)
	}
	return &rec, nil
}

// Latest returns the most recent run of job.
func (s *RedisStatusStore) Latest(ctx context.Context, job string) (*RunRecord, error) {
	id, err := s.client.Get(ctx, latestKey(job)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get latest run of %s: %w", job, err)
	}
	return s.Get(ctx, id)
}

// Package jobs runs fire-and-forget batch jobs over lists of keywords or
// queries. Every item is attempted; failures are counted, never propagated.
package jobs

import (
	"context"
	"errors"
)

// Job names.
const (
	SEOPages        = "seo-pages"
	DiscoverTools   = "discover-tools"
	DiscoverPrompts = "discover-prompts"
	NewsDigest      = "news-digest"
)

// Status is the per-item result of a job step.
type Status int

const (
	// Generated means a result was persisted.
	Generated Status = iota + 1
	// Skipped means nothing was persisted and nothing went wrong: the target
	// table is missing, the row already existed, or only fallback content was available.
	Skipped
)

// Outcome is returned by Job.Process. Researched is meaningful even when
// Process also returns an error.
type Outcome struct {
	Status     Status
	Researched bool
	Reason     string
}

// Job is one batch job.
type Job interface {
	Name() string
	// DefaultItems is used when neither the trigger nor the seed file lists items.
	DefaultItems() []string
	Process(ctx context.Context, item string) (Outcome, error)
}

// ErrUnknownJob is returned for names missing from the registry.
var ErrUnknownJob = errors.New("unknown job")

type runIDKey struct{}

// WithRunID attaches the run id to ctx for jobs that tag their requests.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunIDFrom returns the run id attached by the runner, or "".
func RunIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}

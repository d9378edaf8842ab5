// Package discovery finds new tools and prompts for the directory.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/toolsdir/api/internal/agent"
	"github.com/toolsdir/api/internal/jobs"
	"github.com/toolsdir/api/internal/models"
	"github.com/toolsdir/api/internal/repository"
	"go.uber.org/zap"
)

// Agents runs a named agent. *agent.Orchestrator satisfies it.
type Agents interface {
	Run(ctx context.Context, name string, payload any, rc agent.RequestContext) (*agent.Result, error)
}

type ToolStore interface {
	InsertIfAbsent(ctx context.Context, tool *models.Tool) (bool, error)
}

type PromptStore interface {
	InsertIfAbsent(ctx context.Context, prompt *models.Prompt) (bool, error)
}

// insertResult tallies one batch of inserts.
type insertResult struct {
	inserted int
	existing int
	missing  bool
}

func (r insertResult) outcome() jobs.Outcome {
	out := jobs.Outcome{Researched: true}
	switch {
	case r.inserted > 0:
		out.Status = jobs.Generated
	case r.missing:
		out.Status, out.Reason = jobs.Skipped, "relation missing"
	default:
		out.Status, out.Reason = jobs.Skipped, "nothing new"
	}
	return out
}

// unstored is the outcome of a run without a configured store.
func unstored() jobs.Outcome {
	return jobs.Outcome{Status: jobs.Skipped, Researched: true, Reason: "storage not configured"}
}

// record folds one insert error into r. It returns err when it is neither a
// missing table nor a duplicate.
func (r *insertResult) record(inserted bool, err error) error {
	switch {
	case err == nil && inserted:
		r.inserted++
	case err == nil, errors.Is(err, repository.ErrDuplicate):
		r.existing++
	case errors.Is(err, repository.ErrRelationNotFound):
		r.missing = true
	default:
		return err
	}
	return nil
}

func jobContext(ctx context.Context, job string) agent.RequestContext {
	return agent.RequestContext{RequestID: jobs.RunIDFrom(ctx), UserAgent: "jobs/" + job, Trusted: true}
}

// splitLine splits "a | b | c" into exactly n trimmed, non-empty parts. The
// last part keeps any further separators.
func splitLine(line string, n int) ([]string, bool) {
	parts := strings.SplitN(line, "|", n)
	if len(parts) != n {
		return nil, false
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
		if parts[i] == "" {
			return nil, false
		}
	}
	return parts, true
}

func validWebsite(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func fallbackSkip(job, query string, logger *zap.Logger) jobs.Outcome {
	logger.Info("provider unavailable, not storing placeholder results",
		zap.String("job", job), zap.String("query", query))
	return jobs.Outcome{Status: jobs.Skipped, Researched: true, Reason: "fallback output"}
}

func wrapAgentErr(job, query string, err error) error {
	return fmt.Errorf("%s %q: %w", job, query, err)
}

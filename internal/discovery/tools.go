package discovery

import (
	"context"
	"fmt"

	"github.com/toolsdir/api/internal/agent"
	"github.com/toolsdir/api/internal/jobs"
	"github.com/toolsdir/api/internal/models"
	"go.uber.org/zap"
)

// ToolsJob implements "discover-tools".
type ToolsJob struct {
	agents Agents
	store  ToolStore
	logger *zap.Logger
}

func NewToolsJob(agents Agents, store ToolStore, logger *zap.Logger) *ToolsJob {
	return &ToolsJob{agents: agents, store: store, logger: logger}
}

func (j *ToolsJob) Name() string { return jobs.DiscoverTools }

func (j *ToolsJob) DefaultItems() []string {
	return []string{"ai writing assistant", "ai image generator", "ai meeting notes", "ai code review"}
}

// Process asks the discovery agent for tools matching query and stores the
// ones not already listed. Fallback output is never stored.
func (j *ToolsJob) Process(ctx context.Context, query string) (jobs.Outcome, error) {
	res, err := j.agents.Run(ctx, agent.ToolDiscovery, map[string]string{"query": query}, jobContext(ctx, j.Name()))
	if err != nil {
		return jobs.Outcome{}, wrapAgentErr(j.Name(), query, err)
	}
	if res.Meta.IsFallback {
		return fallbackSkip(j.Name(), query, j.logger), nil
	}

	if j.store == nil {
		return unstored(), nil
	}

	var r insertResult
	for _, tool := range ParseTools(res.Output["tools"], query) {
		inserted, err := j.store.InsertIfAbsent(ctx, &tool)
		if err := r.record(inserted, err); err != nil {
			return jobs.Outcome{Researched: true}, fmt.Errorf("store tool %s: %w", tool.Slug, err)
		}
	}
	j.logger.Debug("tools discovered", zap.String("query", query),
		zap.Int("inserted", r.inserted), zap.Int("existing", r.existing))
	return r.outcome(), nil
}

// ParseTools reads "Name | https://site | description" lines. Lines with too
// few parts or a non-http website are dropped.
func ParseTools(raw, query string) []models.Tool {
	var out []models.Tool
	seen := map[string]bool{}
	for _, line := range agent.Lines(raw) {
		parts, ok := splitLine(line, 3)
		if !ok || !validWebsite(parts[1]) {
			continue
		}
		slug := models.Slugify(parts[0])
		if slug == "" || seen[slug] {
			continue
		}
		seen[slug] = true
		out = append(out, models.Tool{
			Slug:        slug,
			Name:        parts[0],
			Website:     parts[1],
			Category:    query,
			Description: parts[2],
			SourceQuery: query,
		})
	}
	return out
}

package discovery

import (
	"context"
	"fmt"
	"strings"

	"github.com/toolsdir/api/internal/agent"
	"github.com/toolsdir/api/internal/jobs"
	"github.com/toolsdir/api/internal/models"
	"go.uber.org/zap"
)

// PromptsJob implements "discover-prompts".
type PromptsJob struct {
	agents Agents
	store  PromptStore
	logger *zap.Logger
}

func NewPromptsJob(agents Agents, store PromptStore, logger *zap.Logger) *PromptsJob {
	return &PromptsJob{agents: agents, store: store, logger: logger}
}

func (j *PromptsJob) Name() string { return jobs.DiscoverPrompts }

func (j *PromptsJob) DefaultItems() []string {
	return []string{"marketing copy", "software debugging", "lesson planning", "customer support"}
}

func (j *PromptsJob) Process(ctx context.Context, query string) (jobs.Outcome, error) {
	res, err := j.agents.Run(ctx, agent.PromptDiscovery, map[string]string{"query": query}, jobContext(ctx, j.Name()))
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
	for _, p := range ParsePrompts(res.Output["prompts"], query) {
		inserted, err := j.store.InsertIfAbsent(ctx, &p)
		if err := r.record(inserted, err); err != nil {
			return jobs.Outcome{Researched: true}, fmt.Errorf("store prompt %s: %w", p.Slug, err)
		}
	}
	j.logger.Debug("prompts discovered", zap.String("query", query),
		zap.Int("inserted", r.inserted), zap.Int("existing", r.existing))
	return r.outcome(), nil
}

// ParsePrompts reads "Title | category | prompt text" lines.
func ParsePrompts(raw, query string) []models.Prompt {
	var out []models.Prompt
	seen := map[string]bool{}
	for _, line := range agent.Lines(raw) {
		parts, ok := splitLine(line, 3)
		if !ok {
			continue
		}
		slug := models.Slugify(parts[0])
		if slug == "" || seen[slug] {
			continue
		}
		seen[slug] = true
		out = append(out, models.Prompt{
			Slug:        slug,
			Title:       parts[0],
			Category:    strings.ToLower(parts[1]),
			Body:        parts[2],
			SourceQuery: query,
		})
	}
	return out
}

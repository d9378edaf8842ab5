package news

import (
	"context"
	"errors"
	"fmt"

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

type ArticleSource interface {
	Fetch(ctx context.Context, url string) (*Article, error)
}

type Store interface {
	Upsert(ctx context.Context, item *models.NewsItem) error
}

// Job implements "news-digest". Items are article URLs.
type Job struct {
	agents Agents
	source ArticleSource
	store  Store
	logger *zap.Logger
}

func NewJob(agents Agents, source ArticleSource, store Store, logger *zap.Logger) *Job {
	return &Job{agents: agents, source: source, store: store, logger: logger}
}

func (j *Job) Name() string { return jobs.NewsDigest }

// DefaultItems is empty: article URLs come from the trigger or the seed file.
func (j *Job) DefaultItems() []string { return nil }

func (j *Job) Process(ctx context.Context, articleURL string) (jobs.Outcome, error) {
	var out jobs.Outcome

	article, err := j.source.Fetch(ctx, articleURL)
	if err != nil {
		return out, fmt.Errorf("fetch: %w", err)
	}
	out.Researched = true

	rc := agent.RequestContext{RequestID: jobs.RunIDFrom(ctx), UserAgent: "jobs/" + jobs.NewsDigest, Trusted: true}
	res, err := j.agents.Run(ctx, agent.NewsSummary, map[string]string{
		"headline": article.Headline,
		"text":     article.Text,
		"source":   article.Source,
	}, rc)
	if err != nil {
		return out, fmt.Errorf("summarise %s: %w", articleURL, err)
	}

	item := &models.NewsItem{
		URL:      article.URL,
		Headline: article.Headline,
		Summary:  res.Output["summary"],
		Takeaway: res.Output["takeaway"],
		Source:   article.Source,
		Provider: string(res.Meta.Provider),
	}
	if j.store == nil {
		out.Status, out.Reason = jobs.Skipped, "storage not configured"
		return out, nil
	}
	if err := j.store.Upsert(ctx, item); err != nil {
		if errors.Is(err, repository.ErrRelationNotFound) {
			j.logger.Debug("news_items table missing, item not stored", zap.String("url", item.URL))
			out.Status, out.Reason = jobs.Skipped, "relation missing"
			return out, nil
		}
		return out, fmt.Errorf("store %s: %w", item.URL, err)
	}
	out.Status = jobs.Generated
	return out, nil
}

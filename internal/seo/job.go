// Package seo generates SEO landing pages for search keywords.
package seo

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/toolsdir/api/internal/agent"
	"github.com/toolsdir/api/internal/jobs"
	"github.com/toolsdir/api/internal/models"
	"github.com/toolsdir/api/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

const relatedToolsLimit = 6

// Agents runs a named agent. *agent.Orchestrator satisfies it.
type Agents interface {
	Run(ctx context.Context, name string, payload any, rc agent.RequestContext) (*agent.Result, error)
}

type PageStore interface {
	Upsert(ctx context.Context, page *models.SEOPage) (bool, error)
}

type ToolFinder interface {
	RelatedIDs(ctx context.Context, categories []string, limit uint64) ([]uuid.UUID, error)
}

type CoverStore interface {
	PutCover(ctx context.Context, slug string, svg []byte) (string, error)
}

// Job implements the "seo-pages" batch job.
type Job struct {
	agents  Agents
	pages   PageStore
	tools   ToolFinder
	covers  CoverStore
	siteURL string
	logger  *zap.Logger
}

// Options holds the optional collaborators of the job. Nil members are skipped.
type Options struct {
	Tools   ToolFinder
	Covers  CoverStore
	SiteURL string
}

func NewJob(agents Agents, pages PageStore, logger *zap.Logger, opts Options) *Job {
	return &Job{
		agents:  agents,
		pages:   pages,
		tools:   opts.Tools,
		covers:  opts.Covers,
		siteURL: opts.SiteURL,
		logger:  logger,
	}
}

func (j *Job) Name() string {
	return jobs.SEOPages
}

func (j *Job) DefaultItems() []string {
	return []string{
		"ai writing tools",
		"ai image generators",
		"ai coding assistants",
		"ai video editors",
		"chatgpt alternatives",
	}
}

// Process researches, writes and stores the page for one keyword.
func (j *Job) Process(ctx context.Context, keyword string) (jobs.Outcome, error) {
	var out jobs.Outcome
	slug, ok := PageSlug(keyword)
	if !ok {
		out.Status, out.Reason = jobs.Skipped, "keyword has no slug"
		return out, nil
	}
	rc := agent.RequestContext{RequestID: jobs.RunIDFrom(ctx), UserAgent: "jobs/" + jobs.SEOPages, Trusted: true}

	research, err := j.agents.Run(ctx, agent.SEOResearch, map[string]string{"keyword": keyword}, rc)
	if err != nil {
		return out, fmt.Errorf("research %q: %w", keyword, err)
	}
	out.Researched = true

	generated, err := j.agents.Run(ctx, agent.SEOPage, map[string]string{
		"keyword":      keyword,
		"searchIntent": research.Output["searchIntent"],
		"subtopics":    research.Output["subtopics"],
	}, rc)
	if err != nil {
		return out, fmt.Errorf("generate %q: %w", keyword, err)
	}

	page := buildPage(keyword, slug, generated)
	page.CanonicalURL = CanonicalURL(j.siteURL, page.Slug)
	page.RelatedToolIDs = j.relatedTools(ctx, agent.Lines(research.Output["relatedCategories"]))
	page.ImageURL = j.uploadCover(ctx, page)

	if j.pages == nil {
		out.Status, out.Reason = jobs.Skipped, "storage not configured"
		return out, nil
	}
	if _, err := j.pages.Upsert(ctx, page); err != nil {
		switch {
		case errors.Is(err, repository.ErrRelationNotFound):
			j.logger.Debug("seo_pages table missing, page not stored", zap.String("slug", page.Slug))
			out.Status, out.Reason = jobs.Skipped, "relation missing"
			return out, nil
		case errors.Is(err, repository.ErrDuplicate):
			out.Status, out.Reason = jobs.Skipped, "duplicate"
			return out, nil
		}
		return out, fmt.Errorf("store page %s: %w", page.Slug, err)
	}

	out.Status = jobs.Generated
	return out, nil
}

func buildPage(keyword, slug string, res *agent.Result) *models.SEOPage {
	o := res.Output
	title := strings.TrimSpace(o["title"])
	if title == "" {
		title = keyword
	}
	return &models.SEOPage{
		Keyword:         keyword,
		Slug:            slug,
		Title:           title,
		MetaDescription: strings.TrimSpace(o["metaDescription"]),
		Intro:           strings.TrimSpace(o["intro"]),
		Sections:        ParseSections(o["sections"]),
		FAQ:             ParseFAQ(o["faq"]),
		Provider:        string(res.Meta.Provider),
		Published:       true,
	}
}

func (j *Job) relatedTools(ctx context.Context, categories []string) []uuid.UUID {
	if j.tools == nil || len(categories) == 0 {
		return nil
	}
	ids, err := j.tools.RelatedIDs(ctx, categories, relatedToolsLimit)
	if err != nil {
		if !errors.Is(err, repository.ErrRelationNotFound) {
			j.logger.Warn("related tools lookup failed", zap.Strings("categories", categories), zap.Error(err))
		}
		return nil
	}
	return ids
}

func (j *Job) uploadCover(ctx context.Context, page *models.SEOPage) *string {
	if j.covers == nil {
		return nil
	}
	url, err := j.covers.PutCover(ctx, page.Slug, RenderCover(page.Title, page.Keyword))
	if err != nil {
		j.logger.Warn("cover upload failed, saving page without image", zap.String("slug", page.Slug), zap.Error(err))
		return nil
	}
	return &url
}

// PageSlug derives the page slug for keyword. Keywords without Latin letters
// or digits get a stable hashed slug; keywords with no letters or digits at
// all have none.
func PageSlug(keyword string) (string, bool) {
	if slug := models.Slugify(keyword); slug != "" {
		return slug, true
	}
	normalized := norm.NFC.String(strings.ToLower(strings.TrimSpace(keyword)))
	if !strings.ContainsFunc(normalized, func(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }) {
		return "", false
	}
	h := fnv.New64a()
	h.Write([]byte(normalized))
	return fmt.Sprintf("page-%016x", h.Sum64()), true
}

// CanonicalURL joins the site base URL and the page slug. An empty base
// yields a site-relative path.
func CanonicalURL(base, slug string) string {
	return strings.TrimRight(base, "/") + "/seo/" + slug
}

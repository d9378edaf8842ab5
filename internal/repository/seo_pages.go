package repository

import (
	"context"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/toolsdir/api/internal/models"
)

// SEOPageRepository persists generated SEO pages.
type SEOPageRepository struct {
	db DBTX
}

func NewSEOPageRepository(db DBTX) *SEOPageRepository {
	return &SEOPageRepository{db: db}
}

const upsertSEOPageSQL = `
	INSERT INTO seo_pages (id, keyword, slug, title, meta_description, intro, sections, faq,
		related_tool_ids, image_url, canonical_url, provider, published)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	ON CONFLICT (slug) DO UPDATE SET
		keyword = EXCLUDED.keyword,
		title = EXCLUDED.title,
		meta_description = EXCLUDED.meta_description,
		intro = EXCLUDED.intro,
		sections = EXCLUDED.sections,
		faq = EXCLUDED.faq,
		related_tool_ids = EXCLUDED.related_tool_ids,
		image_url = COALESCE(EXCLUDED.image_url, seo_pages.image_url),
		canonical_url = EXCLUDED.canonical_url,
		provider = EXCLUDED.provider,
		published = EXCLUDED.published,
		updated_at = NOW()
	RETURNING id, created_at, updated_at, (xmax = 0) AS inserted`

// Upsert creates the page on first generation and updates it on regeneration.
// It reports whether a new row was inserted.
func (r *SEOPageRepository) Upsert(ctx context.Context, page *models.SEOPage) (bool, error) {
	if page.ID == uuid.Nil {
		page.ID = uuid.New()
	}
	sections, err := json.Marshal(nonNilSections(page.Sections))
	if err != nil {
		return false, fmt.Errorf("marshal sections: %w", err)
	}
	faq, err := json.Marshal(nonNilFAQ(page.FAQ))
	if err != nil {
		return false, fmt.Errorf("marshal faq: %w", err)
	}
	related := page.RelatedToolIDs
	if related == nil {
		related = []uuid.UUID{}
	}

	var inserted bool
	err = r.db.QueryRow(ctx, upsertSEOPageSQL,
		page.ID,
		page.Keyword,
		page.Slug,
		page.Title,
		page.MetaDescription,
		page.Intro,
		sections,
		faq,
		related,
		page.ImageURL,
		page.CanonicalURL,
		page.Provider,
		page.Published,
	).Scan(&page.ID, &page.CreatedAt, &page.UpdatedAt, &inserted)
	if err != nil {
		return false, Classify(err)
	}
	return inserted, nil
}

var seoPageColumns = []string{
	"id", "keyword", "slug", "title", "meta_description", "intro", "sections", "faq",
	"related_tool_ids", "image_url", "canonical_url", "provider", "published", "created_at", "updated_at",
}

// GetPublishedBySlug returns ErrNotFound when no published page has the slug.
func (r *SEOPageRepository) GetPublishedBySlug(ctx context.Context, slug string) (*models.SEOPage, error) {
	query, args, err := psql.Select(seoPageColumns...).
		From("seo_pages").
		Where(sq.Eq{"slug": slug, "published": true}).
		ToSql()
	if err != nil {
		return nil, err
	}
	page, err := scanSEOPage(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, Classify(err)
	}
	return page, nil
}

// ListPublished returns published pages, most recently updated first.
func (r *SEOPageRepository) ListPublished(ctx context.Context, page Page) ([]models.SEOPage, error) {
	query, args, err := listPublishedSEOPagesQuery(page)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, Classify(err)
	}
	defer rows.Close()

	var list []models.SEOPage
	for rows.Next() {
		p, err := scanSEOPage(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *p)
	}
	return list, Classify(rows.Err())
}

func listPublishedSEOPagesQuery(page Page) (string, []any, error) {
	page = page.Normalized()
	return psql.Select(seoPageColumns...).
		From("seo_pages").
		Where(sq.Eq{"published": true}).
		OrderBy("updated_at DESC").
		Limit(page.Limit).
		Offset(page.Offset).
		ToSql()
}

func scanSEOPage(row pgx.Row) (*models.SEOPage, error) {
	var (
		p        models.SEOPage
		sections []byte
		faq      []byte
	)
	if err := row.Scan(
		&p.ID,
		&p.Keyword,
		&p.Slug,
		&p.Title,
		&p.MetaDescription,
		&p.Intro,
		&sections,
		&faq,
		&p.RelatedToolIDs,
		&p.ImageURL,
		&p.CanonicalURL,
		&p.Provider,
		&p.Published,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(sections, &p.Sections); err != nil {
		return nil, fmt.Errorf("decode sections: %w", err)
	}
	if err := json.Unmarshal(faq, &p.FAQ); err != nil {
		return nil, fmt.Errorf("decode faq: %w", err)
	}
	return &p, nil
}

func nonNilSections(s []models.Section) []models.Section {
	if s == nil {
		return []models.Section{}
	}
	return s
}

func nonNilFAQ(f []models.FAQ) []models.FAQ {
	if f == nil {
		return []models.FAQ{}
	}
	return f
}

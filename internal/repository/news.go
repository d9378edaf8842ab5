package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/toolsdir/api/internal/models"
)

// NewsRepository stores summarised news items keyed by URL.
type NewsRepository struct {
	db DBTX
}

func NewNewsRepository(db DBTX) *NewsRepository {
	return &NewsRepository{db: db}
}

// Upsert inserts the item or refreshes the summary of an already known URL.
func (r *NewsRepository) Upsert(ctx context.Context, item *models.NewsItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO news_items (id, url, headline, summary, takeaway, source, provider)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (url) DO UPDATE SET
			headline = EXCLUDED.headline,
			summary = EXCLUDED.summary,
			takeaway = EXCLUDED.takeaway,
			source = EXCLUDED.source,
			provider = EXCLUDED.provider,
			fetched_at = NOW()
		RETURNING id, fetched_at`,
		item.ID,
		item.URL,
		item.Headline,
		item.Summary,
		item.Takeaway,
		item.Source,
		item.Provider,
	).Scan(&item.ID, &item.FetchedAt)
	return Classify(err)
}

// ListLatest returns the newest items first.
func (r *NewsRepository) ListLatest(ctx context.Context, page Page) ([]models.NewsItem, error) {
	page = page.Normalized()
	query, args, err := psql.Select("id", "url", "headline", "summary", "takeaway", "source", "provider", "fetched_at").
		From("news_items").
		OrderBy("fetched_at DESC").
		Limit(page.Limit).
		Offset(page.Offset).
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, Classify(err)
	}
	defer rows.Close()

	var list []models.NewsItem
	for rows.Next() {
		var n models.NewsItem
		if err := rows.Scan(&n.ID, &n.URL, &n.Headline, &n.Summary, &n.Takeaway, &n.Source, &n.Provider, &n.FetchedAt); err != nil {
			return nil, err
		}
		list = append(list, n)
	}
	return list, Classify(rows.Err())
}

package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/toolsdir/api/internal/models"
)

// ToolRepository stores tools found by discovery and answers related-tool lookups.
type ToolRepository struct {
	db DBTX
}

func NewToolRepository(db DBTX) *ToolRepository {
	return &ToolRepository{db: db}
}

// InsertIfAbsent adds the tool unless its slug exists. It reports whether a row was written.
func (r *ToolRepository) InsertIfAbsent(ctx context.Context, tool *models.Tool) (bool, error) {
	if tool.ID == uuid.Nil {
		tool.ID = uuid.New()
	}
	tag, err := r.db.Exec(ctx, `
		INSERT INTO tools (id, slug, name, website, category, description, source_query)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (slug) DO NOTHING`,
		tool.ID,
		tool.Slug,
		tool.Name,
		tool.Website,
		tool.Category,
		tool.Description,
		tool.SourceQuery,
	)
	if err != nil {
		return false, Classify(err)
	}
	return tag.RowsAffected() == 1, nil
}

// RelatedIDs returns up to limit tool ids whose category matches one of categories
// (case-insensitive).
func (r *ToolRepository) RelatedIDs(ctx context.Context, categories []string, limit uint64) ([]uuid.UUID, error) {
	if len(categories) == 0 {
		return nil, nil
	}
	query, args, err := relatedToolsQuery(categories, limit)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, Classify(err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, Classify(rows.Err())
}

func relatedToolsQuery(categories []string, limit uint64) (string, []any, error) {
	or := sq.Or{}
	for _, c := range categories {
		or = append(or, sq.ILike{"category": c})
	}
	if limit == 0 {
		limit = 6
	}
	return psql.Select("id").
		From("tools").
		Where(or).
		OrderBy("created_at DESC").
		Limit(limit).
		ToSql()
}

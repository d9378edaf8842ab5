package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/toolsdir/api/internal/models"
)

// PromptRepository stores prompts found by discovery.
type PromptRepository struct {
	db DBTX
}

func NewPromptRepository(db DBTX) *PromptRepository {
	return &PromptRepository{db: db}
}

// InsertIfAbsent adds the prompt unless its slug exists. It reports whether a row was written.
func (r *PromptRepository) InsertIfAbsent(ctx context.Context, prompt *models.Prompt) (bool, error) {
	if prompt.ID == uuid.Nil {
		prompt.ID = uuid.New()
	}
	tag, err := r.db.Exec(ctx, `
		INSERT INTO prompts (id, slug, title, body, category, source_query)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (slug) DO NOTHING`,
		prompt.ID,
		prompt.Slug,
		prompt.Title,
		prompt.Body,
		prompt.Category,
		prompt.SourceQuery,
	)
	if err != nil {
		return false, Classify(err)
	}
	return tag.RowsAffected() == 1, nil
}

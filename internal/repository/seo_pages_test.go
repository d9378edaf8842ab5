package repository

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toolsdir/api/internal/models"
)

// pageRows stores upserted seo_pages rows keyed by slug and serves them back
// in seoPageColumns order.
type pageRows struct {
	rows map[string][]any
	now  time.Time
}

func (db *pageRows) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errors.New("exec not supported")
}

func (db *pageRows) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("query not supported")
}

func (db *pageRows) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	if strings.Contains(sql, "INSERT INTO seo_pages") {
		db.rows[args[2].(string)] = append([]any(nil), args...)
		return valuesRow{args[0], db.now, db.now, true}
	}
	if !strings.Contains(sql, "canonical_url") {
		return valuesRow{}
	}
	for _, arg := range args {
		if slug, ok := arg.(string); ok {
			if row, ok := db.rows[slug]; ok {
				return append(valuesRow{}, append(row, db.now, db.now)...)
			}
		}
	}
	return errRow{pgx.ErrNoRows}
}

type valuesRow []any

func (r valuesRow) Scan(dest ...any) error {
	if len(dest) != len(r) {
		return errors.New("column count mismatch")
	}
	for i, d := range dest {
		reflect.ValueOf(d).Elem().Set(reflect.ValueOf(r[i]))
	}
	return nil
}

type errRow struct{ err error }

func (r errRow) Scan(...any) error { return r.err }

func TestSEOPageCanonicalURLRoundTrip(t *testing.T) {
	db := &pageRows{rows: map[string][]any{}, now: time.Now().UTC()}
	repo := NewSEOPageRepository(db)
	ctx := context.Background()

	inserted, err := repo.Upsert(ctx, &models.SEOPage{
		Keyword:      "ai writing tools",
		Slug:         "ai-writing-tools",
		Title:        "AI Writing Tools",
		CanonicalURL: "https://example.com/seo/ai-writing-tools",
		Provider:     "anthropic",
		Published:    true,
	})
	require.NoError(t, err)
	assert.True(t, inserted)

	page, err := repo.GetPublishedBySlug(ctx, "ai-writing-tools")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/seo/ai-writing-tools", page.CanonicalURL)
	assert.Equal(t, "AI Writing Tools", page.Title)

	_, err = repo.GetPublishedBySlug(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

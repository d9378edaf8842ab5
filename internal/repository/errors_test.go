package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"undefined table", &pgconn.PgError{Code: "42P01", Message: `relation "agent_events" does not exist`}, ErrRelationNotFound},
		{"wrapped undefined table", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "42P01"}), ErrRelationNotFound},
		{"unique violation", &pgconn.PgError{Code: "23505"}, ErrDuplicate},
		{"no rows", pgx.ErrNoRows, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			assert.ErrorIs(t, got, tt.want)
			assert.ErrorIs(t, got, tt.err, "driver error stays in the chain")
		})
	}
}

func TestClassifyPassesThroughOtherErrors(t *testing.T) {
	assert.NoError(t, Classify(nil))

	other := &pgconn.PgError{Code: "53300"}
	got := Classify(other)
	assert.Same(t, other, got)
	assert.False(t, errors.Is(got, ErrRelationNotFound))
	assert.False(t, errors.Is(got, ErrDuplicate))

	plain := errors.New("connection reset")
	assert.Equal(t, plain, Classify(plain))
}

func TestIsRelationNotFound(t *testing.T) {
	assert.True(t, IsRelationNotFound(&pgconn.PgError{Code: "42P01"}))
	assert.False(t, IsRelationNotFound(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsRelationNotFound(nil))
}

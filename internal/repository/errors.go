package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL error codes the gateway distinguishes.
const (
	pgUndefinedTable  = "42P01"
	pgUniqueViolation = "23505"
)

var (
	// ErrRelationNotFound means the target table does not exist yet (schema not migrated).
	// Callers treat it as a silent no-op.
	ErrRelationNotFound = errors.New("relation not found")
	// ErrDuplicate means a unique constraint rejected the write.
	ErrDuplicate = errors.New("duplicate record")
	// ErrNotFound means a lookup matched no row.
	ErrNotFound = errors.New("record not found")
)

// Classify maps driver errors onto the gateway's sentinel errors. The original
// error stays in the chain so callers can still log the driver message.
// Unknown errors are returned unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUndefinedTable:
			return fmt.Errorf("%w: %w", ErrRelationNotFound, err)
		case pgUniqueViolation:
			return fmt.Errorf("%w: %w", ErrDuplicate, err)
		}
	}
	return err
}

// IsRelationNotFound reports whether err classifies as ErrRelationNotFound.
func IsRelationNotFound(err error) bool {
	return errors.Is(Classify(err), ErrRelationNotFound)
}

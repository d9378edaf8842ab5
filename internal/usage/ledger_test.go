package usage

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toolsdir/api/internal/models"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type execDB struct {
	err  error
	sql  string
	args []any
}

func (d *execDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	d.sql, d.args = sql, args
	return pgconn.NewCommandTag("INSERT 0 1"), d.err
}

func (d *execDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (d *execDB) QueryRow(context.Context, string, ...any) pgx.Row {
	return nil
}

func TestLedgerRecord(t *testing.T) {
	db := &execDB{}
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewLedger(db, zap.New(core))

	l.Record(context.Background(), models.GenerationLog{
		RequestID: "req-9", Agent: "cold-email", Provider: "anthropic", Model: "claude",
		InputTokens: 10, OutputTokens: 20, LatencyMS: 1500,
	})

	require.Contains(t, db.sql, "INSERT INTO generation_logs")
	require.Len(t, db.args, 7)
	assert.Equal(t, "req-9", db.args[0])
	assert.Equal(t, "claude", *db.args[3].(*string))
	assert.Equal(t, int64(1500), db.args[6])
	assert.Zero(t, logs.Len())
}

func TestLedgerRecordFallbackHasNullModel(t *testing.T) {
	db := &execDB{}
	l := NewLedger(db, zap.NewNop())
	l.Record(context.Background(), models.GenerationLog{RequestID: "r", Agent: "a", Provider: "fallback"})
	assert.Nil(t, db.args[3].(*string))
}

func TestLedgerRecordFailures(t *testing.T) {
	t.Run("missing table is a debug no-op", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		l := NewLedger(&execDB{err: &pgconn.PgError{Code: "42P01"}}, zap.New(core))
		l.Record(context.Background(), models.GenerationLog{RequestID: "r"})

		require.Equal(t, 1, logs.Len())
		assert.Equal(t, zapcore.DebugLevel, logs.All()[0].Level)
	})

	t.Run("other errors are logged", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		l := NewLedger(&execDB{err: errors.New("connection reset")}, zap.New(core))
		l.Record(context.Background(), models.GenerationLog{RequestID: "r"})

		require.Equal(t, 1, logs.Len())
		assert.Equal(t, zapcore.ErrorLevel, logs.All()[0].Level)
	})

	t.Run("nil ledger", func(t *testing.T) {
		var l *Ledger
		assert.NotPanics(t, func() { l.Record(context.Background(), models.GenerationLog{}) })
	})
}

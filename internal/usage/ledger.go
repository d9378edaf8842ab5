// Package usage keeps the generation ledger: one row per agent generation with
// provider, model, token counts and latency.
package usage

import (
	"context"
	"errors"
	"time"

	"github.com/toolsdir/api/internal/models"
	"github.com/toolsdir/api/internal/repository"
	"go.uber.org/zap"
)

const writeTimeout = 2 * time.Second

// Ledger writes generation logs. Failures are logged and never returned.
type Ledger struct {
	db     repository.DBTX
	logger *zap.Logger
}

func NewLedger(db repository.DBTX, logger *zap.Logger) *Ledger {
	return &Ledger{db: db, logger: logger}
}

// Record stores entry. It outlives the caller's cancellation but is bounded
// by its own short timeout.
func (l *Ledger) Record(ctx context.Context, entry models.GenerationLog) {
	if l == nil || l.db == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()

	var model *string
	if entry.Model != "" {
		model = &entry.Model
	}
	_, err := l.db.Exec(ctx, `
		INSERT INTO generation_logs (request_id, agent, provider, model, input_tokens, output_tokens, latency_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.RequestID,
		entry.Agent,
		entry.Provider,
		model,
		entry.InputTokens,
		entry.OutputTokens,
		entry.LatencyMS,
	)
	if err == nil {
		return
	}

	err = repository.Classify(err)
	if errors.Is(err, repository.ErrRelationNotFound) {
		l.logger.Debug("generation_logs table missing, usage not recorded", zap.String("request_id", entry.RequestID))
		return
	}
	l.logger.Error("failed to record generation usage",
		zap.String("request_id", entry.RequestID),
		zap.String("agent", entry.Agent),
		zap.Error(err),
	)
}

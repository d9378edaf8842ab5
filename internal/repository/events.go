package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/toolsdir/api/internal/models"
)

// EventRepository appends agent usage events. Rows are never updated or deleted.
type EventRepository struct {
	db DBTX
}

func NewEventRepository(db DBTX) *EventRepository {
	return &EventRepository{db: db}
}

// Insert stores the event. The caller assigns the ID so it can answer before
// the write completes.
func (r *EventRepository) Insert(ctx context.Context, event *models.AgentEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	payload := event.Payload
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO agent_events (id, agent_id, event_type, user_id, session_id, payload)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`,
		event.ID,
		event.AgentID,
		event.EventType,
		event.UserID,
		event.SessionID,
		payload,
	).Scan(&event.CreatedAt)
	return Classify(err)
}

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/toolsdir/api/internal/eventbus"
	"github.com/toolsdir/api/internal/middleware"
	"github.com/toolsdir/api/internal/models"
	"github.com/toolsdir/api/internal/repository"
	"go.uber.org/zap"
)

type EventInserter interface {
	Insert(ctx context.Context, event *models.AgentEvent) error
}

// EventHandler records client-reported agent events. Logging is fail-open:
// the caller always gets an id back.
type EventHandler struct {
	events EventInserter
	store  eventbus.EventStore
	logger *zap.Logger
}

// NewEventHandler creates a new event handler. events and store may be nil.
func NewEventHandler(events EventInserter, store eventbus.EventStore, logger *zap.Logger) *EventHandler {
	return &EventHandler{events: events, store: store, logger: logger}
}

// LogEventRequest is the request body of POST /agents/events
type LogEventRequest struct {
	AgentID   string          `json:"agentId"`
	EventType string          `json:"eventType"`
	UserID    string          `json:"userId"`
	SessionID string          `json:"sessionId"`
	Payload   json.RawMessage `json:"payload"`
}

// Log stores one event
// @Summary Log an agent event
// @Tags agents
// @Accept json
// @Produce json
// @Param event body LogEventRequest true "Event"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]middleware.APIError
// @Router /agents/events [post]
func (h *EventHandler) Log(c *gin.Context) {
	var req LogEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.BadRequest(c, "invalid JSON body")
		return
	}
	req.AgentID = strings.TrimSpace(req.AgentID)
	req.EventType = strings.TrimSpace(req.EventType)
	if req.AgentID == "" || req.EventType == "" {
		middleware.BadRequest(c, "agentId and eventType are required")
		return
	}

	event := &models.AgentEvent{
		ID:        uuid.New(),
		AgentID:   req.AgentID,
		EventType: req.EventType,
		UserID:    optional(req.UserID),
		SessionID: optional(req.SessionID),
		Payload:   req.Payload,
		CreatedAt: time.Now().UTC(),
	}
	h.persist(c.Request.Context(), event)
	h.mirror(event)

	c.JSON(http.StatusOK, gin.H{"ok": true, "id": event.ID})
}

func (h *EventHandler) persist(ctx context.Context, event *models.AgentEvent) {
	if h.events == nil {
		return
	}
	err := h.events.Insert(ctx, event)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrRelationNotFound):
		h.logger.Debug("agent_events table missing, event dropped", zap.String("event_id", event.ID.String()))
	default:
		h.logger.Error("failed to store agent event",
			zap.String("event_id", event.ID.String()),
			zap.String("agent_id", event.AgentID),
			zap.Error(err),
		)
	}
}

func (h *EventHandler) mirror(event *models.AgentEvent) {
	if h.store == nil {
		return
	}
	subject := eventbus.SubjectAgentEvents + "." + subjectToken(event.AgentID)
	if err := h.store.Append(subject, event.ID.String(), event); err != nil {
		h.logger.Debug("agent event not mirrored", zap.String("subject", subject), zap.Error(err))
	}
}

func subjectToken(s string) string {
	if slug := models.Slugify(s); slug != "" {
		return slug
	}
	return "unknown"
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

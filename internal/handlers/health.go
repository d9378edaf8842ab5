package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	serviceName    = "toolsdir-api"
	serviceVersion = "0.1.0"
)

// Pinger is satisfied by *database.Postgres and *database.Redis.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthDeps are the dependencies reported by /health/deep. Nil members are
// reported as "not configured".
type HealthDeps struct {
	Database Pinger
	Redis    Pinger
	NATS     interface{ Connected() bool }
	Provider interface{ Configured() bool }
}

// HealthHandler handles health check endpoints
type HealthHandler struct {
	deps HealthDeps
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(deps HealthDeps) *HealthHandler {
	return &HealthHandler{deps: deps}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status       string            `json:"status"`
	Service      string            `json:"service"`
	Version      string            `json:"version"`
	Dependencies map[string]string `json:"dependencies"`
}

// Health returns basic health status
// @Summary Liveness probe
// @Tags ops
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
		"version": serviceVersion,
	})
}

// DeepHealth returns health status with dependency checks
// @Summary Readiness probe with dependency checks
// @Tags ops
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health/deep [get]
func (h *HealthHandler) DeepHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	deps := make(map[string]string)
	allHealthy := true

	ping := func(name string, p Pinger) {
		if p == nil {
			deps[name] = "not configured"
			return
		}
		if err := p.Ping(ctx); err != nil {
			deps[name] = "unhealthy: " + err.Error()
			allHealthy = false
			return
		}
		deps[name] = "healthy"
	}
	ping("database", h.deps.Database)
	ping("redis", h.deps.Redis)

	switch {
	case h.deps.NATS == nil:
		deps["nats"] = "not configured"
	case h.deps.NATS.Connected():
		deps["nats"] = "healthy"
	default:
		deps["nats"] = "disconnected"
		allHealthy = false
	}

	// No credential is a supported mode: every agent serves fallback content.
	if h.deps.Provider != nil && h.deps.Provider.Configured() {
		deps["anthropic"] = "configured"
	} else {
		deps["anthropic"] = "fallback only"
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if !allHealthy {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, HealthResponse{
		Status:       status,
		Service:      serviceName,
		Version:      serviceVersion,
		Dependencies: deps,
	})
}

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/toolsdir/api/internal/agent"
	"github.com/toolsdir/api/internal/middleware"
	"go.uber.org/zap"
)

// AgentRunner is implemented by *agent.Orchestrator.
type AgentRunner interface {
	Registry() *agent.Registry
	Run(ctx context.Context, name string, payload any, rc agent.RequestContext) (*agent.Result, error)
}

// AgentHandler serves the content agents.
type AgentHandler struct {
	agents AgentRunner
	logger *zap.Logger
}

// NewAgentHandler creates a new agent handler
func NewAgentHandler(agents AgentRunner, logger *zap.Logger) *AgentHandler {
	return &AgentHandler{agents: agents, logger: logger}
}

// AgentInfo describes one agent in GET /agents.
type AgentInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Required    []string `json:"required"`
	Optional    []string `json:"optional,omitempty"`
	Outputs     []string `json:"outputs"`
}

// List returns the available agents
// @Summary List agents
// @Tags agents
// @Produce json
// @Success 200 {object} map[string][]AgentInfo
// @Router /agents [get]
func (h *AgentHandler) List(c *gin.Context) {
	reg := h.agents.Registry()
	infos := make([]AgentInfo, 0, len(reg.Names()))
	for _, name := range reg.Names() {
		def, _ := reg.Get(name)
		infos = append(infos, AgentInfo{
			Name:        def.Name,
			Description: def.Description,
			Required:    def.Required,
			Optional:    def.Optional,
			Outputs:     def.Outputs,
		})
	}
	c.JSON(http.StatusOK, gin.H{"agents": infos})
}

// Generate runs one agent
// @Summary Run an agent
// @Description Validates the payload and returns generated content. Provider failures degrade to fallback content.
// @Tags agents
// @Accept json
// @Produce json
// @Param agent path string true "Agent name"
// @Success 200 {object} agent.Result
// @Failure 400 {object} map[string]middleware.APIError
// @Failure 404 {object} map[string]middleware.APIError
// @Router /agents/{agent} [post]
func (h *AgentHandler) Generate(c *gin.Context) {
	name := c.Param("agent")
	if _, ok := h.agents.Registry().Get(name); !ok {
		middleware.NotFound(c, "unknown agent: "+name)
		return
	}

	var payload any
	dec := json.NewDecoder(c.Request.Body)
	if err := dec.Decode(&payload); err != nil {
		middleware.BadRequest(c, "invalid JSON body")
		return
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		middleware.BadRequest(c, "unexpected data after JSON body")
		return
	}

	rc := agent.RequestContext{
		RequestID: middleware.GetRequestID(c),
		ClientIP:  c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		UserID:    userIDFrom(payload),
	}

	result, err := h.agents.Run(c.Request.Context(), name, payload, rc)
	if err != nil {
		var verr *agent.ValidationError
		switch {
		case errors.As(err, &verr):
			middleware.BadRequest(c, verr.Message)
		case errors.Is(err, agent.ErrUnknownAgent):
			middleware.NotFound(c, err.Error())
		default:
			h.logger.Error("agent run failed", zap.String("agent", name), zap.Error(err))
			middleware.InternalError(c, "generation failed")
		}
		return
	}
	c.JSON(http.StatusOK, result)
}

func userIDFrom(payload any) string {
	obj, ok := payload.(map[string]any)
	if !ok {
		return ""
	}
	id, _ := obj["userId"].(string)
	return id
}

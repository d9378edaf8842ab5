package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/toolsdir/api/internal/jobs"
	"github.com/toolsdir/api/internal/middleware"
	"github.com/toolsdir/api/internal/models"
	"go.uber.org/zap"
)

const maxTriggerBody = 1 << 20

// JobQueue is implemented by *jobs.Runner.
type JobQueue interface {
	Registry() *jobs.Registry
	Status() jobs.StatusStore
	Queue(ctx context.Context, in models.JobInput) *jobs.RunRecord
	MarkFailed(ctx context.Context, rec *jobs.RunRecord, reason string)
}

// JobHandler triggers batch jobs and reports their runs. Authorization is
// enforced by middleware.RequireJobAuth on the route group.
type JobHandler struct {
	queue      JobQueue
	dispatcher jobs.Dispatcher
	logger     *zap.Logger
}

// NewJobHandler creates a new job handler
func NewJobHandler(queue JobQueue, dispatcher jobs.Dispatcher, logger *zap.Logger) *JobHandler {
	return &JobHandler{queue: queue, dispatcher: dispatcher, logger: logger}
}

// TriggerJobRequest is the optional body of POST /jobs/{job}
type TriggerJobRequest struct {
	Items []string `json:"items"`
}

// Trigger starts a job run and returns before it finishes
// @Summary Trigger a batch job
// @Tags jobs
// @Accept json
// @Produce json
// @Security Bearer
// @Param job path string true "Job name"
// @Param item query []string false "Items to process"
// @Success 202 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /jobs/{job} [post]
func (h *JobHandler) Trigger(c *gin.Context) {
	name := c.Param("job")

	items, err := h.queue.Registry().Items(name, h.requestedItems(c))
	if err != nil {
		if errors.Is(err, jobs.ErrUnknownJob) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Unknown job: " + name})
			return
		}
		h.logger.Error("failed to resolve job items", zap.String("job", name), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to start job"})
		return
	}

	in := models.JobInput{RunID: uuid.NewString(), Job: name, Items: items}
	rec := h.queue.Queue(c.Request.Context(), in)

	if err := h.dispatcher.Dispatch(c.Request.Context(), in); err != nil {
		h.logger.Error("failed to dispatch job", zap.String("job", name), zap.String("run_id", in.RunID), zap.Error(err))
		h.queue.MarkFailed(context.WithoutCancel(c.Request.Context()), rec, err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to start job"})
		return
	}

	h.logger.Info("job triggered", zap.String("job", name), zap.String("run_id", in.RunID), zap.Int("items", len(items)))
	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "Job started",
		"jobId":   in.RunID,
	})
}

// requestedItems reads items from the JSON body or repeated ?item= query
// parameters. A malformed body is ignored, the job then runs on its seeds.
func (h *JobHandler) requestedItems(c *gin.Context) []string {
	items := c.QueryArray("item")
	if c.Request.Body == nil || c.Request.Method != http.MethodPost {
		return items
	}
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxTriggerBody))
	if err != nil || len(strings.TrimSpace(string(body))) == 0 {
		return items
	}
	var req TriggerJobRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.logger.Warn("ignoring malformed job trigger body", zap.String("job", c.Param("job")), zap.Error(err))
		return items
	}
	return append(items, req.Items...)
}

// GetRun returns one run record
// @Summary Get a job run
// @Tags jobs
// @Produce json
// @Security Bearer
// @Param id path string true "Run id"
// @Success 200 {object} jobs.RunRecord
// @Failure 404 {object} map[string]middleware.APIError
// @Router /jobs/runs/{id} [get]
func (h *JobHandler) GetRun(c *gin.Context) {
	h.respondRun(c, func(ctx context.Context, s jobs.StatusStore) (*jobs.RunRecord, error) {
		return s.Get(ctx, c.Param("id"))
	})
}

// LatestRun returns the most recent run of a job
// @Summary Get the latest run of a job
// @Tags jobs
// @Produce json
// @Security Bearer
// @Param job path string true "Job name"
// @Success 200 {object} jobs.RunRecord
// @Failure 404 {object} map[string]middleware.APIError
// @Router /jobs/runs/latest/{job} [get]
func (h *JobHandler) LatestRun(c *gin.Context) {
	h.respondRun(c, func(ctx context.Context, s jobs.StatusStore) (*jobs.RunRecord, error) {
		return s.Latest(ctx, c.Param("job"))
	})
}

func (h *JobHandler) respondRun(c *gin.Context, get func(context.Context, jobs.StatusStore) (*jobs.RunRecord, error)) {
	store := h.queue.Status()
	if store == nil {
		notFoundRun(c)
		return
	}
	rec, err := get(c.Request.Context(), store)
	if err != nil {
		if !errors.Is(err, jobs.ErrRunNotFound) {
			h.logger.Error("failed to read job status", zap.Error(err))
		}
		notFoundRun(c)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func notFoundRun(c *gin.Context) {
	middleware.NotFound(c, jobs.ErrRunNotFound.Error())
}

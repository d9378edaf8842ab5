package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/toolsdir/api/internal/middleware"
	"github.com/toolsdir/api/internal/models"
	"github.com/toolsdir/api/internal/repository"
	"go.uber.org/zap"
)

type PageReader interface {
	GetPublishedBySlug(ctx context.Context, slug string) (*models.SEOPage, error)
	ListPublished(ctx context.Context, page repository.Page) ([]models.SEOPage, error)
}

type NewsReader interface {
	ListLatest(ctx context.Context, page repository.Page) ([]models.NewsItem, error)
}

// ContentHandler serves generated SEO pages and news items read-only.
type ContentHandler struct {
	pages  PageReader
	news   NewsReader
	logger *zap.Logger
}

// NewContentHandler creates a new content handler. Nil readers answer 503.
func NewContentHandler(pages PageReader, news NewsReader, logger *zap.Logger) *ContentHandler {
	return &ContentHandler{pages: pages, news: news, logger: logger}
}

// ListPages returns published SEO pages, newest first
// @Summary List SEO pages
// @Tags content
// @Produce json
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Offset"
// @Success 200 {object} map[string]interface{}
// @Router /seo/pages [get]
func (h *ContentHandler) ListPages(c *gin.Context) {
	if h.pages == nil {
		middleware.ServiceUnavailable(c, "database not configured")
		return
	}
	page := pageFromQuery(c)
	pages, err := h.pages.ListPublished(c.Request.Context(), page)
	if err != nil && !errors.Is(err, repository.ErrRelationNotFound) {
		h.logger.Error("failed to list seo pages", zap.Error(err))
		middleware.DatabaseError(c)
		return
	}
	if pages == nil {
		pages = []models.SEOPage{}
	}
	c.JSON(http.StatusOK, gin.H{"pages": pages, "limit": page.Limit, "offset": page.Offset})
}

// GetPage returns one published SEO page
// @Summary Get an SEO page
// @Tags content
// @Produce json
// @Param slug path string true "Page slug"
// @Success 200 {object} models.SEOPage
// @Failure 404 {object} map[string]middleware.APIError
// @Router /seo/pages/{slug} [get]
func (h *ContentHandler) GetPage(c *gin.Context) {
	if h.pages == nil {
		middleware.ServiceUnavailable(c, "database not configured")
		return
	}
	p, err := h.pages.GetPublishedBySlug(c.Request.Context(), c.Param("slug"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, p)
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, repository.ErrRelationNotFound):
		middleware.NotFound(c, "page not found")
	default:
		h.logger.Error("failed to get seo page", zap.String("slug", c.Param("slug")), zap.Error(err))
		middleware.DatabaseError(c)
	}
}

// ListNews returns the latest news items
// @Summary List news items
// @Tags content
// @Produce json
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Offset"
// @Success 200 {object} map[string]interface{}
// @Router /news [get]
func (h *ContentHandler) ListNews(c *gin.Context) {
	if h.news == nil {
		middleware.ServiceUnavailable(c, "database not configured")
		return
	}
	page := pageFromQuery(c)
	items, err := h.news.ListLatest(c.Request.Context(), page)
	if err != nil && !errors.Is(err, repository.ErrRelationNotFound) {
		h.logger.Error("failed to list news", zap.Error(err))
		middleware.DatabaseError(c)
		return
	}
	if items == nil {
		items = []models.NewsItem{}
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "limit": page.Limit, "offset": page.Offset})
}

// pageFromQuery reads limit/offset; bad values fall back to the repository defaults.
func pageFromQuery(c *gin.Context) repository.Page {
	limit, _ := strconv.ParseUint(c.Query("limit"), 10, 64)
	offset, _ := strconv.ParseUint(c.Query("offset"), 10, 64)
	return repository.Page{Limit: limit, Offset: offset}.Normalized()
}

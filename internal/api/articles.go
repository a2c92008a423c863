package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/secnews/internal/logger"
	"github.com/jonesrussell/secnews/internal/storage"
)

// Pagination bounds for the list endpoint.
const (
	defaultLimit = 20
	maxLimit     = 100
)

// articleHandler serves the read-only article routes.
type articleHandler struct {
	store  storage.Interface
	logger logger.Interface
}

// health reports whether the storage backend answers.
func (h *articleHandler) health(c *gin.Context) {
	if err := h.store.TestConnection(c.Request.Context()); err != nil {
		h.logger.Error("Storage unavailable", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// list serves GET /articles with skip and limit pagination.
func (h *articleHandler) list(c *gin.Context) {
	skip, err := queryInt(c, "skip", 0)
	if err != nil || skip < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "skip must be a non-negative integer"})
		return
	}
	limit, err := queryInt(c, "limit", defaultLimit)
	if err != nil || limit < 1 || limit > maxLimit {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 100"})
		return
	}

	articles, err := h.store.List(c.Request.Context(), skip, limit)
	if err != nil {
		h.logger.Error("Failed to list articles", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list articles"})
		return
	}
	c.JSON(http.StatusOK, articles)
}

// getOrSearch serves GET /articles/:id, dispatching the reserved
// "search" segment to the search handler.
func (h *articleHandler) getOrSearch(c *gin.Context) {
	id := c.Param("id")
	if id == "search" {
		h.search(c)
		return
	}

	article, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
			return
		}
		h.logger.Error("Failed to get article", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get article"})
		return
	}
	c.JSON(http.StatusOK, article)
}

// search serves GET /articles/search?q=.
func (h *articleHandler) search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return
	}

	articles, err := h.store.Search(c.Request.Context(), query)
	if err != nil {
		h.logger.Error("Search failed", "query", query, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}
	c.JSON(http.StatusOK, articles)
}

// queryInt parses an optional integer query parameter.
func queryInt(c *gin.Context, name string, fallback int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

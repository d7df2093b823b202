package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/poliqa/poliqa/pkg/orchestrator"
	"github.com/poliqa/poliqa/pkg/server/dto"
	"github.com/poliqa/poliqa/pkg/types"
)

// Engine is the slice of the root client the handlers need.
type Engine interface {
	Search(ctx context.Context, req *types.SearchRequest) (*types.SearchResponse, error)
	CacheStats() orchestrator.CacheStats
	Health(ctx context.Context) error
}

// SearchHandler handles query requests
type SearchHandler struct {
	engine Engine
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(engine Engine) *SearchHandler {
	return &SearchHandler{engine: engine}
}

// Search handles POST /api/v1/search
func (h *SearchHandler) Search(c *gin.Context) {
	var query dto.SearchQuery
	if err := c.ShouldBindJSON(&query); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	resp, err := h.engine.Search(c.Request.Context(), query.ToRequest())
	if err != nil {
		// Only malformed requests error; pipeline failures degrade inside
		// the response.
		if errors.Is(err, types.ErrEmptyQuery) || errors.Is(err, types.ErrInvalidTopK) {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error:   "invalid_request",
				Message: err.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "search_failed",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Stats handles GET /api/v1/stats
func (h *SearchHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"cache": h.engine.CacheStats(),
	})
}

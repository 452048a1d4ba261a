package handlers

import (
	"github.com/gin-gonic/gin"

	"vitrina/internal/search"
)

// SearchHandler serves catalog-wide text search.
type SearchHandler struct {
	*BaseHandler
	aggregator *search.Aggregator
}

// NewSearchHandler creates a search handler.
func NewSearchHandler(aggregator *search.Aggregator) *SearchHandler {
	return &SearchHandler{BaseHandler: NewBaseHandler(), aggregator: aggregator}
}

// Search handles GET /search?q=text
func (h *SearchHandler) Search(c *gin.Context) {
	h.OK(c, h.aggregator.Search(c.Request.Context(), c.Query("q")))
}

package handlers

import (
	"github.com/gin-gonic/gin"

	"vitrina/internal/core/apperror"
	"vitrina/internal/currency"
)

// CurrencyHandler serves the currency registry and selection.
type CurrencyHandler struct {
	*BaseHandler
	registry *currency.Registry
}

// NewCurrencyHandler creates a currency handler.
func NewCurrencyHandler(registry *currency.Registry) *CurrencyHandler {
	return &CurrencyHandler{BaseHandler: NewBaseHandler(), registry: registry}
}

// List handles GET /currencies
func (h *CurrencyHandler) List(c *gin.Context) {
	h.OK(c, h.registry.Currencies())
}

// ListDiscounts handles GET /discounts
func (h *CurrencyHandler) ListDiscounts(c *gin.Context) {
	h.OK(c, h.registry.Discounts())
}

// Selected handles GET /currencies/selected
func (h *CurrencyHandler) Selected(c *gin.Context) {
	selected, ok := h.registry.Selected()
	if !ok {
		h.Error(c, apperror.NewNotFound("selected currency", nil))
		return
	}
	h.OK(c, selected)
}

type selectCurrencyRequest struct {
	ID int64 `json:"id" binding:"required"`
}

// Select handles PUT /currencies/selected
func (h *CurrencyHandler) Select(c *gin.Context) {
	var req selectCurrencyRequest
	if !h.BindJSON(c, &req) {
		return
	}

	for _, cur := range h.registry.Currencies() {
		if cur.ID == req.ID {
			h.registry.Select(c.Request.Context(), cur)
			h.OK(c, cur)
			return
		}
	}
	h.Error(c, apperror.NewNotFound("currency", req.ID))
}

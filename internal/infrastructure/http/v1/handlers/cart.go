package handlers

import (
	"github.com/gin-gonic/gin"

	"vitrina/internal/cart"
	"vitrina/internal/catalog"
	"vitrina/internal/core/apperror"
)

// CartHandler serves the persisted cart.
type CartHandler struct {
	*BaseHandler
	ledger   *cart.Ledger
	products *catalog.ProductService
}

// NewCartHandler creates a cart handler.
func NewCartHandler(ledger *cart.Ledger, products *catalog.ProductService) *CartHandler {
	return &CartHandler{
		BaseHandler: NewBaseHandler(),
		ledger:      ledger,
		products:    products,
	}
}

// Get handles GET /cart
func (h *CartHandler) Get(c *gin.Context) {
	h.OK(c, gin.H{
		"currency":    h.ledger.Currency(),
		"items":       h.ledger.Items(),
		"total":       h.ledger.Total(true),
		"subtotal":    h.ledger.Total(false),
		"savings":     h.ledger.Savings(),
		"hasDiscount": h.ledger.HasDiscount(),
	})
}

type cartItemRequest struct {
	ProductID int64  `json:"productId" binding:"required"`
	Quantity  *int64 `json:"quantity,omitempty"`
}

// AddItem handles POST /cart/items
func (h *CartHandler) AddItem(c *gin.Context) {
	var req cartItemRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if req.Quantity != nil && *req.Quantity < 0 {
		h.Error(c, apperror.NewValidation("quantity must not be negative"))
		return
	}

	ctx := c.Request.Context()
	p := h.products.GetByID(ctx, req.ProductID)
	if p == nil {
		h.Error(c, apperror.NewNotFound("product", req.ProductID))
		return
	}

	if req.Quantity != nil {
		h.ledger.AddItem(ctx, p, *req.Quantity)
	} else {
		h.ledger.AddItem(ctx, p)
	}
	h.Get(c)
}

// RemoveItem handles DELETE /cart/items/:id
// An optional quantity query sets the line quantity directly.
func (h *CartHandler) RemoveItem(c *gin.Context) {
	id, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	p := h.products.GetByID(ctx, id)
	if p == nil {
		h.Error(c, apperror.NewNotFound("product", id))
		return
	}

	if qty := c.Query("quantity"); qty != "" {
		h.ledger.RemoveItem(ctx, p, h.ParseIntQuery(c, "quantity", 0))
	} else {
		h.ledger.RemoveItem(ctx, p)
	}
	h.Get(c)
}

// Clear handles DELETE /cart
func (h *CartHandler) Clear(c *gin.Context) {
	h.ledger.Clear(c.Request.Context())
	h.NoContent(c)
}

package handlers

import (
	"github.com/gin-gonic/gin"

	"vitrina/internal/catalog"
	"vitrina/internal/core/apperror"
	"vitrina/internal/pricing"
)

// CatalogHandler serves departments, categories and products.
type CatalogHandler struct {
	*BaseHandler
	departments *catalog.DepartmentService
	categories  *catalog.CategoryService
	products    *catalog.ProductService
	calc        *pricing.Calculator
}

// NewCatalogHandler creates a catalog handler.
func NewCatalogHandler(
	departments *catalog.DepartmentService,
	categories *catalog.CategoryService,
	products *catalog.ProductService,
	calc *pricing.Calculator,
) *CatalogHandler {
	return &CatalogHandler{
		BaseHandler: NewBaseHandler(),
		departments: departments,
		categories:  categories,
		products:    products,
		calc:        calc,
	}
}

// ListDepartments handles GET /departments
func (h *CatalogHandler) ListDepartments(c *gin.Context) {
	h.OK(c, h.departments.GetAll(c.Request.Context()))
}

// GetDepartment handles GET /departments/:id
func (h *CatalogHandler) GetDepartment(c *gin.Context) {
	id, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}
	d := h.departments.GetByID(c.Request.Context(), id)
	if d == nil {
		h.Error(c, apperror.NewNotFound("department", id))
		return
	}
	h.OK(c, d)
}

// ListCategories handles GET /categories
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	ctx := c.Request.Context()
	if departmentID := h.ParseIntQuery(c, "department", 0); departmentID != 0 {
		h.OK(c, h.categories.GetByDepartment(ctx, departmentID))
		return
	}
	h.OK(c, h.categories.GetAll(ctx))
}

// GetCategory handles GET /categories/:id
func (h *CatalogHandler) GetCategory(c *gin.Context) {
	id, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}
	cat := h.categories.GetByID(c.Request.Context(), id)
	if cat == nil {
		h.Error(c, apperror.NewNotFound("category", id))
		return
	}
	h.OK(c, cat)
}

// ListProducts handles GET /products
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	ctx := c.Request.Context()
	if categoryID := h.ParseIntQuery(c, "category", 0); categoryID != 0 {
		h.OK(c, h.products.GetByCategory(ctx, categoryID))
		return
	}
	if departmentID := h.ParseIntQuery(c, "department", 0); departmentID != 0 {
		h.OK(c, h.products.GetByDepartment(ctx, departmentID))
		return
	}
	if tagID := h.ParseIntQuery(c, "tag", 0); tagID != 0 {
		h.OK(c, h.products.GetByTag(ctx, tagID))
		return
	}
	h.OK(c, h.products.GetAll(ctx))
}

// GetProduct handles GET /products/:id
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}
	p := h.products.GetByID(c.Request.Context(), id)
	if p == nil {
		h.Error(c, apperror.NewNotFound("product", id))
		return
	}
	h.OK(c, p)
}

// GetProductPrice handles GET /products/:id/price
// Returns the price in the selected currency with discount breakdown.
func (h *CatalogHandler) GetProductPrice(c *gin.Context) {
	id, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}
	p := h.products.GetByID(c.Request.Context(), id)
	if p == nil {
		h.Error(c, apperror.NewNotFound("product", id))
		return
	}

	body := gin.H{
		"productId":       p.ID,
		"price":           h.calc.Price(true, p),
		"priceUndiscount": h.calc.Price(false, p),
		"discountPercent": h.calc.DiscountPercent(p),
	}
	if prev, ok := h.calc.PreviousPrice(p); ok {
		body["previousPrice"] = prev
	}
	h.OK(c, body)
}

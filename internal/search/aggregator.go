// Package search runs catalog-wide text search across departments,
// categories and products.
package search

import (
	"context"
	"strings"

	"vitrina/internal/catalog"
	"vitrina/pkg/logger"
)

// Searches shorter than this return nothing; single characters match too
// much of the catalog to be useful.
const minQueryLen = 2

// Result groups the matches of one search. Products belonging to a
// matched category appear under that category only, never in the flat
// product list.
type Result struct {
	Departments []*catalog.Department `json:"departments"`
	Categories  []*catalog.Category   `json:"categories"`
	Products    []*catalog.Product    `json:"products"`
}

// Aggregator searches the catalog services and merges their matches.
type Aggregator struct {
	departments *catalog.DepartmentService
	categories  *catalog.CategoryService
	products    *catalog.ProductService
	log         *logger.Logger
}

func NewAggregator(
	departments *catalog.DepartmentService,
	categories *catalog.CategoryService,
	products *catalog.ProductService,
	log *logger.Logger,
) *Aggregator {
	return &Aggregator{
		departments: departments,
		categories:  categories,
		products:    products,
		log:         log.WithComponent("search"),
	}
}

// Search matches the normalized text against department names, category
// names and product code/description. Matched categories carry their
// products; those products are excluded from the flat product list.
func (a *Aggregator) Search(ctx context.Context, text string) Result {
	text = strings.ToLower(strings.TrimSpace(text))
	if len(text) < minQueryLen {
		return Result{}
	}

	result := Result{}

	for _, d := range a.departments.GetAll(ctx) {
		if strings.Contains(strings.ToLower(d.Name), text) {
			result.Departments = append(result.Departments, d)
		}
	}

	matchedCategories := make(map[int64]struct{})
	for _, c := range a.categories.GetAll(ctx) {
		if !strings.Contains(strings.ToLower(c.Name), text) {
			continue
		}
		matchedCategories[c.ID] = struct{}{}
		if c.Products == nil {
			c.Products = a.products.GetByCategory(ctx, c.ID)
		}
		result.Categories = append(result.Categories, c)
	}

	for _, p := range a.products.SearchText(ctx, text) {
		if _, ok := matchedCategories[p.CategoryID]; ok {
			continue
		}
		result.Products = append(result.Products, p)
	}

	a.log.Debugw("search completed",
		"text", text,
		"departments", len(result.Departments),
		"categories", len(result.Categories),
		"products", len(result.Products),
	)
	return result
}

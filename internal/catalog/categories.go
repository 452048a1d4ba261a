package catalog

import (
	"context"
	"fmt"

	"vitrina/internal/core/cache"
	"vitrina/pkg/logger"
)

// CategoryService loads categories and, on detail lookups, their product
// lists. Cached until ClearCache; failures yield empty collections.
type CategoryService struct {
	repo     Repository
	products *ProductService
	log      *logger.Logger

	all          cache.Value[[]*Category]
	byID         *cache.Map[int64, *Category]
	byDepartment *cache.Map[int64, []*Category]
}

// NewCategoryService creates a category service.
func NewCategoryService(repo Repository, products *ProductService, log *logger.Logger) *CategoryService {
	return &CategoryService{
		repo:         repo,
		products:     products,
		log:          log.WithComponent("categories"),
		byID:         cache.NewMap[int64, *Category](),
		byDepartment: cache.NewMap[int64, []*Category](),
	}
}

// ClearCache drops cached categories.
func (s *CategoryService) ClearCache() {
	s.all.Clear()
	s.byID.Clear()
	s.byDepartment.Clear()
}

// GetAll returns every category, without products attached.
func (s *CategoryService) GetAll(ctx context.Context) []*Category {
	if cached, ok := s.all.Get(); ok {
		return cached
	}

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	rows, err := s.repo.Fetch(ctx, tableCategories, Query{})
	if err != nil {
		s.log.Warnw("fetch categories failed", "error", err)
		return nil
	}

	categories := make([]*Category, 0, len(rows))
	for _, r := range rows {
		categories = append(categories, mapCategory(r))
	}

	s.all.Set(categories)
	return categories
}

// GetByID returns one category with its product list attached, or nil.
func (s *CategoryService) GetByID(ctx context.Context, id int64) *Category {
	if c, ok := s.byID.Get(id); ok {
		return c
	}

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	row, err := s.repo.FetchByID(ctx, tableCategories, id, "id")
	if err != nil {
		s.log.Warnw("fetch category failed", "category_id", id, "error", err)
		return nil
	}
	if row == nil {
		return nil
	}

	category := mapCategory(row)
	category.Products = s.products.GetByCategory(ctx, id)

	s.byID.Set(id, category)
	return category
}

// GetByDepartment returns the categories of one department.
func (s *CategoryService) GetByDepartment(ctx context.Context, departmentID int64) []*Category {
	if cached, ok := s.byDepartment.Get(departmentID); ok {
		return cached
	}

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	rows, err := s.repo.Fetch(ctx, tableCategories, Query{
		Filters: []Filter{{Column: "department_id", Operator: Equal, Value: departmentID}},
	})
	if err != nil {
		s.log.Warnw("fetch categories by department failed", "department_id", departmentID, "error", err)
		return nil
	}

	categories := make([]*Category, 0, len(rows))
	for _, r := range rows {
		categories = append(categories, mapCategory(r))
	}

	s.byDepartment.Set(departmentID, categories)
	return categories
}

func mapCategory(r Row) *Category {
	return &Category{
		ID:           r.Int64("id"),
		DepartmentID: r.Int64("department_id"),
		Name:         r.String("name"),
		ImageName:    fmt.Sprintf("category_%d.jpg", r.Int64("id")),
	}
}

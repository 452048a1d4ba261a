package catalog

import (
	"context"

	"vitrina/internal/core/cache"
	"vitrina/pkg/logger"
)

// DepartmentService loads departments. Results are cached until an
// explicit ClearCache; any failure yields an empty collection.
type DepartmentService struct {
	repo       Repository
	categories *CategoryService
	log        *logger.Logger

	all  cache.Value[[]*Department]
	byID *cache.Map[int64, *Department]
}

// NewDepartmentService creates a department service.
func NewDepartmentService(repo Repository, categories *CategoryService, log *logger.Logger) *DepartmentService {
	return &DepartmentService{
		repo:       repo,
		categories: categories,
		log:        log.WithComponent("departments"),
		byID:       cache.NewMap[int64, *Department](),
	}
}

// ClearCache drops cached departments.
func (s *DepartmentService) ClearCache() {
	s.all.Clear()
	s.byID.Clear()
}

// GetAll returns every department.
func (s *DepartmentService) GetAll(ctx context.Context) []*Department {
	if cached, ok := s.all.Get(); ok {
		return cached
	}

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	rows, err := s.repo.Fetch(ctx, tableDepartments, Query{})
	if err != nil {
		s.log.Warnw("fetch departments failed", "error", err)
		return nil
	}

	departments := make([]*Department, 0, len(rows))
	for _, r := range rows {
		departments = append(departments, &Department{
			ID:         r.Int64("id"),
			Name:       r.String("name"),
			DiscountID: r.Int64("discount_id"),
			ImageName:  imageName(r.String("name"), ""),
		})
	}

	s.all.Set(departments)
	return departments
}

// GetByID returns one department with its categories attached, or nil.
func (s *DepartmentService) GetByID(ctx context.Context, id int64) *Department {
	if d, ok := s.byID.Get(id); ok {
		return d
	}

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	row, err := s.repo.FetchByID(ctx, tableDepartments, id, "id")
	if err != nil {
		s.log.Warnw("fetch department failed", "department_id", id, "error", err)
		return nil
	}
	if row == nil {
		return nil
	}

	department := &Department{
		ID:         row.Int64("id"),
		Name:       row.String("name"),
		DiscountID: row.Int64("discount_id"),
		ImageName:  imageName(row.String("name"), ""),
	}
	department.Categories = s.categories.GetByDepartment(ctx, id)

	s.byID.Set(id, department)
	return department
}

package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vitrina/internal/catalog"
	"vitrina/pkg/logger"
)

func newTestAggregator(t *testing.T) (*Aggregator, *catalog.FakeRepository) {
	t.Helper()

	repo := catalog.NewFakeRepository()
	repo.Add("departments",
		catalog.Row{"id": int64(1), "name": "Drinks"},
		catalog.Row{"id": int64(2), "name": "Food"},
	)
	repo.Add("categories",
		catalog.Row{"id": int64(10), "department_id": int64(1), "name": "Soda"},
		catalog.Row{"id": int64(11), "department_id": int64(2), "name": "Snacks"},
	)
	repo.Add("products",
		catalog.Row{"id": int64(100), "category_id": int64(10), "code": "SOD1", "description": "Soda Cola", "active": true},
		catalog.Row{"id": int64(101), "category_id": int64(11), "code": "SNA1", "description": "Soda Crackers", "active": true},
		catalog.Row{"id": int64(102), "category_id": int64(11), "code": "SNA2", "description": "Chips", "active": true},
		catalog.Row{"id": int64(103), "category_id": int64(11), "code": "SNA3", "description": "Soda Biscuits", "active": true},
	)
	// 103 only has stock at an unsellable location.
	repo.Add("stocks",
		catalog.Row{"id": int64(1), "product_id": int64(100), "location_id": int64(1), "quantity": int64(4)},
		catalog.Row{"id": int64(2), "product_id": int64(101), "location_id": int64(1), "quantity": int64(2)},
		catalog.Row{"id": int64(3), "product_id": int64(102), "location_id": int64(1), "quantity": int64(7)},
		catalog.Row{"id": int64(4), "product_id": int64(103), "location_id": int64(2), "quantity": int64(9)},
	)

	log := logger.Nop()
	products := catalog.NewProductService(repo, []int64{1}, log)
	categories := catalog.NewCategoryService(repo, products, log)
	departments := catalog.NewDepartmentService(repo, categories, log)
	return NewAggregator(departments, categories, products, log), repo
}

func TestSearchTooShort(t *testing.T) {
	a, _ := newTestAggregator(t)
	ctx := context.Background()

	for _, q := range []string{"", "s", "  s  ", " "} {
		result := a.Search(ctx, q)
		assert.Empty(t, result.Departments, "query %q", q)
		assert.Empty(t, result.Categories, "query %q", q)
		assert.Empty(t, result.Products, "query %q", q)
	}
}

func TestSearchNormalizesText(t *testing.T) {
	a, _ := newTestAggregator(t)

	result := a.Search(context.Background(), "  DRINKS ")
	require.Len(t, result.Departments, 1)
	assert.Equal(t, int64(1), result.Departments[0].ID)
}

func TestSearchExcludesMatchedCategoryProducts(t *testing.T) {
	a, _ := newTestAggregator(t)

	// "soda" matches the Soda category, the product inside it and a
	// product in another category.
	result := a.Search(context.Background(), "soda")

	require.Len(t, result.Categories, 1)
	assert.Equal(t, int64(10), result.Categories[0].ID)
	// The matched category carries its own products.
	require.Len(t, result.Categories[0].Products, 1)
	assert.Equal(t, int64(100), result.Categories[0].Products[0].ID)

	// The flat product list only holds matches outside matched categories.
	require.Len(t, result.Products, 1)
	assert.Equal(t, int64(101), result.Products[0].ID)
}

func TestSearchExcludesOutOfStockProducts(t *testing.T) {
	a, _ := newTestAggregator(t)

	result := a.Search(context.Background(), "biscuit")
	assert.Empty(t, result.Products)

	// The flat list for a broad match also skips the out-of-stock product.
	result = a.Search(context.Background(), "soda")
	require.Len(t, result.Products, 1)
	assert.Equal(t, int64(101), result.Products[0].ID)
}

func TestSearchMatchesProductCode(t *testing.T) {
	a, _ := newTestAggregator(t)

	result := a.Search(context.Background(), "sna2")
	require.Len(t, result.Products, 1)
	assert.Equal(t, int64(102), result.Products[0].ID)
}

func TestSearchFailSoft(t *testing.T) {
	a, repo := newTestAggregator(t)
	repo.Err = errors.New("backend down")

	result := a.Search(context.Background(), "soda")
	assert.Empty(t, result.Departments)
	assert.Empty(t, result.Categories)
	assert.Empty(t, result.Products)
}

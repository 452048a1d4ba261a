package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vitrina/pkg/logger"
)

func seedCatalog(repo *FakeRepository) {
	repo.Add(tableDepartments,
		Row{"id": int64(1), "name": "Drinks"},
	)
	repo.Add(tableCategories,
		Row{"id": int64(10), "department_id": int64(1), "name": "Soda"},
		Row{"id": int64(11), "department_id": int64(1), "name": "Juice"},
	)
	repo.Add(tableProducts,
		Row{"id": int64(100), "department_id": int64(1), "category_id": int64(10), "code": "COLA", "description": "Cola 355ml", "active": true},
		Row{"id": int64(101), "department_id": int64(1), "category_id": int64(10), "code": "MALT", "description": "Malta", "active": true},
		Row{"id": int64(102), "department_id": int64(1), "category_id": int64(11), "code": "OJ", "description": "Orange Juice", "active": false},
	)
	repo.Add(tablePrices,
		Row{"id": int64(1), "product_id": int64(100), "currency_id": int64(1), "amount": 150.0},
		Row{"id": int64(2), "product_id": int64(100), "currency_id": int64(2), "amount": 0.5},
		Row{"id": int64(3), "product_id": int64(101), "currency_id": int64(1), "amount": 200.0},
	)
	repo.Add(tableProductDiscounts,
		Row{"id": int64(1), "product_id": int64(100), "discount_id": int64(10)},
	)
	repo.Add(tableDiscounts,
		Row{"id": int64(10), "value": 0.20, "name": "Electronic payment", "active": true},
	)
	repo.Add(tableProductTags,
		Row{"id": int64(1), "tag_id": int64(PriorPriceTagID), "product_id": int64(101), "value": "250"},
		Row{"id": int64(2), "tag_id": int64(PriorPriceTagID), "product_id": int64(100), "value": "180"},
	)
	repo.Add(tableStocks,
		Row{"id": int64(1), "product_id": int64(100), "location_id": int64(1), "quantity": int64(12)},
		Row{"id": int64(2), "product_id": int64(101), "location_id": int64(2), "quantity": int64(5)},
	)
}

func newProductService(t *testing.T) (*ProductService, *FakeRepository) {
	t.Helper()
	repo := NewFakeRepository()
	seedCatalog(repo)
	return NewProductService(repo, []int64{1}, logger.Nop()), repo
}

func TestGetAllFiltersByStockLocation(t *testing.T) {
	s, _ := newProductService(t)

	products := s.GetAll(context.Background())

	// Product 101 only has stock at location 2, which is not sellable
	// here; 102 is inactive.
	require.Len(t, products, 1)
	p := products[0]
	assert.Equal(t, int64(100), p.ID)

	// Related data assembled onto the product.
	require.Len(t, p.Prices, 2)
	require.NotNil(t, p.Price)
	assert.Equal(t, int64(1), p.Price.CurrencyID)
	require.Len(t, p.Discounts, 1)
	assert.Equal(t, int64(10), p.Discounts[0].ID)
	assert.Equal(t, int64(12), p.StockAt(1))
}

func TestGetByCategory(t *testing.T) {
	s, _ := newProductService(t)

	// Product 101 only has stock at an unsellable location, so the
	// category page keeps 100 alone.
	products := s.GetByCategory(context.Background(), 10)
	require.Len(t, products, 1)
	assert.Equal(t, int64(100), products[0].ID)

	// Inactive products never show up.
	assert.Empty(t, s.GetByCategory(context.Background(), 11))
}

func TestGetByDepartment(t *testing.T) {
	s, _ := newProductService(t)

	products := s.GetByDepartment(context.Background(), 1)
	require.Len(t, products, 1)
	assert.Equal(t, int64(100), products[0].ID)

	assert.Empty(t, s.GetByDepartment(context.Background(), 999))
}

func TestGetByIDCaches(t *testing.T) {
	s, repo := newProductService(t)
	ctx := context.Background()

	p := s.GetByID(ctx, 101)
	require.NotNil(t, p)
	assert.Equal(t, "MALT", p.Code)

	tag, ok := p.Tag(PriorPriceTagID)
	require.True(t, ok)
	assert.Equal(t, "250", tag.Value)

	// Second lookup is served from cache.
	calls := repo.FetchCalls[tablePrices]
	assert.Same(t, p, s.GetByID(ctx, 101))
	assert.Equal(t, calls, repo.FetchCalls[tablePrices])

	s.ClearCache()
	assert.NotNil(t, s.GetByID(ctx, 101))
	assert.Greater(t, repo.FetchCalls[tablePrices], calls)
}

func TestGetByIDMissing(t *testing.T) {
	s, _ := newProductService(t)
	assert.Nil(t, s.GetByID(context.Background(), 999))
}

func TestSearchText(t *testing.T) {
	s, _ := newProductService(t)
	ctx := context.Background()

	// Normalized, case-insensitive, matches code and description.
	products := s.SearchText(ctx, "  CoLa ")
	require.Len(t, products, 1)
	assert.Equal(t, int64(100), products[0].ID)

	// Product 101 matches but has no stock at a sellable location.
	assert.Nil(t, s.SearchText(ctx, "malt"))

	// Short or blank queries yield nothing.
	assert.Nil(t, s.SearchText(ctx, "c"))
	assert.Nil(t, s.SearchText(ctx, "   "))

	// Inactive products are not searchable.
	assert.Nil(t, s.SearchText(ctx, "orange"))
}

func TestGetByTag(t *testing.T) {
	s, _ := newProductService(t)

	// Both 100 and 101 carry the tag; 101 is out of sellable stock.
	products := s.GetByTag(context.Background(), PriorPriceTagID)
	require.Len(t, products, 1)
	assert.Equal(t, int64(100), products[0].ID)

	assert.Nil(t, s.GetByTag(context.Background(), 999))
}

func TestProductServiceFailSoft(t *testing.T) {
	repo := NewFakeRepository()
	seedCatalog(repo)
	repo.TableErrs[tablePrices] = errors.New("backend down")
	s := NewProductService(repo, []int64{1}, logger.Nop())

	assert.Nil(t, s.GetAll(context.Background()))
	assert.Nil(t, s.GetByID(context.Background(), 100))
}

func TestDepartmentAndCategoryAttach(t *testing.T) {
	repo := NewFakeRepository()
	seedCatalog(repo)
	log := logger.Nop()
	products := NewProductService(repo, []int64{1}, log)
	categories := NewCategoryService(repo, products, log)
	departments := NewDepartmentService(repo, categories, log)
	ctx := context.Background()

	d := departments.GetByID(ctx, 1)
	require.NotNil(t, d)
	assert.Equal(t, "Drinks", d.Name)
	require.Len(t, d.Categories, 2)

	c := categories.GetByID(ctx, 10)
	require.NotNil(t, c)
	assert.Equal(t, "category_10.jpg", c.ImageName)
	assert.Len(t, c.Products, 1)

	// GetAll leaves product lists unattached.
	all := categories.GetAll(ctx)
	require.Len(t, all, 2)

	assert.Nil(t, departments.GetByID(ctx, 999))
	assert.Nil(t, categories.GetByID(ctx, 999))
}

func TestImageName(t *testing.T) {
	assert.Equal(t, "Cola_355ml_-COLA", imageName("Cola 355ml", "COLA"))
	assert.Equal(t, "Plain", imageName("Plain", ""))
	assert.Equal(t, "a_b_c_", imageName(`a/b:c?`, ""))
}

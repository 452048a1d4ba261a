package catalog

import (
	"context"
	"strings"
	"time"

	"vitrina/internal/core/cache"
	"vitrina/pkg/logger"
)

// fetchTimeout bounds every repository round-trip. A slow backend resolves
// to an empty collection instead of blocking the storefront.
const fetchTimeout = 5 * time.Second

// Table names at the catalog repository.
const (
	tableDepartments      = "departments"
	tableCategories       = "categories"
	tableProducts         = "products"
	tablePrices           = "prices"
	tableDiscounts        = "discounts"
	tableProductDiscounts = "product_discounts"
	tableProductTags      = "product_tags"
	tableStocks           = "stocks"
)

// PriorPriceTagID marks products carrying their pre-markdown amount in the
// tag value.
const PriorPriceTagID = 2

// ProductService loads products with their prices, discounts, tags and
// stock. Failures degrade to empty collections; they are logged, never
// propagated to the presentation layer.
type ProductService struct {
	repo Repository
	log  *logger.Logger

	// locations whose stock makes a product sellable
	locations []int64

	byID *cache.Map[int64, *Product]
}

// NewProductService creates a product service selling from the given
// stock locations.
func NewProductService(repo Repository, locations []int64, log *logger.Logger) *ProductService {
	return &ProductService{
		repo:      repo,
		log:       log.WithComponent("products"),
		locations: locations,
		byID:      cache.NewMap[int64, *Product](),
	}
}

// ClearCache drops cached products.
func (s *ProductService) ClearCache() {
	s.byID.Clear()
}

// GetAll returns all active products that have stock in at least one of
// the configured locations.
func (s *ProductService) GetAll(ctx context.Context) []*Product {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	rows, err := s.repo.Fetch(ctx, tableProducts, Query{
		Filters: []Filter{{Column: "active", Operator: Equal, Value: true}},
	})
	if err != nil {
		s.log.Warnw("fetch products failed", "error", err)
		return nil
	}

	rows, err = s.keepInStock(ctx, rows)
	if err != nil {
		s.log.Warnw("fetch stocks failed", "error", err)
		return nil
	}

	products, err := s.assemble(ctx, rows)
	if err != nil {
		s.log.Warnw("assemble products failed", "error", err)
		return nil
	}
	return products
}

// GetByCategory returns the active in-stock products of one category.
func (s *ProductService) GetByCategory(ctx context.Context, categoryID int64) []*Product {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	rows, err := s.repo.Fetch(ctx, tableProducts, Query{
		Filters: []Filter{
			{Column: "category_id", Operator: Equal, Value: categoryID},
			{Column: "active", Operator: Equal, Value: true},
		},
	})
	if err != nil {
		s.log.Warnw("fetch products by category failed", "category_id", categoryID, "error", err)
		return nil
	}

	rows, err = s.keepInStock(ctx, rows)
	if err != nil {
		s.log.Warnw("fetch stocks failed", "category_id", categoryID, "error", err)
		return nil
	}

	products, err := s.assemble(ctx, rows)
	if err != nil {
		s.log.Warnw("assemble products failed", "category_id", categoryID, "error", err)
		return nil
	}
	return products
}

// GetByDepartment returns the active in-stock products of one department.
func (s *ProductService) GetByDepartment(ctx context.Context, departmentID int64) []*Product {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	rows, err := s.repo.Fetch(ctx, tableProducts, Query{
		Filters: []Filter{
			{Column: "department_id", Operator: Equal, Value: departmentID},
			{Column: "active", Operator: Equal, Value: true},
		},
	})
	if err != nil {
		s.log.Warnw("fetch products by department failed", "department_id", departmentID, "error", err)
		return nil
	}

	rows, err = s.keepInStock(ctx, rows)
	if err != nil {
		s.log.Warnw("fetch stocks failed", "department_id", departmentID, "error", err)
		return nil
	}

	products, err := s.assemble(ctx, rows)
	if err != nil {
		s.log.Warnw("assemble products failed", "department_id", departmentID, "error", err)
		return nil
	}
	return products
}

// GetByID returns one product with all related data, or nil.
func (s *ProductService) GetByID(ctx context.Context, id int64) *Product {
	if p, ok := s.byID.Get(id); ok {
		return p
	}

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	row, err := s.repo.FetchByID(ctx, tableProducts, id, "id")
	if err != nil {
		s.log.Warnw("fetch product failed", "product_id", id, "error", err)
		return nil
	}
	if row == nil {
		return nil
	}

	products, err := s.assemble(ctx, []Row{row})
	if err != nil || len(products) == 0 {
		s.log.Warnw("assemble product failed", "product_id", id, "error", err)
		return nil
	}

	s.byID.Set(id, products[0])
	return products[0]
}

// SearchText returns active in-stock products whose code or description
// contains the normalized text. Queries shorter than two characters
// yield nothing.
func (s *ProductService) SearchText(ctx context.Context, text string) []*Product {
	text = strings.ToLower(strings.TrimSpace(text))
	if len(text) < 2 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	rows, err := s.repo.FetchAll(ctx, tableProducts, Query{
		Filters: []Filter{{Column: "active", Operator: Equal, Value: true}},
	})
	if err != nil {
		s.log.Warnw("search products failed", "text", text, "error", err)
		return nil
	}

	matched := rows[:0]
	for _, r := range rows {
		code := strings.ToLower(r.String("code"))
		description := strings.ToLower(r.String("description"))
		if strings.Contains(code, text) || strings.Contains(description, text) {
			matched = append(matched, r)
		}
	}

	matched, err = s.keepInStock(ctx, matched)
	if err != nil {
		s.log.Warnw("fetch stocks failed", "text", text, "error", err)
		return nil
	}
	if len(matched) == 0 {
		return nil
	}

	products, err := s.assemble(ctx, matched)
	if err != nil {
		s.log.Warnw("assemble search results failed", "text", text, "error", err)
		return nil
	}
	return products
}

// GetByTag returns active in-stock products carrying the given tag
// (showcase rows such as markdowns).
func (s *ProductService) GetByTag(ctx context.Context, tagID int64) []*Product {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	tagRows, err := s.repo.Fetch(ctx, tableProductTags, Query{
		Filters: []Filter{{Column: "tag_id", Operator: Equal, Value: tagID}},
	})
	if err != nil {
		s.log.Warnw("fetch product tags failed", "tag_id", tagID, "error", err)
		return nil
	}
	if len(tagRows) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(tagRows))
	for _, r := range tagRows {
		ids = append(ids, r.Int64("product_id"))
	}

	rows, err := s.repo.Fetch(ctx, tableProducts, Query{
		Filters: []Filter{
			{Column: "id", Operator: InList, Value: ids},
			{Column: "active", Operator: Equal, Value: true},
		},
	})
	if err != nil {
		s.log.Warnw("fetch tagged products failed", "tag_id", tagID, "error", err)
		return nil
	}

	rows, err = s.keepInStock(ctx, rows)
	if err != nil {
		s.log.Warnw("fetch stocks failed", "tag_id", tagID, "error", err)
		return nil
	}

	products, err := s.assemble(ctx, rows)
	if err != nil {
		s.log.Warnw("assemble tagged products failed", "tag_id", tagID, "error", err)
		return nil
	}
	return products
}

// keepInStock drops product rows without positive stock in a sellable
// location. Every listing path applies it; GetByID does not, a direct
// lookup stays visible regardless of stock.
func (s *ProductService) keepInStock(ctx context.Context, rows []Row) ([]Row, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.Int64("id"))
	}
	stockRows, err := s.repo.Fetch(ctx, tableStocks, Query{
		Filters: []Filter{{Column: "product_id", Operator: InList, Value: ids}},
	})
	if err != nil {
		return nil, err
	}

	inStock := make(map[int64]bool, len(stockRows))
	for _, r := range stockRows {
		if s.sellableLocation(r.Int64("location_id")) && r.Int64("quantity") > 0 {
			inStock[r.Int64("product_id")] = true
		}
	}

	kept := rows[:0]
	for _, r := range rows {
		if inStock[r.Int64("id")] {
			kept = append(kept, r)
		}
	}
	return kept, nil
}

func (s *ProductService) sellableLocation(locationID int64) bool {
	for _, l := range s.locations {
		if l == locationID {
			return true
		}
	}
	return false
}

// assemble joins product rows with their prices, discounts, tags and
// stock and maps everything to typed models.
func (s *ProductService) assemble(ctx context.Context, rows []Row) ([]*Product, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.Int64("id"))
	}
	byProduct := Query{Filters: []Filter{{Column: "product_id", Operator: InList, Value: ids}}}

	priceRows, err := s.repo.Fetch(ctx, tablePrices, byProduct)
	if err != nil {
		return nil, err
	}
	linkRows, err := s.repo.Fetch(ctx, tableProductDiscounts, byProduct)
	if err != nil {
		return nil, err
	}
	tagRows, err := s.repo.Fetch(ctx, tableProductTags, byProduct)
	if err != nil {
		return nil, err
	}
	stockRows, err := s.repo.Fetch(ctx, tableStocks, byProduct)
	if err != nil {
		return nil, err
	}

	// Resolve the discounts the link rows point at.
	var discountRows []Row
	if len(linkRows) > 0 {
		discountIDs := make([]int64, 0, len(linkRows))
		for _, r := range linkRows {
			discountIDs = append(discountIDs, r.Int64("discount_id"))
		}
		discountRows, err = s.repo.Fetch(ctx, tableDiscounts, Query{
			Filters: []Filter{{Column: "id", Operator: InList, Value: discountIDs}},
		})
		if err != nil {
			return nil, err
		}
	}

	discountsByID := make(map[int64]Discount, len(discountRows))
	for _, r := range discountRows {
		discountsByID[r.Int64("id")] = Discount{
			ID:     r.Int64("id"),
			Value:  r.Decimal("value"),
			Name:   r.String("name"),
			Color:  r.Int64("color"),
			Active: r.Bool("active"),
		}
	}

	pricesByProduct := make(map[int64][]Price)
	for _, r := range priceRows {
		p := Price{
			ID:         r.Int64("id"),
			ProductID:  r.Int64("product_id"),
			CurrencyID: r.Int64("currency_id"),
			Amount:     r.Decimal("amount"),
		}
		pricesByProduct[p.ProductID] = append(pricesByProduct[p.ProductID], p)
	}

	discountsByProduct := make(map[int64][]Discount)
	for _, r := range linkRows {
		if d, ok := discountsByID[r.Int64("discount_id")]; ok {
			productID := r.Int64("product_id")
			discountsByProduct[productID] = append(discountsByProduct[productID], d)
		}
	}

	tagsByProduct := make(map[int64][]ProductTag)
	for _, r := range tagRows {
		t := ProductTag{
			ID:        r.Int64("id"),
			TagID:     r.Int64("tag_id"),
			ProductID: r.Int64("product_id"),
			Value:     r.String("value"),
		}
		tagsByProduct[t.ProductID] = append(tagsByProduct[t.ProductID], t)
	}

	stocksByProduct := make(map[int64][]Stock)
	for _, r := range stockRows {
		st := Stock{
			ProductID:  r.Int64("product_id"),
			LocationID: r.Int64("location_id"),
			Quantity:   r.Int64("quantity"),
		}
		stocksByProduct[st.ProductID] = append(stocksByProduct[st.ProductID], st)
	}

	products := make([]*Product, 0, len(rows))
	for _, r := range rows {
		id := r.Int64("id")
		p := &Product{
			ID:           id,
			DepartmentID: r.Int64("department_id"),
			CategoryID:   r.Int64("category_id"),
			Code:         r.String("code"),
			Description:  r.String("description"),
			ImageName:    imageName(r.String("description"), r.String("code")),
			IPV:          r.Bool("ipv"),
			Active:       r.Bool("active"),
			Combo:        r.Bool("combo"),
			Prices:       pricesByProduct[id],
			Discounts:    discountsByProduct[id],
			Tags:         tagsByProduct[id],
			Stocks:       stocksByProduct[id],
		}
		if len(p.Prices) > 0 {
			p.Price = &p.Prices[0]
		}
		products = append(products, p)
	}
	return products, nil
}

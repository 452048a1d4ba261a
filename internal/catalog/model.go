// Package catalog provides the storefront catalog: departments, categories
// and products, loaded from the external catalog repository.
package catalog

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Department is a top-level catalog grouping.
type Department struct {
	ID         int64       `json:"id"`
	Name       string      `json:"name"`
	DiscountID int64       `json:"discountId,omitempty"`
	ImageName  string      `json:"imageName,omitempty"`
	Categories []*Category `json:"categories,omitempty"`
	Products   []*Product  `json:"products,omitempty"`
}

// Category groups products inside a department.
type Category struct {
	ID           int64      `json:"id"`
	DepartmentID int64      `json:"departmentId"`
	Name         string     `json:"name"`
	ImageName    string     `json:"imageName,omitempty"`
	Products     []*Product `json:"products,omitempty"`
}

// Price is a product amount in one currency. A product has at most one
// price per currency.
type Price struct {
	ID         int64           `json:"id"`
	ProductID  int64           `json:"productId"`
	CurrencyID int64           `json:"currencyId"`
	Amount     decimal.Decimal `json:"amount"`
}

// Discount is a fractional price reduction attached to a product.
// Eligibility per currency is decided by the currency registry.
type Discount struct {
	ID     int64           `json:"id"`
	Value  decimal.Decimal `json:"value"`
	Name   string          `json:"name"`
	Color  int64           `json:"color,omitempty"`
	Active bool            `json:"active"`
}

// ProductTag links a product to a tag with an optional value payload
// (the prior-price tag stores the old amount there).
type ProductTag struct {
	ID        int64  `json:"id"`
	TagID     int64  `json:"tagId"`
	ProductID int64  `json:"productId"`
	Value     string `json:"value,omitempty"`
}

// Stock is the available quantity of a product at one location.
type Stock struct {
	ProductID  int64 `json:"productId"`
	LocationID int64 `json:"locationId"`
	Quantity   int64 `json:"quantity"`
}

// Product is a sellable catalog item with its prices, discounts, tags
// and per-location stock.
type Product struct {
	ID           int64        `json:"id"`
	DepartmentID int64        `json:"departmentId"`
	CategoryID   int64        `json:"categoryId,omitempty"`
	Code         string       `json:"code,omitempty"`
	Description  string       `json:"description"`
	ImageName    string       `json:"imageName,omitempty"`
	IPV          bool         `json:"ipv"`
	Active       bool         `json:"active"`
	Combo        bool         `json:"combo"`
	Price        *Price       `json:"price,omitempty"`
	Prices       []Price      `json:"prices"`
	Discounts    []Discount   `json:"discounts,omitempty"`
	Tags         []ProductTag `json:"tags,omitempty"`
	Stocks       []Stock      `json:"stocks,omitempty"`
}

// PriceIn returns the product's price row in the given currency.
func (p *Product) PriceIn(currencyID int64) (Price, bool) {
	for _, pr := range p.Prices {
		if pr.CurrencyID == currencyID {
			return pr, true
		}
	}
	return Price{}, false
}

// Tag returns the product tag with the given tag id.
func (p *Product) Tag(tagID int64) (ProductTag, bool) {
	for _, t := range p.Tags {
		if t.TagID == tagID {
			return t, true
		}
	}
	return ProductTag{}, false
}

// StockAt returns the quantity available at a location.
func (p *Product) StockAt(locationID int64) int64 {
	for _, s := range p.Stocks {
		if s.LocationID == locationID {
			return s.Quantity
		}
	}
	return 0
}

// imageName derives a filesystem-safe image name from a description and
// optional code, replacing reserved characters and spaces.
func imageName(description, code string) string {
	name := description
	if code != "" {
		name = description + " -" + code
	}
	const reserved = `<>:"/\|?*'`
	var b strings.Builder
	b.Grow(len(name))
	for _, c := range name {
		switch {
		case strings.ContainsRune(reserved, c):
			b.WriteRune('_')
		case c == ' ':
			b.WriteRune('_')
		default:
			b.WriteRune(c)
		}
	}
	return b.String()
}

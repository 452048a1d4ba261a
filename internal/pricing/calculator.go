// Package pricing resolves a product's displayed price in the selected
// currency, including conversion and discount eligibility.
package pricing

import (
	"github.com/shopspring/decimal"

	"vitrina/internal/catalog"
	"vitrina/internal/currency"
)

// fallbackExchangeRate is used when the rate lookup fails. A policy
// choice carried from the storefront, not a crash condition.
var fallbackExchangeRate = decimal.NewFromInt(370)

// Calculator computes prices against the current registry state. It is
// purely functional; all state lives in the registry.
type Calculator struct {
	registry *currency.Registry
}

// NewCalculator creates a calculator bound to the registry.
func NewCalculator(registry *currency.Registry) *Calculator {
	return &Calculator{registry: registry}
}

// Price resolves the product's price in the selected currency, rounded
// half-up to one decimal place.
//
// The base amount is the product's price row in the selected currency;
// when absent, the first available price row converted through the base
// currency with the pair exchange rate. With applyDiscount, the first
// product discount eligible in the selected currency is applied.
func (c *Calculator) Price(applyDiscount bool, p *catalog.Product) decimal.Decimal {
	selectedID := c.registry.SelectedID()

	base := decimal.Zero
	if pr, ok := p.PriceIn(selectedID); ok {
		base = pr.Amount
	} else if len(p.Prices) > 0 {
		base = c.convert(p.Prices[0], selectedID)
	}

	final := base
	if applyDiscount {
		if d, ok := c.ApplicableDiscount(p); ok {
			final = base.Mul(decimal.NewFromInt(1).Sub(d.Value))
		}
	}
	return final.Round(1)
}

// ApplicableDiscount returns the first product discount (in storage
// order) eligible in the selected currency. First match wins; this is
// not a best-for-customer selection.
func (c *Calculator) ApplicableDiscount(p *catalog.Product) (catalog.Discount, bool) {
	selectedID := c.registry.SelectedID()
	for _, d := range p.Discounts {
		if c.registry.IsEligible(selectedID, d.ID) {
			return d, true
		}
	}
	return catalog.Discount{}, false
}

// DiscountPercent returns the applicable discount as a whole percentage,
// or 0 when none applies.
func (c *Calculator) DiscountPercent(p *catalog.Product) int {
	d, ok := c.ApplicableDiscount(p)
	if !ok {
		return 0
	}
	return int(d.Value.Mul(decimal.NewFromInt(100)).Round(0).IntPart())
}

// HasDiscount reports whether any of the product's discounts is
// eligible in the given currency.
func (c *Calculator) HasDiscount(p *catalog.Product, currencyID int64) bool {
	for _, d := range p.Discounts {
		if c.registry.IsEligible(currencyID, d.ID) {
			return true
		}
	}
	return false
}

// PreviousPrice returns the product's pre-markdown amount from its
// prior-price tag, converted to the selected currency.
func (c *Calculator) PreviousPrice(p *catalog.Product) (decimal.Decimal, bool) {
	tag, ok := p.Tag(catalog.PriorPriceTagID)
	if !ok {
		return decimal.Decimal{}, false
	}
	prior, err := decimal.NewFromString(tag.Value)
	if err != nil {
		return decimal.Decimal{}, false
	}

	selectedID := c.registry.SelectedID()
	if p.Price == nil || p.Price.CurrencyID == selectedID {
		return prior, true
	}
	converted := c.convert(catalog.Price{CurrencyID: p.Price.CurrencyID, Amount: prior}, selectedID)
	return converted.Round(1), true
}

// convert moves a price into the target currency through the base
// currency. Prices already outside the base/target pair pass through
// unconverted.
func (c *Calculator) convert(pr catalog.Price, targetID int64) decimal.Decimal {
	if pr.CurrencyID == targetID {
		return pr.Amount
	}
	baseID := c.registry.BaseID()
	switch {
	case pr.CurrencyID == baseID && targetID != baseID:
		return pr.Amount.Div(c.rate(targetID))
	case pr.CurrencyID != baseID && targetID == baseID:
		return pr.Amount.Mul(c.rate(pr.CurrencyID))
	default:
		return pr.Amount
	}
}

func (c *Calculator) rate(currencyID int64) decimal.Decimal {
	rate, ok := c.registry.ExchangeRate(currencyID)
	if !ok || rate.IsZero() {
		return fallbackExchangeRate
	}
	return rate
}

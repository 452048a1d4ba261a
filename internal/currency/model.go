// Package currency holds the currency registry: currencies, discounts,
// payment methods and the derived discount eligibility per currency.
package currency

import (
	"github.com/shopspring/decimal"
)

// Currency is a unit of account. ExchangeRate is expressed against the
// base currency (the base itself carries rate 1).
type Currency struct {
	ID           int64           `json:"id"`
	Code         string          `json:"code"`
	Name         string          `json:"name"`
	ExchangeRate decimal.Decimal `json:"exchangeRate"`

	// EligibleDiscountIDs is derived through payment methods; never
	// hand-edited.
	EligibleDiscountIDs []int64 `json:"eligibleDiscountIds,omitempty"`
}

// PaymentMethod is a way to pay in one currency.
type PaymentMethod struct {
	ID         int64  `json:"id"`
	Kind       string `json:"kind"`
	CurrencyID int64  `json:"currencyId"`
	Cash       bool   `json:"cash"`
}

// Discount is a fractional price reduction, usable only through certain
// payment methods.
type Discount struct {
	ID     int64           `json:"id"`
	Value  decimal.Decimal `json:"value"`
	Name   string          `json:"name"`
	Color  int64           `json:"color,omitempty"`
	Active bool            `json:"active"`
}

// DiscountPaymentLink joins discounts to the payment methods that grant
// them.
type DiscountPaymentLink struct {
	ID              int64 `json:"id"`
	DiscountID      int64 `json:"discountId"`
	PaymentMethodID int64 `json:"paymentMethodId"`
}

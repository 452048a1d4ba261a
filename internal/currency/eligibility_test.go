package currency

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestBuildIndex(t *testing.T) {
	discounts := []Discount{
		{ID: 10, Value: decimal.NewFromFloat(0.20), Active: true},
		{ID: 11, Value: decimal.NewFromFloat(0.10), Active: true},
	}
	payments := []PaymentMethod{
		{ID: 100, CurrencyID: 2, Kind: "card"},
		{ID: 101, CurrencyID: 2, Kind: "transfer"},
		{ID: 102, CurrencyID: 1, Kind: "cash", Cash: true},
	}
	links := []DiscountPaymentLink{
		{ID: 1, DiscountID: 10, PaymentMethodID: 100},
		{ID: 2, DiscountID: 10, PaymentMethodID: 101}, // same discount via second method
		{ID: 3, DiscountID: 11, PaymentMethodID: 100},
		{ID: 4, DiscountID: 11, PaymentMethodID: 999}, // unknown payment method
		{ID: 5, DiscountID: 99, PaymentMethodID: 102}, // discount not in loaded set
	}

	idx := BuildIndex(discounts, payments, links)

	// Two methods sharing a currency contribute each discount once.
	assert.Equal(t, []int64{10, 11}, idx.EligibleIDsFor(2))
	assert.True(t, idx.IsEligible(2, 10))
	assert.True(t, idx.IsEligible(2, 11))

	// Links through unknown payment methods or unknown discounts are skipped.
	assert.Empty(t, idx.EligibleIDsFor(1))
	assert.False(t, idx.IsEligible(1, 99))

	// Currency without any payment methods.
	assert.Empty(t, idx.EligibleIDsFor(3))
	assert.False(t, idx.IsEligible(3, 10))
}

func TestBuildIndexPreservesLinkOrder(t *testing.T) {
	discounts := []Discount{{ID: 1}, {ID: 2}, {ID: 3}}
	payments := []PaymentMethod{{ID: 100, CurrencyID: 5}}
	links := []DiscountPaymentLink{
		{ID: 1, DiscountID: 3, PaymentMethodID: 100},
		{ID: 2, DiscountID: 1, PaymentMethodID: 100},
		{ID: 3, DiscountID: 2, PaymentMethodID: 100},
		{ID: 4, DiscountID: 3, PaymentMethodID: 100},
	}

	idx := BuildIndex(discounts, payments, links)

	assert.Equal(t, []int64{3, 1, 2}, idx.EligibleIDsFor(5))
}

func TestEligibilityIndexNilSafe(t *testing.T) {
	var idx *EligibilityIndex

	assert.Nil(t, idx.EligibleIDsFor(1))
	assert.False(t, idx.IsEligible(1, 1))
}

package currency

// EligibilityIndex is the derived currency → discount-id mapping reached
// through payment methods. Rebuilt whenever the source datasets load.
type EligibilityIndex struct {
	byCurrency map[int64][]int64
	member     map[int64]map[int64]struct{}
}

// BuildIndex derives the index in one pass over payment methods and one
// over links. Discounts not present in the loaded discount set (for
// example, inactive ones still referenced by links) are skipped.
func BuildIndex(discounts []Discount, payments []PaymentMethod, links []DiscountPaymentLink) *EligibilityIndex {
	known := make(map[int64]struct{}, len(discounts))
	for _, d := range discounts {
		known[d.ID] = struct{}{}
	}

	currencyByPayment := make(map[int64]int64, len(payments))
	for _, p := range payments {
		currencyByPayment[p.ID] = p.CurrencyID
	}

	idx := &EligibilityIndex{
		byCurrency: make(map[int64][]int64),
		member:     make(map[int64]map[int64]struct{}),
	}
	for _, l := range links {
		currencyID, ok := currencyByPayment[l.PaymentMethodID]
		if !ok {
			continue
		}
		if _, ok := known[l.DiscountID]; !ok {
			continue
		}
		set := idx.member[currencyID]
		if set == nil {
			set = make(map[int64]struct{})
			idx.member[currencyID] = set
		}
		if _, dup := set[l.DiscountID]; dup {
			continue
		}
		set[l.DiscountID] = struct{}{}
		idx.byCurrency[currencyID] = append(idx.byCurrency[currencyID], l.DiscountID)
	}
	return idx
}

// EligibleIDsFor returns the discount ids usable when paying in the
// given currency, in link order, without duplicates.
func (i *EligibilityIndex) EligibleIDsFor(currencyID int64) []int64 {
	if i == nil {
		return nil
	}
	return i.byCurrency[currencyID]
}

// IsEligible reports whether the discount can be applied when paying in
// the given currency.
func (i *EligibilityIndex) IsEligible(currencyID, discountID int64) bool {
	if i == nil {
		return false
	}
	_, ok := i.member[currencyID][discountID]
	return ok
}

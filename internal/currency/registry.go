package currency

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"vitrina/internal/catalog"
	"vitrina/internal/infrastructure/kvstore"
	"vitrina/pkg/logger"
)

// Table names at the catalog repository.
const (
	tableCurrencies   = "currencies"
	tableDiscounts    = "discounts"
	tablePayments     = "payment_methods"
	tableDiscountPays = "discount_payment_methods"
)

// DefaultCurrencyID is assumed when nothing is selected yet and no
// currency list has loaded.
const DefaultCurrencyID int64 = 1

const fetchTimeout = 5 * time.Second

// ChangeListener is notified after the selected currency changes.
// Listeners run synchronously so dependent state (cart line amounts) is
// consistent before the selection call returns.
type ChangeListener func(Currency)

// Registry loads currencies, discounts, payment methods and their links,
// derives discount eligibility, and owns the process-wide currency
// selection. Datasets load once and stay cached until ClearCache.
type Registry struct {
	repo  catalog.Repository
	store kvstore.Store
	log   *logger.Logger

	mu         sync.RWMutex
	loaded     bool
	currencies []Currency
	discounts  []Discount
	payments   []PaymentMethod
	links      []DiscountPaymentLink
	index      *EligibilityIndex
	selected   *Currency

	listenersMu sync.RWMutex
	listeners   []ChangeListener
}

// NewRegistry creates a registry. Call LoadAll before reading state.
func NewRegistry(repo catalog.Repository, store kvstore.Store, log *logger.Logger) *Registry {
	return &Registry{
		repo:  repo,
		store: store,
		log:   log.WithComponent("currency"),
	}
}

// OnCurrencyChanged registers a selection-change listener.
func (r *Registry) OnCurrencyChanged(l ChangeListener) {
	r.listenersMu.Lock()
	r.listeners = append(r.listeners, l)
	r.listenersMu.Unlock()
}

// LoadAll fetches the four datasets in parallel, rebuilds the
// eligibility index and resolves the selected currency. Idempotent: a
// second call while loaded is a no-op. Each dataset fails soft to an
// empty collection so the storefront still renders.
func (r *Registry) LoadAll(ctx context.Context) {
	r.mu.Lock()
	if r.loaded {
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()

	var (
		wg         sync.WaitGroup
		currencies []Currency
		discounts  []Discount
		payments   []PaymentMethod
		links      []DiscountPaymentLink
	)
	wg.Add(4)
	go func() { defer wg.Done(); currencies = r.fetchCurrencies(ctx) }()
	go func() { defer wg.Done(); discounts = r.fetchDiscounts(ctx) }()
	go func() { defer wg.Done(); payments = r.fetchPaymentMethods(ctx) }()
	go func() { defer wg.Done(); links = r.fetchLinks(ctx) }()
	wg.Wait()

	index := BuildIndex(discounts, payments, links)
	for i := range currencies {
		currencies[i].EligibleDiscountIDs = index.EligibleIDsFor(currencies[i].ID)
	}

	restored := r.restorePersistedSelection(ctx)

	r.mu.Lock()
	r.currencies = currencies
	r.discounts = discounts
	r.payments = payments
	r.links = links
	r.index = index
	r.loaded = true
	if restored != nil && r.selected == nil {
		r.selected = restored
	}
	// Re-resolve against the fresh list so eligibility data from a prior
	// session is never kept.
	if r.selected != nil {
		if fresh := findCurrency(currencies, r.selected.ID); fresh != nil {
			r.selected = fresh
		}
	} else if len(currencies) > 0 {
		c := currencies[0]
		r.selected = &c
	}
	r.mu.Unlock()

	r.log.Infow("currency data loaded",
		"currencies", len(currencies),
		"discounts", len(discounts),
		"payment_methods", len(payments),
		"links", len(links),
	)
}

// ClearCache drops the loaded datasets and the derived index. The next
// LoadAll reloads everything. The selection survives; it re-resolves on
// reload.
func (r *Registry) ClearCache() {
	r.mu.Lock()
	r.currencies = nil
	r.discounts = nil
	r.payments = nil
	r.links = nil
	r.index = nil
	r.loaded = false
	r.mu.Unlock()
}

// Selected returns the selected currency, lazily defaulting to the
// first loaded currency when none was chosen.
func (r *Registry) Selected() (Currency, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.selected == nil {
		if len(r.currencies) == 0 {
			return Currency{}, false
		}
		c := r.currencies[0]
		r.selected = &c
	}
	return *r.selected, true
}

// SelectedID returns the selected currency id, or DefaultCurrencyID
// when nothing is selected and nothing has loaded.
func (r *Registry) SelectedID() int64 {
	if c, ok := r.Selected(); ok {
		return c.ID
	}
	return DefaultCurrencyID
}

// Select replaces the selection with the eligibility-enriched record for
// the given currency id, persists it, and notifies listeners. Selecting
// the already-selected currency is a no-op.
func (r *Registry) Select(ctx context.Context, c Currency) {
	r.mu.Lock()
	if r.selected != nil && r.selected.ID == c.ID {
		r.mu.Unlock()
		return
	}
	full := findCurrency(r.currencies, c.ID)
	if full == nil {
		enriched := c
		enriched.EligibleDiscountIDs = r.index.EligibleIDsFor(c.ID)
		full = &enriched
	}
	r.selected = full
	selected := *full
	r.mu.Unlock()

	r.persistSelection(ctx, selected)
	r.notify(selected)
}

// AdoptSelection sets the selection without persisting or notifying.
// Used when restoring a cart whose snapshot carries its own currency;
// LoadAll re-resolves the record afterwards.
func (r *Registry) AdoptSelection(c Currency) {
	r.mu.Lock()
	if full := findCurrency(r.currencies, c.ID); full != nil {
		r.selected = full
	} else {
		cp := c
		r.selected = &cp
	}
	r.mu.Unlock()
}

// Currencies returns all loaded currencies.
func (r *Registry) Currencies() []Currency {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.currencies
}

// Discounts returns all loaded (active) discounts.
func (r *Registry) Discounts() []Discount {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.discounts
}

// ExchangeRate returns the exchange rate of a currency.
func (r *Registry) ExchangeRate(currencyID int64) (decimal.Decimal, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c := findCurrency(r.currencies, currencyID); c != nil {
		return c.ExchangeRate, true
	}
	return decimal.Decimal{}, false
}

// BaseID returns the id of the base currency (exchange rate 1), or
// DefaultCurrencyID when no loaded currency qualifies.
func (r *Registry) BaseID() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	one := decimal.NewFromInt(1)
	for _, c := range r.currencies {
		if c.ExchangeRate.Equal(one) {
			return c.ID
		}
	}
	return DefaultCurrencyID
}

// IsEligible reports whether the discount applies when paying in the
// given currency.
func (r *Registry) IsEligible(currencyID, discountID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.index.IsEligible(currencyID, discountID)
}

// EligibleIDsFor returns the discount ids usable in the given currency.
func (r *Registry) EligibleIDsFor(currencyID int64) []int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.index.EligibleIDsFor(currencyID)
}

// --- internals ---

func (r *Registry) notify(c Currency) {
	r.listenersMu.RLock()
	listeners := make([]ChangeListener, len(r.listeners))
	copy(listeners, r.listeners)
	r.listenersMu.RUnlock()
	for _, l := range listeners {
		l(c)
	}
}

func (r *Registry) persistSelection(ctx context.Context, c Currency) {
	payload, err := json.Marshal(c)
	if err != nil {
		r.log.Warnw("marshal selected currency failed", "error", err)
		return
	}
	if err := r.store.Put(ctx, kvstore.KeySelectedCurrency, payload); err != nil {
		r.log.Warnw("persist selected currency failed", "error", err)
	}
}

// restorePersistedSelection reads the previous session's selection.
// Unparsable state falls back to the default (nil).
func (r *Registry) restorePersistedSelection(ctx context.Context) *Currency {
	payload, ok, err := r.store.Get(ctx, kvstore.KeySelectedCurrency)
	if err != nil || !ok {
		if err != nil {
			r.log.Warnw("read persisted currency failed", "error", err)
		}
		return nil
	}
	var c Currency
	if err := json.Unmarshal(payload, &c); err != nil {
		r.log.Warnw("parse persisted currency failed", "error", err)
		return nil
	}
	return &c
}

func (r *Registry) fetchCurrencies(ctx context.Context) []Currency {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	rows, err := r.repo.Fetch(ctx, tableCurrencies, catalog.Query{})
	if err != nil {
		r.log.Warnw("fetch currencies failed", "error", err)
		return nil
	}
	out := make([]Currency, 0, len(rows))
	for _, row := range rows {
		out = append(out, Currency{
			ID:           row.Int64("id"),
			Code:         row.String("code"),
			Name:         row.String("name"),
			ExchangeRate: row.Decimal("exchange_rate"),
		})
	}
	return out
}

func (r *Registry) fetchDiscounts(ctx context.Context) []Discount {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	rows, err := r.repo.Fetch(ctx, tableDiscounts, catalog.Query{
		Filters: []catalog.Filter{{Column: "active", Operator: catalog.Equal, Value: true}},
	})
	if err != nil {
		r.log.Warnw("fetch discounts failed", "error", err)
		return nil
	}
	out := make([]Discount, 0, len(rows))
	for _, row := range rows {
		out = append(out, Discount{
			ID:     row.Int64("id"),
			Value:  row.Decimal("value"),
			Name:   row.String("name"),
			Color:  row.Int64("color"),
			Active: row.Bool("active"),
		})
	}
	return out
}

func (r *Registry) fetchPaymentMethods(ctx context.Context) []PaymentMethod {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	rows, err := r.repo.Fetch(ctx, tablePayments, catalog.Query{})
	if err != nil {
		r.log.Warnw("fetch payment methods failed", "error", err)
		return nil
	}
	out := make([]PaymentMethod, 0, len(rows))
	for _, row := range rows {
		out = append(out, PaymentMethod{
			ID:         row.Int64("id"),
			Kind:       row.String("kind"),
			CurrencyID: row.Int64("currency_id"),
			Cash:       row.Bool("cash"),
		})
	}
	return out
}

func (r *Registry) fetchLinks(ctx context.Context) []DiscountPaymentLink {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	rows, err := r.repo.Fetch(ctx, tableDiscountPays, catalog.Query{})
	if err != nil {
		r.log.Warnw("fetch discount payment links failed", "error", err)
		return nil
	}
	out := make([]DiscountPaymentLink, 0, len(rows))
	for _, row := range rows {
		out = append(out, DiscountPaymentLink{
			ID:              row.Int64("id"),
			DiscountID:      row.Int64("discount_id"),
			PaymentMethodID: row.Int64("payment_method_id"),
		})
	}
	return out
}

func findCurrency(currencies []Currency, id int64) *Currency {
	for i := range currencies {
		if currencies[i].ID == id {
			return &currencies[i]
		}
	}
	return nil
}

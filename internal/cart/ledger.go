// Package cart holds the persisted cart and keeps its monetary totals
// consistent with the selected currency.
package cart

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/shopspring/decimal"

	"vitrina/internal/catalog"
	"vitrina/internal/currency"
	"vitrina/internal/infrastructure/kvstore"
	"vitrina/internal/pricing"
	"vitrina/pkg/logger"
)

// Item is one cart entry. LineAmount caches the discounted amount of the
// line in the cart's currency; it is recomputed on every mutation and on
// currency switches, never read stale.
type Item struct {
	Product    *catalog.Product `json:"product"`
	Quantity   int64            `json:"quantity"`
	LineAmount decimal.Decimal  `json:"lineAmount"`
}

// Cart is the persisted shape. ID 0 means empty/uninitialized, 1 active.
type Cart struct {
	ID       int64              `json:"id"`
	Currency *currency.Currency `json:"currency,omitempty"`
	Items    []Item             `json:"items"`
}

// Ledger owns the cart. All operations run under one mutex, so a
// currency switch's recompute is atomic: no total ever observes a
// half-updated item list.
type Ledger struct {
	calc     *pricing.Calculator
	registry *currency.Registry
	store    kvstore.Store
	codec    *kvstore.SnapshotCodec
	log      *logger.Logger

	mu   sync.Mutex
	cart Cart
}

// NewLedger creates a ledger and subscribes it to currency changes.
func NewLedger(
	calc *pricing.Calculator,
	registry *currency.Registry,
	store kvstore.Store,
	codec *kvstore.SnapshotCodec,
	log *logger.Logger,
) *Ledger {
	l := &Ledger{
		calc:     calc,
		registry: registry,
		store:    store,
		codec:    codec,
		log:      log.WithComponent("cart"),
	}
	registry.OnCurrencyChanged(l.onCurrencyChanged)
	return l
}

// Restore loads the persisted cart, if any. A snapshot without a
// currency is discarded; otherwise the snapshot currency becomes the
// registry selection (re-resolved on the next LoadAll).
func (l *Ledger) Restore(ctx context.Context) {
	payload, ok, err := l.store.Get(ctx, kvstore.KeyCart)
	if err != nil {
		l.log.Warnw("read persisted cart failed", "error", err)
		return
	}
	if !ok {
		return
	}

	payload, err = l.codec.Decode(payload)
	if err != nil {
		l.log.Warnw("decode persisted cart failed", "error", err)
		return
	}

	var restored Cart
	if err := json.Unmarshal(payload, &restored); err != nil {
		l.log.Warnw("parse persisted cart failed", "error", err)
		return
	}

	if restored.Currency == nil {
		l.Clear(ctx)
		return
	}
	l.registry.AdoptSelection(*restored.Currency)

	l.mu.Lock()
	l.cart = restored
	l.mu.Unlock()
}

// AddItem puts a product in the cart. Without an explicit quantity an
// existing line is incremented by one; with a positive one, the quantity
// is set. A non-positive quantity counts as the plain increment, so a
// line never holds a quantity below one.
// The first add activates the cart and snapshots the current currency.
func (l *Ledger) AddItem(ctx context.Context, p *catalog.Product, qty ...int64) {
	if len(qty) > 0 && qty[0] <= 0 {
		qty = nil
	}

	price := l.calc.Price(true, p)

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cart.ID == 0 {
		l.cart = Cart{ID: 1, Currency: l.selectedCurrency()}
	}

	for i := range l.cart.Items {
		item := &l.cart.Items[i]
		if item.Product.ID != p.ID {
			continue
		}
		if len(qty) > 0 {
			item.Quantity = qty[0]
		} else {
			item.Quantity++
		}
		item.LineAmount = lineAmount(item.Quantity, price)
		l.persistLocked(ctx)
		return
	}

	quantity := int64(1)
	if len(qty) > 0 {
		quantity = qty[0]
	}
	l.cart.Items = append(l.cart.Items, Item{
		Product:    p,
		Quantity:   quantity,
		LineAmount: lineAmount(quantity, price),
	})
	l.persistLocked(ctx)
}

// RemoveItem takes a product out of the cart. Without an explicit
// quantity the line is decremented by one; with one, the quantity is set
// directly. A line at or below zero is removed entirely.
func (l *Ledger) RemoveItem(ctx context.Context, p *catalog.Product, qty ...int64) {
	price := l.calc.Price(true, p)

	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.cart.Items {
		item := &l.cart.Items[i]
		if item.Product.ID != p.ID {
			continue
		}
		if len(qty) > 0 && qty[0] >= 0 {
			item.Quantity = qty[0]
		} else {
			item.Quantity--
		}
		if item.Quantity <= 0 {
			l.cart.Items = append(l.cart.Items[:i], l.cart.Items[i+1:]...)
		} else {
			item.LineAmount = lineAmount(item.Quantity, price)
		}
		break
	}
	l.persistLocked(ctx)
}

// Total returns the cart total as a whole amount, rounded up. The
// discounted total sums the cached line amounts; the undiscounted total
// recomputes from current prices. Per-line rounding is to the nearest
// tenth while the total rounds up; the asymmetry is intentional.
func (l *Ledger) Total(withDiscount bool) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	sum := decimal.Zero
	for _, item := range l.cart.Items {
		if withDiscount {
			sum = sum.Add(item.LineAmount)
		} else {
			price := l.calc.Price(false, item.Product)
			sum = sum.Add(price.Mul(decimal.NewFromInt(item.Quantity)))
		}
	}
	return sum.Ceil().IntPart()
}

// Savings returns how much the eligible discounts take off the total.
func (l *Ledger) Savings() int64 {
	return l.Total(false) - l.Total(true)
}

// Clear empties the cart and deletes the persisted record.
func (l *Ledger) Clear(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cart = Cart{ID: 0, Currency: l.selectedCurrency()}
	l.persistLocked(ctx)
}

// Items returns a copy of the cart entries.
func (l *Ledger) Items() []Item {
	l.mu.Lock()
	defer l.mu.Unlock()
	items := make([]Item, len(l.cart.Items))
	copy(items, l.cart.Items)
	return items
}

// Len returns the number of distinct lines.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.cart.Items)
}

// IsEmpty reports whether the cart has no items.
func (l *Ledger) IsEmpty() bool {
	return l.Len() == 0
}

// Currency returns the cart's currency snapshot, or nil.
func (l *Ledger) Currency() *currency.Currency {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cart.Currency
}

// HasDiscount reports whether any cart product has a discount eligible
// in the current currency.
func (l *Ledger) HasDiscount() bool {
	currencyID := l.registry.SelectedID()

	l.mu.Lock()
	defer l.mu.Unlock()
	for _, item := range l.cart.Items {
		if l.calc.HasDiscount(item.Product, currencyID) {
			return true
		}
	}
	return false
}

// onCurrencyChanged recomputes every line amount under the new currency
// and persists. Runs synchronously inside the selection call, before any
// total can be read.
func (l *Ledger) onCurrencyChanged(c currency.Currency) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cart.ID != 0 {
		l.cart.Currency = &c
	}
	for i := range l.cart.Items {
		item := &l.cart.Items[i]
		item.LineAmount = lineAmount(item.Quantity, l.calc.Price(true, item.Product))
	}
	l.persistLocked(context.Background())
}

// persistLocked writes the cart after every mutation. An empty cart
// clears the stored record instead of writing an empty shell.
// Callers hold l.mu.
func (l *Ledger) persistLocked(ctx context.Context) {
	if len(l.cart.Items) == 0 {
		if err := l.store.Delete(ctx, kvstore.KeyCart); err != nil {
			l.log.Warnw("delete persisted cart failed", "error", err)
		}
		return
	}
	payload, err := json.Marshal(l.cart)
	if err != nil {
		l.log.Warnw("marshal cart failed", "error", err)
		return
	}
	if err := l.store.Put(ctx, kvstore.KeyCart, l.codec.Encode(payload)); err != nil {
		l.log.Warnw("persist cart failed", "error", err)
	}
}

func (l *Ledger) selectedCurrency() *currency.Currency {
	if c, ok := l.registry.Selected(); ok {
		return &c
	}
	return nil
}

func lineAmount(quantity int64, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(quantity)).Round(1)
}

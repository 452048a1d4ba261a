package cart

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vitrina/internal/catalog"
	"vitrina/internal/currency"
	"vitrina/internal/infrastructure/kvstore"
	"vitrina/internal/pricing"
	"vitrina/pkg/logger"
)

type fixture struct {
	ledger   *Ledger
	registry *currency.Registry
	store    *kvstore.InMemory
}

// Fixture: CUP base currency (rate 1), USD at 370, a 20% discount
// eligible only in USD.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	repo := catalog.NewFakeRepository()
	repo.Add("currencies",
		catalog.Row{"id": int64(1), "code": "CUP", "name": "Cuban Peso", "exchange_rate": 1.0},
		catalog.Row{"id": int64(2), "code": "USD", "name": "US Dollar", "exchange_rate": 370.0},
	)
	repo.Add("discounts",
		catalog.Row{"id": int64(10), "value": 0.20, "name": "Electronic payment", "active": true},
	)
	repo.Add("payment_methods",
		catalog.Row{"id": int64(100), "kind": "card", "currency_id": int64(2), "cash": false},
	)
	repo.Add("discount_payment_methods",
		catalog.Row{"id": int64(1000), "discount_id": int64(10), "payment_method_id": int64(100)},
	)

	store := kvstore.NewInMemory()
	registry := currency.NewRegistry(repo, store, logger.Nop())
	registry.LoadAll(context.Background())

	calc := pricing.NewCalculator(registry)
	codec, err := kvstore.NewSnapshotCodec()
	require.NoError(t, err)

	return &fixture{
		ledger:   NewLedger(calc, registry, store, codec, logger.Nop()),
		registry: registry,
		store:    store,
	}
}

func (f *fixture) selectCurrency(t *testing.T, id int64) {
	t.Helper()
	for _, c := range f.registry.Currencies() {
		if c.ID == id {
			f.registry.Select(context.Background(), c)
			return
		}
	}
	t.Fatalf("currency %d not loaded", id)
}

func product(id int64, cupAmount float64, discounted bool) *catalog.Product {
	p := &catalog.Product{
		ID:          id,
		Description: "Item",
		Prices:      []catalog.Price{{ID: id, ProductID: id, CurrencyID: 1, Amount: decimal.NewFromFloat(cupAmount)}},
	}
	p.Price = &p.Prices[0]
	if discounted {
		p.Discounts = []catalog.Discount{{ID: 10, Value: decimal.NewFromFloat(0.20), Active: true}}
	}
	return p
}

func TestAddItemIncrementsAndSets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := product(1, 100, false)

	f.ledger.AddItem(ctx, p)
	f.ledger.AddItem(ctx, p)
	require.Equal(t, 1, f.ledger.Len())
	assert.Equal(t, int64(2), f.ledger.Items()[0].Quantity)

	// Explicit quantity sets rather than increments.
	f.ledger.AddItem(ctx, p, 3)
	assert.Equal(t, int64(3), f.ledger.Items()[0].Quantity)

	f.ledger.AddItem(ctx, p)
	assert.Equal(t, int64(4), f.ledger.Items()[0].Quantity)
}

func TestAddItemClampsNonPositiveQuantity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := product(1, 100, false)

	// A zero quantity on an empty cart still adds one unit.
	f.ledger.AddItem(ctx, p, 0)
	require.Equal(t, 1, f.ledger.Len())
	assert.Equal(t, int64(1), f.ledger.Items()[0].Quantity)

	// Zero and negative quantities act as the plain increment.
	f.ledger.AddItem(ctx, p, 3)
	f.ledger.AddItem(ctx, p, 0)
	assert.Equal(t, int64(4), f.ledger.Items()[0].Quantity)
	f.ledger.AddItem(ctx, p, -2)
	assert.Equal(t, int64(5), f.ledger.Items()[0].Quantity)

	// The persisted record never carries a line below one unit.
	payload, ok, err := f.store.Get(ctx, kvstore.KeyCart)
	require.NoError(t, err)
	require.True(t, ok)
	var persisted Cart
	require.NoError(t, json.Unmarshal(payload, &persisted))
	require.Len(t, persisted.Items, 1)
	assert.Equal(t, int64(5), persisted.Items[0].Quantity)
}

func TestAddItemSnapshotsCurrency(t *testing.T) {
	f := newFixture(t)
	f.selectCurrency(t, 2)

	f.ledger.AddItem(context.Background(), product(1, 370, false))

	cur := f.ledger.Currency()
	require.NotNil(t, cur)
	assert.Equal(t, int64(2), cur.ID)
}

func TestRemoveItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := product(1, 100, false)

	f.ledger.AddItem(ctx, p, 3)
	f.ledger.RemoveItem(ctx, p)
	assert.Equal(t, int64(2), f.ledger.Items()[0].Quantity)

	// Explicit quantity sets directly; zero removes the line.
	f.ledger.RemoveItem(ctx, p, 1)
	assert.Equal(t, int64(1), f.ledger.Items()[0].Quantity)
	f.ledger.RemoveItem(ctx, p, 0)
	assert.True(t, f.ledger.IsEmpty())

	// Removing an absent product is a no-op.
	f.ledger.RemoveItem(ctx, p)
	assert.True(t, f.ledger.IsEmpty())
}

func TestTotalsRoundUp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.ledger.AddItem(ctx, product(1, 10.3, false))
	f.ledger.AddItem(ctx, product(2, 10.3, false))

	// 20.6 rounds up to the next whole amount.
	assert.Equal(t, int64(21), f.ledger.Total(true))
	assert.Equal(t, int64(21), f.ledger.Total(false))
	assert.Equal(t, int64(0), f.ledger.Savings())
}

func TestSavings(t *testing.T) {
	f := newFixture(t)
	f.selectCurrency(t, 2)
	ctx := context.Background()

	// 370 CUP = 1 USD; 20% off in USD gives 0.8 per unit.
	f.ledger.AddItem(ctx, product(1, 370, true), 5)

	assert.Equal(t, int64(4), f.ledger.Total(true))  // 5 * 0.8
	assert.Equal(t, int64(5), f.ledger.Total(false)) // 5 * 1.0
	assert.Equal(t, int64(1), f.ledger.Savings())
	assert.True(t, f.ledger.HasDiscount())
}

func TestCurrencySwitchRecomputesLines(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := product(1, 370, true)
	f.ledger.AddItem(ctx, p, 2)
	assert.Equal(t, int64(740), f.ledger.Total(true))

	f.selectCurrency(t, 2)

	items := f.ledger.Items()
	require.Len(t, items, 1)
	// 1 USD per unit, 20% off, times two.
	assert.True(t, items[0].LineAmount.Equal(decimal.NewFromFloat(1.6)), "got %s", items[0].LineAmount)
	assert.Equal(t, int64(2), f.ledger.Total(true))

	cur := f.ledger.Currency()
	require.NotNil(t, cur)
	assert.Equal(t, int64(2), cur.ID)

	// Switching back restores the original amounts.
	f.selectCurrency(t, 1)
	assert.Equal(t, int64(740), f.ledger.Total(true))
}

func TestCartPersistence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.ledger.AddItem(ctx, product(1, 100, false), 2)

	payload, ok, err := f.store.Get(ctx, kvstore.KeyCart)
	require.NoError(t, err)
	require.True(t, ok)

	var persisted Cart
	require.NoError(t, json.Unmarshal(payload, &persisted))
	assert.Equal(t, int64(1), persisted.ID)
	require.Len(t, persisted.Items, 1)
	assert.Equal(t, int64(2), persisted.Items[0].Quantity)

	// Emptying the cart deletes the stored record.
	f.ledger.RemoveItem(ctx, product(1, 100, false), 0)
	_, ok, err = f.store.Get(ctx, kvstore.KeyCart)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRestore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.selectCurrency(t, 2)
	f.ledger.AddItem(ctx, product(1, 370, true), 2)
	savedTotal := f.ledger.Total(true)

	// A fresh process over the same store sees the same cart and currency.
	g := &fixture{store: f.store}
	repo := catalog.NewFakeRepository()
	registry := currency.NewRegistry(repo, f.store, logger.Nop())
	calc := pricing.NewCalculator(registry)
	codec, err := kvstore.NewSnapshotCodec()
	require.NoError(t, err)
	g.ledger = NewLedger(calc, registry, f.store, codec, logger.Nop())

	g.ledger.Restore(ctx)

	require.Equal(t, 1, g.ledger.Len())
	assert.Equal(t, savedTotal, g.ledger.Total(true))
	assert.Equal(t, int64(2), registry.SelectedID())
}

func TestRestoreWithoutSnapshotOrCurrency(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// No snapshot at all.
	f.ledger.Restore(ctx)
	assert.True(t, f.ledger.IsEmpty())

	// A snapshot without a currency is discarded.
	payload, err := json.Marshal(Cart{ID: 1, Items: []Item{{Product: product(1, 100, false), Quantity: 1}}})
	require.NoError(t, err)
	require.NoError(t, f.store.Put(ctx, kvstore.KeyCart, payload))

	f.ledger.Restore(ctx)
	assert.True(t, f.ledger.IsEmpty())
	_, ok, err := f.store.Get(ctx, kvstore.KeyCart)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.ledger.AddItem(ctx, product(1, 100, false))
	f.ledger.Clear(ctx)

	assert.True(t, f.ledger.IsEmpty())
	assert.Equal(t, int64(0), f.ledger.Total(true))
	_, ok, err := f.store.Get(ctx, kvstore.KeyCart)
	require.NoError(t, err)
	assert.False(t, ok)
}

// Package kvstore persists small pieces of client state (selected
// currency, cart) in a key/value store.
package kvstore

import "context"

// Well-known keys.
const (
	KeyCart             = "cart"
	KeySelectedCurrency = "selectedCurrency"
)

// Store is a minimal key/value contract. Values are serialized blobs;
// a missing key is not an error.
type Store interface {
	// Get returns the value and whether the key exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Put stores the value under key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes the key. Deleting a missing key is a no-op.
	Delete(ctx context.Context, key string) error
}

// Package kvstore defines the durable key-value store boundary used by the
// ledger and plan repositories. The store guarantees atomic single-key
// put/delete; multi-key atomicity across the ledger and the plan projection
// is the plan engine's responsibility.
package kvstore

import (
	"context"
	"errors"
)

// ErrKeyNotFound indicates the key is absent from the store
var ErrKeyNotFound = errors.New("key not found")

// KV is a single key-value pair returned by Scan
type KV struct {
	Key   string
	Value []byte
}

// Store is the durable store contract
type Store interface {
	// Get returns the value for key, or ErrKeyNotFound
	Get(ctx context.Context, key string) ([]byte, error)
	// Put stores the value under key, overwriting any previous value
	Put(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// Scan returns all pairs whose key starts with prefix, ordered by key.
	// An empty prefix returns every pair.
	Scan(ctx context.Context, prefix string) ([]KV, error)
	// Close releases underlying resources
	Close() error
}

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// memoryCache is a process-local Cache used by tests and deployments
// without redis
type memoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	clock   func() time.Time
}

// NewMemory creates an in-process cache
func NewMemory() Cache {
	return NewMemoryWithClock(time.Now)
}

// NewMemoryWithClock creates an in-process cache with an injected clock,
// so tests can expire entries without sleeping
func NewMemoryWithClock(clock func() time.Time) Cache {
	return &memoryCache{
		entries: make(map[string]memoryEntry),
		clock:   clock,
	}
}

// Set sets a key-value pair with an expiration
func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{data: data, expiresAt: m.clock().Add(expiration)}
	return nil
}

// Get retrieves a value by key and unmarshals it into dest
func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok || m.clock().After(entry.expiresAt) {
		return ErrCacheMiss
	}
	return json.Unmarshal(entry.data, dest)
}

// Del deletes a key
func (m *memoryCache) Del(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

// Close is a no-op for the memory cache
func (m *memoryCache) Close() error {
	return nil
}

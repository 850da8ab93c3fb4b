package cache

import (
	"context"
	"sync"
	"time"

	"github.com/Vansh-Dwivedi/5wh-sub000/internal/clock"
)

// Cache is the TTL cache abstraction shared by the person-photo and weather
// services. Get returns the cached value if present and not expired, Set
// stores a value with TTL. Implementations tolerate concurrent duplicate
// misses; last write wins.
type Cache[T any] interface {
	Get(ctx context.Context, key string) (T, bool, error)
	Set(ctx context.Context, key string, value T, ttl time.Duration) error
}

// InMemory implements Cache with a mutex-guarded map and an injected clock.
// Expired entries are removed on access; entries live for the process
// lifetime, nothing is persisted.
type InMemory[T any] struct {
	mu   sync.Mutex
	clk  clock.Clock
	data map[string]entry[T]
}

type entry[T any] struct {
	value     T
	expiresAt time.Time
}

// NewInMemory creates an in-memory cache reading time through clk.
// A nil clk falls back to the system clock.
func NewInMemory[T any](clk clock.Clock) *InMemory[T] {
	if clk == nil {
		clk = clock.Real{}
	}
	return &InMemory[T]{
		clk:  clk,
		data: make(map[string]entry[T]),
	}
}

// Get retrieves the value for key if present and not expired. An entry older
// than its TTL is treated as absent and deleted on access.
func (c *InMemory[T]) Get(ctx context.Context, key string) (T, bool, error) {
	var zero T
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.data[key]
	if !ok {
		return zero, false, nil
	}
	if c.clk.Now().After(e.expiresAt) {
		delete(c.data, key)
		return zero, false, nil
	}
	return e.value, true, nil
}

// Set stores value under key; it expires ttl after the current clock reading.
func (c *InMemory[T]) Set(ctx context.Context, key string, value T, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = entry[T]{
		value:     value,
		expiresAt: c.clk.Now().Add(ttl),
	}
	return nil
}

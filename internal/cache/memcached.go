package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
)

// Memcached implements Cache backed by memcached, with values stored as JSON.
// Used for the weather cache when several dashboard instances should share
// upstream fetches; quote and photo caches stay in-memory.
type Memcached[T any] struct {
	client *memcache.Client
	prefix string
}

// NewMemcached creates a Memcached cache. addrs is a comma-separated server
// list ("host1:11211,host2:11211"); prefix namespaces keys per cache. Zero
// timeout and maxIdleConns use client defaults.
func NewMemcached[T any](addrs, prefix string, timeout time.Duration, maxIdleConns int) (*Memcached[T], error) {
	servers := parseAddrs(addrs)
	if len(servers) == 0 {
		servers = []string{"localhost:11211"}
	}
	client := memcache.New(servers...)
	if timeout > 0 {
		client.Timeout = timeout
	}
	if maxIdleConns > 0 {
		client.MaxIdleConns = maxIdleConns
	}
	return &Memcached[T]{client: client, prefix: prefix}, nil
}

func parseAddrs(s string) []string {
	var out []string
	for _, a := range strings.Split(s, ",") {
		a = strings.TrimSpace(a)
		if a != "" {
			out = append(out, a)
		}
	}
	return out
}

func (c *Memcached[T]) key(k string) string {
	return c.prefix + strings.ReplaceAll(k, " ", "_")
}

// Get fetches and unmarshals the value for key. A miss or decode failure is
// reported as absent; transport errors are returned.
func (c *Memcached[T]) Get(ctx context.Context, key string) (T, bool, error) {
	var zero T
	item, err := c.client.Get(c.key(key))
	if err == memcache.ErrCacheMiss {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, fmt.Errorf("memcached get: %w", err)
	}
	var v T
	if err := json.Unmarshal(item.Value, &v); err != nil {
		return zero, false, nil
	}
	return v, true, nil
}

// Set marshals and stores value with the given TTL. Memcached expirations are
// whole seconds; sub-second TTLs round up to one second.
func (c *Memcached[T]) Set(ctx context.Context, key string, value T, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("memcached marshal: %w", err)
	}
	secs := int32(ttl / time.Second)
	if secs <= 0 && ttl > 0 {
		secs = 1
	}
	if err := c.client.Set(&memcache.Item{Key: c.key(key), Value: data, Expiration: secs}); err != nil {
		return fmt.Errorf("memcached set: %w", err)
	}
	return nil
}

// Ping checks server reachability. Used by the health endpoint.
func (c *Memcached[T]) Ping() error {
	return c.client.Ping()
}

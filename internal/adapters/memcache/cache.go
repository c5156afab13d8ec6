// Package memcache is the in-process cache tier backed by ristretto.
package memcache

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/samirrijal/roomradar/internal/core/domain"
	"github.com/samirrijal/roomradar/internal/pkg/metrics"
)

const tier = "l1"

// Cache implements ports.CacheService in memory.
type Cache struct {
	impl *ristretto.Cache[string, []byte]
	name string
}

// New creates a cache bounded to maxBytes of values. name labels metrics.
func New(name string, maxBytes int64) (*Cache, error) {
	if maxBytes <= 0 {
		maxBytes = 1 << 24
	}
	impl, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: 1e6,      // number of keys to track frequency of (1M)
		MaxCost:     maxBytes, // maximum total size of values
		BufferItems: 64,       // number of keys per Get buffer
		Metrics:     true,
		Cost: func(v []byte) int64 {
			return int64(len(v))
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create %s cache: %w", name, err)
	}
	return &Cache{impl: impl, name: name}, nil
}

// Get retrieves a value by key.
func (c *Cache) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := c.impl.Get(key)
	if !ok {
		metrics.CacheMisses.WithLabelValues(tier, c.name).Inc()
		return nil, domain.ErrNotFound
	}
	metrics.CacheHits.WithLabelValues(tier, c.name).Inc()
	return v, nil
}

// Set stores a value with a TTL in seconds. Writes are applied
// asynchronously and may be dropped under contention.
func (c *Cache) Set(_ context.Context, key string, value []byte, ttlSeconds int) error {
	c.impl.SetWithTTL(key, value, int64(len(value)), time.Duration(ttlSeconds)*time.Second)
	return nil
}

// Delete removes a key.
func (c *Cache) Delete(_ context.Context, key string) error {
	c.impl.Del(key)
	return nil
}

// Wait blocks until buffered writes are applied.
func (c *Cache) Wait() {
	c.impl.Wait()
}

// Stats summarizes the ristretto counters.
func (c *Cache) Stats() map[string]any {
	m := c.impl.Metrics
	hitRate := 0.0
	if total := m.Hits() + m.Misses(); total > 0 {
		hitRate = float64(m.Hits()) / float64(total) * 100
	}
	return map[string]any{
		"cache":        c.name,
		"hits":         m.Hits(),
		"misses":       m.Misses(),
		"hit_rate":     hitRate,
		"keys_added":   m.KeysAdded(),
		"keys_evicted": m.KeysEvicted(),
		"cost_added":   m.CostAdded(),
		"cost_evicted": m.CostEvicted(),
		"sets_dropped": m.SetsDropped(),
	}
}

// Close stops the cache's background goroutines.
func (c *Cache) Close() {
	c.impl.Close()
}

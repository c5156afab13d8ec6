package memcache

import (
	"context"
	"log/slog"

	"github.com/samirrijal/roomradar/internal/core/ports"
)

// l1MaxTTL caps how long values stay in process so replicas converge
// through the shared tier.
const l1MaxTTL = 60

// Tiered reads through an in-process cache in front of a shared one.
// It implements ports.CacheService.
type Tiered struct {
	l1 ports.CacheService
	l2 ports.CacheService
}

// NewTiered layers l1 over l2. l2 may be nil.
func NewTiered(l1, l2 ports.CacheService) *Tiered {
	return &Tiered{l1: l1, l2: l2}
}

func (t *Tiered) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := t.l1.Get(ctx, key)
	if err == nil || t.l2 == nil {
		return v, err
	}
	v, err = t.l2.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	_ = t.l1.Set(ctx, key, v, l1MaxTTL)
	return v, nil
}

func (t *Tiered) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	_ = t.l1.Set(ctx, key, value, min(ttlSeconds, l1MaxTTL))
	if t.l2 == nil {
		return nil
	}
	if err := t.l2.Set(ctx, key, value, ttlSeconds); err != nil {
		slog.Warn("shared cache write failed", "key", key, "error", err)
		return err
	}
	return nil
}

func (t *Tiered) Delete(ctx context.Context, key string) error {
	_ = t.l1.Delete(ctx, key)
	if t.l2 == nil {
		return nil
	}
	return t.l2.Delete(ctx, key)
}

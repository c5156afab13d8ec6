package usecases

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"

	"github.com/samirrijal/roomradar/internal/core/ports"
)

// readThrough returns the cached value under key or loads, caches and
// returns it. A nil cache always loads.
func readThrough[T any](ctx context.Context, cache ports.CacheService, key string, ttlSeconds int, load func() (T, error)) (T, error) {
	if cache != nil {
		if data, err := cache.Get(ctx, key); err == nil {
			var v T
			if err := json.Unmarshal(data, &v); err == nil {
				return v, nil
			}
		}
	}

	v, err := load()
	if err != nil {
		return v, err
	}

	if cache != nil {
		if data, err := json.Marshal(v); err == nil {
			_ = cache.Set(ctx, key, data, ttlSeconds)
		}
	}
	return v, nil
}

// digest is a short stable key fragment for a JSON-encodable value.
func digest(v any) string {
	data, _ := json.Marshal(v)
	sum := sha1.Sum(data)
	return hex.EncodeToString(sum[:8])
}

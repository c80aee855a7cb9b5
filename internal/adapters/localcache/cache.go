// Package localcache is the single-process domain.Cache used when no Redis
// address is configured.
package localcache

import (
	"context"
	"encoding/json"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"talent_testimonials/internal/adapters/observability"
)

type Cache struct{ c *gocache.Cache }

func New(defaultTTL time.Duration) *Cache {
	return &Cache{c: gocache.New(defaultTTL, 2*defaultTTL)}
}

// Values are stored JSON-encoded so callers never share backing arrays
// with the cached copy.
func (l *Cache) Get(_ context.Context, key string, dst any) (bool, error) {
	v, ok := l.c.Get(key)
	if !ok {
		observability.ObserveCache("local", "miss")
		return false, nil
	}
	if err := json.Unmarshal(v.([]byte), dst); err != nil {
		observability.ObserveCache("local", "miss")
		return false, err
	}
	observability.ObserveCache("local", "hit")
	return true, nil
}

func (l *Cache) Set(_ context.Context, key string, v any, ttlSec int) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	ttl := gocache.DefaultExpiration
	if ttlSec > 0 {
		ttl = time.Duration(ttlSec) * time.Second
	}
	observability.ObserveCache("local", "set")
	l.c.Set(key, b, ttl)
	return nil
}

func (l *Cache) Del(_ context.Context, key string) error {
	observability.ObserveCache("local", "del")
	l.c.Delete(key)
	return nil
}

package external

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const cacheCleanupInterval = 10 * time.Minute

func newCache(defaultTTL time.Duration) *gocache.Cache {
	return gocache.New(defaultTTL, cacheCleanupInterval)
}

func cached[T any](c *gocache.Cache, key string) (T, bool) {
	var zero T
	v, found := c.Get(key)
	if !found {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

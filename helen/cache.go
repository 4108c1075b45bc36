package helen

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const DefaultCacheTTL = time.Hour

// memo caches accessor results by their argument tuple. Entries expire by
// age and the least recently used entry is evicted when the cache is full.
// Errors are never cached.
type memo[V any] struct {
	name   string
	lru    *expirable.LRU[string, V]
	client *Client
}

func newMemo[V any](c *Client, name string, size int) *memo[V] {
	return &memo[V]{
		name:   name,
		lru:    expirable.NewLRU[string, V](size, nil, c.cacheTTL),
		client: c,
	}
}

func (m *memo[V]) get(key string, load func() (V, error)) (V, error) {
	if v, ok := m.lru.Get(key); ok {
		m.client.logger.Debug("cache hit", slog.String("cache", m.name), slog.String("key", key))
		m.client.metrics.observeCache(m.name, true)
		return v, nil
	}
	m.client.metrics.observeCache(m.name, false)

	v, err := load()
	if err != nil {
		return v, err
	}
	m.lru.Add(key, v)
	return v, nil
}

func (m *memo[V]) purge() {
	m.lru.Purge()
}

func cacheKey(args ...any) string {
	key := ""
	for i, a := range args {
		if i > 0 {
			key += "|"
		}
		if t, ok := a.(time.Time); ok {
			key += t.Format(time.DateOnly)
			continue
		}
		key += fmt.Sprint(a)
	}
	return key
}

package corrector

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// memo is a bounded LRU keyed by string. golang-lru locks internally, so
// eviction is atomic with respect to concurrent inserts and the entry count
// never exceeds the configured capacity.
type memo[V any] struct {
	name  string
	cache *lru.Cache[string, V]
}

func newMemo[V any](name string, capacity int) (*memo[V], error) {
	c, err := lru.NewWithEvict[string, V](capacity, func(string, V) {
		cacheEvictions.WithLabelValues(name).Inc()
	})
	if err != nil {
		return nil, err
	}
	return &memo[V]{name: name, cache: c}, nil
}

func (m *memo[V]) get(key string) (V, bool) {
	v, ok := m.cache.Get(key)
	if ok {
		cacheRequests.WithLabelValues(m.name, "hit").Inc()
	} else {
		cacheRequests.WithLabelValues(m.name, "miss").Inc()
	}
	return v, ok
}

func (m *memo[V]) add(key string, v V) {
	m.cache.Add(key, v)
}

func (m *memo[V]) size() int {
	return m.cache.Len()
}

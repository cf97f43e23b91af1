package batch

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// memo caches conversions by exact text. Concurrent requests for the same
// text share one computation. Once full, new results are not stored.
type memo struct {
	group singleflight.Group

	mu     sync.RWMutex
	values map[string]conversion
	limit  int
}

func newMemo(limit int) *memo {
	return &memo{values: make(map[string]conversion), limit: limit}
}

// do returns the cached conversion for key or computes it with fn. A nil
// memo always calls fn.
func (m *memo) do(key string, fn func() conversion) conversion {
	if m == nil {
		return fn()
	}
	if v, ok := m.get(key); ok {
		return v
	}

	v, _, _ := m.group.Do(key, func() (any, error) {
		if v, ok := m.get(key); ok {
			return v, nil
		}
		conv := fn()
		// Fallbacks may be transient; let a later call retry the generator.
		if conv.err == nil {
			m.put(key, conv)
		}
		return conv, nil
	})
	return v.(conversion)
}

func (m *memo) get(key string) (conversion, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

func (m *memo) put(key string, conv conversion) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.limit > 0 && len(m.values) >= m.limit {
		return
	}
	m.values[key] = conv
}

func (m *memo) len() int {
	if m == nil {
		return 0
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}

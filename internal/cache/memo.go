package cache

import (
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/shopware/vuemodel/internal/source"
)

// Stats are the counters of one memo
type Stats struct {
	Name           string `json:"name"`
	Hits           int64  `json:"hits"`
	Misses         int64  `json:"misses"`
	Recomputations int64  `json:"recomputations"`
	Entries        int    `json:"entries"`
	Disabled       bool   `json:"disabled"`
}

type memoEntry[V any] struct {
	stamp int64
	node  *source.Node
	value V
}

// Memo caches derived values keyed by node identity (or any comparable
// key) together with the modification stamp they were computed at. An entry
// is only served while the stamp is unchanged and its key node is valid.
// Concurrent misses of one key are collapsed into a single computation.
type Memo[K comparable, V any] struct {
	name     string
	stamp    func() int64
	disabled bool

	mu      sync.RWMutex
	entries map[K]memoEntry[V]
	group   singleflight.Group

	hits           atomic.Int64
	misses         atomic.Int64
	recomputations atomic.Int64
}

// NewMemo creates a memo; stamp returns the current modification stamp
func NewMemo[K comparable, V any](name string, stamp func() int64) *Memo[K, V] {
	return &Memo[K, V]{
		name:    name,
		stamp:   stamp,
		entries: make(map[K]memoEntry[V]),
	}
}

// Disabled creates a memo that always computes
func Disabled[K comparable, V any](name string) *Memo[K, V] {
	return &Memo[K, V]{
		name:     name,
		stamp:    func() int64 { return 0 },
		disabled: true,
		entries:  make(map[K]memoEntry[V]),
	}
}

// Get returns the cached value for key or computes it. node is the
// declaration node the value was derived from; it may be nil for keys that
// do not reference a node.
func (m *Memo[K, V]) Get(key K, node *source.Node, compute func() V) V {
	if m.disabled {
		m.misses.Add(1)
		return compute()
	}

	stamp := m.stamp()
	if value, ok := m.lookup(key, stamp); ok {
		m.hits.Add(1)
		return value
	}

	result, _, _ := m.group.Do(fmt.Sprintf("%d\x00%v", stamp, key), func() (any, error) {
		// another caller may have stored it while we waited
		if value, ok := m.lookup(key, stamp); ok {
			m.hits.Add(1)
			return value, nil
		}

		m.misses.Add(1)
		value := compute()

		m.mu.Lock()
		if _, existed := m.entries[key]; existed {
			m.recomputations.Add(1)
		}
		m.entries[key] = memoEntry[V]{stamp: stamp, node: node, value: value}
		m.mu.Unlock()

		return value, nil
	})

	return result.(V)
}

func (m *Memo[K, V]) lookup(key K, stamp int64) (V, bool) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	var zero V
	if !ok || e.stamp != stamp {
		return zero, false
	}
	if e.node != nil && !e.node.Valid() {
		return zero, false
	}
	return e.value, true
}

// Prune drops entries computed at an older stamp
func (m *Memo[K, V]) Prune() int {
	stamp := m.stamp()

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, e := range m.entries {
		if e.stamp != stamp || (e.node != nil && !e.node.Valid()) {
			delete(m.entries, key)
			removed++
		}
	}
	return removed
}

// Clear drops every entry
func (m *Memo[K, V]) Clear() {
	m.mu.Lock()
	m.entries = make(map[K]memoEntry[V])
	m.mu.Unlock()
}

func (m *Memo[K, V]) Stats() Stats {
	m.mu.RLock()
	entries := len(m.entries)
	m.mu.RUnlock()

	return Stats{
		Name:           m.name,
		Hits:           m.hits.Load(),
		Misses:         m.misses.Load(),
		Recomputations: m.recomputations.Load(),
		Entries:        entries,
		Disabled:       m.disabled,
	}
}

package shard

import (
	"sync/atomic"

	"github.com/krisalay/datacache/types"
)

/*
This file defines how data is actually stored inside a shard.
- Reads should be very fast and should NOT require locks
- Writes are less frequent and can afford extra work

To achieve this, we use "Copy-On-Write" (COW).
*/

// ShardStore is the interface used by a shard to store and retrieve entries.
type ShardStore[V any] interface {

	// Get retrieves an entry by key.
	Get(string) (*types.Entry[V], bool)

	// Put inserts or replaces an entry.
	Put(string, *types.Entry[V])

	// Delete removes an entry. It reports whether the key was present.
	Delete(string) bool

	// Clear removes every entry.
	Clear()

	// Keys returns the stored keys in no particular order.
	Keys() []string

	// Size returns how many entries are stored.
	Size() int64
}

/*
cowStore is a Copy-On-Write implementation of ShardStore.
- Readers always see an immutable snapshot
- Writers build a NEW map and swap it in atomically

Writers must be serialised by the owning shard's mutex.
*/
type cowStore[V any] struct {

	// data holds the current map[string]*types.Entry[V] snapshot.
	data atomic.Pointer[map[string]*types.Entry[V]]

	// size tracks the number of entries so Size never walks the map.
	size atomic.Int64
}

func NewCOWStore[V any]() *cowStore[V] {
	s := &cowStore[V]{}
	m := make(map[string]*types.Entry[V])
	s.data.Store(&m)
	return s
}

func (s *cowStore[V]) snapshot() map[string]*types.Entry[V] {
	return *s.data.Load()
}

func (s *cowStore[V]) swap(m map[string]*types.Entry[V]) {
	s.data.Store(&m)
	s.size.Store(int64(len(m)))
}

// Get retrieves an entry from the current snapshot.
func (s *cowStore[V]) Get(key string) (*types.Entry[V], bool) {
	ent, ok := s.snapshot()[key]
	return ent, ok
}

// Put copies the current map, adds or replaces key and swaps the copy in.
func (s *cowStore[V]) Put(key string, ent *types.Entry[V]) {
	old := s.snapshot()

	n := make(map[string]*types.Entry[V], len(old)+1)
	for k, v := range old {
		n[k] = v
	}
	n[key] = ent

	s.swap(n)
}

// Delete removes an entry. Just like Put, this uses copy-on-write.
func (s *cowStore[V]) Delete(key string) bool {
	old := s.snapshot()
	if _, ok := old[key]; !ok {
		return false
	}

	n := make(map[string]*types.Entry[V], len(old))
	for k, v := range old {
		if k != key {
			n[k] = v
		}
	}

	s.swap(n)
	return true
}

// Clear swaps in an empty map. Readers holding the old snapshot are unaffected.
func (s *cowStore[V]) Clear() {
	s.swap(make(map[string]*types.Entry[V]))
}

func (s *cowStore[V]) Keys() []string {
	m := s.snapshot()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

// Size returns how many entries are in the store.
func (s *cowStore[V]) Size() int64 {
	return s.size.Load()
}

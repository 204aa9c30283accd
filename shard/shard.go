package shard

import (
	"sync"
)

// maxInvalidationMarks bounds the per-key marks a shard keeps. Beyond it the
// marks are folded into a single floor ticket.
const maxInvalidationMarks = 4096

/*
A Shard is a small, independent piece of the cache.
Instead of one map behind one lock, entries are split across shards. Each shard:
- Holds some portion of the data
- Has its own lock for writes
- Remembers when each of its keys was last invalidated
*/
type Shard[V any] struct {

	// Store holds the key → entry data for this shard.
	// It is a copy-on-write store that allows lock-free reads.
	Store ShardStore[V]

	// Mu serialises writes on this shard. Reads never take it.
	Mu sync.Mutex

	// invalidated maps a key to the ticket of its latest invalidation.
	// Guarded by Mu.
	invalidated map[string]uint64

	// floor is the highest ticket among folded marks. It applies to every key.
	floor uint64
}

func NewShard[V any]() *Shard[V] {
	return &Shard[V]{
		Store:       NewCOWStore[V](),
		invalidated: make(map[string]uint64),
	}
}

// MarkInvalidated records that key was invalidated at ticket. Mu must be held.
//
// When the shard holds too many marks they are folded into the floor. A fetch
// that started before the floor is then dropped whatever its key; it costs a
// re-fetch, never a stale value.
func (s *Shard[V]) MarkInvalidated(key string, ticket uint64) {
	if _, ok := s.invalidated[key]; !ok && len(s.invalidated) >= maxInvalidationMarks {
		for _, t := range s.invalidated {
			s.floor = max(s.floor, t)
		}
		clear(s.invalidated)
	}
	s.invalidated[key] = max(s.invalidated[key], ticket)
}

// InvalidatedAt returns the ticket of the latest invalidation of key, or 0.
// Mu must be held.
func (s *Shard[V]) InvalidatedAt(key string) uint64 {
	return max(s.invalidated[key], s.floor)
}

// Reset drops all entries and invalidation marks. The caller fences off
// older fetches with its own clear ticket. Mu must be held.
func (s *Shard[V]) Reset() {
	s.Store.Clear()
	clear(s.invalidated)
}

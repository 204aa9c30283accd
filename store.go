package cache

import (
	"context"
	"errors"
	"slices"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/krisalay/datacache/api"
	"github.com/krisalay/datacache/engine"
	"github.com/krisalay/datacache/refresh"
	"github.com/krisalay/datacache/shard"
	"github.com/krisalay/datacache/types"
)

var (
	// ErrClosed is returned by GetOrFetch after Close.
	ErrClosed = errors.New("cache is closed")

	// ErrNilFetcher is returned when GetOrFetch misses and has nothing to call.
	ErrNilFetcher = errors.New("fetcher cannot be nil")
)

var _ api.Cache[any] = (*Store[any])(nil)

/*
Store is the cache store: a key → value mapping with no eviction,
no TTL and no size bound. Entries leave only through Delete, Invalidate,
Clear or Close.

This struct is the orchestrator that connects:
- shards (storage)
- the engine (fetching, metrics, logging, hooks)
- invalidation tickets

Every Store is constructed explicitly; there is no package-level instance.
*/
type Store[V any] struct {
	// shards are the actual storage units.
	shards []*shard.Shard[V]

	// engine contains the "rules" around fetching and invalidation.
	engine *engine.CacheEngine

	// selector decides which shard a key should go to.
	selector shard.Selector

	// seq hands out invalidation tickets. A fetch remembers seq at its start;
	// an invalidation advances it.
	seq atomic.Uint64

	// clearedAt is the ticket of the latest full clear.
	clearedAt atomic.Uint64

	// hooks are this store's invalidation listeners. Engine hooks observe
	// every store sharing the engine; these only hear about this one.
	hooks *refresh.Broadcaster

	// sf coalesces fetches of this store only, so values never cross stores.
	sf singleflight.Group

	closed atomic.Bool
}

// NewStore creates a store split into the given number of shards.
// A nil engine means engine.Default().
func NewStore[V any](shards int, e *engine.CacheEngine) *Store[V] {
	if shards < 1 {
		shards = 1
	}
	if e == nil {
		e = engine.Default()
	}

	s := make([]*shard.Shard[V], shards)
	for i := range s {
		s[i] = shard.NewShard[V]()
	}

	return &Store[V]{
		shards:   s,
		engine:   e,
		selector: shard.HashSelector{},
		hooks:    refresh.NewBroadcaster(),
	}
}

func (c *Store[V]) shardFor(key string) *shard.Shard[V] {
	return c.shards[c.selector.Index(key, len(c.shards))]
}

// Engine returns the engine the store fetches through.
func (c *Store[V]) Engine() *engine.CacheEngine {
	return c.engine
}

/*
Get retrieves a value from the store without fetching.
*/
func (c *Store[V]) Get(key string) (V, bool) {
	if ent, ok := c.shardFor(key).Store.Get(key); ok {
		return ent.Value, true
	}
	var zero V
	return zero, false
}

/*
Set stores a value unconditionally.
*/
func (c *Store[V]) Set(key string, value V) {
	if c.closed.Load() {
		return
	}

	sh := c.shardFor(key)
	sh.Mu.Lock()
	defer sh.Mu.Unlock()

	sh.Store.Put(key, &types.Entry[V]{Key: key, Value: value, StoredAt: time.Now()})
}

/*
Delete removes one entry. Removing a missing key is safe.
Unlike Invalidate it does not issue a ticket or notify hooks.
*/
func (c *Store[V]) Delete(key string) {
	sh := c.shardFor(key)
	sh.Mu.Lock()
	defer sh.Mu.Unlock()

	sh.Store.Delete(key)
}

/*
Clear removes every entry. It does not issue a ticket or notify hooks.
*/
func (c *Store[V]) Clear() {
	for _, sh := range c.shards {
		sh.Mu.Lock()
		sh.Store.Clear()
		sh.Mu.Unlock()
	}
}

/*
Invalidate drops the given keys, or every key when called with none.

Fetches that started before the invalidation cannot write their result
back, so the next access for an invalidated key always re-fetches.
Registered refresh hooks are told about each key (or the clear).
*/
func (c *Store[V]) Invalidate(keys ...string) {
	if len(keys) == 0 {
		c.Purge()
		c.engine.OnClear()
		return
	}

	for _, key := range keys {
		ticket := c.seq.Add(1)
		sh := c.shardFor(key)
		sh.Mu.Lock()
		sh.Store.Delete(key)
		sh.MarkInvalidated(key, ticket)
		sh.Mu.Unlock()
		c.engine.OnInvalidate(key)
		c.hooks.OnInvalidate(key)
	}
}

/*
Purge is Invalidate with no keys, minus the engine notification: in-flight
fetches are fenced off and this store's watchers hear the clear, but engine
metrics and hooks do not. Clearing several stores on one engine, call Purge
on each and Engine().OnClear() once.
*/
func (c *Store[V]) Purge() {
	ticket := c.seq.Add(1)
	c.clearedAt.Store(ticket)
	for _, sh := range c.shards {
		sh.Mu.Lock()
		sh.Reset()
		sh.Mu.Unlock()
	}
	c.hooks.OnClear()
}

// Ticket returns the current invalidation sequence. Pass it to Commit
// when the value was fetched outside GetOrFetch.
func (c *Store[V]) Ticket() uint64 {
	return c.seq.Load()
}

/*
Commit stores value under key unless key was invalidated (or the store
cleared or closed) after ticket was taken. It reports whether the value
was stored.
*/
func (c *Store[V]) Commit(key string, value V, ticket uint64) bool {
	if c.closed.Load() {
		return false
	}

	sh := c.shardFor(key)
	sh.Mu.Lock()
	defer sh.Mu.Unlock()

	if c.clearedAt.Load() > ticket || sh.InvalidatedAt(key) > ticket {
		c.engine.Metrics.Stale()
		c.engine.Logger.Debug().Str("key", key).Msg("dropped stale fetch result")
		return false
	}

	sh.Store.Put(key, &types.Entry[V]{Key: key, Value: value, StoredAt: time.Now()})
	return true
}

/*
GetOrFetch returns the cached value for key, or fetches it on a miss.

A successful fetch is stored (subject to Commit's ticket rule) and returned.
A failed fetch leaves the key uncached and returns the error.
*/
func (c *Store[V]) GetOrFetch(ctx context.Context, key string, f types.Fetcher[V]) (V, error) {
	var zero V
	if c.closed.Load() {
		return zero, ErrClosed
	}

	if v, ok := c.Get(key); ok {
		c.engine.Metrics.Hit()
		return v, nil
	}

	c.engine.Metrics.Miss()
	if f == nil {
		return zero, ErrNilFetcher
	}

	ticket := c.Ticket()
	v, err := c.Fetch(ctx, key, f)
	if err != nil {
		return zero, err
	}

	c.Commit(key, v, ticket)
	return v, nil
}

// Fetch runs f for key through the engine without touching the store.
// With coalescing on, concurrent calls for key on this store share one call.
func (c *Store[V]) Fetch(ctx context.Context, key string, f types.Fetcher[V]) (V, error) {
	return engine.Fetch(ctx, c.engine, &c.sf, key, f)
}

// Len returns the number of cached entries.
func (c *Store[V]) Len() int {
	var n int64
	for _, sh := range c.shards {
		n += sh.Store.Size()
	}
	return int(n)
}

// Keys returns the cached keys in sorted order.
func (c *Store[V]) Keys() []string {
	var keys []string
	for _, sh := range c.shards {
		keys = append(keys, sh.Store.Keys()...)
	}
	slices.Sort(keys)
	return keys
}

// Watch registers h for invalidation notifications until the returned
// function is called or the store is closed.
func (c *Store[V]) Watch(h refresh.Hook) (unwatch func()) {
	return c.hooks.Register(h)
}

/*
Close shuts the store down: entries are dropped, hooks are released and
later fetches fail with ErrClosed. Close is idempotent.
*/
func (c *Store[V]) Close() {
	if c.closed.Swap(true) {
		return
	}
	c.clearedAt.Store(c.seq.Add(1))
	c.Clear()
	c.hooks.Reset()
}

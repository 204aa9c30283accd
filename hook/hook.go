// Package hook binds a cache key and a fetcher to the lifetime of a
// subscriber, the way a UI component asks for its data on every render.
//
// A Subscriber is mounted with New and released with Unmount. Each call to
// Use is one render: it returns whatever is known for the key right now and,
// on a miss, starts the fetch. Asynchronous results arrive later; the
// subscriber is told to render again through Updates.
package hook

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	cache "github.com/krisalay/datacache"
	"github.com/krisalay/datacache/engine"
	"github.com/krisalay/datacache/refresh"
	"github.com/krisalay/datacache/types"
)

// Option configures a Subscriber.
type Option func(*options)

type options struct {
	watch bool
}

// WithWatchInvalidation makes the subscriber react to invalidation of its
// active key: Updates fires and the next Use fetches again. Without it the
// subscriber keeps its last value until the key changes or it is remounted.
func WithWatchInvalidation() Option {
	return func(o *options) { o.watch = true }
}

// Subscriber is one consumer of a Store. Its methods are safe for concurrent use.
type Subscriber[V any] struct {
	store   *cache.Store[V]
	engine  *engine.CacheEngine
	log     zerolog.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	updates chan struct{}
	unwatch func()

	mu          sync.Mutex
	active      Key
	gen         uint64 // bumped on every key change and on unmount
	state       State
	value       V
	err         error
	stale       bool // active key was invalidated while watching
	cancelFetch context.CancelFunc
	unmounted   bool
}

// New mounts a subscriber on store. Fetches it starts run under a context
// derived from ctx and are cancelled by Unmount.
func New[V any](ctx context.Context, store *cache.Store[V], opts ...Option) *Subscriber[V] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	ctx, cancel := context.WithCancel(ctx)
	e := store.Engine()
	s := &Subscriber[V]{
		store:   store,
		engine:  e,
		log:     e.Logger.With().Str("component", "hook").Logger(),
		ctx:     ctx,
		cancel:  cancel,
		updates: make(chan struct{}, 1),
	}
	if o.watch {
		s.unwatch = store.Watch(refresh.Funcs{
			Invalidate: s.onInvalidate,
			Clear:      s.onClear,
		})
	}
	return s
}

// Updates receives a value whenever the subscriber should call Use again.
// Signals coalesce. The channel is closed by Unmount.
func (s *Subscriber[V]) Updates() <-chan struct{} {
	return s.updates
}

/*
Use returns the data for key and starts a fetch on a miss.

BEHAVIOR:
---------
- NullKey: Idle, no fetch
- key cached: Ready with the cached value
- key not cached: f is invoked once. A synchronous fetcher (types.Compute)
  runs inline and its result is returned. Any other fetcher runs on its own
  goroutine; Use returns Loading and Updates fires when it settles.
- Failed stays Failed until Retry, a key change or a remount.

Only the most recent key's result is ever delivered. Changing key cancels
the previous fetch; if it completes anyway its value may still be cached
under its own key.
*/
func (s *Subscriber[V]) Use(key Key, f types.Fetcher[V]) Result[V] {
	s.mu.Lock()

	if s.unmounted {
		s.mu.Unlock()
		return Result[V]{Key: key, State: Idle}
	}
	if key != s.active {
		s.switchLocked(key)
	}
	if !key.Valid() {
		s.mu.Unlock()
		return Result[V]{Key: key, State: Idle}
	}

	if v, ok := s.store.Get(key.name); ok {
		s.engine.Metrics.Hit()
		s.state, s.value, s.err, s.stale = Ready, v, nil, false
		r := s.resultLocked()
		s.mu.Unlock()
		return r
	}

	switch {
	case s.state == Loading, s.state == Failed:
		r := s.resultLocked()
		s.mu.Unlock()
		return r
	case s.state == Ready && !s.stale:
		// Invalidated underneath us, but nobody asked us to notice.
		r := s.resultLocked()
		s.mu.Unlock()
		return r
	}

	if f == nil {
		s.state, s.err = Failed, cache.ErrNilFetcher
		r := s.resultLocked()
		s.mu.Unlock()
		return r
	}

	s.engine.Metrics.Miss()
	var zero V
	s.state, s.value, s.err, s.stale = Loading, zero, nil, false

	gen := s.gen
	ctx, cancel := context.WithCancel(s.ctx)
	s.cancelFetch = cancel
	ticket := s.store.Ticket()
	s.mu.Unlock()

	if types.IsSynchronous(f) {
		v, err := s.store.Fetch(ctx, key.name, f)
		s.settle(key, gen, ticket, v, err, false)
		return s.Current()
	}

	go func() {
		v, err := s.store.Fetch(ctx, key.name, f)
		s.settle(key, gen, ticket, v, err, true)
	}()
	return Result[V]{Key: key, State: Loading}
}

// Current returns the last result without fetching.
func (s *Subscriber[V]) Current() Result[V] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resultLocked()
}

// Retry clears a Failed state so the next Use fetches again.
func (s *Subscriber[V]) Retry() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.unmounted || s.state != Failed {
		return
	}
	s.state, s.err = Idle, nil
	s.signalLocked()
}

/*
Unmount releases the subscriber. In-flight fetches are cancelled and
their results, if any still arrive, are never applied. The shared store
keeps whatever it already holds.
*/
func (s *Subscriber[V]) Unmount() {
	s.mu.Lock()
	if s.unmounted {
		s.mu.Unlock()
		return
	}
	s.unmounted = true
	s.gen++
	var zero V
	s.value = zero
	close(s.updates)
	s.mu.Unlock()

	s.cancel()
	if s.unwatch != nil {
		s.unwatch()
	}
}

// switchLocked makes key active and forgets everything about the old one.
func (s *Subscriber[V]) switchLocked(key Key) {
	if s.cancelFetch != nil {
		s.cancelFetch()
		s.cancelFetch = nil
	}
	s.log.Debug().Stringer("from", s.active).Stringer("to", key).Msg("key changed")

	var zero V
	s.active = key
	s.gen++
	s.state, s.value, s.err, s.stale = Idle, zero, nil, false
}

// settle applies a finished fetch. The value is offered to the store even
// when the subscriber has moved on; the store decides by ticket.
func (s *Subscriber[V]) settle(key Key, gen, ticket uint64, v V, err error, notify bool) {
	if err == nil {
		s.store.Commit(key.name, v, ticket)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.unmounted || s.gen != gen {
		s.engine.Metrics.Stale()
		s.log.Debug().Stringer("key", key).Msg("dropped result for inactive key")
		return
	}

	if s.cancelFetch != nil {
		s.cancelFetch()
		s.cancelFetch = nil
	}
	if err != nil {
		s.state, s.err = Failed, err
	} else {
		s.state, s.value = Ready, v
	}
	if notify {
		s.signalLocked()
	}
}

func (s *Subscriber[V]) onInvalidate(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.unmounted || !s.active.Valid() || s.active.name != key {
		return
	}
	s.markStaleLocked()
}

func (s *Subscriber[V]) onClear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.unmounted || !s.active.Valid() {
		return
	}
	s.markStaleLocked()
}

func (s *Subscriber[V]) markStaleLocked() {
	if s.state == Failed || s.state == Idle {
		return
	}
	s.stale = true
	s.signalLocked()
}

// signalLocked asks for a re-render without ever blocking.
func (s *Subscriber[V]) signalLocked() {
	select {
	case s.updates <- struct{}{}:
	default:
	}
}

func (s *Subscriber[V]) resultLocked() Result[V] {
	return Result[V]{Key: s.active, State: s.state, Value: s.value, Err: s.err}
}

package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/krisalay/datacache/refresh"
	"github.com/krisalay/datacache/types"
)

var (
	// ErrFetchPanicked wraps the value recovered from a panicking fetcher.
	ErrFetchPanicked = errors.New("fetcher panicked")

	// ErrTypeMismatch is returned when a coalesced fetch produced a value of
	// another type than the caller expects.
	ErrTypeMismatch = errors.New("coalesced fetch returned a different type")
)

/*
CacheEngine is the policy layer of the cache.
It is responsible for the "behavior" around fetching, NOT storage.

It decides:
- How a fetcher is invoked (timeout, panic recovery, optional coalescing)
- How fetch outcomes and invalidations are recorded (metrics, logs)
- Who hears about invalidations (refresh hooks)

It does NOT:
- Store data
- Handle sharding
- Handle locking
*/
type CacheEngine struct {

	// Hooks receives every invalidation from every store built on this engine.
	Hooks *refresh.Broadcaster

	// Metrics is how we keep track of what the cache is doing.
	Metrics types.Metrics

	// Logger receives fetch and invalidation events.
	Logger zerolog.Logger

	// Coalesce makes concurrent fetches of the same key share one fetcher
	// call within a singleflight group owned by the caller.
	// Off by default: every miss invokes its own fetcher.
	Coalesce bool

	// FetchTimeout bounds every fetch. Zero means no bound beyond the caller's context.
	FetchTimeout time.Duration
}

/*
NewCacheEngine creates a CacheEngine. Any hooks given are registered on
the engine's broadcaster for its whole lifetime.
*/
func NewCacheEngine(
	metrics types.Metrics,
	logger zerolog.Logger,
	coalesce bool,
	fetchTimeout time.Duration,
	hooks ...refresh.Hook,
) *CacheEngine {

	// Ensure metrics is always non-nil
	if metrics == nil {
		metrics = types.NoopMetrics{}
	}

	b := refresh.NewBroadcaster()
	for _, h := range hooks {
		b.Register(h)
	}

	return &CacheEngine{
		Hooks:        b,
		Metrics:      metrics,
		Logger:       logger,
		Coalesce:     coalesce,
		FetchTimeout: fetchTimeout,
	}
}

// Default returns an engine with no metrics, no logging and no coalescing.
func Default() *CacheEngine {
	return NewCacheEngine(nil, zerolog.Nop(), false, 0)
}

/*
Fetch invokes f for key under the engine's rules.

When Coalesce is on and g is non-nil, concurrent calls for the same key in
g wait for one shared fetcher call and share its result and error. The
shared call runs detached from every caller's cancellation, bounded only by
FetchTimeout; each caller stops waiting when its own ctx is done. Callers
own g, so flights never cross value types. Synchronous fetchers are never
coalesced.
*/
func Fetch[V any](ctx context.Context, e *CacheEngine, g *singleflight.Group, key string, f types.Fetcher[V]) (V, error) {
	if !e.Coalesce || g == nil || types.IsSynchronous(f) {
		return run(ctx, e, key, f)
	}

	shared := context.WithoutCancel(ctx)
	ch := g.DoChan(key, func() (any, error) {
		return run(shared, e, key, f)
	})

	var zero V
	select {
	case res := <-ch:
		if res.Shared {
			e.Logger.Debug().Str("key", key).Msg("fetch coalesced")
		}
		if res.Err != nil {
			return zero, res.Err
		}
		if res.Val == nil {
			return zero, nil
		}
		v, ok := res.Val.(V)
		if !ok {
			return zero, fmt.Errorf("%w: key %q holds %T, want %T", ErrTypeMismatch, key, res.Val, zero)
		}
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func run[V any](ctx context.Context, e *CacheEngine, key string, f types.Fetcher[V]) (v V, err error) {
	if e.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.FetchTimeout)
		defer cancel()
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrFetchPanicked, r)
		}
		if err != nil {
			e.Metrics.FetchError()
			e.Logger.Warn().
				Err(err).
				Str("key", key).
				Dur("took", time.Since(start)).
				Msg("fetch failed")
			return
		}
		e.Metrics.Fetch()
		e.Logger.Debug().
			Str("key", key).
			Dur("took", time.Since(start)).
			Msg("fetched")
	}()

	return f.Fetch(ctx)
}

// OnInvalidate records the invalidation of key and notifies hooks.
func (e *CacheEngine) OnInvalidate(key string) {
	e.Metrics.Invalidate()
	e.Logger.Debug().Str("key", key).Msg("invalidated")
	e.Hooks.OnInvalidate(key)
}

// OnClear records a full clear and notifies hooks.
func (e *CacheEngine) OnClear() {
	e.Metrics.Invalidate()
	e.Logger.Debug().Msg("cleared")
	e.Hooks.OnClear()
}

package cache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	cache "github.com/krisalay/datacache"
	"github.com/krisalay/datacache/engine"
	"github.com/krisalay/datacache/refresh"
	"github.com/krisalay/datacache/types"
)

//
// ================= TEST FETCHERS =================
//

// countingFetcher returns value and counts how often it ran.
type countingFetcher[V any] struct {
	calls atomic.Int64
	value V
	err   error
}

func (f *countingFetcher[V]) Fetch(context.Context) (V, error) {
	f.calls.Add(1)
	return f.value, f.err
}

//
// ================= HELPER: CREATE STORE =================
//

func newTestStore[V any](coalesce bool) *cache.Store[V] {
	e := engine.NewCacheEngine(nil, zerolog.Nop(), coalesce, time.Second)
	return cache.NewStore[V](2, e)
}

//
// ================= BASIC OPERATIONS =================
//

func TestSetAndGet(t *testing.T) {
	c := newTestStore[string](false)

	c.Set("cms-content", "v1")
	v, ok := c.Get("cms-content")
	if !ok || v != "v1" {
		t.Fatalf("expected v1, got %v (ok=%v)", v, ok)
	}

	c.Set("cms-content", "v2")
	if v, _ := c.Get("cms-content"); v != "v2" {
		t.Fatalf("expected v2, got %v", v)
	}

	if _, ok := c.Get("missing"); ok {
		t.Fatalf("expected miss for unknown key")
	}
}

func TestDeleteAndClear(t *testing.T) {
	c := newTestStore[int](false)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	c.Delete("a")
	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected a to be deleted")
	}
	if c.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", c.Len())
	}

	keys := c.Keys()
	if len(keys) != 2 || keys[0] != "b" || keys[1] != "c" {
		t.Fatalf("expected [b c], got %v", keys)
	}

	c.Clear()
	if c.Len() != 0 {
		t.Fatalf("expected empty store, got %d", c.Len())
	}
}

//
// ================= READ-THROUGH =================
//

func TestGetOrFetchCachesResult(t *testing.T) {
	ctx := context.Background()
	c := newTestStore[*int](false)

	one := 1
	f := &countingFetcher[*int]{value: &one}

	v1, err := c.GetOrFetch(ctx, "a", f)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	v2, _ := c.GetOrFetch(ctx, "a", &countingFetcher[*int]{})

	if v1 != v2 {
		t.Fatalf("expected the same value object on the second call")
	}
	if f.calls.Load() != 1 {
		t.Fatalf("expected 1 fetch, got %d", f.calls.Load())
	}
}

func TestGetOrFetchErrorLeavesKeyUncached(t *testing.T) {
	ctx := context.Background()
	c := newTestStore[int](false)

	boom := errors.New("mass-times.json unreadable")
	if _, err := c.GetOrFetch(ctx, "mass-times", &countingFetcher[int]{err: boom}); !errors.Is(err, boom) {
		t.Fatalf("expected fetch error, got %v", err)
	}
	if _, ok := c.Get("mass-times"); ok {
		t.Fatalf("failed fetch must not populate the store")
	}

	v, err := c.GetOrFetch(ctx, "mass-times", &countingFetcher[int]{value: 7})
	if err != nil || v != 7 {
		t.Fatalf("expected retry to succeed with 7, got %v, %v", v, err)
	}
}

func TestGetOrFetchNilFetcher(t *testing.T) {
	c := newTestStore[int](false)

	if _, err := c.GetOrFetch(context.Background(), "a", nil); !errors.Is(err, cache.ErrNilFetcher) {
		t.Fatalf("expected ErrNilFetcher, got %v", err)
	}
}

//
// ================= INVALIDATION =================
//

func TestInvalidateKey(t *testing.T) {
	ctx := context.Background()
	c := newTestStore[int](false)

	c.Set("c", 5)
	c.Invalidate("c")

	v, err := c.GetOrFetch(ctx, "c", &countingFetcher[int]{value: 6})
	if err != nil || v != 6 {
		t.Fatalf("expected 6 after invalidation, got %v, %v", v, err)
	}
}

func TestInvalidateAll(t *testing.T) {
	ctx := context.Background()
	c := newTestStore[string](false)

	keys := []string{"cms-content", "mass-times", "church-entity-1"}
	for _, k := range keys {
		c.Set(k, "old")
	}

	c.Invalidate()

	for _, k := range keys {
		f := &countingFetcher[string]{value: "new"}
		v, _ := c.GetOrFetch(ctx, k, f)
		if v != "new" || f.calls.Load() != 1 {
			t.Fatalf("expected %s to be re-fetched, got %v after %d calls", k, v, f.calls.Load())
		}
	}
}

func TestInvalidateDuringFetchDropsResult(t *testing.T) {
	ctx := context.Background()
	c := newTestStore[string](false)

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan string)

	go func() {
		v, _ := c.GetOrFetch(ctx, "cms-content", types.FetchFunc[string](func(context.Context) (string, error) {
			close(started)
			<-release
			return "before-edit", nil
		}))
		done <- v
	}()

	<-started
	c.Invalidate("cms-content")
	close(release)

	// The caller still gets what it fetched...
	if v := <-done; v != "before-edit" {
		t.Fatalf("expected caller to receive its own result, got %v", v)
	}
	// ...but the store does not keep it.
	if _, ok := c.Get("cms-content"); ok {
		t.Fatalf("fetch started before invalidation must not repopulate the store")
	}
}

func TestInvalidateNotifiesWatchers(t *testing.T) {
	c := newTestStore[int](false)

	var mu sync.Mutex
	var got []string
	unwatch := c.Watch(refresh.Funcs{
		Invalidate: func(key string) { mu.Lock(); got = append(got, key); mu.Unlock() },
		Clear:      func() { mu.Lock(); got = append(got, "*"); mu.Unlock() },
	})

	c.Invalidate("a", "b")
	c.Invalidate()
	unwatch()
	c.Invalidate("c")

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "*" {
		t.Fatalf("unexpected notifications %v", got)
	}
}

//
// ================= LIFECYCLE =================
//

func TestClose(t *testing.T) {
	c := newTestStore[int](false)
	c.Set("a", 1)

	c.Close()
	c.Close()

	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected entries to be dropped on close")
	}
	c.Set("b", 2)
	if c.Len() != 0 {
		t.Fatalf("expected Set after close to be ignored")
	}
	if _, err := c.GetOrFetch(context.Background(), "a", &countingFetcher[int]{}); !errors.Is(err, cache.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestIsolatedStores(t *testing.T) {
	a := newTestStore[int](false)
	b := newTestStore[int](false)

	a.Set("k", 1)
	if _, ok := b.Get("k"); ok {
		t.Fatalf("stores must not share entries")
	}
}

//
// ================= CONCURRENCY =================
//

func TestConcurrentFirstRequestsWithoutCoalescing(t *testing.T) {
	ctx := context.Background()
	c := newTestStore[string](false)

	var calls atomic.Int64
	release := make(chan struct{})
	f := types.FetchFunc[string](func(context.Context) (string, error) {
		calls.Add(1)
		<-release
		return "value", nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if v, _ := c.GetOrFetch(ctx, "key", f); v != "value" {
				t.Errorf("expected value, got %v", v)
			}
		}()
	}

	for calls.Load() < 4 {
		time.Sleep(time.Millisecond)
	}
	close(release)
	wg.Wait()
}

func TestConcurrentGetWithCoalescing(t *testing.T) {
	ctx := context.Background()
	c := newTestStore[string](true)

	var calls atomic.Int64
	release := make(chan struct{})
	f := types.FetchFunc[string](func(context.Context) (string, error) {
		calls.Add(1)
		<-release
		return "value", nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, _ := c.GetOrFetch(ctx, "key", f)
			if v != "value" {
				t.Errorf("expected value, got %v", v)
			}
		}()
	}

	for calls.Load() < 1 {
		time.Sleep(time.Millisecond)
	}
	// Let the other callers join the flight.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := calls.Load(); n != 1 {
		t.Fatalf("expected exactly one fetch, got %d", n)
	}
}

func TestCoalescingDoesNotCrossStores(t *testing.T) {
	ctx := context.Background()
	e := engine.NewCacheEngine(nil, zerolog.Nop(), true, time.Second)
	ints := cache.NewStore[int](2, e)
	strs := cache.NewStore[string](2, e)

	release := make(chan struct{})
	intStarted := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		v, err := ints.GetOrFetch(ctx, "k", types.FetchFunc[int](func(context.Context) (int, error) {
			close(intStarted)
			<-release
			return 7, nil
		}))
		if err != nil || v != 7 {
			t.Errorf("int store: expected 7, got %v (err=%v)", v, err)
		}
	}()
	<-intStarted

	v, err := strs.GetOrFetch(ctx, "k", types.Compute[string](func() string { return "seven" }))
	if err != nil || v != "seven" {
		t.Fatalf("string store: expected seven, got %q (err=%v)", v, err)
	}

	// An asynchronous fetch on the string store must not join the int flight.
	strs.Invalidate("k")
	v, err = strs.GetOrFetch(ctx, "k", types.FetchFunc[string](func(context.Context) (string, error) {
		return "eight", nil
	}))
	if err != nil || v != "eight" {
		t.Fatalf("string store: expected eight, got %q (err=%v)", v, err)
	}
	if cached, _ := strs.Get("k"); cached != "eight" {
		t.Fatalf("string store cached %q", cached)
	}

	close(release)
	<-done
	if cached, _ := ints.Get("k"); cached != 7 {
		t.Fatalf("int store cached %v", cached)
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/spf13/cobra"

	cache "github.com/krisalay/datacache"
	"github.com/krisalay/datacache/engine"
	"github.com/krisalay/datacache/hook"
	"github.com/krisalay/datacache/logging"
	"github.com/krisalay/datacache/types"
)

// ================= METRICS =================

type demoMetrics struct {
	mu                                        sync.Mutex
	hits, misses, fetches, failed, stale, inv int
}

func (m *demoMetrics) Hit()        { m.mu.Lock(); m.hits++; m.mu.Unlock() }
func (m *demoMetrics) Miss()       { m.mu.Lock(); m.misses++; m.mu.Unlock() }
func (m *demoMetrics) Fetch()      { m.mu.Lock(); m.fetches++; m.mu.Unlock() }
func (m *demoMetrics) FetchError() { m.mu.Lock(); m.failed++; m.mu.Unlock() }
func (m *demoMetrics) Stale()      { m.mu.Lock(); m.stale++; m.mu.Unlock() }
func (m *demoMetrics) Invalidate() { m.mu.Lock(); m.inv++; m.mu.Unlock() }

func (m *demoMetrics) Print(w io.Writer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fmt.Fprintln(w, "\n==================== METRICS ====================")
	fmt.Fprintf(w, "HITS          : %d\n", m.hits)
	fmt.Fprintf(w, "MISSES        : %d\n", m.misses)
	fmt.Fprintf(w, "FETCHES       : %d\n", m.fetches)
	fmt.Fprintf(w, "FETCH ERRORS  : %d\n", m.failed)
	fmt.Fprintf(w, "STALE RESULTS : %d\n", m.stale)
	fmt.Fprintf(w, "INVALIDATIONS : %d\n", m.inv)
}

// ================= DEMO =================

func newDemoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Walk through the cache and data hook behaviour",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDemo(cmd.Context(), cmd.OutOrStdout(), a)
		},
	}
}

func runDemo(ctx context.Context, w io.Writer, a *app) error {
	fmt.Fprintln(w, "\n==================== SYSTEM BOOT ====================")
	fmt.Fprintln(w, "SHARDS        :", a.cfg.Cache.Shards)
	fmt.Fprintln(w, "COALESCE      :", a.cfg.Cache.Coalesce)
	fmt.Fprintln(w, "FETCH TIMEOUT :", a.cfg.Cache.FetchTimeout)

	metrics := &demoMetrics{}
	e := engine.NewCacheEngine(
		metrics,
		logging.Component(a.logger, "cache"),
		a.cfg.Cache.Coalesce,
		a.cfg.Cache.FetchTimeout,
	)
	store := cache.NewStore[any](a.cfg.Cache.Shards, e)
	defer store.Close()

	sub := hook.New[any](ctx, store)
	defer sub.Unmount()

	// ====================================================
	fmt.Fprintln(w, "\n==================== 1) SYNCHRONOUS MISS ====================")
	r := sub.Use(hook.KeyOf("a"), types.Compute[any](func() any { return 1 }))
	fmt.Fprintf(w, "HOOK   → USE a = %v (%s)\n", r.Value, r.State)

	// ====================================================
	fmt.Fprintln(w, "\n==================== 2) CACHE HIT ====================")
	r = sub.Use(hook.KeyOf("a"), types.Compute[any](func() any { return 2 }))
	fmt.Fprintf(w, "HOOK   → USE a = %v (%s, fetcher not called)\n", r.Value, r.State)

	// ====================================================
	fmt.Fprintln(w, "\n==================== 3) ASYNCHRONOUS FETCH ====================")
	slow := types.FetchFunc[any](func(ctx context.Context) (any, error) {
		select {
		case <-time.After(100 * time.Millisecond):
			return map[string]int{"x": 1}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})
	r = sub.Use(hook.KeyOf("b"), slow)
	fmt.Fprintf(w, "HOOK   → USE b = %v (%s)\n", r.Value, r.State)
	<-sub.Updates()
	r = sub.Use(hook.KeyOf("b"), slow)
	fmt.Fprintf(w, "HOOK   → USE b after update = %v (%s)\n", r.Value, r.State)

	// ====================================================
	fmt.Fprintln(w, "\n==================== 4) INVALIDATE ONE KEY ====================")
	store.Set("c", 5)
	fmt.Fprintln(w, "CACHE  → SET c = 5")
	store.Invalidate("c")
	fmt.Fprintln(w, "CACHE  → INVALIDATE c")
	r = sub.Use(hook.KeyOf("c"), types.Compute[any](func() any { return 6 }))
	fmt.Fprintf(w, "HOOK   → USE c = %v (%s)\n", r.Value, r.State)

	// ====================================================
	fmt.Fprintln(w, "\n==================== 5) NULL KEY ====================")
	r = sub.Use(hook.NullKey, types.Compute[any](func() any { panic("never called") }))
	fmt.Fprintf(w, "HOOK   → USE <null> = %v (%s)\n", r.Value, r.State)

	// ====================================================
	fmt.Fprintln(w, "\n==================== 6) FAILED FETCH ====================")
	failing := types.FetchFunc[any](func(context.Context) (any, error) {
		return nil, errors.New("news.json: permission denied")
	})
	sub.Use(hook.KeyOf("news"), failing)
	<-sub.Updates()
	r = sub.Use(hook.KeyOf("news"), failing)
	fmt.Fprintf(w, "HOOK   → USE news = %v (%s: %v)\n", r.Value, r.State, r.Err)

	// ====================================================
	fmt.Fprintln(w, "\n==================== 7) INVALIDATE ALL ====================")
	fmt.Fprintln(w, "CACHE  → KEYS before =", store.Keys())
	store.Invalidate()
	fmt.Fprintln(w, "CACHE  → KEYS after  =", store.Keys())

	// ====================================================
	metrics.Print(w)

	fmt.Fprintln(w, "\n==================== SHUTDOWN ====================")
	return nil
}

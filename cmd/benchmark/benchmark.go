package main

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	cache "github.com/krisalay/datacache"
	"github.com/krisalay/datacache/engine"
	"github.com/krisalay/datacache/types"
)

// ================= METRICS =================

type counters struct {
	hits, misses, fetches, stale, invalidations atomic.Int64
	types.NoopMetrics
}

func (c *counters) Hit()        { c.hits.Add(1) }
func (c *counters) Miss()       { c.misses.Add(1) }
func (c *counters) Fetch()      { c.fetches.Add(1) }
func (c *counters) Stale()      { c.stale.Add(1) }
func (c *counters) Invalidate() { c.invalidations.Add(1) }

// ================= BENCHMARK =================

func main() {
	ctx := context.Background()

	// ---------------- Config ----------------
	const (
		shards      = 8
		keys        = 2000
		goroutines  = 200
		opsPerG     = 5000
		invalidateN = 1000 // one worker in every run invalidates a key this often
		coalesce    = true
	)

	fmt.Println("\n================ CACHE LOAD BENCHMARK =================")
	fmt.Println("CONFIG")
	fmt.Println("---------------------------------")
	fmt.Println("Shards       :", shards)
	fmt.Println("Keys         :", keys)
	fmt.Println("Goroutines   :", goroutines)
	fmt.Println("Ops/Goroutine:", opsPerG)
	fmt.Println("Coalesce     :", coalesce)
	fmt.Println("---------------------------------")

	m := &counters{}
	e := engine.NewCacheEngine(m, zerolog.Nop(), coalesce, time.Second)
	c := cache.NewStore[int](shards, e)
	defer c.Close()

	names := make([]string, keys)
	for i := range names {
		names[i] = fmt.Sprintf("church-entity-%d", i)
	}

	// fetch simulates reading one JSON file.
	fetch := func(i int) types.FetchFunc[int] {
		return func(context.Context) (int, error) {
			time.Sleep(50 * time.Microsecond)
			return i, nil
		}
	}

	// ---------------- Warmup ----------------
	fmt.Println("Warming up cache...")
	for i, name := range names {
		if _, err := c.GetOrFetch(ctx, name, fetch(i)); err != nil {
			fmt.Println("warmup failed:", err)
			return
		}
	}
	fmt.Println("Warmup complete.")

	// ---------------- Load Test ----------------
	fmt.Println("Running concurrency benchmark...")
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	for id := 0; id < goroutines; id++ {
		g.Go(func() error {
			for j := 0; j < opsPerG; j++ {
				k := (id*opsPerG + j) % keys
				if id == 0 && j%invalidateN == 0 {
					c.Invalidate(names[k])
				}
				if _, err := c.GetOrFetch(gctx, names[k], fetch(k)); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		fmt.Println("benchmark failed:", err)
		return
	}

	duration := time.Since(start)
	totalOps := goroutines * opsPerG

	fmt.Println("\n================ RESULTS =================")
	fmt.Printf("Total Operations : %d\n", totalOps)
	fmt.Printf("Total Time       : %v\n", duration)
	fmt.Printf("Throughput       : %.2f ops/sec\n", float64(totalOps)/duration.Seconds())
	fmt.Printf("Hits / Misses    : %d / %d\n", m.hits.Load(), m.misses.Load())
	fmt.Printf("Fetches          : %d\n", m.fetches.Load())
	fmt.Printf("Invalidations    : %d\n", m.invalidations.Load())
	fmt.Printf("Stale Results    : %d\n", m.stale.Load())
	fmt.Println("=========================================")
}

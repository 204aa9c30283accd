package cache_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	cache "github.com/krisalay/datacache"
	"github.com/krisalay/datacache/engine"
	"github.com/krisalay/datacache/types"
)

func newBenchmarkStore() *cache.Store[int] {
	e := engine.NewCacheEngine(nil, zerolog.Nop(), false, 0)
	return cache.NewStore[int](8, e)
}

//
// ================= SINGLE THREAD BENCH =================
//

func BenchmarkStoreGetHit(b *testing.B) {
	c := newBenchmarkStore()
	c.Set("cms-content", 1)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Get("cms-content")
	}
}

func BenchmarkStoreGetOrFetchMiss(b *testing.B) {
	ctx := context.Background()
	c := newBenchmarkStore()
	f := types.Compute[int](func() int { return 1 })

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key := fmt.Sprintf("church-entity-%d", i%512)
		c.GetOrFetch(ctx, key, f)
		if i%512 == 511 {
			c.Invalidate()
		}
	}
}

//
// ================= PARALLEL BENCH =================
//

func BenchmarkStoreParallelGet(b *testing.B) {
	c := newBenchmarkStore()

	for i := 0; i < 1000; i++ {
		c.Set(fmt.Sprintf("key-%d", i), i)
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			c.Get("key-42")
		}
	})
}

//
// ================= WRITE BENCH =================
//

func BenchmarkStoreSet(b *testing.B) {
	c := newBenchmarkStore()

	keys := make([]string, 1000)
	for i := range keys {
		keys[i] = fmt.Sprintf("key-%d", i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Set(keys[i%len(keys)], i)
	}
}

func BenchmarkStoreInvalidate(b *testing.B) {
	c := newBenchmarkStore()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Set("cms-content", i)
		c.Invalidate("cms-content")
	}
}

package types

import "context"

/*
Fetcher is the contract between the cache and whatever produces a value.
It is invoked only on a miss:
 1. Store is checked for the key → not found
 2. Fetch(ctx) is called
 3. On success the result is stored under the key
 4. On error the key stays uncached

The cache never retries a failed fetch on its own.
*/
type Fetcher[V any] interface {
	Fetch(ctx context.Context) (V, error)
}

// Synchronous is implemented by fetchers that complete without blocking.
// The data hook runs these inline instead of on a separate goroutine.
type Synchronous interface {
	Synchronous() bool
}

// FetchFunc adapts a function to Fetcher. It is treated as asynchronous:
// it may block on file or network I/O.
type FetchFunc[V any] func(ctx context.Context) (V, error)

func (f FetchFunc[V]) Fetch(ctx context.Context) (V, error) {
	return f(ctx)
}

// Compute adapts a pure computation to Fetcher. It cannot fail and
// is run inline by the data hook.
type Compute[V any] func() V

func (f Compute[V]) Fetch(context.Context) (V, error) {
	return f(), nil
}

func (Compute[V]) Synchronous() bool { return true }

// IsSynchronous reports whether f asked to be run inline.
func IsSynchronous[V any](f Fetcher[V]) bool {
	s, ok := f.(Synchronous)
	return ok && s.Synchronous()
}

package types

// This file defines how the cache reports what it is doing.

/*
Metrics is an interface that defines what the cache wants to measure.
Each method represents an event in the cache lifecycle.
*/
type Metrics interface {

	// Hit is called when a value is served from the store.
	Hit()

	// Miss is called when a key is not in the store and a fetch is needed.
	Miss()

	// Fetch is called when a fetcher completes successfully.
	Fetch()

	// FetchError is called when a fetcher returns an error or panics.
	FetchError()

	// Stale is called when a fetch result is dropped because its key was
	// invalidated, or its subscriber moved on, while it was in flight.
	Stale()

	// Invalidate is called once per invalidated key, and once for a full clear.
	Invalidate()
}

/*
NoopMetrics is a "do nothing" implementation of Metrics.

Callers that do not care about metrics still get a working cache
without nil checks everywhere.
*/
type NoopMetrics struct{}

func (NoopMetrics) Hit()        {}
func (NoopMetrics) Miss()       {}
func (NoopMetrics) Fetch()      {}
func (NoopMetrics) FetchError() {}
func (NoopMetrics) Stale()      {}
func (NoopMetrics) Invalidate() {}

package api

import (
	"context"

	"github.com/krisalay/datacache/refresh"
	"github.com/krisalay/datacache/types"
)

/*
Cache defines the PUBLIC API of the data cache.
This is a contract that guarantees certain behaviors without exposing
sharding, tickets or the fetch engine.
*/
type Cache[V any] interface {

	/*
		Get returns the value stored under key.

		BEHAVIOR:
		---------
		- Never fetches
		- Returns false when the key is absent
	*/
	Get(key string) (V, bool)

	/*
		Set stores value under key, replacing any previous value.
		Stored values never expire on their own.
	*/
	Set(key string, value V)

	/*
		Delete removes key. Removing a missing key is safe.
		No hooks are notified.
	*/
	Delete(key string)

	/*
		Clear removes every key. No hooks are notified.
	*/
	Clear()

	/*
		Invalidate removes the given keys, or every key when called
		with none, forcing the next access to fetch again.

		BEHAVIOR:
		---------
		- Fetches already in flight for an invalidated key do not write back
		- Refresh hooks registered with Watch are notified
		- Mounted subscribers are NOT re-rendered unless they watch
	*/
	Invalidate(keys ...string)

	/*
		GetOrFetch is a read-through lookup.

		BEHAVIOR:
		---------
		1. Key cached → return it (hit)
		2. Key missing → call f, store the result, return it (miss)
		3. f fails → return the error, key stays uncached
	*/
	GetOrFetch(ctx context.Context, key string, f types.Fetcher[V]) (V, error)

	// Len returns the number of cached entries.
	Len() int

	// Watch registers an invalidation listener.
	Watch(h refresh.Hook) (unwatch func())

	/*
		Close releases listeners and drops every entry.
		Call it on application shutdown and in test cleanup.
	*/
	Close()
}

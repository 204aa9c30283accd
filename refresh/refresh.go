// This file defines the idea of a "refresh hook".
// A hook lets interested parties learn that cached data went away, so they
// can fetch it again instead of holding on to an old copy.

package refresh

import "sync"

/*
Hook is notified whenever the cache drops entries on request.

The cache itself does NOT care what the hook does.
It just calls the method and moves on.
Both methods MUST be fast and non-blocking: they run on the invalidation path
while the caller waits.
*/
type Hook interface {

	// OnInvalidate is called after key has been removed by an invalidation.
	OnInvalidate(key string)

	// OnClear is called after every entry has been removed.
	OnClear()
}

// Funcs adapts a pair of functions to Hook. Nil fields are skipped.
type Funcs struct {
	Invalidate func(key string)
	Clear      func()
}

func (f Funcs) OnInvalidate(key string) {
	if f.Invalidate != nil {
		f.Invalidate(key)
	}
}

func (f Funcs) OnClear() {
	if f.Clear != nil {
		f.Clear()
	}
}

/*
Broadcaster fans one notification out to every registered hook.
It is itself a Hook, so it can be nested.
*/
type Broadcaster struct {
	mu    sync.RWMutex
	next  uint64
	hooks map[uint64]Hook
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{hooks: make(map[uint64]Hook)}
}

// Register adds h and returns a function that removes it again.
// Calling the returned function more than once is safe.
func (b *Broadcaster) Register(h Hook) (unregister func()) {
	b.mu.Lock()
	id := b.next
	b.next++
	b.hooks[id] = h
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.hooks, id)
			b.mu.Unlock()
		})
	}
}

// Len returns how many hooks are registered.
func (b *Broadcaster) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.hooks)
}

// Reset unregisters every hook.
func (b *Broadcaster) Reset() {
	b.mu.Lock()
	clear(b.hooks)
	b.mu.Unlock()
}

func (b *Broadcaster) OnInvalidate(key string) {
	for _, h := range b.snapshot() {
		h.OnInvalidate(key)
	}
}

func (b *Broadcaster) OnClear() {
	for _, h := range b.snapshot() {
		h.OnClear()
	}
}

// snapshot copies the hooks so they run without the lock held;
// a hook may unregister itself while being notified.
func (b *Broadcaster) snapshot() []Hook {
	b.mu.RLock()
	defer b.mu.RUnlock()
	hs := make([]Hook, 0, len(b.hooks))
	for _, h := range b.hooks {
		hs = append(hs, h)
	}
	return hs
}

package refresh

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBroadcaster(t *testing.T) {
	b := NewBroadcaster()

	var got []string
	cleared := 0
	unregister := b.Register(Funcs{
		Invalidate: func(key string) { got = append(got, key) },
		Clear:      func() { cleared++ },
	})
	b.Register(Funcs{})
	assert.Equal(t, 2, b.Len())

	b.OnInvalidate("cms-content")
	b.OnClear()
	assert.Equal(t, []string{"cms-content"}, got)
	assert.Equal(t, 1, cleared)

	unregister()
	unregister()
	assert.Equal(t, 1, b.Len())

	b.OnInvalidate("mass-times")
	assert.Equal(t, []string{"cms-content"}, got)

	b.Reset()
	assert.Equal(t, 0, b.Len())
}

func TestBroadcasterSelfUnregister(t *testing.T) {
	b := NewBroadcaster()

	calls := 0
	var unregister func()
	unregister = b.Register(Funcs{Invalidate: func(string) {
		calls++
		unregister()
	}})

	b.OnInvalidate("a")
	b.OnInvalidate("a")
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, b.Len())
}

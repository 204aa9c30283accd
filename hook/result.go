package hook

// State is where a subscriber is with its active key.
type State int

const (
	// Idle means no key is active, so nothing is fetched.
	Idle State = iota

	// Loading means a fetch is in flight and no value is available yet.
	Loading

	// Ready means Value holds the data for the key.
	Ready

	// Failed means the last fetch returned Err. The key stays uncached.
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is what a subscriber renders with.
type Result[V any] struct {
	Key   Key
	State State
	Value V
	Err   error
}

// Ok reports whether Value is usable.
func (r Result[V]) Ok() bool {
	return r.State == Ready
}

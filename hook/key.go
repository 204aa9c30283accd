package hook

// Key names the data a subscriber wants. The zero Key is NullKey:
// a subscriber given NullKey renders nothing and fetches nothing.
type Key struct {
	name  string
	valid bool
}

// NullKey asks for no data.
var NullKey Key

// KeyOf returns a present key. Any string, including "", is a valid name.
func KeyOf(name string) Key {
	return Key{name: name, valid: true}
}

// Valid reports whether k names data.
func (k Key) Valid() bool { return k.valid }

// Name returns the cache key, or "" for NullKey.
func (k Key) Name() string { return k.name }

func (k Key) String() string {
	if !k.valid {
		return "<null>"
	}
	return k.name
}

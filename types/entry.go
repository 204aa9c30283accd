package types

import "time"

// Entry is one cached value. StoredAt is informational; entries never expire.
type Entry[V any] struct {
	Key      string
	Value    V
	StoredAt time.Time
}

package shard

import "hash/fnv"

/*
Selector decides which shard should handle a given key.
If every key went to the same shard, that shard's lock would become a bottleneck.
*/
type Selector interface {
	Index(key string, n int) int
}

// HashSelector spreads keys across shards by their FNV-1a hash.
type HashSelector struct{}

// hash converts a string key into a number. FNV is fast and non-cryptographic.
func hash(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}

// Index returns the shard slot for key among n shards.
func (HashSelector) Index(key string, n int) int {
	return int(hash(key) % uint32(n))
}

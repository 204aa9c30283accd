package parish

import "strings"

// Cache keys used by the site.
const (
	ContentKey   = "cms-content"
	MassTimesKey = "mass-times"

	entityPrefix = "church-entity-"
)

// EntityKey returns the cache key of church id.
func EntityKey(id string) string {
	return entityPrefix + id
}

// ParseEntityKey returns the church id named by key.
func ParseEntityKey(key string) (string, bool) {
	id, ok := strings.CutPrefix(key, entityPrefix)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

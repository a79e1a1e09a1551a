// Package cache provides caching layers around a types.Context. Caching
// is opt-in and best-effort: at most one stored record per (record type,
// base, identifier) key, last write wins, entries appear immediately
// after a fetch, create, or update, and disappear on delete.
package cache

import (
	"fmt"

	"github.com/mesh-intelligence/airbase/pkg/types"
)

// policy selects which record types a caching context stores. With an
// allow set configured, only listed types are cached; excluded types are
// never cached.
type policy struct {
	allow   map[string]bool
	exclude map[string]bool
}

func (p policy) caches(rt *types.RecordType) bool {
	if p.exclude[rt.Name()] {
		return false
	}
	if p.allow != nil {
		return p.allow[rt.Name()]
	}
	return true
}

func nameSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, name := range names {
		set[name] = true
	}
	return set
}

// cacheKey builds the storage key of one record.
func cacheKey(rt *types.RecordType, baseID, recordID string) string {
	return fmt.Sprintf("%s:%s:%s", rt.Name(), baseID, recordID)
}

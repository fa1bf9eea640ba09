package permissions

import (
	"sync"

	"github.com/veilbox-dev/veilbox/internal/domain/permissions"
)

// statusRecord is the mutable half of a cache entry. The cache exclusively
// owns records; consumers only ever see the wrapped Status.
type statusRecord struct {
	state  permissions.State
	status *Status
}

// statusCache interns one statusRecord per derived cache key. Records are
// created lazily on first sight and never deleted: the key space is bounded
// by the fixed kind set plus observed scopes.
type statusCache struct {
	mu      sync.Mutex
	records map[string]*statusRecord
}

func newStatusCache() *statusCache {
	return &statusCache{records: make(map[string]*statusRecord)}
}

// resolve locates or creates the record for the descriptor's key and applies
// the authority-reported state. The lookup-compare-mutate sequence is a
// critical section under the cache mutex; the change event for a transition
// is dispatched after the lock is released, from a snapshot of the pre and
// post states, so a slow or re-entrant listener cannot block other keys and
// the same transition can never fire twice.
func (c *statusCache) resolve(d permissions.Descriptor, newState permissions.State) *Status {
	key := d.CacheKey()

	c.mu.Lock()
	rec, ok := c.records[key]
	if !ok {
		// First observation for this key: no previous state exists, so no
		// change event fires.
		rec = &statusRecord{state: newState, status: newStatus(key, newState)}
		c.records[key] = rec
		c.mu.Unlock()
		return rec.status
	}

	old := rec.state
	if old == newState {
		c.mu.Unlock()
		return rec.status
	}

	rec.state = newState
	rec.status.setState(newState)
	status := rec.status
	c.mu.Unlock()

	status.dispatchChange(old, newState)
	return status
}

// size returns the number of interned keys.
func (c *statusCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

package results

import (
	"sync"
	"time"
)

// Cache memoizes result snapshots per poll for up to one TTL window.
// Process-local; a restart is equivalent to a full invalidation.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]Snapshot
	now     func() time.Time
}

func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]Snapshot),
		now:     time.Now,
	}
}

// Get returns the cached snapshot for the poll if it is younger than the TTL.
// Expired entries are dropped on the spot.
func (c *Cache) Get(pollID string) (Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap, ok := c.entries[pollID]
	if !ok {
		return Snapshot{}, false
	}
	if c.now().Sub(snap.ComputedAt) > c.ttl {
		delete(c.entries, pollID)
		return Snapshot{}, false
	}
	return snap, true
}

func (c *Cache) Set(snap Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[snap.PollID] = snap
}

// Invalidate removes any cached entry for the poll. No-op if absent.
func (c *Cache) Invalidate(pollID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, pollID)
}

// Sweep drops every expired entry and reports how many were removed. Lazy
// expiry in Get is enough for correctness; sweeping just bounds memory for
// polls nobody reads anymore.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for pollID, snap := range c.entries {
		if now.Sub(snap.ComputedAt) > c.ttl {
			delete(c.entries, pollID)
			removed++
		}
	}
	return removed
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

package application

import (
	"maps"
	"sync"
	"time"
)

// statsCache stores recently computed dashboard aggregates per calendar day
// until they expire or a mutation invalidates them.
type statsCache struct {
	mu         sync.RWMutex
	now        func() time.Time
	ttl        time.Duration
	maxEntries int
	entries    map[string]statsCacheEntry
}

type statsCacheEntry struct {
	stats     DashboardStats
	expiresAt time.Time
}

func newStatsCache(ttl time.Duration, maxEntries int, now func() time.Time) *statsCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if maxEntries <= 0 {
		maxEntries = 8
	}
	if now == nil {
		now = time.Now
	}
	return &statsCache{
		now:        now,
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]statsCacheEntry),
	}
}

func (c *statsCache) Get(key string) (DashboardStats, bool) {
	if c == nil {
		return DashboardStats{}, false
	}
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return DashboardStats{}, false
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return DashboardStats{}, false
	}
	return entry.stats.clone(), true
}

func (c *statsCache) Store(key string, stats DashboardStats) {
	if c == nil {
		return
	}
	cloned := stats.clone()
	expiry := c.now().Add(c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cleanupLocked()
	if len(c.entries) >= c.maxEntries {
		c.evictOneLocked()
	}
	c.entries[key] = statsCacheEntry{stats: cloned, expiresAt: expiry}
}

func (c *statsCache) Invalidate() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries = make(map[string]statsCacheEntry)
	c.mu.Unlock()
}

func (c *statsCache) cleanupLocked() {
	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

func (c *statsCache) evictOneLocked() {
	for key := range c.entries {
		delete(c.entries, key)
		return
	}
}

func (s DashboardStats) clone() DashboardStats {
	s.UsersByStatus = maps.Clone(s.UsersByStatus)
	s.TasksByStatus = maps.Clone(s.TasksByStatus)
	s.Resources = maps.Clone(s.Resources)
	return s
}

package application

import (
	"bytes"
	"sync"
	"time"

	"github.com/example/room-ledger/internal/ledger"
	"github.com/example/room-ledger/internal/render"
)

// renderCache keeps recently rendered week views so repeated display polls
// do not redraw images while the ledger is unchanged.
type renderCache struct {
	mu         sync.RWMutex
	now        func() time.Time
	ttl        time.Duration
	maxEntries int
	entries    map[string]renderCacheEntry
	generation uint64
}

type renderCacheEntry struct {
	output    []byte
	expiresAt time.Time
}

func newRenderCache(ttl time.Duration, maxEntries int, now func() time.Time) *renderCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if maxEntries <= 0 {
		maxEntries = 64
	}
	if now == nil {
		now = time.Now
	}
	return &renderCache{
		now:        now,
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]renderCacheEntry),
	}
}

func (c *renderCache) Get(key string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}
	return bytes.Clone(entry.output), true
}

// Generation identifies the current cache contents. It changes on every
// Invalidate.
func (c *renderCache) Generation() uint64 {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

func (c *renderCache) Store(key string, output []byte) {
	c.StoreAt(key, output, c.Generation())
}

// StoreAt keeps output only if the cache has not been invalidated since
// generation was read, so a render built before a booking is never stored
// after it.
func (c *renderCache) StoreAt(key string, output []byte, generation uint64) bool {
	if c == nil {
		return false
	}
	cloned := bytes.Clone(output)
	expiry := c.now().Add(c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	if generation != c.generation {
		return false
	}
	c.cleanupLocked()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictOneLocked()
	}
	c.entries[key] = renderCacheEntry{output: cloned, expiresAt: expiry}
	return true
}

func (c *renderCache) Invalidate() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries = make(map[string]renderCacheEntry)
	c.generation++
	c.mu.Unlock()
}

func (c *renderCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *renderCache) cleanupLocked() {
	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

// evictOneLocked drops the entry closest to expiry.
func (c *renderCache) evictOneLocked() {
	var (
		oldestKey string
		oldest    time.Time
	)
	for key, entry := range c.entries {
		if oldestKey == "" || entry.expiresAt.Before(oldest) {
			oldestKey, oldest = key, entry.expiresAt
		}
	}
	delete(c.entries, oldestKey)
}

func buildRenderCacheKey(roomID string, format render.Format, monday time.Time) string {
	return roomID + "|" + string(format) + "|" + ledger.DayKey(monday)
}

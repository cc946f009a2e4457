// Package render supplies rendered node images to the decision engine.
//
// A DirRenderer reads images the design host exported to disk; a
// CachedRenderer memoizes any decision.Renderer through a Cache so that
// repeated escalations of the same node (for example across watch
// rebuilds) do not re-read or re-request the image.
//
// Example usage:
//
//	cache := render.NewCache(10*time.Minute, 256)
//	r := render.NewCachedRenderer(render.NewDirRenderer(dir), cache)
//	img, err := r.Render(ctx, "12:34")
package render

import (
	"container/list"
	"sync"
	"time"

	"github.com/fyrsmithlabs/figclass/internal/decision"
	"github.com/fyrsmithlabs/figclass/internal/metrics"
)

// CacheEntry is one memoized image.
type CacheEntry struct {
	NodeID    string
	Image     decision.Image
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Cache is a thread-safe image memo with a TTL and a capacity. Entries are
// kept in insertion order; replacing an entry counts as a new insertion.
// When full, expired entries are dropped first and then the entry inserted
// earliest is evicted.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]*list.Element
	order      *list.List // of *CacheEntry, oldest at the front
	ttl        time.Duration
	maxEntries int
	metrics    *metrics.Metrics
	now        func() time.Time
}

// NewCache creates a cache. A non-positive maxEntries disables caching.
func NewCache(ttl time.Duration, maxEntries int) *Cache {
	return &Cache{
		entries:    make(map[string]*list.Element),
		order:      list.New(),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// SetMetrics attaches hit/miss/size reporting.
func (c *Cache) SetMetrics(m *metrics.Metrics) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metrics = m
}

// Set stores img under nodeID, replacing any previous entry.
func (c *Cache) Set(nodeID string, img decision.Image) {
	if c.maxEntries <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	entry := &CacheEntry{NodeID: nodeID, Image: img, CreatedAt: now, ExpiresAt: now.Add(c.ttl)}
	if el, exists := c.entries[nodeID]; exists {
		el.Value = entry
		c.order.MoveToBack(el)
		return
	}

	c.dropExpired(now)
	for len(c.entries) >= c.maxEntries {
		c.remove(c.order.Front())
	}
	c.entries[nodeID] = c.order.PushBack(entry)
	c.metrics.SetCacheSize(len(c.entries))
}

// Get returns the image for nodeID if present and not expired.
func (c *Cache) Get(nodeID string) (decision.Image, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[nodeID]
	if !ok {
		c.metrics.RecordCacheMiss()
		return decision.Image{}, false
	}
	entry := el.Value.(*CacheEntry)
	if c.expired(entry, c.now()) {
		c.remove(el)
		c.metrics.SetCacheSize(len(c.entries))
		c.metrics.RecordCacheMiss()
		return decision.Image{}, false
	}
	c.metrics.RecordCacheHit()
	return entry.Image, true
}

// Delete removes nodeID. It is a no-op for unknown ids.
func (c *Cache) Delete(nodeID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[nodeID]; ok {
		c.remove(el)
	}
	c.metrics.SetCacheSize(len(c.entries))
}

// Clear removes every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*list.Element)
	c.order.Init()
	c.metrics.SetCacheSize(0)
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) expired(entry *CacheEntry, now time.Time) bool {
	return c.ttl > 0 && now.After(entry.ExpiresAt)
}

// dropExpired removes expired entries. Every entry shares one TTL, so they
// sit at the front of the insertion order. Caller holds the lock.
func (c *Cache) dropExpired(now time.Time) {
	for el := c.order.Front(); el != nil && c.expired(el.Value.(*CacheEntry), now); el = c.order.Front() {
		c.remove(el)
	}
}

// remove unlinks el. Caller holds the lock.
func (c *Cache) remove(el *list.Element) {
	entry := c.order.Remove(el).(*CacheEntry)
	delete(c.entries, entry.NodeID)
}

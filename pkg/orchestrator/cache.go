package orchestrator

import (
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/poliqa/poliqa/pkg/types"
)

// DefaultCacheSize caps the response cache when no size is configured.
const DefaultCacheSize = 256

// DefaultCacheTTL is the default entry lifetime.
const DefaultCacheTTL = 5 * time.Minute

type cacheEntry struct {
	key          uint64
	response     *types.SearchResponse
	createdAt    time.Time
	lastAccessed time.Time
	hits         int64
}

// CacheStats is a point-in-time snapshot of the cache counters.
type CacheStats struct {
	Size      int     `json:"size"`
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	Evictions int64   `json:"evictions"`
	HitRate   float64 `json:"hit_rate"`
}

// ResponseCache is a TTL plus LRU bounded cache of assembled responses,
// keyed by (query, strategy, topK). Safe for concurrent use. Expiry is
// checked lazily on lookup; the least-recently-accessed entry is evicted
// when an insert would exceed capacity.
type ResponseCache struct {
	mu        sync.Mutex
	entries   map[uint64]*cacheEntry
	maxSize   int
	ttl       time.Duration
	hits      int64
	misses    int64
	evictions int64

	// now is swappable for tests.
	now func() time.Time
}

// NewResponseCache builds an empty cache. Non-positive size or ttl fall
// back to the defaults.
func NewResponseCache(maxSize int, ttl time.Duration) *ResponseCache {
	if maxSize <= 0 {
		maxSize = DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &ResponseCache{
		entries: make(map[uint64]*cacheEntry),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

func cacheKey(query string, strategy types.Strategy, topK int) uint64 {
	h := fnv.New64a()
	h.Write([]byte(query))
	h.Write([]byte{0})
	h.Write([]byte(strategy))
	h.Write([]byte{0})
	fmt.Fprintf(h, "%d", topK)
	return h.Sum64()
}

// Get returns the cached response for the key, refreshing its access time.
// Expired entries are removed and reported as misses.
func (c *ResponseCache) Get(query string, strategy types.Strategy, topK int) (*types.SearchResponse, bool) {
	key := cacheKey(query, strategy, topK)

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}
	if c.now().Sub(entry.createdAt) > c.ttl {
		delete(c.entries, key)
		c.misses++
		return nil, false
	}
	entry.lastAccessed = c.now()
	entry.hits++
	c.hits++
	return entry.response, true
}

// Put stores a response, evicting the least-recently-accessed entry first
// when the cache is at capacity.
func (c *ResponseCache) Put(query string, strategy types.Strategy, topK int, response *types.SearchResponse) {
	key := cacheKey(query, strategy, topK)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxSize {
		c.evictOldestLocked()
	}
	now := c.now()
	c.entries[key] = &cacheEntry{
		key:          key,
		response:     response,
		createdAt:    now,
		lastAccessed: now,
	}
}

func (c *ResponseCache) evictOldestLocked() {
	var oldestKey uint64
	var oldest time.Time
	first := true
	for key, entry := range c.entries {
		if first || entry.lastAccessed.Before(oldest) {
			oldestKey = key
			oldest = entry.lastAccessed
			first = false
		}
	}
	if !first {
		delete(c.entries, oldestKey)
		c.evictions++
	}
}

// Clear drops every entry. Counters are preserved.
func (c *ResponseCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[uint64]*cacheEntry)
}

// Stats snapshots the counters.
func (c *ResponseCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := CacheStats{
		Size:      len(c.entries),
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
	if total := c.hits + c.misses; total > 0 {
		stats.HitRate = float64(c.hits) / float64(total)
	}
	return stats
}

package orchestrator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poliqa/poliqa/pkg/types"
)

// fakeClock hands out strictly increasing instants.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newTestCache(size int, ttl time.Duration) (*ResponseCache, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	cache := NewResponseCache(size, ttl)
	cache.now = clock.now
	return cache, clock
}

func response(explanation string) *types.SearchResponse {
	return &types.SearchResponse{Success: true, Explanation: explanation}
}

func TestCacheRoundTrip(t *testing.T) {
	cache, _ := newTestCache(4, time.Hour)

	_, ok := cache.Get("q", types.StrategyStandard, 10)
	assert.False(t, ok)

	cache.Put("q", types.StrategyStandard, 10, response("stored"))

	got, ok := cache.Get("q", types.StrategyStandard, 10)
	require.True(t, ok)
	assert.Equal(t, "stored", got.Explanation)

	stats := cache.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.InDelta(t, 0.5, stats.HitRate, 1e-12)
}

func TestCacheKeyCoversStrategyAndTopK(t *testing.T) {
	cache, _ := newTestCache(8, time.Hour)
	cache.Put("q", types.StrategyStandard, 10, response("standard"))

	_, ok := cache.Get("q", types.StrategyFast, 10)
	assert.False(t, ok, "different strategy must not hit")
	_, ok = cache.Get("q", types.StrategyStandard, 5)
	assert.False(t, ok, "different topK must not hit")

	got, ok := cache.Get("q", types.StrategyStandard, 10)
	require.True(t, ok)
	assert.Equal(t, "standard", got.Explanation)
}

func TestCacheTTLExpiry(t *testing.T) {
	cache, clock := newTestCache(4, 10*time.Second)
	cache.Put("q", types.StrategyStandard, 10, response("fresh"))

	clock.t = clock.t.Add(time.Minute)

	_, ok := cache.Get("q", types.StrategyStandard, 10)
	assert.False(t, ok)
	assert.Equal(t, 0, cache.Stats().Size, "expired entry is removed on lookup")
}

func TestCacheEvictsOldestAccessed(t *testing.T) {
	cache, _ := newTestCache(2, time.Hour)

	cache.Put("a", types.StrategyStandard, 10, response("a"))
	cache.Put("b", types.StrategyStandard, 10, response("b"))

	// Touch a so b becomes the least recently accessed.
	_, ok := cache.Get("a", types.StrategyStandard, 10)
	require.True(t, ok)

	cache.Put("c", types.StrategyStandard, 10, response("c"))

	_, ok = cache.Get("b", types.StrategyStandard, 10)
	assert.False(t, ok, "b had the oldest access time")
	_, ok = cache.Get("a", types.StrategyStandard, 10)
	assert.True(t, ok)
	_, ok = cache.Get("c", types.StrategyStandard, 10)
	assert.True(t, ok)
	assert.Equal(t, int64(1), cache.Stats().Evictions)
}

func TestCacheClearKeepsCounters(t *testing.T) {
	cache, _ := newTestCache(4, time.Hour)
	cache.Put("q", types.StrategyStandard, 10, response("x"))
	_, _ = cache.Get("q", types.StrategyStandard, 10)

	cache.Clear()

	stats := cache.Stats()
	assert.Equal(t, 0, stats.Size)
	assert.Equal(t, int64(1), stats.Hits)
}

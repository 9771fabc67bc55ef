package queryplane

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResultCachePutGet(t *testing.T) {
	c := newResultCache(time.Minute, 10)
	now := time.Now()
	c.Put("k1", []NodeResult{{DocID: "doc-1"}}, now)

	got, ok := c.Get("k1", now)
	assert.True(t, ok)
	assert.Len(t, got, 1)
}

func TestResultCacheExpiresByTTL(t *testing.T) {
	c := newResultCache(time.Second, 10)
	now := time.Now()
	c.Put("k1", []NodeResult{{DocID: "doc-1"}}, now)

	_, ok := c.Get("k1", now.Add(2*time.Second))
	assert.False(t, ok)
}

func TestResultCacheEvictsOldestOverCapacity(t *testing.T) {
	c := newResultCache(time.Minute, 2)
	now := time.Now()
	c.Put("k1", []NodeResult{{DocID: "doc-1"}}, now)
	c.Put("k2", []NodeResult{{DocID: "doc-2"}}, now)
	c.Put("k3", []NodeResult{{DocID: "doc-3"}}, now)

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("k1", now)
	assert.False(t, ok)
	_, ok = c.Get("k3", now)
	assert.True(t, ok)
}

func TestResultCacheInvalidate(t *testing.T) {
	c := newResultCache(time.Minute, 10)
	now := time.Now()
	c.Put("k1", []NodeResult{{DocID: "doc-1"}}, now)
	c.Invalidate()
	assert.Equal(t, 0, c.Len())
}

func TestCacheKeyIgnoresFilterOrder(t *testing.T) {
	k1 := cacheKey("invoice", map[string]string{"author": "alice", "type": "pdf"})
	k2 := cacheKey("invoice", map[string]string{"type": "pdf", "author": "alice"})
	assert.Equal(t, k1, k2)
}

func TestCacheKeyDiffersByQuery(t *testing.T) {
	k1 := cacheKey("invoice", nil)
	k2 := cacheKey("report", nil)
	assert.NotEqual(t, k1, k2)
}

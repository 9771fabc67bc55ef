package queryplane

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"
	"time"
)

// cacheEntry holds one query's full, deduped fan-out result set (before
// ranking) so a repeated query — even with a different page, page size, or
// ranking strategy — can be re-scored and re-paginated without a fresh
// fan-out.
type cacheEntry struct {
	results    []NodeResult
	insertedAt time.Time
}

// resultCache is the query_hash -> aggregated_result cache:
// bounded cardinality with oldest-first eviction, TTL-expired lazily on
// read. Writes that touch a document invalidate the whole cache, since any
// cached query's result set may contain it.
type resultCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	maxSize int
	order   []string // insertion order, oldest first
	entries map[string]cacheEntry
}

func newResultCache(ttl time.Duration, maxSize int) *resultCache {
	if ttl <= 0 {
		ttl = 300 * time.Second
	}
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &resultCache{
		ttl:     ttl,
		maxSize: maxSize,
		entries: make(map[string]cacheEntry),
	}
}

// Get returns the cached deduped result set for key if present and not
// expired.
func (c *resultCache) Get(key string, now time.Time) ([]NodeResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if now.Sub(e.insertedAt) > c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return e.results, true
}

// Put stores results under key, evicting the oldest entry if at capacity.
func (c *resultCache) Put(key string, results []NodeResult, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		c.order = append(c.order, key)
	}
	c.entries[key] = cacheEntry{results: results, insertedAt: now}

	for len(c.entries) > c.maxSize && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
}

// Invalidate drops every cached entry. Called on document writes/deletes
// since any cached query may reference the affected document.
func (c *resultCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order = nil
	c.entries = make(map[string]cacheEntry)
}

// Len reports the number of live (not necessarily unexpired) entries.
func (c *resultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// cacheKey hashes the query text and filters into a stable lookup key,
// matching the reference implementation's query|sorted(filters)
// composition. Ranking strategy is intentionally excluded: the cache holds
// the fan-out's raw result set, not a ranked view, so one cached entry
// serves every ranking strategy and page a caller asks for.
func cacheKey(query string, filters map[string]string) string {
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha256.New()
	fmt.Fprintf(h, "%s|", query)
	for _, k := range keys {
		fmt.Fprintf(h, "%s=%s;", k, filters[k])
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

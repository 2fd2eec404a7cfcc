package cache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"skillhub/internal/domain"
)

// QueryCache is an LRU of search results with a TTL. Invalidate drops
// every entry; the engine calls it whenever the index changes.
type QueryCache struct {
	mu       sync.RWMutex
	entries  map[string]*cacheEntry
	order    []string
	maxSize  int
	ttl      time.Duration
	indexGen uint64
	now      func() time.Time
}

type cacheEntry struct {
	results   []domain.ScoredSkill
	timestamp time.Time
	indexGen  uint64
}

func NewQueryCache(maxSize int, ttl time.Duration) *QueryCache {
	if maxSize <= 0 {
		maxSize = 100
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &QueryCache{
		entries: make(map[string]*cacheEntry),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

func cacheKey(req domain.SearchRequest) string {
	h := sha256.New()
	for _, part := range []string{
		strings.TrimSpace(req.Query),
		strings.ToLower(req.Toolchain),
		req.Category,
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	var k [8]byte
	binary.BigEndian.PutUint64(k[:], uint64(req.TopK))
	h.Write(k[:])
	return hex.EncodeToString(h.Sum(nil)[:16])
}

func (c *QueryCache) Get(req domain.SearchRequest) ([]domain.ScoredSkill, bool) {
	key := cacheKey(req)

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.entries[key]
	if !exists {
		return nil, false
	}
	if c.now().Sub(entry.timestamp) > c.ttl || entry.indexGen != c.indexGen {
		delete(c.entries, key)
		c.removeFromOrder(key)
		return nil, false
	}

	c.moveToEnd(key)
	return entry.results, true
}

func (c *QueryCache) Put(req domain.SearchRequest, results []domain.ScoredSkill) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(req)
	entry := &cacheEntry{
		results:   results,
		timestamp: c.now(),
		indexGen:  c.indexGen,
	}

	if _, exists := c.entries[key]; exists {
		c.entries[key] = entry
		c.moveToEnd(key)
		return
	}

	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}
	c.entries[key] = entry
	c.order = append(c.order, key)
}

// Invalidate drops every entry. Safe to use as an index-change hook.
func (c *QueryCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*cacheEntry)
	c.order = c.order[:0]
	c.indexGen++
}

func (c *QueryCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *QueryCache) evictOldest() {
	if len(c.order) == 0 {
		return
	}
	oldest := c.order[0]
	c.order = c.order[1:]
	delete(c.entries, oldest)
}

func (c *QueryCache) moveToEnd(key string) {
	c.removeFromOrder(key)
	c.order = append(c.order, key)
}

func (c *QueryCache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

// Searcher is the part of the engine the cache sits in front of.
type Searcher interface {
	Search(ctx context.Context, req domain.SearchRequest) []domain.ScoredSkill
}

type CachedSearcher struct {
	searcher Searcher
	cache    *QueryCache
}

func NewCachedSearcher(searcher Searcher, cache *QueryCache) *CachedSearcher {
	return &CachedSearcher{
		searcher: searcher,
		cache:    cache,
	}
}

// Search serves repeated queries from the cache. Empty results are not
// cached, since they usually mean the index is still being built.
func (s *CachedSearcher) Search(ctx context.Context, req domain.SearchRequest) []domain.ScoredSkill {
	if results, hit := s.cache.Get(req); hit {
		return results
	}

	results := s.searcher.Search(ctx, req)
	if len(results) > 0 {
		s.cache.Put(req, results)
	}
	return results
}

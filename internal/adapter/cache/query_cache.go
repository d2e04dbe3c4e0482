package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"searchfox/internal/domain"
	"searchfox/internal/port"
)

// QueryCache is an LRU cache with a TTL, keyed by query parts.
type QueryCache[V any] struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry[V]
	order   []string
	maxSize int
	ttl     time.Duration
	gen     uint64
	now     func() time.Time
}

type cacheEntry[V any] struct {
	value     V
	timestamp time.Time
	gen       uint64
}

func NewQueryCache[V any](maxSize int, ttl time.Duration) *QueryCache[V] {
	if maxSize <= 0 {
		maxSize = 100
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &QueryCache[V]{
		entries: make(map[string]*cacheEntry[V]),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

func cacheKey(parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(hash[:16])
}

func (c *QueryCache[V]) Get(parts ...string) (V, bool) {
	var zero V
	key := cacheKey(parts...)

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.entries[key]
	if !exists {
		return zero, false
	}
	if c.now().Sub(entry.timestamp) > c.ttl || entry.gen != c.gen {
		delete(c.entries, key)
		c.removeFromOrder(key)
		return zero, false
	}
	c.moveToEnd(key)
	return entry.value, true
}

func (c *QueryCache[V]) Put(value V, parts ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(parts...)
	entry := &cacheEntry[V]{value: value, timestamp: c.now(), gen: c.gen}

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

// Invalidate drops every entry.
func (c *QueryCache[V]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*cacheEntry[V])
	c.order = c.order[:0]
	c.gen++
}

func (c *QueryCache[V]) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *QueryCache[V]) evictOldest() {
	if len(c.order) == 0 {
		return
	}
	oldest := c.order[0]
	c.order = c.order[1:]
	delete(c.entries, oldest)
}

func (c *QueryCache[V]) moveToEnd(key string) {
	c.removeFromOrder(key)
	c.order = append(c.order, key)
}

func (c *QueryCache[V]) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

// Searcher is what CachedSearcher decorates.
type Searcher interface {
	port.SymbolSearcher
	port.CallSearcher
}

// CachedSearcher memoizes symbol and neighbour lookups for the life of the
// process. A traversal asks for the same neighbours repeatedly when the
// graph has shared callees.
type CachedSearcher struct {
	searcher  Searcher
	hits      *QueryCache[[]domain.SymbolHit]
	neighbors *QueryCache[[]domain.SymbolHit]
}

func NewCachedSearcher(searcher Searcher, maxSize int, ttl time.Duration) *CachedSearcher {
	return &CachedSearcher{
		searcher:  searcher,
		hits:      NewQueryCache[[]domain.SymbolHit](maxSize, ttl),
		neighbors: NewQueryCache[[]domain.SymbolHit](maxSize, ttl),
	}
}

func (s *CachedSearcher) SymbolHits(ctx context.Context, symbol, path string) ([]domain.SymbolHit, error) {
	if hits, ok := s.hits.Get(symbol, path); ok {
		return hits, nil
	}
	hits, err := s.searcher.SymbolHits(ctx, symbol, path)
	if err != nil {
		return nil, err
	}
	s.hits.Put(hits, symbol, path)
	return hits, nil
}

func (s *CachedSearcher) Neighbors(ctx context.Context, symbol string, dir domain.Direction) ([]domain.SymbolHit, error) {
	if hits, ok := s.neighbors.Get(symbol, string(dir)); ok {
		return hits, nil
	}
	hits, err := s.searcher.Neighbors(ctx, symbol, dir)
	if err != nil {
		return nil, err
	}
	s.neighbors.Put(hits, symbol, string(dir))
	return hits, nil
}

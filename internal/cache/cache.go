package cache

import (
	"sync"
	"time"

	"github.com/user/dealbot-service/internal/domain"
)

// Results is a TTL-bounded cache of complete query results keyed by
// keyword. All methods are safe for concurrent use; concurrent writes
// to the same keyword resolve last-writer-wins.
type Results struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]resultEntry
}

type resultEntry struct {
	value     domain.QueryResult
	createdAt time.Time
}

// NewResults creates an empty result cache with the given TTL.
func NewResults(ttl time.Duration) *Results {
	return &Results{
		ttl:     ttl,
		entries: make(map[string]resultEntry),
	}
}

// Get returns the cached result for keyword if present and not expired.
// Expired entries are evicted on read.
func (c *Results) Get(keyword string) (domain.QueryResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[keyword]
	if !ok {
		return domain.QueryResult{}, false
	}
	if time.Since(entry.createdAt) >= c.ttl {
		delete(c.entries, keyword)
		return domain.QueryResult{}, false
	}
	return entry.value, true
}

// Set stores a result for keyword, overwriting any previous entry.
func (c *Results) Set(keyword string, result domain.QueryResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[keyword] = resultEntry{value: result, createdAt: time.Now()}
}

// Images caches resolved product image URLs keyed by product identifier.
// Image URLs never go stale in practice, so entries have no TTL and live
// for the process lifetime.
type Images struct {
	mu   sync.RWMutex
	urls map[string]string
}

// NewImages creates an empty image cache.
func NewImages() *Images {
	return &Images{urls: make(map[string]string)}
}

// Get returns the cached image URL for the identifier, if any.
func (c *Images) Get(id string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	u, ok := c.urls[id]
	return u, ok
}

// Set stores an image URL for the identifier.
func (c *Images) Set(id, url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.urls[id] = url
}

package gateway

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"vibetab/types"
)

// Cache key window: the trailing slice of text before the cursor and the
// leading slice after it. Edits outside this window do not invalidate a
// cached completion.
const (
	cacheKeyBeforeChars = 500
	cacheKeyAfterChars  = 100
)

// CacheKey derives the cache key digest from the language and the text
// window around the cursor.
func CacheKey(cc *types.CompletionContext) string {
	before := cc.TextBeforeCursor
	if len(before) > cacheKeyBeforeChars {
		before = before[len(before)-cacheKeyBeforeChars:]
	}
	after := cc.TextAfterCursor
	if len(after) > cacheKeyAfterChars {
		after = after[:cacheKeyAfterChars]
	}
	sum := sha256.Sum256([]byte(cc.Language + "\x00" + before + "\x00" + after))
	return hex.EncodeToString(sum[:])
}

type cacheEntry struct {
	completion string
	createdAt  time.Time
}

// Cache is a bounded completion cache. Eviction is insertion-order (the
// oldest inserted key goes first, not LRU), and entries past
// the TTL are treated as absent and removed lazily on lookup. Safe for
// concurrent use; shared across all editor sessions.
type Cache struct {
	mu       sync.Mutex
	entries  map[string]cacheEntry
	order    []string
	capacity int
	ttl      time.Duration
	now      func() time.Time
}

// NewCache creates an empty cache with the given capacity and TTL.
func NewCache(capacity int, ttl time.Duration) *Cache {
	return &Cache{
		entries:  make(map[string]cacheEntry),
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Get returns the live completion for key, if any.
func (c *Cache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return "", false
	}
	if c.now().Sub(entry.createdAt) > c.ttl {
		c.removeLocked(key)
		return "", false
	}
	return entry.completion, true
}

// Set stores a completion. Re-setting an existing key refreshes its value
// and timestamp but keeps its original insertion slot.
func (c *Cache) Set(key, completion string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; exists {
		c.entries[key] = cacheEntry{completion: completion, createdAt: c.now()}
		return
	}
	if c.capacity > 0 && len(c.order) >= c.capacity {
		c.removeLocked(c.order[0])
	}
	c.entries[key] = cacheEntry{completion: completion, createdAt: c.now()}
	c.order = append(c.order, key)
}

// Len returns the number of stored entries, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) removeLocked(key string) {
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

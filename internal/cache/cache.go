// Package cache stores per-file check results keyed by file content and
// the module configuration that produced them.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/chris-regnier/warden/internal/violation"
)

var ErrCacheMiss = errors.New("cache miss")

// CacheKey identifies a unique check result. The path is deliberately
// absent: identical content under the same configuration yields the same
// violations wherever it lives.
type CacheKey struct {
	FileHash    string `json:"file_hash"`
	Fingerprint string `json:"fingerprint"`
	Version     string `json:"version"`
}

// Hash computes deterministic cache key
func (k CacheKey) Hash() string {
	b, err := json.Marshal(k)
	if err != nil {
		// CacheKey holds only strings
		panic("failed to marshal CacheKey: " + err.Error())
	}
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}

// ContentHash hashes file content for CacheKey.FileHash.
func ContentHash(content string) string {
	h := sha256.Sum256([]byte(content))
	return hex.EncodeToString(h[:])
}

// CacheEntry is one cached result.
type CacheEntry struct {
	Key        CacheKey       `json:"key"`
	Violations violation.List `json:"violations"`
	Timestamp  int64          `json:"timestamp"`
}

// CacheManager provides cached check results
type CacheManager interface {
	Get(ctx context.Context, key CacheKey) (*CacheEntry, error)
	Put(ctx context.Context, entry *CacheEntry) error
	Delete(ctx context.Context, key CacheKey) error
}

// Store is a CacheManager that can also be addressed by key hash, the way
// the HTTP cache endpoints address it.
type Store interface {
	CacheManager
	Lookup(ctx context.Context, hash string) (*CacheEntry, error)
	Remove(ctx context.Context, hash string) error
}

// GenerateKey creates a hex key from multiple components
func GenerateKey(components ...string) string {
	h := sha256.New()
	for i, comp := range components {
		if i > 0 {
			h.Write([]byte{0})
		}
		h.Write([]byte(comp))
	}
	return hex.EncodeToString(h.Sum(nil))
}

type memoryEntry struct {
	entry     *CacheEntry
	createdAt time.Time
	expiresAt time.Time
}

func (e *memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// MemoryCache is a thread-safe in-process Store with TTL and a size bound.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	maxSize int
	ttl     time.Duration

	hits      int64
	misses    int64
	evictions int64
}

var _ Store = (*MemoryCache)(nil)

// Option configures a MemoryCache
type Option func(*MemoryCache)

// WithMaxSize sets the maximum number of entries
func WithMaxSize(n int) Option {
	return func(c *MemoryCache) {
		c.maxSize = n
	}
}

// WithTTL sets the time-to-live for entries. Zero keeps entries forever.
func WithTTL(d time.Duration) Option {
	return func(c *MemoryCache) {
		c.ttl = d
	}
}

// NewMemoryCache creates a new in-memory cache with the given options
func NewMemoryCache(opts ...Option) *MemoryCache {
	c := &MemoryCache{
		entries: make(map[string]*memoryEntry),
		maxSize: 1000,
		ttl:     time.Hour,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *MemoryCache) Get(ctx context.Context, key CacheKey) (*CacheEntry, error) {
	return c.Lookup(ctx, key.Hash())
}

// Lookup returns the entry stored under a key hash.
func (c *MemoryCache) Lookup(ctx context.Context, hash string) (*CacheEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[hash]
	if ok && e.expired(time.Now()) {
		delete(c.entries, hash)
		ok = false
	}
	if !ok {
		c.misses++
		return nil, ErrCacheMiss
	}
	c.hits++
	return e.entry, nil
}

func (c *MemoryCache) Put(ctx context.Context, entry *CacheEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	hash := entry.Key.Hash()
	if _, exists := c.entries[hash]; !exists && len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	now := time.Now()
	var expiresAt time.Time
	if c.ttl > 0 {
		expiresAt = now.Add(c.ttl)
	}
	if entry.Timestamp == 0 {
		entry.Timestamp = now.Unix()
	}
	c.entries[hash] = &memoryEntry{entry: entry, createdAt: now, expiresAt: expiresAt}
	return nil
}

func (c *MemoryCache) Delete(ctx context.Context, key CacheKey) error {
	return c.Remove(ctx, key.Hash())
}

// Remove deletes the entry stored under a key hash.
func (c *MemoryCache) Remove(ctx context.Context, hash string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, hash)
	return nil
}

// Clear removes all entries from the cache
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*memoryEntry)
}

// Stats returns cache statistics
func (c *MemoryCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.hits + c.misses
	hitRate := 0.0
	if total > 0 {
		hitRate = float64(c.hits) / float64(total)
	}
	return CacheStats{
		Hits:      c.hits,
		Misses:    c.misses,
		HitRate:   hitRate,
		Size:      len(c.entries),
		MaxSize:   c.maxSize,
		Evictions: c.evictions,
	}
}

// CacheStats holds cache statistics
type CacheStats struct {
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	HitRate   float64 `json:"hit_rate"`
	Size      int     `json:"size"`
	MaxSize   int     `json:"max_size"`
	Evictions int64   `json:"evictions"`
}

// evictOldest removes the oldest entry. Must be called with lock held.
func (c *MemoryCache) evictOldest() {
	var oldestKey string
	var oldestTime time.Time
	for key, e := range c.entries {
		if oldestKey == "" || e.createdAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = e.createdAt
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
		c.evictions++
	}
}

// Cleanup removes all expired entries and reports how many went.
func (c *MemoryCache) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	count := 0
	for key, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, key)
			count++
		}
	}
	return count
}

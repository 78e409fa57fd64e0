package geocode

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// CacheEntry is one remembered answer.
type CacheEntry struct {
	Query      string    `json:"query"`
	PostalCode string    `json:"postal_code,omitempty"`
	Found      bool      `json:"found"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Cache memoises geocode answers by normalised query. Misses live only in
// memory for the current run; the file holds hits alone so a later run
// asks the provider again. A nil *Cache is a valid, always-empty cache.
type Cache struct {
	mu      sync.RWMutex
	Entries map[string]CacheEntry `json:"entries"`
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{Entries: map[string]CacheEntry{}}
}

// LoadCache reads the cache file at path. A blank path or a missing file
// yields an empty cache. Persisted misses are dropped.
func LoadCache(path string) (*Cache, error) {
	if strings.TrimSpace(path) == "" {
		return NewCache(), nil
	}
	payload, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewCache(), nil
		}
		return nil, err
	}
	cache := NewCache()
	if err := json.Unmarshal(payload, cache); err != nil {
		return nil, err
	}
	if cache.Entries == nil {
		cache.Entries = map[string]CacheEntry{}
	}
	for key, entry := range cache.Entries {
		if !entry.Found {
			delete(cache.Entries, key)
		}
	}
	return cache, nil
}

// SaveCache writes the hits in cache to path. A blank path is a no-op.
func SaveCache(path string, cache *Cache) error {
	if cache == nil || strings.TrimSpace(path) == "" {
		return nil
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	cache.mu.RLock()
	hits := make(map[string]CacheEntry, len(cache.Entries))
	for key, entry := range cache.Entries {
		if entry.Found {
			hits[key] = entry
		}
	}
	cache.mu.RUnlock()

	payload, err := json.MarshalIndent(struct {
		Entries map[string]CacheEntry `json:"entries"`
	}{hits}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(payload, '\n'), 0o644)
}

// Get returns the entry stored for query.
func (c *Cache) Get(query string) (CacheEntry, bool) {
	if c == nil {
		return CacheEntry{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.Entries[normalizeQuery(query)]
	return entry, ok
}

// Set stores entry under query, stamping the original query on it.
func (c *Cache) Set(query string, entry CacheEntry) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Entries == nil {
		c.Entries = map[string]CacheEntry{}
	}
	entry.Query = query
	c.Entries[normalizeQuery(query)] = entry
}

// Len reports how many entries the cache holds.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.Entries)
}

func normalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

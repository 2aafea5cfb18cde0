package engine

import (
	"sync/atomic"

	"github.com/alphadose/haxmap"
	lru "github.com/hashicorp/golang-lru"
)

// Cache is the pluggable template cache capability. Keys are always resolved
// absolute filenames; values are compiled renderers. Implementations must be
// safe for concurrent use; a benign race compiling the same filename twice is
// acceptable, the last Set wins.
type Cache interface {
	Get(key string) (*Template, bool)
	Set(key string, tpl *Template)
}

// MemoryCache is the default cache: an unbounded, process-lifetime
// concurrent map.
type MemoryCache struct {
	entries atomic.Pointer[haxmap.Map[string, *Template]]
}

// NewMemoryCache creates an empty unbounded cache.
func NewMemoryCache() *MemoryCache {
	c := &MemoryCache{}
	c.entries.Store(haxmap.New[string, *Template]())
	return c
}

// Get retrieves the renderer compiled from key.
func (c *MemoryCache) Get(key string) (*Template, bool) {
	return c.entries.Load().Get(key)
}

// Set stores the renderer compiled from key.
func (c *MemoryCache) Set(key string, tpl *Template) {
	c.entries.Load().Set(key, tpl)
}

// Delete removes the entry for key.
func (c *MemoryCache) Delete(key string) {
	c.entries.Load().Del(key)
}

// Size returns the number of cached renderers.
func (c *MemoryCache) Size() int {
	return int(c.entries.Load().Len())
}

// Clear discards all entries. Intended for test isolation.
func (c *MemoryCache) Clear() {
	c.entries.Store(haxmap.New[string, *Template]())
}

// LRUCache is a bounded drop-in cache policy evicting the least recently
// used renderer once the configured size is reached.
type LRUCache struct {
	entries *lru.Cache
}

// NewLRUCache creates a cache holding at most size renderers.
func NewLRUCache(size int) (*LRUCache, error) {
	entries, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &LRUCache{entries: entries}, nil
}

// Get retrieves the renderer compiled from key.
func (c *LRUCache) Get(key string) (*Template, bool) {
	v, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}
	return v.(*Template), true
}

// Set stores the renderer compiled from key, evicting the least recently
// used entry when full.
func (c *LRUCache) Set(key string, tpl *Template) {
	c.entries.Add(key, tpl)
}

// Size returns the number of cached renderers.
func (c *LRUCache) Size() int {
	return c.entries.Len()
}

// Clear discards all entries.
func (c *LRUCache) Clear() {
	c.entries.Purge()
}

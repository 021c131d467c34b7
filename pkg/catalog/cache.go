package catalog

import (
	"container/list"
	"fmt"
	"sync"

	"github.com/slazav/vmap2/pkg/vmap2"
)

// StoreCache keeps a bounded number of bolt-backed stores open, evicting
// the least-recently-used one when a new store would exceed the limit.
// Adapted from the teacher's ChartCache (pkg/v1/cache.go): the same
// map-plus-container/list LRU shape, but eviction is keyed on open store
// count rather than an estimated in-memory byte size — a VMap2 store isn't
// loaded into memory at all, it's a live bbolt file handle, and file
// handles are the resource actually worth bounding.
type StoreCache struct {
	maxOpen int
	opts    Options
	stores  map[string]*cacheEntry
	lru     *list.List // most recently used at front
	mu      sync.Mutex
}

type cacheEntry struct {
	path    string
	store   vmap2.Store
	element *list.Element
}

// NewStoreCache returns a cache that keeps at most maxOpen stores open at
// once, using DefaultOptions. maxOpen <= 0 means unlimited.
func NewStoreCache(maxOpen int) *StoreCache {
	return NewStoreCacheWithOptions(maxOpen, DefaultOptions())
}

// NewStoreCacheWithOptions is NewStoreCache with explicit Options: opts.
// StoreOptions is used to open every store, and opts.ErrorLog, if set,
// receives one line per store that fails to close on eviction.
func NewStoreCacheWithOptions(maxOpen int, opts Options) *StoreCache {
	return &StoreCache{
		maxOpen: maxOpen,
		opts:    opts,
		stores:  make(map[string]*cacheEntry),
		lru:     list.New(),
	}
}

// Get returns the store at path, opening it (non-creating, with the
// cache's StoreOptions, which is read/write under DefaultOptions) on a
// cache miss.
func (c *StoreCache) Get(path string) (vmap2.Store, error) {
	c.mu.Lock()
	if entry, ok := c.stores[path]; ok {
		c.lru.MoveToFront(entry.element)
		c.mu.Unlock()
		return entry.store, nil
	}
	c.mu.Unlock()

	s, err := vmap2.OpenWithOptions(path, false, c.opts.StoreOptions)
	if err != nil {
		return nil, fmt.Errorf("store cache: open %s: %w", path, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// another goroutine may have opened it while we didn't hold the lock
	if entry, ok := c.stores[path]; ok {
		c.lru.MoveToFront(entry.element)
		s.Close()
		return entry.store, nil
	}

	if c.maxOpen > 0 {
		for len(c.stores) >= c.maxOpen && c.lru.Len() > 0 {
			c.evictLRU()
		}
	}

	entry := &cacheEntry{path: path, store: s}
	entry.element = c.lru.PushFront(entry)
	c.stores[path] = entry
	return s, nil
}

// evictLRU closes and drops the least-recently-used store. Must be called
// with c.mu held. A Close failure is reported to opts.ErrorLog, if set, and
// otherwise swallowed: eviction always proceeds, there is no caller left to
// hand the error back to.
func (c *StoreCache) evictLRU() {
	elem := c.lru.Back()
	if elem == nil {
		return
	}
	entry := elem.Value.(*cacheEntry)
	c.lru.Remove(elem)
	delete(c.stores, entry.path)
	if err := entry.store.Close(); err != nil {
		c.opts.logf("store cache: evict %s: %v\n", entry.path, err)
	}
}

// Remove closes and evicts the store at path, if cached.
func (c *StoreCache) Remove(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.stores[path]
	if !ok {
		return
	}
	c.lru.Remove(entry.element)
	delete(c.stores, path)
	if err := entry.store.Close(); err != nil {
		c.opts.logf("store cache: remove %s: %v\n", entry.path, err)
	}
}

// Clear closes and evicts every cached store.
func (c *StoreCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, entry := range c.stores {
		if err := entry.store.Close(); err != nil {
			c.opts.logf("store cache: clear %s: %v\n", entry.path, err)
		}
	}
	c.stores = make(map[string]*cacheEntry)
	c.lru.Init()
}

// Len returns the number of currently open stores.
func (c *StoreCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.stores)
}

// Package pcache implements the worker-side store for materialized task
// results. Unpinned entries live in an LRU and may be evicted under
// memory pressure; pinned (persisted) entries are exempt from eviction
// until explicitly released.
package pcache

import (
	"fmt"
	"sync"

	"github.com/docker/docker/pkg/locker"
	lru "github.com/hashicorp/golang-lru"
)

// Cache is a pinning LRU for task results, keyed by task fingerprint
type Cache struct {
	mu     sync.Mutex
	lru    *lru.Cache
	pinned map[uint64]interface{}
	locks  *locker.Locker
}

// NewCache creates a Cache evicting beyond size unpinned entries
func NewCache(size int) (*Cache, error) {
	if size < 1 {
		return nil, fmt.Errorf("cache size %d must be positive", size)
	}
	inner, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &Cache{
		lru:    inner,
		pinned: make(map[uint64]interface{}),
		locks:  locker.New(),
	}, nil
}

// Lock acquires the named lock for a fingerprint, serializing concurrent
// materializations of the same result on one worker
func (c *Cache) Lock(fp uint64) {
	c.locks.Lock(lockName(fp))
}

// Unlock releases the named lock for a fingerprint
func (c *Cache) Unlock(fp uint64) {
	_ = c.locks.Unlock(lockName(fp))
}

func lockName(fp uint64) string {
	return fmt.Sprintf("%x", fp)
}

// Get retrieves a resident result, pinned or not
func (c *Cache) Get(fp uint64) (interface{}, bool) {
	c.mu.Lock()
	if v, ok := c.pinned[fp]; ok {
		c.mu.Unlock()
		return v, true
	}
	c.mu.Unlock()
	return c.lru.Get(fp)
}

// Put stores a result as an unpinned, evictable entry. Storing a result
// which is already pinned keeps it pinned.
func (c *Cache) Put(fp uint64, v interface{}) {
	c.mu.Lock()
	if _, ok := c.pinned[fp]; ok {
		c.pinned[fp] = v
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	c.lru.Add(fp, v)
}

// Pin marks a resident result as exempt from eviction. Returns false if
// the result is not resident.
func (c *Cache) Pin(fp uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.pinned[fp]; ok {
		return true
	}
	v, ok := c.lru.Get(fp)
	if !ok {
		return false
	}
	c.lru.Remove(fp)
	c.pinned[fp] = v
	return true
}

// Unpin returns a pinned result to the evictable LRU
func (c *Cache) Unpin(fp uint64) {
	c.mu.Lock()
	v, ok := c.pinned[fp]
	if ok {
		delete(c.pinned, fp)
	}
	c.mu.Unlock()
	if ok {
		c.lru.Add(fp, v)
	}
}

// Remove drops a result entirely, pinned or not
func (c *Cache) Remove(fp uint64) {
	c.mu.Lock()
	delete(c.pinned, fp)
	c.mu.Unlock()
	c.lru.Remove(fp)
}

// Len returns the number of resident results
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pinned) + c.lru.Len()
}

// Purge drops all resident results, pinned or not
func (c *Cache) Purge() {
	c.mu.Lock()
	c.pinned = make(map[uint64]interface{})
	c.mu.Unlock()
	c.lru.Purge()
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package cache memoizes computed relationship paths and tree views.
//
// Entries are tagged with every person they depend on; graph mutations
// purge by tag (see Store). Rooted-only invalidation means views rooted
// at a distant ancestor of a mutated person can stay stale until their
// TTL expires. That bounded staleness is a deliberate trade-off against
// purging wide swaths of cache on every edit.
package cache

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// TreeCache is the in-memory Store implementation: LRU with per-entry
// TTL and a tag index for precise invalidation.
//
// Thread Safety: safe for concurrent use. A single RWMutex guards the
// entry map, LRU list and tag index; counters are atomics.
type TreeCache struct {
	mu      sync.RWMutex
	entries map[Key]*entry
	lru     *list.List
	tags    map[Tag]map[Key]struct{}
	options Options

	hits          int64
	misses        int64
	evictions     int64
	expirations   int64
	invalidations int64
	sets          int64
}

// NewTreeCache creates an in-memory result cache.
func NewTreeCache(opts ...Option) *TreeCache {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return &TreeCache{
		entries: make(map[Key]*entry),
		lru:     list.New(),
		tags:    make(map[Tag]map[Key]struct{}),
		options: options,
	}
}

// Get returns the payload for a key.
//
// Expired entries are dropped on access and read as misses.
func (c *TreeCache) Get(ctx context.Context, key Key) ([]byte, bool, error) {
	start := time.Now()

	c.mu.RLock()
	e, ok := c.entries[key]
	if !ok {
		c.mu.RUnlock()
		atomic.AddInt64(&c.misses, 1)
		recordMiss(time.Since(start))
		return nil, false, nil
	}
	if expired(e) {
		c.mu.RUnlock()
		c.removeExpired(key)
		atomic.AddInt64(&c.misses, 1)
		recordMiss(time.Since(start))
		return nil, false, nil
	}
	payload := e.payload
	c.mu.RUnlock()

	c.touch(key)
	atomic.AddInt64(&c.hits, 1)
	recordHit(time.Since(start))
	return payload, true, nil
}

// Set stores a payload under a key.
func (c *TreeCache) Set(ctx context.Context, key Key, payload []byte,
	ttl time.Duration, tags ...Tag) error {

	if ttl <= 0 {
		ttl = c.options.TTL
	}
	e := &entry{
		key:          key,
		payload:      payload,
		tags:         tags,
		expiresMilli: time.Now().Add(ttl).UnixMilli(),
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.entries[key]; ok {
		c.removeLocked(old)
	}
	c.evictIfNeededLocked()

	e.lruElement = c.lru.PushFront(key)
	c.entries[key] = e
	for _, tag := range tags {
		keys, ok := c.tags[tag]
		if !ok {
			keys = make(map[Key]struct{})
			c.tags[tag] = keys
		}
		keys[key] = struct{}{}
	}

	atomic.AddInt64(&c.sets, 1)
	return nil
}

// InvalidateKey removes one entry.
func (c *TreeCache) InvalidateKey(ctx context.Context, key Key) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		c.removeLocked(e)
		atomic.AddInt64(&c.invalidations, 1)
		recordInvalidation(1)
	}
	return nil
}

// InvalidateTag removes every entry carrying the tag.
func (c *TreeCache) InvalidateTag(ctx context.Context, tag Tag) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys, ok := c.tags[tag]
	if !ok {
		return 0, nil
	}
	n := 0
	for key := range keys {
		if e, found := c.entries[key]; found {
			c.removeLocked(e)
			n++
		}
	}
	atomic.AddInt64(&c.invalidations, int64(n))
	recordInvalidation(n)
	return n, nil
}

// Clear removes all entries.
func (c *TreeCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.entries)
	c.entries = make(map[Key]*entry)
	c.tags = make(map[Tag]map[Key]struct{})
	c.lru.Init()
	atomic.AddInt64(&c.invalidations, int64(n))
	recordInvalidation(n)
	return nil
}

// Stats returns current cache statistics.
func (c *TreeCache) Stats(ctx context.Context) (Stats, error) {
	c.mu.RLock()
	entryCount := len(c.entries)
	c.mu.RUnlock()

	return Stats{
		EntryCount:    entryCount,
		Hits:          atomic.LoadInt64(&c.hits),
		Misses:        atomic.LoadInt64(&c.misses),
		Evictions:     atomic.LoadInt64(&c.evictions),
		Expirations:   atomic.LoadInt64(&c.expirations),
		Invalidations: atomic.LoadInt64(&c.invalidations),
		Sets:          atomic.LoadInt64(&c.sets),
		MaxEntries:    c.options.MaxEntries,
		TTL:           c.options.TTL,
	}, nil
}

func expired(e *entry) bool {
	return time.Now().UnixMilli() > e.expiresMilli
}

// touch moves an entry to the front of the LRU list.
func (c *TreeCache) touch(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok && e.lruElement != nil {
		c.lru.MoveToFront(e.lruElement)
	}
}

// removeExpired drops an entry that was seen expired under the read lock.
func (c *TreeCache) removeExpired(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || !expired(e) {
		return
	}
	c.removeLocked(e)
	atomic.AddInt64(&c.expirations, 1)
}

// removeLocked unlinks an entry from the map, LRU list and tag index.
// Caller must hold the write lock.
func (c *TreeCache) removeLocked(e *entry) {
	if e.lruElement != nil {
		c.lru.Remove(e.lruElement)
		e.lruElement = nil
	}
	delete(c.entries, e.key)
	for _, tag := range e.tags {
		if keys, ok := c.tags[tag]; ok {
			delete(keys, e.key)
			if len(keys) == 0 {
				delete(c.tags, tag)
			}
		}
	}
}

// evictIfNeededLocked makes room for one incoming entry. Caller must
// hold the write lock.
func (c *TreeCache) evictIfNeededLocked() {
	for len(c.entries) >= c.options.MaxEntries {
		back := c.lru.Back()
		if back == nil {
			return
		}
		key := back.Value.(Key)
		if e, ok := c.entries[key]; ok {
			c.removeLocked(e)
			atomic.AddInt64(&c.evictions, 1)
		} else {
			c.lru.Remove(back)
		}
	}
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package cache

import (
	"container/list"
	"context"
	"time"
)

// Default configuration values.
const (
	// DefaultMaxEntries is the default maximum number of cached results.
	DefaultMaxEntries = 4096

	// DefaultTTL is the default lifetime of a cached result. Bounded
	// staleness from rooted-only invalidation (see Store docs) is capped
	// by this value.
	DefaultTTL = 5 * time.Minute
)

// Store is the result-cache contract the read path consumes.
//
// Implementations must support concurrent readers and writers with
// atomic per-key get/set/delete; no multi-key transactions are assumed.
// Payloads are opaque bytes owned by the cache after Set; callers must
// not mutate a returned payload.
type Store interface {
	// Get returns the payload for a key, or a miss for absent, expired
	// or invalidated entries.
	Get(ctx context.Context, key Key) ([]byte, bool, error)

	// Set stores a payload under a key with the given tags. A ttl of 0
	// selects the store's default.
	Set(ctx context.Context, key Key, payload []byte, ttl time.Duration, tags ...Tag) error

	// InvalidateKey removes one entry. Removing an absent key is a no-op.
	InvalidateKey(ctx context.Context, key Key) error

	// InvalidateTag removes every entry carrying the tag and returns how
	// many were purged.
	InvalidateTag(ctx context.Context, tag Tag) (int, error)

	// Clear removes all entries.
	Clear(ctx context.Context) error

	// Stats reports counters for the admin surface.
	Stats(ctx context.Context) (Stats, error)
}

// entry is one cached result.
type entry struct {
	key          Key
	payload      []byte
	tags         []Tag
	expiresMilli int64
	lruElement   *list.Element
}

// Stats contains counters about a result cache.
type Stats struct {
	// EntryCount is the number of live entries.
	EntryCount int `json:"entryCount"`

	// Hits is the number of cache hits.
	Hits int64 `json:"hits"`

	// Misses is the number of cache misses, including expiries.
	Misses int64 `json:"misses"`

	// Evictions is the number of entries evicted by the LRU bound.
	Evictions int64 `json:"evictions"`

	// Expirations is the number of entries dropped on TTL expiry.
	Expirations int64 `json:"expirations"`

	// Invalidations is the number of entries purged by tag or key.
	Invalidations int64 `json:"invalidations"`

	// Sets is the number of store operations.
	Sets int64 `json:"sets"`

	// MaxEntries is the configured entry bound.
	MaxEntries int `json:"maxEntries"`

	// TTL is the configured default entry lifetime.
	TTL time.Duration `json:"ttlNanos"`

	// Degraded reports a tripped failsafe breaker in front of a remote
	// store. Always false for the in-memory store.
	Degraded bool `json:"degraded"`
}

// HitRate returns the cache hit rate as a percentage.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// Options configures an in-memory result cache.
type Options struct {
	// MaxEntries bounds the number of live entries.
	MaxEntries int

	// TTL is the default entry lifetime.
	TTL time.Duration
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		MaxEntries: DefaultMaxEntries,
		TTL:        DefaultTTL,
	}
}

// Option is a functional option for configuring the cache.
type Option func(*Options)

// WithMaxEntries sets the maximum number of cached entries.
func WithMaxEntries(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.MaxEntries = n
		}
	}
}

// WithTTL sets the default entry lifetime.
func WithTTL(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.TTL = d
		}
	}
}

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
	"context"
	"log/slog"
	"sync"
	"time"
)

// Failsafe breaker defaults.
const (
	// DefaultBreakerThreshold is how many consecutive store failures
	// open the breaker.
	DefaultBreakerThreshold = 3

	// DefaultBreakerCooldown is how long an open breaker bypasses the
	// store before probing it again.
	DefaultBreakerCooldown = 30 * time.Second
)

// Failsafe wraps a Store so cache faults never fail a request.
//
// Description:
//
//	Every error from the inner store degrades to a miss (Get) or a
//	no-op (Set, invalidation) and is logged, never propagated. After
//	DefaultBreakerThreshold consecutive failures the breaker opens and
//	the store is bypassed entirely until the cooldown elapses, so a
//	down backend costs one failed call per cooldown instead of one per
//	request. Callers compute fresh on every miss, so correctness never
//	depends on the cache being reachable.
//
//	Wrapping the in-memory TreeCache is harmless; the breaker simply
//	never trips. The wrapper earns its keep in front of remote stores.
//
// Thread Safety: safe for concurrent use.
type Failsafe struct {
	inner  Store
	logger *slog.Logger

	threshold int
	cooldown  time.Duration

	mu        sync.Mutex
	failures  int
	openUntil time.Time
}

// FailsafeOption configures a Failsafe wrapper.
type FailsafeOption func(*Failsafe)

// WithBreakerThreshold sets the consecutive-failure count that opens
// the breaker.
func WithBreakerThreshold(n int) FailsafeOption {
	return func(f *Failsafe) {
		if n > 0 {
			f.threshold = n
		}
	}
}

// WithBreakerCooldown sets how long an open breaker bypasses the store.
func WithBreakerCooldown(d time.Duration) FailsafeOption {
	return func(f *Failsafe) {
		if d > 0 {
			f.cooldown = d
		}
	}
}

// WithFailsafeLogger sets the logger for degradation events.
func WithFailsafeLogger(l *slog.Logger) FailsafeOption {
	return func(f *Failsafe) {
		if l != nil {
			f.logger = l
		}
	}
}

// NewFailsafe wraps a Store with fail-open semantics.
func NewFailsafe(inner Store, opts ...FailsafeOption) *Failsafe {
	f := &Failsafe{
		inner:     inner,
		logger:    slog.Default(),
		threshold: DefaultBreakerThreshold,
		cooldown:  DefaultBreakerCooldown,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Get returns the payload for a key, reading store faults and an open
// breaker as misses.
func (f *Failsafe) Get(ctx context.Context, key Key) ([]byte, bool, error) {
	if f.bypassed() {
		return nil, false, nil
	}
	payload, ok, err := f.inner.Get(ctx, key)
	if err != nil {
		f.recordFailure("get", err)
		return nil, false, nil
	}
	f.recordSuccess()
	return payload, ok, nil
}

// Set stores a payload, swallowing store faults.
func (f *Failsafe) Set(ctx context.Context, key Key, payload []byte,
	ttl time.Duration, tags ...Tag) error {

	if f.bypassed() {
		return nil
	}
	if err := f.inner.Set(ctx, key, payload, ttl, tags...); err != nil {
		f.recordFailure("set", err)
		return nil
	}
	f.recordSuccess()
	return nil
}

// InvalidateKey removes one entry, swallowing store faults. A failed
// invalidation leaves a stale entry behind at worst until its TTL.
func (f *Failsafe) InvalidateKey(ctx context.Context, key Key) error {
	if f.bypassed() {
		return nil
	}
	if err := f.inner.InvalidateKey(ctx, key); err != nil {
		f.recordFailure("invalidate_key", err)
		return nil
	}
	f.recordSuccess()
	return nil
}

// InvalidateTag removes every entry carrying the tag, swallowing store
// faults.
func (f *Failsafe) InvalidateTag(ctx context.Context, tag Tag) (int, error) {
	if f.bypassed() {
		return 0, nil
	}
	n, err := f.inner.InvalidateTag(ctx, tag)
	if err != nil {
		f.recordFailure("invalidate_tag", err)
		return 0, nil
	}
	f.recordSuccess()
	return n, nil
}

// Clear removes all entries, swallowing store faults.
func (f *Failsafe) Clear(ctx context.Context) error {
	if f.bypassed() {
		return nil
	}
	if err := f.inner.Clear(ctx); err != nil {
		f.recordFailure("clear", err)
		return nil
	}
	f.recordSuccess()
	return nil
}

// Stats reports the inner store's counters, marking the result Degraded
// while the breaker is open. Stats faults return zeroed counters.
func (f *Failsafe) Stats(ctx context.Context) (Stats, error) {
	degraded := f.bypassed()

	var stats Stats
	if !degraded {
		var err error
		stats, err = f.inner.Stats(ctx)
		if err != nil {
			f.recordFailure("stats", err)
			stats = Stats{}
			degraded = f.bypassed()
		}
	}
	stats.Degraded = degraded
	return stats, nil
}

// bypassed reports whether the breaker is currently open.
func (f *Failsafe) bypassed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return time.Now().Before(f.openUntil)
}

func (f *Failsafe) recordSuccess() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = 0
}

func (f *Failsafe) recordFailure(op string, err error) {
	f.mu.Lock()
	f.failures++
	tripped := false
	if f.failures >= f.threshold {
		f.openUntil = time.Now().Add(f.cooldown)
		f.failures = 0
		tripped = true
	}
	f.mu.Unlock()

	f.logger.Warn("result cache degraded, computing fresh",
		"op", op, "error", err, "breaker_open", tripped)
	if tripped {
		recordBreakerTrip()
	}
}

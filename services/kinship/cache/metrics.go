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
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for result cache operations, registered once at
// package init and exposed through the service /metrics endpoint.
var (
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "kingraph",
		Subsystem: "kinship_cache",
		Name:      "hits_total",
		Help:      "Total number of result cache hits",
	})

	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "kingraph",
		Subsystem: "kinship_cache",
		Name:      "misses_total",
		Help:      "Total number of result cache misses",
	})

	cacheInvalidations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "kingraph",
		Subsystem: "kinship_cache",
		Name:      "invalidations_total",
		Help:      "Total number of entries purged by invalidation",
	})

	cacheGetLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "kingraph",
		Subsystem: "kinship_cache",
		Name:      "get_duration_seconds",
		Help:      "Duration of result cache get operations",
		Buckets:   []float64{0.00001, 0.0001, 0.001, 0.005, 0.01, 0.05, 0.1},
	}, []string{"hit"})

	cacheBreakerTrips = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "kingraph",
		Subsystem: "kinship_cache",
		Name:      "breaker_trips_total",
		Help:      "Times the cache failsafe breaker opened",
	})
)

func recordHit(d time.Duration) {
	cacheHits.Inc()
	cacheGetLatency.WithLabelValues("true").Observe(d.Seconds())
}

func recordMiss(d time.Duration) {
	cacheMisses.Inc()
	cacheGetLatency.WithLabelValues("false").Observe(d.Seconds())
}

func recordInvalidation(n int) {
	if n == 0 {
		return
	}
	cacheInvalidations.Add(float64(n))
}

func recordBreakerTrip() {
	cacheBreakerTrips.Inc()
}

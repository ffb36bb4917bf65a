// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides Prometheus metrics for the kinship service.
//
// # Description
//
// This package implements Prometheus metrics for monitoring relationship
// path and tree view operations. Metrics include:
//   - Request counters (by endpoint, status)
//   - Traversal latency histograms (path search, tree materialization)
//   - Cache outcome counters (hit, miss, bypass)
//   - Persons-visited histograms for traversal cost tracking
//
// # Integration
//
// Metrics are exposed via the /metrics endpoint. Use with Prometheus +
// Grafana for dashboards and alerting.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/AleutianAI/KinGraph/services/kinship/graph"
)

// =============================================================================
// Metric Definitions
// =============================================================================

// Namespace for all metrics
const metricsNamespace = "kingraph"

// Subsystem for kinship traversal metrics
const kinshipSubsystem = "kinship"

// KinshipMetrics holds all Prometheus metrics for kinship operations.
//
// # Description
//
// Provides counters and histograms for monitoring traversal performance
// and cache effectiveness. Initialize once at startup via InitMetrics().
//
// # Thread Safety
//
// All operations are thread-safe.
type KinshipMetrics struct {
	// RequestsTotal counts kinship requests by endpoint and status.
	// Labels: endpoint (path, tree), status (success, error)
	RequestsTotal *prometheus.CounterVec

	// TraversalDurationSeconds measures traversal latency by endpoint.
	// Labels: endpoint (path, tree), source (cache, store)
	TraversalDurationSeconds *prometheus.HistogramVec

	// CacheOutcomesTotal counts result cache outcomes.
	// Labels: endpoint (path, tree), outcome (hit, miss, bypass)
	CacheOutcomesTotal *prometheus.CounterVec

	// PersonsVisited measures persons touched per traversal.
	// Labels: endpoint (path, tree)
	PersonsVisited *prometheus.HistogramVec

	// ErrorsTotal counts errors by endpoint and error code.
	// Labels: endpoint, error_code (not_found, depth_exceeded, tenant_mismatch,
	// store_unavailable, internal)
	ErrorsTotal *prometheus.CounterVec

	// InvalidationsTotal counts cache invalidation fan-outs by trigger.
	// Labels: trigger (person_mutation, edge_mutation, union_mutation, manual)
	InvalidationsTotal *prometheus.CounterVec

	// RequestsInFlight tracks currently executing API requests.
	RequestsInFlight prometheus.Gauge
}

// DefaultMetrics is the singleton instance of KinshipMetrics.
// Initialized by InitMetrics().
var DefaultMetrics *KinshipMetrics

// InitMetrics initializes the default metrics instance.
//
// # Description
//
// Creates and registers all Prometheus metrics. Should be called once
// at application startup, after the Prometheus registry is available.
//
// # Outputs
//
//   - *KinshipMetrics: The initialized metrics instance.
//
// # Limitations
//
//   - Panics if called twice (duplicate registration).
func InitMetrics() *KinshipMetrics {
	DefaultMetrics = &KinshipMetrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: kinshipSubsystem,
				Name:      "requests_total",
				Help:      "Total number of kinship requests by endpoint and status",
			},
			[]string{"endpoint", "status"},
		),

		TraversalDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: kinshipSubsystem,
				Name:      "traversal_duration_seconds",
				Help:      "Traversal latency in seconds by endpoint and result source",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
			},
			[]string{"endpoint", "source"},
		),

		CacheOutcomesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: kinshipSubsystem,
				Name:      "cache_outcomes_total",
				Help:      "Result cache outcomes by endpoint",
			},
			[]string{"endpoint", "outcome"},
		),

		PersonsVisited: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: kinshipSubsystem,
				Name:      "persons_visited",
				Help:      "Persons touched per traversal",
				Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
			},
			[]string{"endpoint"},
		),

		ErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: kinshipSubsystem,
				Name:      "errors_total",
				Help:      "Total kinship errors by endpoint and error code",
			},
			[]string{"endpoint", "error_code"},
		),

		InvalidationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: kinshipSubsystem,
				Name:      "invalidations_total",
				Help:      "Cache invalidation fan-outs by trigger",
			},
			[]string{"trigger"},
		),

		RequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: kinshipSubsystem,
				Name:      "requests_in_flight",
				Help:      "Number of API requests currently being served",
			},
		),
	}

	return DefaultMetrics
}

// =============================================================================
// Error Codes
// =============================================================================

// ErrorCode represents a categorized error type for metrics.
type ErrorCode string

const (
	// ErrorCodeNotFound indicates a requested person does not exist.
	ErrorCodeNotFound ErrorCode = "not_found"

	// ErrorCodeDepthExceeded indicates the requested depth exceeded the cap.
	ErrorCodeDepthExceeded ErrorCode = "depth_exceeded"

	// ErrorCodeTenantMismatch indicates a cross-tenant access attempt.
	ErrorCodeTenantMismatch ErrorCode = "tenant_mismatch"

	// ErrorCodeStoreUnavailable indicates a backend store failure.
	ErrorCodeStoreUnavailable ErrorCode = "store_unavailable"

	// ErrorCodeValidation indicates request validation failure.
	ErrorCodeValidation ErrorCode = "validation"

	// ErrorCodeInternal indicates an internal server error.
	ErrorCodeInternal ErrorCode = "internal"
)

// ClassifyError maps a kinship error to its metrics code.
func ClassifyError(err error) ErrorCode {
	switch {
	case errors.Is(err, graph.ErrNotFound):
		return ErrorCodeNotFound
	case errors.Is(err, graph.ErrDepthExceeded):
		return ErrorCodeDepthExceeded
	case errors.Is(err, graph.ErrTenantMismatch):
		return ErrorCodeTenantMismatch
	case errors.Is(err, graph.ErrUnavailable):
		return ErrorCodeStoreUnavailable
	default:
		return ErrorCodeInternal
	}
}

// =============================================================================
// Endpoint Names
// =============================================================================

// Endpoint represents a kinship endpoint for metrics labeling.
type Endpoint string

const (
	// EndpointPath is the relationship path endpoint.
	EndpointPath Endpoint = "path"

	// EndpointTree is the tree view endpoint.
	EndpointTree Endpoint = "tree"
)

// =============================================================================
// Helper Methods
// =============================================================================

// RecordRequest records a completed kinship request.
func (m *KinshipMetrics) RecordRequest(endpoint Endpoint, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.RequestsTotal.WithLabelValues(string(endpoint), status).Inc()
}

// RecordError records a categorized error.
func (m *KinshipMetrics) RecordError(endpoint Endpoint, code ErrorCode) {
	m.ErrorsTotal.WithLabelValues(string(endpoint), string(code)).Inc()
}

// RecordTraversal records traversal latency tagged with the result source,
// "cache" for cache hits and "store" for fresh computations.
func (m *KinshipMetrics) RecordTraversal(endpoint Endpoint, seconds float64, fromCache bool) {
	source := "store"
	if fromCache {
		source = "cache"
	}
	m.TraversalDurationSeconds.WithLabelValues(string(endpoint), source).Observe(seconds)
}

// RecordCacheOutcome records a result cache outcome.
func (m *KinshipMetrics) RecordCacheOutcome(endpoint Endpoint, outcome string) {
	m.CacheOutcomesTotal.WithLabelValues(string(endpoint), outcome).Inc()
}

// RecordPersonsVisited records how many persons a traversal touched.
func (m *KinshipMetrics) RecordPersonsVisited(endpoint Endpoint, count int) {
	m.PersonsVisited.WithLabelValues(string(endpoint)).Observe(float64(count))
}

// RecordInvalidation records a cache invalidation fan-out.
func (m *KinshipMetrics) RecordInvalidation(trigger string) {
	m.InvalidationsTotal.WithLabelValues(trigger).Inc()
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package engine ties the kinship traversal primitives to the result
// cache and the mutation surface.
//
// # Description
//
// The Engine is the single entry point the HTTP layer talks to. Reads
// (relationship paths, tree views) go through the result cache with
// singleflight deduplication, so concurrent identical queries compute
// once. Writes go to the underlying store and then invalidate every
// cached result that named a mutated person.
//
// Tree views are cached as their marshaled JSON payload, so repeated
// identical queries return byte-identical responses. Relationship paths
// are cached once per unordered endpoint pair: the entry holds the
// canonical-direction path plus classifications for both orientations,
// so a reversed lookup is served from the same entry with zero store
// calls.
//
// # Thread Safety
//
// All methods are safe for concurrent use.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/AleutianAI/KinGraph/services/kinship/cache"
	"github.com/AleutianAI/KinGraph/services/kinship/graph"
	"github.com/AleutianAI/KinGraph/services/kinship/observability"
)

// =============================================================================
// Types
// =============================================================================

// Engine coordinates traversals, classification, caching and writes.
type Engine struct {
	store      graph.GraphStore
	writer     graph.GraphWriter
	finder     *graph.PathFinder
	classifier *graph.Classifier
	trees      *graph.TreeMaterializer
	cache      cache.Store
	flight     singleflight.Group
	ttl        time.Duration
	logger     *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithTTL overrides the lifetime of cached results.
func WithTTL(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.ttl = d
		}
	}
}

// WithLogger overrides the engine's logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithPathFinder replaces the default path finder.
func WithPathFinder(f *graph.PathFinder) Option {
	return func(e *Engine) {
		if f != nil {
			e.finder = f
		}
	}
}

// WithTreeMaterializer replaces the default tree materializer.
func WithTreeMaterializer(t *graph.TreeMaterializer) Option {
	return func(e *Engine) {
		if t != nil {
			e.trees = t
		}
	}
}

// New creates an Engine over a graph store and a result cache.
//
// If the store also implements graph.GraphWriter, the engine's mutation
// methods are enabled; otherwise they fail with ErrUnavailable.
func New(store graph.GraphStore, resultCache cache.Store, opts ...Option) *Engine {
	e := &Engine{
		store:      store,
		finder:     graph.NewPathFinder(store),
		classifier: graph.NewClassifier(store),
		trees:      graph.NewTreeMaterializer(store),
		cache:      resultCache,
		ttl:        cache.DefaultTTL,
		logger:     slog.Default(),
	}
	if w, ok := store.(graph.GraphWriter); ok {
		e.writer = w
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// PathResult is the full answer to a relationship path query: the path
// itself plus, when the endpoints are connected, the named relationship
// read in query direction.
type PathResult struct {
	graph.RelationshipPath
	Relationship *graph.Classification `json:"relationship,omitempty"`
}

// cachedPath is the stored form of a path result. It is keyed on the
// canonical (smaller id first) endpoint order and carries both reading
// directions, so either orientation of the query hits the same entry.
type cachedPath struct {
	Path         *graph.RelationshipPath `json:"path"`
	ClassForward *graph.Classification   `json:"classForward,omitempty"`
	ClassReverse *graph.Classification   `json:"classReverse,omitempty"`
}

// =============================================================================
// Reads
// =============================================================================

// FindRelationshipPath finds and classifies the shortest relationship
// path between two persons, serving repeated queries from the cache.
//
// Inputs:
//
//	ctx - Cancellation propagates into the traversal.
//	tenant - Tenant owning both persons.
//	person1, person2 - Query endpoints; order only affects how the
//	relationship is read, not what is searched or cached.
//	maxDepth - Per-side search bound; 0 means graph.DefaultMaxPathDepth.
//
// Outputs:
//
//	*PathResult - Path plus classification; PathFound=false with a nil
//	Relationship when the persons are not connected within the bound.
//	error - ErrNotFound, ErrDepthExceeded, ErrUnavailable, or ctx error.
func (e *Engine) FindRelationshipPath(ctx context.Context, tenant graph.TenantID,
	person1, person2 graph.PersonID, maxDepth int) (*PathResult, error) {

	start := time.Now()
	if maxDepth == 0 {
		maxDepth = graph.DefaultMaxPathDepth
	}
	lo, hi, swapped := cache.OrderPersons(person1, person2)
	key := cache.PathKey(tenant, person1, person2, maxDepth)

	if payload, ok := e.cacheGet(ctx, key); ok {
		res, err := orientPath(payload, swapped)
		if err == nil {
			e.observePath(start, true, res)
			return res, nil
		}
		// A payload that no longer unmarshals is treated as a miss.
		e.logger.Warn("discarding undecodable cached path", "key", key, "error", err)
	}

	payload, err, _ := e.flight.Do(string(key), func() (any, error) {
		return e.computePath(ctx, tenant, lo, hi, maxDepth, key)
	})
	if err != nil {
		e.recordError(observability.EndpointPath, err)
		return nil, err
	}

	res, err := orientPath(payload.([]byte), swapped)
	if err != nil {
		return nil, fmt.Errorf("decode path result: %w", err)
	}
	e.observePath(start, false, res)
	return res, nil
}

// computePath runs the search in canonical direction, classifies both
// orientations, and caches the marshaled entry tagged with every person
// on the path.
func (e *Engine) computePath(ctx context.Context, tenant graph.TenantID,
	lo, hi graph.PersonID, maxDepth int, key cache.Key) ([]byte, error) {

	path, err := e.finder.FindPath(ctx, tenant, lo, hi, maxDepth)
	if err != nil {
		return nil, err
	}

	entry := cachedPath{Path: path}
	if path.PathFound {
		fwd, err := e.classifier.Classify(ctx, tenant, path)
		if err != nil {
			return nil, err
		}
		rev, err := e.classifier.Classify(ctx, tenant, path.Reverse())
		if err != nil {
			return nil, err
		}
		entry.ClassForward = fwd
		entry.ClassReverse = rev
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("encode path result: %w", err)
	}

	tags := []cache.Tag{cache.TenantTag(tenant)}
	if path.PathFound {
		for _, n := range path.Nodes {
			tags = append(tags, cache.PersonTag(tenant, n.PersonID))
		}
	} else {
		// Negative results depend on the endpoints too: a new edge at
		// either one can connect them.
		tags = append(tags,
			cache.PersonTag(tenant, lo), cache.PersonTag(tenant, hi))
	}
	e.cacheSet(ctx, key, payload, tags)
	return payload, nil
}

// orientPath decodes a cached entry and reads it in query direction.
func orientPath(payload []byte, swapped bool) (*PathResult, error) {
	var entry cachedPath
	if err := json.Unmarshal(payload, &entry); err != nil {
		return nil, err
	}
	if entry.Path == nil {
		return nil, fmt.Errorf("cached path entry has no path")
	}
	res := &PathResult{}
	if swapped {
		res.RelationshipPath = *entry.Path.Reverse()
		res.Relationship = entry.ClassReverse
	} else {
		res.RelationshipPath = *entry.Path
		res.Relationship = entry.ClassForward
	}
	return res, nil
}

// GetTreeView materializes a tree view, serving repeated identical
// queries byte for byte from the cache.
//
// Inputs:
//
//	mode - Which subtree to expand. Pedigree ignores descendantGens and
//	descendants ignores ancestorGens, and the cache key reflects that,
//	so equivalent queries share one entry.
//
// Outputs:
//
//	[]byte - The marshaled TreeView JSON. Callers must not mutate it.
//	error - ErrNotFound, ErrDepthExceeded, ErrUnavailable, or ctx error.
func (e *Engine) GetTreeView(ctx context.Context, tenant graph.TenantID,
	root graph.PersonID, mode graph.ViewMode,
	ancestorGens, descendantGens int, includeSpouses bool) ([]byte, error) {

	start := time.Now()
	switch mode {
	case graph.ViewPedigree:
		descendantGens = 0
	case graph.ViewDescendants:
		ancestorGens = 0
	}
	key := cache.TreeKey(tenant, root, mode.String(),
		ancestorGens, descendantGens, includeSpouses)

	if payload, ok := e.cacheGet(ctx, key); ok {
		e.observeTree(start, true, -1)
		return payload, nil
	}

	payload, err, _ := e.flight.Do(string(key), func() (any, error) {
		return e.computeTree(ctx, tenant, root, mode,
			ancestorGens, descendantGens, includeSpouses, key)
	})
	if err != nil {
		e.recordError(observability.EndpointTree, err)
		return nil, err
	}
	return payload.([]byte), nil
}

func (e *Engine) computeTree(ctx context.Context, tenant graph.TenantID,
	root graph.PersonID, mode graph.ViewMode,
	ancestorGens, descendantGens int, includeSpouses bool, key cache.Key) ([]byte, error) {

	start := time.Now()
	var view *graph.TreeView
	var err error
	switch mode {
	case graph.ViewPedigree:
		view, err = e.trees.BuildPedigree(ctx, tenant, root, ancestorGens, includeSpouses)
	case graph.ViewDescendants:
		view, err = e.trees.BuildDescendants(ctx, tenant, root, descendantGens, includeSpouses)
	case graph.ViewHourglass:
		view, err = e.trees.BuildHourglass(ctx, tenant, root,
			ancestorGens, descendantGens, includeSpouses)
	default:
		return nil, fmt.Errorf("unknown view mode %d", mode)
	}
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(view)
	if err != nil {
		return nil, fmt.Errorf("encode tree view: %w", err)
	}

	tags := make([]cache.Tag, 0, len(view.Persons)+1)
	tags = append(tags, cache.TenantTag(tenant))
	for _, p := range view.Persons {
		tags = append(tags, cache.PersonTag(tenant, p.ID))
	}
	e.cacheSet(ctx, key, payload, tags)
	e.observeTree(start, false, view.TotalPersons)
	return payload, nil
}

// =============================================================================
// Writes
// =============================================================================

// CreatePerson adds a person record.
func (e *Engine) CreatePerson(ctx context.Context, p graph.Person) error {
	w, err := e.mutable()
	if err != nil {
		return err
	}
	if err := w.CreatePerson(ctx, p); err != nil {
		return err
	}
	return e.OnPersonMutated(ctx, p.TenantID, p.ID)
}

// UpdatePerson replaces a person's mutable fields. Cached labels may
// reference the person's name or sex, so their entries are purged.
func (e *Engine) UpdatePerson(ctx context.Context, p graph.Person) error {
	w, err := e.mutable()
	if err != nil {
		return err
	}
	if err := w.UpdatePerson(ctx, p); err != nil {
		return err
	}
	return e.OnPersonMutated(ctx, p.TenantID, p.ID)
}

// DeletePerson removes a person and every edge touching them.
func (e *Engine) DeletePerson(ctx context.Context, tenant graph.TenantID,
	person graph.PersonID) error {

	w, err := e.mutable()
	if err != nil {
		return err
	}
	if err := w.DeletePerson(ctx, tenant, person); err != nil {
		return err
	}
	return e.OnPersonMutated(ctx, tenant, person)
}

// AddParentChildEdge links parent to child and invalidates both.
func (e *Engine) AddParentChildEdge(ctx context.Context, tenant graph.TenantID,
	parent, child graph.PersonID) error {

	w, err := e.mutable()
	if err != nil {
		return err
	}
	if err := w.AddParentChildEdge(ctx, tenant, parent, child); err != nil {
		return err
	}
	return e.OnEdgeMutated(ctx, tenant, parent, child)
}

// RemoveParentChildEdge unlinks parent from child and invalidates both.
func (e *Engine) RemoveParentChildEdge(ctx context.Context, tenant graph.TenantID,
	parent, child graph.PersonID) error {

	w, err := e.mutable()
	if err != nil {
		return err
	}
	if err := w.RemoveParentChildEdge(ctx, tenant, parent, child); err != nil {
		return err
	}
	return e.OnEdgeMutated(ctx, tenant, parent, child)
}

// CreateUnion records a union and invalidates every member.
func (e *Engine) CreateUnion(ctx context.Context, u graph.Union) error {
	w, err := e.mutable()
	if err != nil {
		return err
	}
	if err := w.CreateUnion(ctx, u); err != nil {
		return err
	}
	return e.OnPersonMutated(ctx, u.TenantID, u.Members...)
}

// AddUnionMember adds a person to a union and invalidates them.
func (e *Engine) AddUnionMember(ctx context.Context, tenant graph.TenantID,
	union graph.UnionID, person graph.PersonID) error {

	w, err := e.mutable()
	if err != nil {
		return err
	}
	if err := w.AddUnionMember(ctx, tenant, union, person); err != nil {
		return err
	}
	return e.invalidateUnion(ctx, tenant, union, person)
}

// RemoveUnionMember removes a person from a union and invalidates them.
func (e *Engine) RemoveUnionMember(ctx context.Context, tenant graph.TenantID,
	union graph.UnionID, person graph.PersonID) error {

	w, err := e.mutable()
	if err != nil {
		return err
	}
	if err := w.RemoveUnionMember(ctx, tenant, union, person); err != nil {
		return err
	}
	return e.invalidateUnion(ctx, tenant, union, person)
}

func (e *Engine) mutable() (graph.GraphWriter, error) {
	if e.writer == nil {
		return nil, fmt.Errorf("%w: store does not support writes", graph.ErrUnavailable)
	}
	return e.writer, nil
}

// =============================================================================
// Invalidation
// =============================================================================

// OnPersonMutated purges every cached result that named any of the
// given persons. Cache entries are tagged with each person they
// contain, so the purge is precise: results that never touched the
// mutated persons survive.
func (e *Engine) OnPersonMutated(ctx context.Context, tenant graph.TenantID,
	persons ...graph.PersonID) error {

	total := 0
	for _, p := range persons {
		n, err := e.cache.InvalidateTag(ctx, cache.PersonTag(tenant, p))
		if err != nil {
			return err
		}
		total += n
	}
	if m := observability.DefaultMetrics; m != nil {
		m.RecordInvalidation("person_mutation")
	}
	e.logger.Debug("invalidated cached results",
		"tenant", tenant, "persons", len(persons), "entries", total)
	return nil
}

// OnEdgeMutated purges cached results after a parent-child edge change.
func (e *Engine) OnEdgeMutated(ctx context.Context, tenant graph.TenantID,
	parent, child graph.PersonID) error {
	return e.OnPersonMutated(ctx, tenant, parent, child)
}

// invalidateUnion purges the changed member plus the union's remaining
// members, whose spouse attachments and in-law paths shifted too.
func (e *Engine) invalidateUnion(ctx context.Context, tenant graph.TenantID,
	union graph.UnionID, person graph.PersonID) error {

	members := []graph.PersonID{person}
	unions, err := e.store.GetPersonUnions(ctx, tenant, person)
	if err == nil {
		for _, u := range unions {
			if u.ID == union {
				members = append(members, u.Members...)
			}
		}
	}
	return e.OnPersonMutated(ctx, tenant, members...)
}

// InvalidateTenant purges every cached result for a tenant.
func (e *Engine) InvalidateTenant(ctx context.Context, tenant graph.TenantID) (int, error) {
	n, err := e.cache.InvalidateTag(ctx, cache.TenantTag(tenant))
	if err != nil {
		return 0, err
	}
	if m := observability.DefaultMetrics; m != nil {
		m.RecordInvalidation("manual")
	}
	return n, nil
}

// CacheStats reports result-cache statistics.
func (e *Engine) CacheStats(ctx context.Context) (cache.Stats, error) {
	return e.cache.Stats(ctx)
}

// =============================================================================
// Cache plumbing
// =============================================================================

// cacheGet is a fail-open read: any cache error is logged and treated
// as a miss, so traversal availability never depends on the cache.
func (e *Engine) cacheGet(ctx context.Context, key cache.Key) ([]byte, bool) {
	payload, ok, err := e.cache.Get(ctx, key)
	if err != nil {
		e.logger.Warn("result cache read failed, computing fresh", "key", key, "error", err)
		return nil, false
	}
	return payload, ok
}

func (e *Engine) cacheSet(ctx context.Context, key cache.Key, payload []byte, tags []cache.Tag) {
	if err := e.cache.Set(ctx, key, payload, e.ttl, tags...); err != nil {
		e.logger.Warn("result cache write failed", "key", key, "error", err)
	}
}

// =============================================================================
// Metrics
// =============================================================================

func (e *Engine) observePath(start time.Time, fromCache bool, res *PathResult) {
	m := observability.DefaultMetrics
	if m == nil {
		return
	}
	m.RecordRequest(observability.EndpointPath, true)
	m.RecordTraversal(observability.EndpointPath, time.Since(start).Seconds(), fromCache)
	outcome := "miss"
	if fromCache {
		outcome = "hit"
	}
	m.RecordCacheOutcome(observability.EndpointPath, outcome)
	m.RecordPersonsVisited(observability.EndpointPath, len(res.Nodes))
}

func (e *Engine) observeTree(start time.Time, fromCache bool, persons int) {
	m := observability.DefaultMetrics
	if m == nil {
		return
	}
	m.RecordRequest(observability.EndpointTree, true)
	m.RecordTraversal(observability.EndpointTree, time.Since(start).Seconds(), fromCache)
	outcome := "miss"
	if fromCache {
		outcome = "hit"
	}
	m.RecordCacheOutcome(observability.EndpointTree, outcome)
	if persons >= 0 {
		m.RecordPersonsVisited(observability.EndpointTree, persons)
	}
}

func (e *Engine) recordError(endpoint observability.Endpoint, err error) {
	m := observability.DefaultMetrics
	if m == nil {
		return
	}
	m.RecordRequest(endpoint, false)
	m.RecordError(endpoint, observability.ClassifyError(err))
}

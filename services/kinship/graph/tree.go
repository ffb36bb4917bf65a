// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import (
	"context"
	"fmt"
	"log/slog"
)

// TreeMaterializer expands bounded pedigree, descendant and hourglass
// subtrees for visualization.
//
// Description:
//
//	Generation-labeled BFS from the root, fetching adjacency one layer
//	at a time. A person reached twice (pedigree collapse) appears once.
//	Nodes at the generation bound are probed one layer further so the
//	HasMoreAncestors/HasMoreDescendants flags tell the UI whether
//	"expand further" is possible; the materializer itself never returns
//	unbounded data.
//
//	With includeSpouses, union partners of every visited person are
//	attached as leaves at their partner's generation. Spouses are not
//	descended through unless they also appear via blood lineage.
//
// Thread Safety: safe for concurrent use; traversal state is per call.
type TreeMaterializer struct {
	store          GraphStore
	maxGenerations int
	logger         *slog.Logger
}

// TreeOption configures a TreeMaterializer.
type TreeOption func(*TreeMaterializer)

// WithMaxGenerations overrides the hard generation cap (default
// MaxTreeGenerations). Intended for tests.
func WithMaxGenerations(n int) TreeOption {
	return func(t *TreeMaterializer) {
		if n > 0 {
			t.maxGenerations = n
		}
	}
}

// WithTreeLogger sets the logger used for traversal diagnostics.
func WithTreeLogger(l *slog.Logger) TreeOption {
	return func(t *TreeMaterializer) {
		if l != nil {
			t.logger = l
		}
	}
}

// NewTreeMaterializer creates a TreeMaterializer over the given store.
func NewTreeMaterializer(store GraphStore, opts ...TreeOption) *TreeMaterializer {
	t := &TreeMaterializer{
		store:          store,
		maxGenerations: MaxTreeGenerations,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// BuildPedigree materializes the ancestor tree of a person.
//
// generations bounds the expansion (0 returns just the root); values
// above the cap fail with ErrDepthExceeded.
func (t *TreeMaterializer) BuildPedigree(ctx context.Context, tenant TenantID,
	root PersonID, generations int, includeSpouses bool) (*TreeView, error) {
	return t.build(ctx, tenant, root, ViewPedigree, generations, 0, includeSpouses)
}

// BuildDescendants materializes the descendant tree of a person.
func (t *TreeMaterializer) BuildDescendants(ctx context.Context, tenant TenantID,
	root PersonID, generations int, includeSpouses bool) (*TreeView, error) {
	return t.build(ctx, tenant, root, ViewDescendants, 0, generations, includeSpouses)
}

// BuildHourglass materializes ancestors and descendants around one root.
// The root appears exactly once in the result.
func (t *TreeMaterializer) BuildHourglass(ctx context.Context, tenant TenantID,
	root PersonID, ancestorGenerations, descendantGenerations int,
	includeSpouses bool) (*TreeView, error) {
	return t.build(ctx, tenant, root, ViewHourglass,
		ancestorGenerations, descendantGenerations, includeSpouses)
}

// build runs the traversals a view mode needs and assembles the TreeView.
func (t *TreeMaterializer) build(ctx context.Context, tenant TenantID, root PersonID,
	mode ViewMode, ancestorGens, descendantGens int, includeSpouses bool) (*TreeView, error) {

	for _, gens := range []int{ancestorGens, descendantGens} {
		if gens < 0 || gens > t.maxGenerations {
			return nil, fmt.Errorf("%w: requested %d generations, cap %d",
				ErrDepthExceeded, gens, t.maxGenerations)
		}
	}

	ok, err := t.store.PersonExists(ctx, tenant, root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, root)
	}

	rootNode := &TreePersonNode{
		ID:            root,
		Relation:      RelationRoot,
		RelationLabel: RelationRoot.String(),
	}
	visited := map[PersonID]*TreePersonNode{root: rootNode}
	ordered := []*TreePersonNode{rootNode}

	if mode == ViewPedigree || mode == ViewHourglass {
		nodes, err := t.expand(ctx, tenant, root, ancestorGens, EdgeParent, RelationAncestor, visited)
		if err != nil {
			return nil, err
		}
		ordered = append(ordered, nodes...)
	}
	if mode == ViewDescendants || mode == ViewHourglass {
		nodes, err := t.expand(ctx, tenant, root, descendantGens, EdgeChild, RelationDescendant, visited)
		if err != nil {
			return nil, err
		}
		ordered = append(ordered, nodes...)
	}

	if includeSpouses {
		spouses, err := t.attachSpouses(ctx, tenant, ordered, visited)
		if err != nil {
			return nil, err
		}
		ordered = append(ordered, spouses...)
	}

	view := &TreeView{
		RootPersonID: root,
		ViewMode:     mode.String(),
		TotalPersons: len(ordered),
		Persons:      make([]TreePersonNode, len(ordered)),
	}
	for i, n := range ordered {
		view.Persons[i] = *n
	}
	return view, nil
}

// expand performs one direction's generation-bounded BFS.
//
// Returns the discovered nodes in traversal order (layer by layer, each
// layer in ascending id order). Nodes on the final layer are probed one
// layer further to set their truncation flag; the root's own flag is set
// here too when the direction was not expanded at all.
func (t *TreeMaterializer) expand(ctx context.Context, tenant TenantID, root PersonID,
	generations int, kind EdgeKind, relation TreeRelation,
	visited map[PersonID]*TreePersonNode) ([]*TreePersonNode, error) {

	var out []*TreePersonNode
	frontier := []PersonID{root}

	for gen := 1; gen <= generations; gen++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(frontier) == 0 {
			break
		}

		layer, err := fetchLayer(ctx, t.store, tenant, frontier, kind)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}

		var next []PersonID
		for _, cur := range frontier {
			for _, nb := range layer[cur] {
				if _, seen := visited[nb]; seen {
					continue
				}
				node := &TreePersonNode{
					ID:              nb,
					GenerationLevel: gen,
					Relation:        relation,
					RelationLabel:   relation.String(),
					AnchorID:        cur,
				}
				visited[nb] = node
				out = append(out, node)
				next = append(next, nb)
			}
		}
		frontier = next
	}

	// Probe one layer beyond the bound for truncation flags. The frontier
	// now holds exactly the nodes at the final expanded generation (or
	// the root when generations is 0).
	if len(frontier) > 0 {
		probe, err := fetchLayer(ctx, t.store, tenant, frontier, kind)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		for _, id := range frontier {
			if len(probe[id]) == 0 {
				continue
			}
			node := visited[id]
			if kind == EdgeParent {
				node.HasMoreAncestors = true
			} else {
				node.HasMoreDescendants = true
			}
		}
	}

	return out, nil
}

// attachSpouses appends union partners of every visited person as leaf
// nodes, resolving the linking union where one is recorded.
func (t *TreeMaterializer) attachSpouses(ctx context.Context, tenant TenantID,
	blood []*TreePersonNode, visited map[PersonID]*TreePersonNode) ([]*TreePersonNode, error) {

	var out []*TreePersonNode
	for _, anchor := range blood {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		unions, err := t.store.GetPersonUnions(ctx, tenant, anchor.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}

		for _, u := range unions {
			for _, member := range u.Members {
				if member == anchor.ID {
					continue
				}
				if _, seen := visited[member]; seen {
					continue
				}
				node := &TreePersonNode{
					ID:              member,
					GenerationLevel: anchor.GenerationLevel,
					Relation:        RelationSpouse,
					RelationLabel:   RelationSpouse.String(),
					AnchorID:        anchor.ID,
					SpouseUnionID:   u.ID,
				}
				visited[member] = node
				out = append(out, node)
			}
		}
	}
	return out, nil
}

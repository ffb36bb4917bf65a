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

// PathFinder finds shortest relationship paths between two persons.
//
// Description:
//
//	Runs a bidirectional BFS from both endpoints across the union of
//	parent, child and spouse edges, meeting in the middle. Each side
//	keeps its own visited set, so cyclic union structures (remarriage
//	loops) terminate. Adjacency is fetched one frontier layer at a time,
//	bounding storage round-trips to O(depth).
//
// Determinism:
//
//	Frontier persons are processed in ascending id order, edge kinds in
//	the fixed order parent, child, spouse, and adjacency sets arrive
//	sorted. When several shortest paths exist, the one with the fewest
//	spouse edges wins; remaining ties break on the lexicographically
//	smallest node-id sequence. Identical inputs always yield the same
//	path.
//
// Thread Safety: safe for concurrent use; all search state is per call.
type PathFinder struct {
	store    GraphStore
	depthCap int
	logger   *slog.Logger
}

// PathFinderOption configures a PathFinder.
type PathFinderOption func(*PathFinder)

// WithDepthCap overrides the hard per-side depth cap (default
// MaxPathDepthCap). Intended for tests.
func WithDepthCap(n int) PathFinderOption {
	return func(f *PathFinder) {
		if n > 0 {
			f.depthCap = n
		}
	}
}

// WithPathLogger sets the logger used for search diagnostics.
func WithPathLogger(l *slog.Logger) PathFinderOption {
	return func(f *PathFinder) {
		if l != nil {
			f.logger = l
		}
	}
}

// NewPathFinder creates a PathFinder over the given store.
func NewPathFinder(store GraphStore, opts ...PathFinderOption) *PathFinder {
	f := &PathFinder{
		store:    store,
		depthCap: MaxPathDepthCap,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// visitKey identifies one visit slot. Search state is tracked per person
// and per arrival flavor: a spouse arrival and a blood arrival at the
// same depth support different continuations (a spouse arrival cannot
// take another spouse step) and join differently at a meet, so neither
// may shadow the other.
type visitKey struct {
	person    PersonID
	viaSpouse bool // the arriving step was a spouse edge
}

// visit records how a search side first (best) filled a visit slot.
type visit struct {
	prev    visitKey
	edge    EdgeKind // kind of the step prev -> person, in exploration orientation
	depth   int
	spouses int // spouse edges on the chain from the side's origin
}

// searchSide is the per-direction state of the bidirectional BFS.
type searchSide struct {
	origin   PersonID
	visited  map[visitKey]visit
	frontier []visitKey
	depth    int
}

func newSearchSide(origin PersonID) *searchSide {
	k := visitKey{person: origin}
	return &searchSide{
		origin:   origin,
		visited:  map[visitKey]visit{k: {depth: 0}},
		frontier: []visitKey{k},
	}
}

// chain reconstructs the slot sequence from the side's origin to k.
func (s *searchSide) chain(k visitKey) []visitKey {
	var rev []visitKey
	for cur := k; ; {
		rev = append(rev, cur)
		v := s.visited[cur]
		if v.depth == 0 {
			break
		}
		cur = v.prev
	}
	out := make([]visitKey, len(rev))
	for i, p := range rev {
		out[len(rev)-1-i] = p
	}
	return out
}

// arrivals returns the filled visit slots for a person, blood first.
func (s *searchSide) arrivals(p PersonID) []visitKey {
	var out []visitKey
	for _, via := range []bool{false, true} {
		k := visitKey{person: p, viaSpouse: via}
		if _, ok := s.visited[k]; ok {
			out = append(out, k)
		}
	}
	return out
}

// FindPath finds a shortest relationship path between two persons.
//
// Description:
//
//	Both endpoints must exist within the tenant, otherwise ErrNotFound.
//	maxDepth bounds each search side, so the returned path never exceeds
//	2*maxDepth edges. maxDepth of 0 selects DefaultMaxPathDepth; values
//	above the cap fail with ErrDepthExceeded before any traversal work.
//
//	A search that completes without connecting the endpoints returns
//	PathFound=false with a nil error: an unconnected pair is a valid
//	answer, not a failure. Asking for a person against themselves
//	returns a zero-length found path.
//
//	Produced paths never contain two consecutive spouse edges.
//
// Inputs:
//
//	ctx - Cancellation is checked between frontier layers, not mid-layer.
//	tenant - Tenant owning both persons.
//	person1, person2 - Path endpoints.
//	maxDepth - Per-side depth bound; 0 means DefaultMaxPathDepth.
//
// Outputs:
//
//	*RelationshipPath - The path, or PathFound=false when unconnected.
//	error - ErrNotFound, ErrDepthExceeded, ErrUnavailable, or ctx error.
func (f *PathFinder) FindPath(ctx context.Context, tenant TenantID,
	person1, person2 PersonID, maxDepth int) (*RelationshipPath, error) {

	if maxDepth == 0 {
		maxDepth = DefaultMaxPathDepth
	}
	if maxDepth < 0 || maxDepth > f.depthCap {
		return nil, fmt.Errorf("%w: requested %d, cap %d", ErrDepthExceeded, maxDepth, f.depthCap)
	}

	for _, p := range []PersonID{person1, person2} {
		ok, err := f.store.PersonExists(ctx, tenant, p)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
		}
	}

	if person1 == person2 {
		return &RelationshipPath{
			PathFound: true,
			Nodes:     []PathNode{{PersonID: person1}},
		}, nil
	}

	fwd := newSearchSide(person1)
	bwd := newSearchSide(person2)
	meets := make(map[PersonID]struct{})
	bestLen := -1

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// Pick the side to expand: the smaller frontier, skipping sides
		// that are exhausted, depth-capped, or provably futile (any path
		// through their next layer would be longer than the best found).
		side, other := fwd, bwd
		if len(bwd.frontier) < len(fwd.frontier) {
			side, other = bwd, fwd
		}
		if !f.expandable(side, maxDepth, bestLen) {
			side, other = other, side
		}
		if !f.expandable(side, maxDepth, bestLen) {
			break
		}

		if err := f.expandLayer(ctx, tenant, side, other, meets); err != nil {
			return nil, err
		}

		for id := range meets {
			for _, fk := range fwd.arrivals(id) {
				for _, bk := range bwd.arrivals(id) {
					// A meet that would join two spouse edges back to back
					// cannot produce a path, so it must not cut the search
					// short either.
					if fk.viaSpouse && bk.viaSpouse {
						continue
					}
					total := fwd.visited[fk].depth + bwd.visited[bk].depth
					if bestLen == -1 || total < bestLen {
						bestLen = total
					}
				}
			}
		}
	}

	if bestLen == -1 {
		f.logger.Debug("no relationship path within depth bound",
			"person1", person1, "person2", person2, "max_depth", maxDepth)
		return &RelationshipPath{PathFound: false}, nil
	}

	return f.selectBest(fwd, bwd, meets, bestLen), nil
}

// expandable reports whether a side can usefully expand another layer.
func (f *PathFinder) expandable(s *searchSide, maxDepth, bestLen int) bool {
	if len(s.frontier) == 0 || s.depth >= maxDepth {
		return false
	}
	// Once a meet of length bestLen exists, layers beyond that length
	// cannot contribute a path of equal or shorter length.
	if bestLen >= 0 && s.depth+1 > bestLen {
		return false
	}
	return true
}

// expandLayer advances one side by a full frontier layer.
//
// Adjacency for the whole layer is fetched in three batched calls. A
// slot filled twice at the same depth keeps the preferable visit record
// (fewer spouse edges, then lexicographically smaller chain), so records
// stay optimal per flavor under the tie-break ordering.
func (f *PathFinder) expandLayer(ctx context.Context, tenant TenantID,
	side, other *searchSide, meets map[PersonID]struct{}) error {

	layer := make([]PersonID, 0, len(side.frontier))
	inLayer := make(map[PersonID]struct{}, len(side.frontier))
	for _, k := range side.frontier {
		if _, ok := inLayer[k.person]; ok {
			continue
		}
		inLayer[k.person] = struct{}{}
		layer = append(layer, k.person)
	}

	parents, err := fetchLayer(ctx, f.store, tenant, layer, EdgeParent)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	children, err := fetchLayer(ctx, f.store, tenant, layer, EdgeChild)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	partners, err := fetchLayer(ctx, f.store, tenant, layer, EdgeSpouse)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	depth := side.depth + 1
	var next []visitKey

	for _, cur := range side.frontier {
		curVisit := side.visited[cur]

		for _, step := range []struct {
			kind EdgeKind
			ids  []PersonID
		}{
			{EdgeParent, parents[cur.person]},
			{EdgeChild, children[cur.person]},
			{EdgeSpouse, partners[cur.person]},
		} {
			// Two consecutive spouse edges never shorten a path and are
			// excluded from produced paths outright.
			if step.kind == EdgeSpouse && cur.viaSpouse {
				continue
			}

			for _, nb := range step.ids {
				nk := visitKey{person: nb, viaSpouse: step.kind == EdgeSpouse}
				cand := visit{
					prev:    cur,
					edge:    step.kind,
					depth:   depth,
					spouses: curVisit.spouses,
				}
				if nk.viaSpouse {
					cand.spouses++
				}

				existing, seen := side.visited[nk]
				switch {
				case !seen:
					side.visited[nk] = cand
					next = append(next, nk)
				case existing.depth == depth && f.better(side, nk, cand, existing):
					side.visited[nk] = cand
				default:
					continue
				}

				if len(other.arrivals(nb)) > 0 {
					meets[nb] = struct{}{}
				}
			}
		}
	}

	side.frontier = next
	side.depth = depth
	return nil
}

// better reports whether candidate visit cand is preferable to the
// existing same-depth visit in slot nk under the tie-break ordering.
func (f *PathFinder) better(side *searchSide, nk visitKey, cand, existing visit) bool {
	if cand.spouses != existing.spouses {
		return cand.spouses < existing.spouses
	}
	existingChain := chainIDs(side.chain(nk))
	// The candidate chain is the chain of its predecessor plus nk.
	candChain := append(chainIDs(side.chain(cand.prev)), nk.person)
	return lessIDSeq(candChain, existingChain)
}

// chainIDs projects a slot sequence onto its person ids.
func chainIDs(keys []visitKey) []PersonID {
	out := make([]PersonID, len(keys))
	for i, k := range keys {
		out[i] = k.person
	}
	return out
}

// lessIDSeq compares two id sequences lexicographically.
func lessIDSeq(a, b []PersonID) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

// selectBest assembles the final path from the best meeting slot pair.
//
// Meets are filtered to the minimal total length, combinations that would
// join two spouse edges back to back are rejected, and remaining ties
// break on total spouse-edge count then the lexicographic node sequence.
func (f *PathFinder) selectBest(fwd, bwd *searchSide,
	meets map[PersonID]struct{}, bestLen int) *RelationshipPath {

	var (
		bestNodes   []PathNode
		bestIDs     []PersonID
		bestSpouses = -1
	)

	for id := range meets {
		for _, fk := range fwd.arrivals(id) {
			for _, bk := range bwd.arrivals(id) {
				if fk.viaSpouse && bk.viaSpouse {
					continue
				}
				fv, bv := fwd.visited[fk], bwd.visited[bk]
				if fv.depth+bv.depth != bestLen {
					continue
				}

				nodes := assemblePath(fwd, bwd, fk, bk)
				ids := make([]PersonID, len(nodes))
				for i, n := range nodes {
					ids[i] = n.PersonID
				}
				spouses := fv.spouses + bv.spouses

				if bestSpouses == -1 ||
					spouses < bestSpouses ||
					(spouses == bestSpouses && lessIDSeq(ids, bestIDs)) {
					bestNodes, bestIDs, bestSpouses = nodes, ids, spouses
				}
			}
		}
	}

	if bestNodes == nil {
		return &RelationshipPath{PathFound: false}
	}

	return &RelationshipPath{
		PathFound:   true,
		Nodes:       bestNodes,
		Length:      len(bestNodes) - 1,
		SpouseLinks: bestSpouses,
	}
}

// assemblePath stitches the forward chain to the reversed backward chain
// at the meeting node, inverting backward edge kinds into path direction.
func assemblePath(fwd, bwd *searchSide, fm, bm visitKey) []PathNode {
	forward := fwd.chain(fm)  // person1 .. meet
	backward := bwd.chain(bm) // person2 .. meet

	nodes := make([]PathNode, 0, len(forward)+len(backward)-1)
	for _, k := range forward {
		nodes = append(nodes, PathNode{PersonID: k.person})
	}
	// Forward edge kinds: visit.edge of each slot after the origin.
	for i := 1; i < len(forward); i++ {
		kind := fwd.visited[forward[i]].edge
		nodes[i-1].EdgeToNext = kind
		nodes[i-1].EdgeLabel = kind.String()
	}

	// Walk the backward chain from the meet toward person2. The step
	// meet -> x reverses the exploration step x -> meet, so its kind
	// inverts.
	for i := len(backward) - 1; i > 0; i-- {
		kind := bwd.visited[backward[i]].edge.Inverse()
		nodes[len(nodes)-1].EdgeToNext = kind
		nodes[len(nodes)-1].EdgeLabel = kind.String()
		nodes = append(nodes, PathNode{PersonID: backward[i-1].person})
	}

	return nodes
}

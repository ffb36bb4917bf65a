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
	"sort"
)

// GraphStore is the read-only adjacency contract the traversal core
// consumes. The host application provides the implementation (in-memory,
// BadgerDB, or whatever storage backs the product).
//
// Contract:
//
//   - All lookups are tenant-scoped. A person in a different tenant is
//     reported as absent, never leaked.
//   - Adjacency methods return nil (not an error) for persons with no
//     such relations, including unknown persons.
//   - Returned slices are owned by the caller and sorted ascending by
//     person id, which traversal code relies on for determinism.
//
// Thread Safety: implementations must support concurrent readers.
type GraphStore interface {
	// GetParents returns the parents of a person.
	GetParents(ctx context.Context, tenant TenantID, person PersonID) ([]PersonID, error)

	// GetChildren returns the children of a person.
	GetChildren(ctx context.Context, tenant TenantID, person PersonID) ([]PersonID, error)

	// GetUnionPartners returns the partners of a person across all of
	// their unions, deduplicated.
	GetUnionPartners(ctx context.Context, tenant TenantID, person PersonID) ([]PersonID, error)

	// GetPersonUnions returns the unions a person belongs to.
	GetPersonUnions(ctx context.Context, tenant TenantID, person PersonID) ([]Union, error)

	// PersonExists reports whether the person exists within the tenant.
	PersonExists(ctx context.Context, tenant TenantID, person PersonID) (bool, error)

	// GetPersonSummary returns the display slice of a person record.
	// Returns ErrNotFound for unknown persons.
	GetPersonSummary(ctx context.Context, tenant TenantID, person PersonID) (*PersonSummary, error)
}

// BatchAdjacency is an optional GraphStore extension for fetching a whole
// frontier layer in one round-trip. Stores backed by remote storage should
// implement it; traversals fall back to per-person calls otherwise.
type BatchAdjacency interface {
	// GetParentsBatch returns parents for each requested person.
	GetParentsBatch(ctx context.Context, tenant TenantID, persons []PersonID) (map[PersonID][]PersonID, error)

	// GetChildrenBatch returns children for each requested person.
	GetChildrenBatch(ctx context.Context, tenant TenantID, persons []PersonID) (map[PersonID][]PersonID, error)

	// GetUnionPartnersBatch returns union partners for each requested person.
	GetUnionPartnersBatch(ctx context.Context, tenant TenantID, persons []PersonID) (map[PersonID][]PersonID, error)
}

// GraphWriter is the mutation surface the surrounding CRUD application
// uses. Every successful write must be followed by the matching cache
// invalidation (see the engine package).
type GraphWriter interface {
	// CreatePerson adds a person record to its tenant.
	CreatePerson(ctx context.Context, p Person) error

	// UpdatePerson replaces the mutable fields of a person record.
	UpdatePerson(ctx context.Context, p Person) error

	// DeletePerson removes a person and all edges touching them.
	DeletePerson(ctx context.Context, tenant TenantID, person PersonID) error

	// AddParentChildEdge links parent to child. Rejects self-loops.
	AddParentChildEdge(ctx context.Context, tenant TenantID, parent, child PersonID) error

	// RemoveParentChildEdge unlinks parent from child.
	RemoveParentChildEdge(ctx context.Context, tenant TenantID, parent, child PersonID) error

	// CreateUnion records a union of two or more persons.
	CreateUnion(ctx context.Context, u Union) error

	// AddUnionMember adds a person to an existing union.
	AddUnionMember(ctx context.Context, tenant TenantID, union UnionID, person PersonID) error

	// RemoveUnionMember removes a person from a union.
	RemoveUnionMember(ctx context.Context, tenant TenantID, union UnionID, person PersonID) error
}

// adjacencyFunc is one of the three per-person adjacency lookups.
type adjacencyFunc func(ctx context.Context, tenant TenantID, person PersonID) ([]PersonID, error)

// fetchLayer fetches adjacency for a whole frontier, using the store's
// batch extension when available and falling back to per-person lookups.
// The result maps every requested person; values are sorted ascending.
func fetchLayer(ctx context.Context, store GraphStore, tenant TenantID,
	persons []PersonID, kind EdgeKind) (map[PersonID][]PersonID, error) {

	if len(persons) == 0 {
		return map[PersonID][]PersonID{}, nil
	}

	if batch, ok := store.(BatchAdjacency); ok {
		var (
			out map[PersonID][]PersonID
			err error
		)
		switch kind {
		case EdgeParent:
			out, err = batch.GetParentsBatch(ctx, tenant, persons)
		case EdgeChild:
			out, err = batch.GetChildrenBatch(ctx, tenant, persons)
		case EdgeSpouse:
			out, err = batch.GetUnionPartnersBatch(ctx, tenant, persons)
		}
		if err != nil {
			return nil, err
		}
		for _, ids := range out {
			sortPersonIDs(ids)
		}
		return out, nil
	}

	var fetch adjacencyFunc
	switch kind {
	case EdgeParent:
		fetch = store.GetParents
	case EdgeChild:
		fetch = store.GetChildren
	case EdgeSpouse:
		fetch = store.GetUnionPartners
	}

	out := make(map[PersonID][]PersonID, len(persons))
	for _, p := range persons {
		ids, err := fetch(ctx, tenant, p)
		if err != nil {
			return nil, err
		}
		sortPersonIDs(ids)
		out[p] = ids
	}
	return out, nil
}

// sortPersonIDs sorts a person id slice ascending in place.
func sortPersonIDs(ids []PersonID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}

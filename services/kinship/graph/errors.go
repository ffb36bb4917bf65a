// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package graph provides the person-graph traversal core of KinGraph:
// the GraphStore contract, shortest relationship-path search, relationship
// classification, and bounded tree materialization.
//
// # Data Model
//
// Persons are nodes. Two edge families connect them: directed parent-child
// edges and undirected union (spousal) membership. Traversals treat both
// as adjacency, with typed steps (EdgeParent, EdgeChild, EdgeSpouse).
//
// # Cycle Tolerance
//
// Person graphs that include spouse edges are not acyclic (remarriage and
// repeated sibling unions create cycles). All traversals use explicit
// visited sets per direction; acyclicity is tolerated as a data property,
// never asserted.
//
// # Tenancy
//
// Every operation is scoped to a TenantID. A person outside the caller's
// tenant behaves exactly like a person that does not exist.
//
// # Thread Safety
//
// PathFinder, Classifier and TreeMaterializer are stateless between calls
// and safe for concurrent use; all traversal state is request-local.
package graph

import "errors"

// Sentinel errors for graph operations.
var (
	// ErrNotFound is returned when a referenced person does not exist in
	// the caller's tenant. A person belonging to a different tenant is
	// indistinguishable from a missing person.
	ErrNotFound = errors.New("person not found")

	// ErrDepthExceeded is returned when a requested search depth or
	// generation count is above the configured hard cap. The request is
	// rejected before any traversal work.
	ErrDepthExceeded = errors.New("requested depth exceeds the configured cap")

	// ErrTenantMismatch indicates an internal guard caught a query or
	// cache key crossing tenant boundaries. Unreachable in correct
	// operation; treated as a hard denial when it occurs.
	ErrTenantMismatch = errors.New("tenant boundary violation")

	// ErrUnavailable wraps storage faults (connection failures, timeouts)
	// unrelated to the domain taxonomy. The core does not retry; retry
	// policy belongs to the caller.
	ErrUnavailable = errors.New("graph storage unavailable")

	// ErrCacheUnavailable marks cache backend failures. Internal only:
	// reads and writes degrade to direct computation and the error is
	// never surfaced to callers.
	ErrCacheUnavailable = errors.New("result cache unavailable")

	// ErrSelfLoop is returned by the write side when a parent-child edge
	// would make a person their own parent.
	ErrSelfLoop = errors.New("person cannot be their own parent")

	// ErrDuplicatePerson is returned when creating a person with an ID
	// that already exists in the tenant.
	ErrDuplicatePerson = errors.New("duplicate person ID")

	// ErrUnionTooSmall is returned when creating a union with fewer than
	// two members.
	ErrUnionTooSmall = errors.New("union requires at least two members")
)

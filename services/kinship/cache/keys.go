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
	"fmt"
	"strings"

	"github.com/AleutianAI/KinGraph/services/kinship/graph"
)

// Key is a fully normalized cache key. Keys embed the tenant and every
// parameter that affects the cached result, lowercased with a fixed
// field order, so equal queries always collide and tenants never do.
type Key string

// Tag marks a cache entry as dependent on a person. Invalidation purges
// by tag, so one mutated person clears every variant that named them.
type Tag string

// TreeKey builds the key for a materialized tree view.
func TreeKey(tenant graph.TenantID, root graph.PersonID, mode string,
	ancestorGens, descendantGens int, includeSpouses bool) Key {

	s := 0
	if includeSpouses {
		s = 1
	}
	return Key(fmt.Sprintf("tree|%s|%s|%s|a%d|d%d|s%d",
		norm(string(tenant)), norm(string(root)), norm(mode),
		ancestorGens, descendantGens, s))
}

// PathKey builds the key for a relationship path result.
//
// The two person ids are ordered canonically (smaller first) so lookups
// for (A,B) and (B,A) hit the same entry; the cached value carries both
// orientations.
func PathKey(tenant graph.TenantID, person1, person2 graph.PersonID, maxDepth int) Key {
	lo, hi, _ := OrderPersons(person1, person2)
	return Key(fmt.Sprintf("path|%s|%s|%s|d%d",
		norm(string(tenant)), norm(string(lo)), norm(string(hi)), maxDepth))
}

// OrderPersons returns the two ids in canonical (ascending, normalized)
// order, and whether the input order was swapped to get there.
func OrderPersons(person1, person2 graph.PersonID) (lo, hi graph.PersonID, swapped bool) {
	if norm(string(person2)) < norm(string(person1)) {
		return person2, person1, true
	}
	return person1, person2, false
}

// PersonTag builds the invalidation tag for one person within a tenant.
func PersonTag(tenant graph.TenantID, person graph.PersonID) Tag {
	return Tag(fmt.Sprintf("person|%s|%s", norm(string(tenant)), norm(string(person))))
}

// TenantTag builds the invalidation tag covering a whole tenant.
func TenantTag(tenant graph.TenantID) Tag {
	return Tag("tenant|" + norm(string(tenant)))
}

func norm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

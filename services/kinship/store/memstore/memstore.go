// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package memstore is the in-memory graph store: the default backend
// for development and tests, and the reference semantics for durable
// backends.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/AleutianAI/KinGraph/services/kinship/graph"
)

// Store holds the family graph in tenant-partitioned maps.
//
// Thread Safety: safe for concurrent use; a single RWMutex guards all
// maps, and reads return copies.
type Store struct {
	mu           sync.RWMutex
	persons      map[graph.TenantID]map[graph.PersonID]graph.Person
	parents      map[graph.TenantID]map[graph.PersonID][]graph.PersonID
	children     map[graph.TenantID]map[graph.PersonID][]graph.PersonID
	unions       map[graph.TenantID]map[graph.UnionID]graph.Union
	memberUnions map[graph.TenantID]map[graph.PersonID][]graph.UnionID
}

// Interface conformance.
var (
	_ graph.GraphStore     = (*Store)(nil)
	_ graph.BatchAdjacency = (*Store)(nil)
	_ graph.GraphWriter    = (*Store)(nil)
)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		persons:      make(map[graph.TenantID]map[graph.PersonID]graph.Person),
		parents:      make(map[graph.TenantID]map[graph.PersonID][]graph.PersonID),
		children:     make(map[graph.TenantID]map[graph.PersonID][]graph.PersonID),
		unions:       make(map[graph.TenantID]map[graph.UnionID]graph.Union),
		memberUnions: make(map[graph.TenantID]map[graph.PersonID][]graph.UnionID),
	}
}

// ============================================================================
// Reads
// ============================================================================

// GetParents returns the parents of a person, sorted ascending.
func (s *Store) GetParents(ctx context.Context, tenant graph.TenantID, person graph.PersonID) ([]graph.PersonID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyIDs(s.parents[tenant][person]), nil
}

// GetChildren returns the children of a person, sorted ascending.
func (s *Store) GetChildren(ctx context.Context, tenant graph.TenantID, person graph.PersonID) ([]graph.PersonID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyIDs(s.children[tenant][person]), nil
}

// GetUnionPartners returns the partners of a person across all unions.
func (s *Store) GetUnionPartners(ctx context.Context, tenant graph.TenantID, person graph.PersonID) ([]graph.PersonID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.partnersLocked(tenant, person), nil
}

// GetPersonUnions returns the unions a person belongs to, sorted by id.
func (s *Store) GetPersonUnions(ctx context.Context, tenant graph.TenantID, person graph.PersonID) ([]graph.Union, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.memberUnions[tenant][person]
	out := make([]graph.Union, 0, len(ids))
	for _, id := range ids {
		if u, ok := s.unions[tenant][id]; ok {
			out = append(out, copyUnion(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// PersonExists reports whether the person exists within the tenant.
func (s *Store) PersonExists(ctx context.Context, tenant graph.TenantID, person graph.PersonID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.persons[tenant][person]
	return ok, nil
}

// GetPersonSummary returns the read-model slice of a person record.
func (s *Store) GetPersonSummary(ctx context.Context, tenant graph.TenantID, person graph.PersonID) (*graph.PersonSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.persons[tenant][person]
	if !ok {
		return nil, fmt.Errorf("%w: %s", graph.ErrNotFound, person)
	}
	return &graph.PersonSummary{
		ID:          p.ID,
		DisplayName: p.Name,
		Sex:         p.Sex,
		SexLabel:    p.Sex.String(),
		BirthDate:   p.BirthDate,
		DeathDate:   p.DeathDate,
		IsLiving:    p.IsLiving,
	}, nil
}

// GetParentsBatch returns parents for each requested person.
func (s *Store) GetParentsBatch(ctx context.Context, tenant graph.TenantID, persons []graph.PersonID) (map[graph.PersonID][]graph.PersonID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[graph.PersonID][]graph.PersonID, len(persons))
	for _, p := range persons {
		out[p] = copyIDs(s.parents[tenant][p])
	}
	return out, nil
}

// GetChildrenBatch returns children for each requested person.
func (s *Store) GetChildrenBatch(ctx context.Context, tenant graph.TenantID, persons []graph.PersonID) (map[graph.PersonID][]graph.PersonID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[graph.PersonID][]graph.PersonID, len(persons))
	for _, p := range persons {
		out[p] = copyIDs(s.children[tenant][p])
	}
	return out, nil
}

// GetUnionPartnersBatch returns union partners for each requested person.
func (s *Store) GetUnionPartnersBatch(ctx context.Context, tenant graph.TenantID, persons []graph.PersonID) (map[graph.PersonID][]graph.PersonID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[graph.PersonID][]graph.PersonID, len(persons))
	for _, p := range persons {
		out[p] = s.partnersLocked(tenant, p)
	}
	return out, nil
}

// partnersLocked collects a person's partners across unions. Caller
// must hold at least the read lock.
func (s *Store) partnersLocked(tenant graph.TenantID, person graph.PersonID) []graph.PersonID {
	var out []graph.PersonID
	for _, id := range s.memberUnions[tenant][person] {
		u, ok := s.unions[tenant][id]
		if !ok {
			continue
		}
		for _, m := range u.Members {
			if m != person {
				out = insertSorted(out, m)
			}
		}
	}
	return out
}

// ============================================================================
// Writes
// ============================================================================

// CreatePerson adds a person record.
func (s *Store) CreatePerson(ctx context.Context, p graph.Person) error {
	if p.ID == "" || p.TenantID == "" {
		return fmt.Errorf("person requires id and tenant")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.persons[p.TenantID][p.ID]; ok {
		return fmt.Errorf("%w: %s", graph.ErrDuplicatePerson, p.ID)
	}
	if s.persons[p.TenantID] == nil {
		s.persons[p.TenantID] = make(map[graph.PersonID]graph.Person)
	}
	s.persons[p.TenantID][p.ID] = p
	return nil
}

// UpdatePerson replaces the mutable fields of a person record.
func (s *Store) UpdatePerson(ctx context.Context, p graph.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.persons[p.TenantID][p.ID]; !ok {
		return fmt.Errorf("%w: %s", graph.ErrNotFound, p.ID)
	}
	s.persons[p.TenantID][p.ID] = p
	return nil
}

// DeletePerson removes a person, their parent-child edges, and their
// union memberships.
func (s *Store) DeletePerson(ctx context.Context, tenant graph.TenantID, person graph.PersonID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.persons[tenant][person]; !ok {
		return fmt.Errorf("%w: %s", graph.ErrNotFound, person)
	}
	delete(s.persons[tenant], person)

	for _, parent := range s.parents[tenant][person] {
		s.children[tenant][parent] = removeID(s.children[tenant][parent], person)
	}
	delete(s.parents[tenant], person)
	for _, child := range s.children[tenant][person] {
		s.parents[tenant][child] = removeID(s.parents[tenant][child], person)
	}
	delete(s.children[tenant], person)

	for _, id := range s.memberUnions[tenant][person] {
		if u, ok := s.unions[tenant][id]; ok {
			u.Members = removeID(u.Members, person)
			s.unions[tenant][id] = u
		}
	}
	delete(s.memberUnions[tenant], person)
	return nil
}

// AddParentChildEdge links parent to child.
func (s *Store) AddParentChildEdge(ctx context.Context, tenant graph.TenantID, parent, child graph.PersonID) error {
	if parent == child {
		return fmt.Errorf("%w: %s", graph.ErrSelfLoop, parent)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range []graph.PersonID{parent, child} {
		if _, ok := s.persons[tenant][p]; !ok {
			return fmt.Errorf("%w: %s", graph.ErrNotFound, p)
		}
	}
	if s.parents[tenant] == nil {
		s.parents[tenant] = make(map[graph.PersonID][]graph.PersonID)
	}
	if s.children[tenant] == nil {
		s.children[tenant] = make(map[graph.PersonID][]graph.PersonID)
	}
	s.parents[tenant][child] = insertSorted(s.parents[tenant][child], parent)
	s.children[tenant][parent] = insertSorted(s.children[tenant][parent], child)
	return nil
}

// RemoveParentChildEdge unlinks parent from child. Removing an absent
// edge is a no-op.
func (s *Store) RemoveParentChildEdge(ctx context.Context, tenant graph.TenantID, parent, child graph.PersonID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range []graph.PersonID{parent, child} {
		if _, ok := s.persons[tenant][p]; !ok {
			return fmt.Errorf("%w: %s", graph.ErrNotFound, p)
		}
	}
	s.parents[tenant][child] = removeID(s.parents[tenant][child], parent)
	s.children[tenant][parent] = removeID(s.children[tenant][parent], child)
	return nil
}

// CreateUnion records a union of two or more persons.
func (s *Store) CreateUnion(ctx context.Context, u graph.Union) error {
	if u.ID == "" || u.TenantID == "" {
		return fmt.Errorf("union requires id and tenant")
	}
	if len(u.Members) < 2 {
		return fmt.Errorf("%w: got %d members", graph.ErrUnionTooSmall, len(u.Members))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.unions[u.TenantID][u.ID]; ok {
		return fmt.Errorf("union %s already exists", u.ID)
	}
	for _, m := range u.Members {
		if _, ok := s.persons[u.TenantID][m]; !ok {
			return fmt.Errorf("%w: %s", graph.ErrNotFound, m)
		}
	}

	stored := copyUnion(u)
	sort.Slice(stored.Members, func(i, j int) bool { return stored.Members[i] < stored.Members[j] })

	if s.unions[u.TenantID] == nil {
		s.unions[u.TenantID] = make(map[graph.UnionID]graph.Union)
	}
	if s.memberUnions[u.TenantID] == nil {
		s.memberUnions[u.TenantID] = make(map[graph.PersonID][]graph.UnionID)
	}
	s.unions[u.TenantID][u.ID] = stored
	for _, m := range stored.Members {
		s.memberUnions[u.TenantID][m] = insertUnionID(s.memberUnions[u.TenantID][m], u.ID)
	}
	return nil
}

// AddUnionMember adds a person to an existing union.
func (s *Store) AddUnionMember(ctx context.Context, tenant graph.TenantID, union graph.UnionID, person graph.PersonID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.unions[tenant][union]
	if !ok {
		return fmt.Errorf("%w: union %s", graph.ErrNotFound, union)
	}
	if _, ok := s.persons[tenant][person]; !ok {
		return fmt.Errorf("%w: %s", graph.ErrNotFound, person)
	}
	u.Members = insertSorted(u.Members, person)
	s.unions[tenant][union] = u
	s.memberUnions[tenant][person] = insertUnionID(s.memberUnions[tenant][person], union)
	return nil
}

// RemoveUnionMember removes a person from a union.
func (s *Store) RemoveUnionMember(ctx context.Context, tenant graph.TenantID, union graph.UnionID, person graph.PersonID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.unions[tenant][union]
	if !ok {
		return fmt.Errorf("%w: union %s", graph.ErrNotFound, union)
	}
	u.Members = removeID(u.Members, person)
	s.unions[tenant][union] = u
	s.memberUnions[tenant][person] = removeUnionID(s.memberUnions[tenant][person], union)
	return nil
}

// ============================================================================
// Helpers
// ============================================================================

func copyIDs(ids []graph.PersonID) []graph.PersonID {
	if len(ids) == 0 {
		return nil
	}
	return append([]graph.PersonID(nil), ids...)
}

func copyUnion(u graph.Union) graph.Union {
	cp := u
	cp.Members = append([]graph.PersonID(nil), u.Members...)
	return cp
}

func insertSorted(ids []graph.PersonID, id graph.PersonID) []graph.PersonID {
	i := sort.Search(len(ids), func(i int) bool { return ids[i] >= id })
	if i < len(ids) && ids[i] == id {
		return ids
	}
	ids = append(ids, "")
	copy(ids[i+1:], ids[i:])
	ids[i] = id
	return ids
}

func removeID(ids []graph.PersonID, id graph.PersonID) []graph.PersonID {
	for i, x := range ids {
		if x == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

func insertUnionID(ids []graph.UnionID, id graph.UnionID) []graph.UnionID {
	i := sort.Search(len(ids), func(i int) bool { return ids[i] >= id })
	if i < len(ids) && ids[i] == id {
		return ids
	}
	ids = append(ids, "")
	copy(ids[i+1:], ids[i:])
	ids[i] = id
	return ids
}

func removeUnionID(ids []graph.UnionID, id graph.UnionID) []graph.UnionID {
	for i, x := range ids {
		if x == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

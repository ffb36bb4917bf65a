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
	"errors"
	"fmt"
	"sync"
)

// stubStore is an in-memory GraphStore for traversal tests. Relations
// are registered through the fluent helpers; adjacency slices are kept
// sorted the way the interface contract requires.
type stubStore struct {
	tenant   TenantID
	persons  map[PersonID]*PersonSummary
	parents  map[PersonID][]PersonID
	children map[PersonID][]PersonID
	unions   []Union

	mu    sync.Mutex
	calls int
	fail  error
}

func newStubStore(tenant TenantID) *stubStore {
	return &stubStore{
		tenant:   tenant,
		persons:  make(map[PersonID]*PersonSummary),
		parents:  make(map[PersonID][]PersonID),
		children: make(map[PersonID][]PersonID),
	}
}

func (s *stubStore) addPerson(id PersonID, sex Sex) *stubStore {
	s.persons[id] = &PersonSummary{ID: id, DisplayName: string(id), Sex: sex}
	return s
}

// link records parent -> child, creating either person if needed.
func (s *stubStore) link(parent, child PersonID) *stubStore {
	for _, id := range []PersonID{parent, child} {
		if _, ok := s.persons[id]; !ok {
			s.addPerson(id, SexUnknown)
		}
	}
	s.parents[child] = insertSorted(s.parents[child], parent)
	s.children[parent] = insertSorted(s.children[parent], child)
	return s
}

func (s *stubStore) marry(id UnionID, members ...PersonID) *stubStore {
	for _, m := range members {
		if _, ok := s.persons[m]; !ok {
			s.addPerson(m, SexUnknown)
		}
	}
	sorted := append([]PersonID(nil), members...)
	sortPersonIDs(sorted)
	s.unions = append(s.unions, Union{ID: id, TenantID: s.tenant, Members: sorted})
	return s
}

func insertSorted(ids []PersonID, id PersonID) []PersonID {
	for _, x := range ids {
		if x == id {
			return ids
		}
	}
	ids = append(ids, id)
	sortPersonIDs(ids)
	return ids
}

// callCount returns the number of store reads since construction.
func (s *stubStore) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *stubStore) observe() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.fail
}

func (s *stubStore) GetParents(ctx context.Context, tenant TenantID, person PersonID) ([]PersonID, error) {
	if err := s.observe(); err != nil {
		return nil, err
	}
	if tenant != s.tenant {
		return nil, nil
	}
	return append([]PersonID(nil), s.parents[person]...), nil
}

func (s *stubStore) GetChildren(ctx context.Context, tenant TenantID, person PersonID) ([]PersonID, error) {
	if err := s.observe(); err != nil {
		return nil, err
	}
	if tenant != s.tenant {
		return nil, nil
	}
	return append([]PersonID(nil), s.children[person]...), nil
}

func (s *stubStore) GetUnionPartners(ctx context.Context, tenant TenantID, person PersonID) ([]PersonID, error) {
	if err := s.observe(); err != nil {
		return nil, err
	}
	if tenant != s.tenant {
		return nil, nil
	}
	var out []PersonID
	for _, u := range s.unions {
		if !unionHas(u, person) {
			continue
		}
		for _, m := range u.Members {
			if m != person {
				out = insertSorted(out, m)
			}
		}
	}
	return out, nil
}

func (s *stubStore) GetPersonUnions(ctx context.Context, tenant TenantID, person PersonID) ([]Union, error) {
	if err := s.observe(); err != nil {
		return nil, err
	}
	if tenant != s.tenant {
		return nil, nil
	}
	var out []Union
	for _, u := range s.unions {
		if unionHas(u, person) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *stubStore) PersonExists(ctx context.Context, tenant TenantID, person PersonID) (bool, error) {
	if err := s.observe(); err != nil {
		return false, err
	}
	if tenant != s.tenant {
		return false, nil
	}
	_, ok := s.persons[person]
	return ok, nil
}

func (s *stubStore) GetPersonSummary(ctx context.Context, tenant TenantID, person PersonID) (*PersonSummary, error) {
	if err := s.observe(); err != nil {
		return nil, err
	}
	if tenant != s.tenant {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, person)
	}
	p, ok := s.persons[person]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, person)
	}
	cp := *p
	return &cp, nil
}

func unionHas(u Union, person PersonID) bool {
	for _, m := range u.Members {
		if m == person {
			return true
		}
	}
	return false
}

var errStoreDown = errors.New("store down")

// pathIDs flattens a path's node sequence for assertions.
func pathIDs(p *RelationshipPath) []PersonID {
	out := make([]PersonID, len(p.Nodes))
	for i, n := range p.Nodes {
		out[i] = n.PersonID
	}
	return out
}

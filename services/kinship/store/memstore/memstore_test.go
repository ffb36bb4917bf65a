// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package memstore

import (
	"context"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/KinGraph/services/kinship/graph"
)

const tenant = graph.TenantID("org-1")

func seed(t *testing.T, s *Store, ids ...graph.PersonID) {
	t.Helper()
	for _, id := range ids {
		err := s.CreatePerson(context.Background(), graph.Person{ID: id, TenantID: tenant, Name: string(id)})
		require.NoError(t, err)
	}
}

func TestPersonCRUD(t *testing.T) {
	ctx := context.Background()
	s := New()

	t.Run("create and read back", func(t *testing.T) {
		err := s.CreatePerson(ctx, graph.Person{ID: "p1", TenantID: tenant, Name: "Ada", Sex: graph.SexFemale})
		require.NoError(t, err)

		ok, err := s.PersonExists(ctx, tenant, "p1")
		require.NoError(t, err)
		require.True(t, ok)

		sum, err := s.GetPersonSummary(ctx, tenant, "p1")
		require.NoError(t, err)
		require.Equal(t, "Ada", sum.DisplayName)
		require.Equal(t, "female", sum.SexLabel)
	})

	t.Run("duplicate id is rejected", func(t *testing.T) {
		err := s.CreatePerson(ctx, graph.Person{ID: "p1", TenantID: tenant})
		require.ErrorIs(t, err, graph.ErrDuplicatePerson)
	})

	t.Run("update replaces demographics", func(t *testing.T) {
		err := s.UpdatePerson(ctx, graph.Person{ID: "p1", TenantID: tenant, Name: "Ada L"})
		require.NoError(t, err)
		sum, err := s.GetPersonSummary(ctx, tenant, "p1")
		require.NoError(t, err)
		require.Equal(t, "Ada L", sum.DisplayName)
	})

	t.Run("update of unknown person fails", func(t *testing.T) {
		err := s.UpdatePerson(ctx, graph.Person{ID: "ghost", TenantID: tenant})
		require.ErrorIs(t, err, graph.ErrNotFound)
	})

	t.Run("tenant isolation", func(t *testing.T) {
		ok, err := s.PersonExists(ctx, graph.TenantID("org-2"), "p1")
		require.NoError(t, err)
		require.False(t, ok)

		_, err = s.GetPersonSummary(ctx, graph.TenantID("org-2"), "p1")
		require.ErrorIs(t, err, graph.ErrNotFound)
	})
}

func TestParentChildEdges(t *testing.T) {
	ctx := context.Background()
	s := New()
	seed(t, s, "kid", "mom", "dad")

	require.NoError(t, s.AddParentChildEdge(ctx, tenant, "mom", "kid"))
	require.NoError(t, s.AddParentChildEdge(ctx, tenant, "dad", "kid"))

	t.Run("adjacency is sorted", func(t *testing.T) {
		parents, err := s.GetParents(ctx, tenant, "kid")
		require.NoError(t, err)
		require.Equal(t, []graph.PersonID{"dad", "mom"}, parents)

		children, err := s.GetChildren(ctx, tenant, "mom")
		require.NoError(t, err)
		require.Equal(t, []graph.PersonID{"kid"}, children)
	})

	t.Run("insert is idempotent", func(t *testing.T) {
		require.NoError(t, s.AddParentChildEdge(ctx, tenant, "mom", "kid"))
		parents, _ := s.GetParents(ctx, tenant, "kid")
		require.Len(t, parents, 2)
	})

	t.Run("self loop is rejected", func(t *testing.T) {
		err := s.AddParentChildEdge(ctx, tenant, "kid", "kid")
		require.ErrorIs(t, err, graph.ErrSelfLoop)
	})

	t.Run("unknown endpoint is rejected", func(t *testing.T) {
		err := s.AddParentChildEdge(ctx, tenant, "mom", "ghost")
		require.ErrorIs(t, err, graph.ErrNotFound)
	})

	t.Run("remove unlinks both directions", func(t *testing.T) {
		require.NoError(t, s.RemoveParentChildEdge(ctx, tenant, "dad", "kid"))
		parents, _ := s.GetParents(ctx, tenant, "kid")
		require.Equal(t, []graph.PersonID{"mom"}, parents)
		children, _ := s.GetChildren(ctx, tenant, "dad")
		require.Empty(t, children)
	})
}

func TestUnions(t *testing.T) {
	ctx := context.Background()
	s := New()
	seed(t, s, "a", "b", "c")

	t.Run("too few members", func(t *testing.T) {
		err := s.CreateUnion(ctx, graph.Union{ID: "u0", TenantID: tenant, Members: []graph.PersonID{"a"}})
		require.ErrorIs(t, err, graph.ErrUnionTooSmall)
	})

	require.NoError(t, s.CreateUnion(ctx, graph.Union{
		ID: "u1", TenantID: tenant, Type: graph.UnionMarriage,
		Members: []graph.PersonID{"b", "a"},
	}))

	t.Run("partners derive from membership", func(t *testing.T) {
		partners, err := s.GetUnionPartners(ctx, tenant, "a")
		require.NoError(t, err)
		require.Equal(t, []graph.PersonID{"b"}, partners)
	})

	t.Run("members stored sorted", func(t *testing.T) {
		unions, err := s.GetPersonUnions(ctx, tenant, "a")
		require.NoError(t, err)
		require.Len(t, unions, 1)
		require.Equal(t, []graph.PersonID{"a", "b"}, unions[0].Members)
	})

	t.Run("membership changes", func(t *testing.T) {
		require.NoError(t, s.AddUnionMember(ctx, tenant, "u1", "c"))
		partners, _ := s.GetUnionPartners(ctx, tenant, "a")
		require.Equal(t, []graph.PersonID{"b", "c"}, partners)

		require.NoError(t, s.RemoveUnionMember(ctx, tenant, "u1", "b"))
		partners, _ = s.GetUnionPartners(ctx, tenant, "a")
		require.Equal(t, []graph.PersonID{"c"}, partners)

		unions, _ := s.GetPersonUnions(ctx, tenant, "b")
		require.Empty(t, unions)
	})

	t.Run("unknown union", func(t *testing.T) {
		err := s.AddUnionMember(ctx, tenant, "ghost", "a")
		require.ErrorIs(t, err, graph.ErrNotFound)
	})
}

func TestDeletePerson(t *testing.T) {
	ctx := context.Background()
	s := New()
	seed(t, s, "kid", "mom", "spouse")
	require.NoError(t, s.AddParentChildEdge(ctx, tenant, "mom", "kid"))
	require.NoError(t, s.CreateUnion(ctx, graph.Union{
		ID: "u1", TenantID: tenant, Members: []graph.PersonID{"kid", "spouse"},
	}))

	require.NoError(t, s.DeletePerson(ctx, tenant, "kid"))

	ok, _ := s.PersonExists(ctx, tenant, "kid")
	require.False(t, ok)

	children, _ := s.GetChildren(ctx, tenant, "mom")
	require.Empty(t, children, "dangling child edge after delete")

	partners, _ := s.GetUnionPartners(ctx, tenant, "spouse")
	require.Empty(t, partners, "dangling union membership after delete")

	require.ErrorIs(t, s.DeletePerson(ctx, tenant, "kid"), graph.ErrNotFound)
}

func TestBatchAdjacency(t *testing.T) {
	ctx := context.Background()
	s := New()
	seed(t, s, "kid", "mom", "dad", "other")
	require.NoError(t, s.AddParentChildEdge(ctx, tenant, "mom", "kid"))
	require.NoError(t, s.AddParentChildEdge(ctx, tenant, "dad", "kid"))

	got, err := s.GetParentsBatch(ctx, tenant, []graph.PersonID{"kid", "other", "ghost"})
	require.NoError(t, err)

	want := map[graph.PersonID][]graph.PersonID{
		"kid":   {"dad", "mom"},
		"other": nil,
		"ghost": nil,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("batch = %v, want %v", got, want)
	}
}

func TestStoreSatisfiesTraversal(t *testing.T) {
	// End-to-end sanity: the traversal core over this store.
	ctx := context.Background()
	s := New()
	seed(t, s, "me", "dad", "grandpa", "uncle")
	require.NoError(t, s.AddParentChildEdge(ctx, tenant, "grandpa", "dad"))
	require.NoError(t, s.AddParentChildEdge(ctx, tenant, "grandpa", "uncle"))
	require.NoError(t, s.AddParentChildEdge(ctx, tenant, "dad", "me"))

	path, err := graph.NewPathFinder(s).FindPath(ctx, tenant, "me", "uncle", 0)
	require.NoError(t, err)
	require.True(t, path.PathFound)
	require.Equal(t, 3, path.Length)
}

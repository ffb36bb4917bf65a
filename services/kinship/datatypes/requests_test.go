// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// Tests for kinship request datatypes

package datatypes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/KinGraph/services/kinship/graph"
)

func TestFindPathRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     FindPathRequest
		wantErr bool
	}{
		{"valid", FindPathRequest{Person1ID: "a", Person2ID: "b"}, false},
		{"valid with depth", FindPathRequest{Person1ID: "a", Person2ID: "b", MaxDepth: 20}, false},
		{"missing person1", FindPathRequest{Person2ID: "b"}, true},
		{"missing person2", FindPathRequest{Person1ID: "a"}, true},
		{"depth beyond cap", FindPathRequest{Person1ID: "a", Person2ID: "b", MaxDepth: 21}, true},
		{"negative depth", FindPathRequest{Person1ID: "a", Person2ID: "b", MaxDepth: -1}, true},
		{"bad request id", FindPathRequest{RequestID: "nope", Person1ID: "a", Person2ID: "b"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFindPathRequest_EnsureDefaults(t *testing.T) {
	req := FindPathRequest{Person1ID: "a", Person2ID: "b"}
	req.EnsureDefaults()
	assert.NotEmpty(t, req.RequestID)
	assert.Positive(t, req.Timestamp)
	require.NoError(t, req.Validate())
}

func TestTreeViewRequest_ModeAndBounds(t *testing.T) {
	// Default view is pedigree; the flat generations shorthand feeds
	// the direction the mode expands.
	req := TreeViewRequest{Generations: 3}
	require.NoError(t, req.Validate())
	assert.Equal(t, graph.ViewPedigree, req.Mode())
	a, d := req.Bounds()
	assert.Equal(t, 3, a)
	assert.Equal(t, 0, d)

	req = TreeViewRequest{View: "descendants", Generations: 2}
	a, d = req.Bounds()
	assert.Equal(t, 0, a)
	assert.Equal(t, 2, d)

	req = TreeViewRequest{View: "hourglass", Generations: 2, DescendantGenerations: 4}
	a, d = req.Bounds()
	assert.Equal(t, 2, a)
	assert.Equal(t, 4, d)

	req = TreeViewRequest{View: "sideways"}
	assert.Error(t, req.Validate())

	req = TreeViewRequest{Generations: 11}
	assert.Error(t, req.Validate())
}

func TestCreatePersonRequest_ToPerson(t *testing.T) {
	req := CreatePersonRequest{
		Name:      "Alice",
		Sex:       "female",
		BirthDate: "1950-04-02",
		IsLiving:  true,
	}
	require.NoError(t, req.Validate())
	req.EnsureDefaults()
	require.NotEmpty(t, req.ID)

	p := req.ToPerson("org-1")
	assert.Equal(t, graph.TenantID("org-1"), p.TenantID)
	assert.Equal(t, graph.SexFemale, p.Sex)
	assert.Equal(t, "1950-04-02", p.BirthDate.Date)
	assert.Equal(t, graph.PrecisionExact, p.BirthDate.Precision)
	assert.Equal(t, graph.DateValue{}, p.DeathDate)
}

func TestCreateUnionRequest_Validate(t *testing.T) {
	req := CreateUnionRequest{MemberIDs: []string{"a"}}
	assert.Error(t, req.Validate(), "unions need at least two members")

	req = CreateUnionRequest{MemberIDs: []string{"a", "b"}}
	require.NoError(t, req.Validate())
	req.EnsureDefaults()

	u := req.ToUnion("org-1")
	assert.Equal(t, graph.UnionMarriage, u.Type)
	assert.Len(t, u.Members, 2)
}

func TestParseEnums(t *testing.T) {
	assert.Equal(t, graph.SexMale, ParseSex("male"))
	assert.Equal(t, graph.SexFemale, ParseSex("female"))
	assert.Equal(t, graph.SexUnknown, ParseSex(""))
	assert.Equal(t, graph.SexUnknown, ParseSex("other"))

	assert.Equal(t, graph.UnionMarriage, ParseUnionType(""))
	assert.Equal(t, graph.UnionCivil, ParseUnionType("civil"))
	assert.Equal(t, graph.UnionOther, ParseUnionType("handfasting"))
}

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
	"testing"
)

// makePath builds a synthetic found path: ids are the node sequence,
// edges the step kinds between consecutive nodes.
func makePath(ids []PersonID, edges []EdgeKind) *RelationshipPath {
	if len(edges) != len(ids)-1 {
		panic("makePath: ids/edges mismatch")
	}
	p := &RelationshipPath{PathFound: true, Length: len(edges)}
	for i, id := range ids {
		n := PathNode{PersonID: id}
		if i < len(edges) {
			n.EdgeToNext = edges[i]
			n.EdgeLabel = edges[i].String()
			if edges[i] == EdgeSpouse {
				p.SpouseLinks++
			}
		}
		p.Nodes = append(p.Nodes, n)
	}
	return p
}

// syntheticIDs yields n placeholder node ids ending in a person whose
// sex the store knows, so sex-specific labels resolve.
func syntheticIDs(n int, end PersonID) []PersonID {
	ids := make([]PersonID, n)
	for i := range ids {
		ids[i] = PersonID(fmt.Sprintf("n%d", i))
	}
	ids[n-1] = end
	return ids
}

func TestClassify_Lineal(t *testing.T) {
	s := newStubStore(testTenant)
	s.addPerson("him", SexMale)
	s.addPerson("her", SexFemale)
	c := NewClassifier(s)

	cases := []struct {
		name      string
		edges     []EdgeKind
		end       PersonID
		wantKind  RelationKind
		wantLabel string
		wantUp    int
		wantDown  int
	}{
		{"parent", []EdgeKind{EdgeParent}, "him", KindParent, "Parent", 1, 0},
		{"grandparent", []EdgeKind{EdgeParent, EdgeParent}, "her", KindGrandparent, "Grandparent", 2, 0},
		{"great-grandparent", []EdgeKind{EdgeParent, EdgeParent, EdgeParent}, "him", KindGrandparent, "Great-Grandparent", 3, 0},
		{"child", []EdgeKind{EdgeChild}, "her", KindChild, "Child", 0, 1},
		{"grandchild", []EdgeKind{EdgeChild, EdgeChild}, "him", KindGrandchild, "Grandchild", 0, 2},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := makePath(syntheticIDs(len(tc.edges)+1, tc.end), tc.edges)
			cls, err := c.Classify(context.Background(), testTenant, path)
			if err != nil {
				t.Fatalf("Classify: %v", err)
			}
			if cls.Kind != tc.wantKind || cls.Label != tc.wantLabel {
				t.Errorf("got %s %q, want %s %q", cls.Kind, cls.Label, tc.wantKind, tc.wantLabel)
			}
			if cls.GenerationsUp != tc.wantUp || cls.GenerationsDown != tc.wantDown {
				t.Errorf("generations = %d up %d down, want %d/%d",
					cls.GenerationsUp, cls.GenerationsDown, tc.wantUp, tc.wantDown)
			}
		})
	}
}

func TestClassify_Self(t *testing.T) {
	c := NewClassifier(newStubStore(testTenant))
	path := makePath([]PersonID{"me"}, nil)

	cls, err := c.Classify(context.Background(), testTenant, path)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if cls.Kind != KindSelf || cls.Label != "Self" {
		t.Errorf("got %s %q, want self", cls.Kind, cls.Label)
	}
}

func TestClassify_Siblings(t *testing.T) {
	t.Run("full sibling shares both parents", func(t *testing.T) {
		s := newStubStore(testTenant)
		s.link("mom", "a")
		s.link("pop", "a")
		s.link("mom", "bro")
		s.link("pop", "bro")
		s.persons["bro"].Sex = SexMale
		c := NewClassifier(s)

		path := makePath([]PersonID{"a", "mom", "bro"}, []EdgeKind{EdgeParent, EdgeChild})
		cls, err := c.Classify(context.Background(), testTenant, path)
		if err != nil {
			t.Fatalf("Classify: %v", err)
		}
		if cls.Kind != KindSibling || cls.Label != "Brother" {
			t.Errorf("got %s %q, want sibling Brother", cls.Kind, cls.Label)
		}
		if cls.CommonAncestorID != "mom" {
			t.Errorf("CommonAncestorID = %s, want mom", cls.CommonAncestorID)
		}
	})

	t.Run("half sibling shares one parent", func(t *testing.T) {
		s := newStubStore(testTenant)
		s.link("mom", "a")
		s.link("pop", "a")
		s.link("mom", "sis")
		s.link("otherpop", "sis")
		s.persons["sis"].Sex = SexFemale
		c := NewClassifier(s)

		path := makePath([]PersonID{"a", "mom", "sis"}, []EdgeKind{EdgeParent, EdgeChild})
		cls, err := c.Classify(context.Background(), testTenant, path)
		if err != nil {
			t.Fatalf("Classify: %v", err)
		}
		if cls.Kind != KindHalfSibling || cls.Label != "Half-sister" {
			t.Errorf("got %s %q, want half-sibling Half-sister", cls.Kind, cls.Label)
		}
	})
}

func TestClassify_Collateral(t *testing.T) {
	s := newStubStore(testTenant)
	s.addPerson("him", SexMale)
	s.addPerson("her", SexFemale)
	c := NewClassifier(s)

	p, ch := EdgeParent, EdgeChild
	cases := []struct {
		name      string
		edges     []EdgeKind
		end       PersonID
		wantKind  RelationKind
		wantLabel string
	}{
		{"uncle", []EdgeKind{p, p, ch}, "him", KindUncleAunt, "Uncle"},
		{"aunt", []EdgeKind{p, p, ch}, "her", KindUncleAunt, "Aunt"},
		{"great-uncle", []EdgeKind{p, p, p, ch}, "him", KindUncleAunt, "Great-Uncle"},
		{"nephew", []EdgeKind{p, ch, ch}, "him", KindNieceNephew, "Nephew"},
		{"niece", []EdgeKind{p, ch, ch}, "her", KindNieceNephew, "Niece"},
		{"first cousin", []EdgeKind{p, p, ch, ch}, "him", KindCousin, "first cousin"},
		{"first cousin once removed", []EdgeKind{p, p, p, ch, ch}, "her", KindCousin, "first cousin once removed"},
		{"second cousin", []EdgeKind{p, p, p, ch, ch, ch}, "him", KindCousin, "second cousin"},
		{"first cousin twice removed", []EdgeKind{p, p, p, p, ch, ch}, "him", KindCousin, "first cousin twice removed"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := makePath(syntheticIDs(len(tc.edges)+1, tc.end), tc.edges)
			cls, err := c.Classify(context.Background(), testTenant, path)
			if err != nil {
				t.Fatalf("Classify: %v", err)
			}
			if cls.Kind != tc.wantKind || cls.Label != tc.wantLabel {
				t.Errorf("got %s %q, want %s %q", cls.Kind, cls.Label, tc.wantKind, tc.wantLabel)
			}
		})
	}
}

func TestClassify_UncleCommonAncestor(t *testing.T) {
	c := NewClassifier(newStubStore(testTenant))

	path := makePath([]PersonID{"me", "dad", "grandpa", "uncle"},
		[]EdgeKind{EdgeParent, EdgeParent, EdgeChild})
	cls, err := c.Classify(context.Background(), testTenant, path)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if cls.CommonAncestorID != "grandpa" {
		t.Errorf("CommonAncestorID = %s, want grandpa", cls.CommonAncestorID)
	}
	if cls.GenerationsUp != 2 || cls.GenerationsDown != 1 {
		t.Errorf("generations = %d/%d, want 2/1", cls.GenerationsUp, cls.GenerationsDown)
	}
}

func TestClassify_SpouseAndAffinal(t *testing.T) {
	s := newStubStore(testTenant)
	s.addPerson("him", SexMale)
	s.addPerson("her", SexFemale)
	c := NewClassifier(s)

	p, ch, sp := EdgeParent, EdgeChild, EdgeSpouse
	cases := []struct {
		name      string
		edges     []EdgeKind
		end       PersonID
		wantKind  RelationKind
		wantLabel string
	}{
		{"husband", []EdgeKind{sp}, "him", KindSpouse, "Husband"},
		{"wife", []EdgeKind{sp}, "her", KindSpouse, "Wife"},
		{"father-in-law", []EdgeKind{sp, p}, "him", KindParentInLaw, "Father-in-law"},
		{"spouse's stepchild", []EdgeKind{sp, ch}, "her", KindStepChild, "Stepdaughter"},
		{"grandparent of spouse", []EdgeKind{sp, p, p}, "her", KindInLaw, "Grandparent of spouse"},
		{"stepfather", []EdgeKind{p, sp}, "him", KindStepParent, "Stepfather"},
		{"son-in-law", []EdgeKind{ch, sp}, "him", KindChildInLaw, "Son-in-law"},
		{"grandparent's spouse", []EdgeKind{p, p, sp}, "him", KindStep, "Spouse of grandparent"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := makePath(syntheticIDs(len(tc.edges)+1, tc.end), tc.edges)
			cls, err := c.Classify(context.Background(), testTenant, path)
			if err != nil {
				t.Fatalf("Classify: %v", err)
			}
			if cls.Kind != tc.wantKind || cls.Label != tc.wantLabel {
				t.Errorf("got %s %q, want %s %q", cls.Kind, cls.Label, tc.wantKind, tc.wantLabel)
			}
			if cls.SpouseLinks != 1 {
				t.Errorf("SpouseLinks = %d, want 1", cls.SpouseLinks)
			}
		})
	}
}

func TestClassify_SiblingInLaw(t *testing.T) {
	s := newStubStore(testTenant)
	s.link("mom", "spouse")
	s.link("pop", "spouse")
	s.link("mom", "bil")
	s.link("pop", "bil")
	s.persons["bil"].Sex = SexMale
	c := NewClassifier(s)

	t.Run("spouse's sibling", func(t *testing.T) {
		path := makePath([]PersonID{"me", "spouse", "mom", "bil"},
			[]EdgeKind{EdgeSpouse, EdgeParent, EdgeChild})
		cls, err := c.Classify(context.Background(), testTenant, path)
		if err != nil {
			t.Fatalf("Classify: %v", err)
		}
		if cls.Kind != KindSiblingInLaw || cls.Label != "Brother-in-law" {
			t.Errorf("got %s %q, want Brother-in-law", cls.Kind, cls.Label)
		}
	})

	t.Run("sibling's spouse", func(t *testing.T) {
		s.addPerson("wife", SexFemale)
		path := makePath([]PersonID{"spouse", "mom", "bil", "wife"},
			[]EdgeKind{EdgeParent, EdgeChild, EdgeSpouse})
		cls, err := c.Classify(context.Background(), testTenant, path)
		if err != nil {
			t.Fatalf("Classify: %v", err)
		}
		if cls.Kind != KindSiblingInLaw || cls.Label != "Sister-in-law" {
			t.Errorf("got %s %q, want Sister-in-law", cls.Kind, cls.Label)
		}
	})
}

func TestClassify_GenericFallback(t *testing.T) {
	c := NewClassifier(newStubStore(testTenant))

	t.Run("down then up is irregular", func(t *testing.T) {
		path := makePath(syntheticIDs(3, "n2"), []EdgeKind{EdgeChild, EdgeParent})
		cls, err := c.Classify(context.Background(), testTenant, path)
		if err != nil {
			t.Fatalf("Classify: %v", err)
		}
		if cls.Kind != KindGeneric {
			t.Fatalf("Kind = %s, want generic", cls.Kind)
		}
		want := "Related: 1 generation up, 1 generation down"
		if cls.Label != want {
			t.Errorf("Label = %q, want %q", cls.Label, want)
		}
	})

	t.Run("interior spouse edge is irregular", func(t *testing.T) {
		path := makePath(syntheticIDs(4, "n3"), []EdgeKind{EdgeParent, EdgeSpouse, EdgeChild})
		cls, err := c.Classify(context.Background(), testTenant, path)
		if err != nil {
			t.Fatalf("Classify: %v", err)
		}
		if cls.Kind != KindGeneric {
			t.Fatalf("Kind = %s, want generic", cls.Kind)
		}
		want := "Related: 1 generation up, 1 generation down, 1 spouse link"
		if cls.Label != want {
			t.Errorf("Label = %q, want %q", cls.Label, want)
		}
		if cls.SpouseLinks != 1 {
			t.Errorf("SpouseLinks = %d, want 1", cls.SpouseLinks)
		}
	})

	t.Run("unfound path is rejected", func(t *testing.T) {
		if _, err := c.Classify(context.Background(), testTenant, &RelationshipPath{}); err == nil {
			t.Error("expected an error for an unfound path")
		}
	})
}

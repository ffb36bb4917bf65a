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
	"strings"
)

// RelationKind is the canonical category of a classified relationship.
type RelationKind string

// Canonical relationship categories. Labels refine these with generation
// counts, cousin degrees and sex where known; Kind stays stable for
// programmatic use.
const (
	KindSelf         RelationKind = "self"
	KindSpouse       RelationKind = "spouse"
	KindParent       RelationKind = "parent"
	KindChild        RelationKind = "child"
	KindGrandparent  RelationKind = "grandparent"
	KindGrandchild   RelationKind = "grandchild"
	KindSibling      RelationKind = "sibling"
	KindHalfSibling  RelationKind = "half-sibling"
	KindUncleAunt    RelationKind = "uncle-aunt"
	KindNieceNephew  RelationKind = "niece-nephew"
	KindCousin       RelationKind = "cousin"
	KindParentInLaw  RelationKind = "parent-in-law"
	KindChildInLaw   RelationKind = "child-in-law"
	KindSiblingInLaw RelationKind = "sibling-in-law"
	KindStepParent   RelationKind = "step-parent"
	KindStepChild    RelationKind = "step-child"
	KindInLaw        RelationKind = "in-law"
	KindStep         RelationKind = "step"
	KindGeneric      RelationKind = "generic"
)

// Classification is the result of interpreting a relationship path.
//
// The relationship reads in path direction: for a path from A to B,
// Kind/Label describe what B is to A ([Parent] means B is A's parent).
type Classification struct {
	Kind  RelationKind `json:"relationshipType"`
	Label string       `json:"relationshipLabel"`

	// CommonAncestorID is the turning-point node for blood relationships:
	// the person after the last parent edge before the first child edge.
	// Empty for spouse-only and generic paths.
	CommonAncestorID PersonID `json:"commonAncestorId,omitempty"`

	// GenerationsUp and GenerationsDown are the generation distances of
	// each endpoint from the common ancestor (up: from the path start,
	// down: to the path end).
	GenerationsUp   int `json:"generationsUp"`
	GenerationsDown int `json:"generationsDown"`

	// SpouseLinks is the number of spouse edges on the path.
	SpouseLinks int `json:"spouseLinks"`
}

// Classifier converts relationship paths into named relationships.
//
// Classification is a deterministic function of the path's edge-kind
// sequence, except where the rule table consults the store: sibling
// paths distinguish full from half siblings by counting shared parents,
// and labels resolve sex via person summaries where a natural pair
// exists (Uncle/Aunt, Brother/Sister).
//
// Thread Safety: safe for concurrent use.
type Classifier struct {
	store GraphStore
}

// NewClassifier creates a Classifier over the given store.
func NewClassifier(store GraphStore) *Classifier {
	return &Classifier{store: store}
}

// Classify interprets a found relationship path.
//
// Inputs:
//
//	ctx - Used for the store lookups some rules need.
//	tenant - Tenant owning the persons on the path.
//	path - A PathFound relationship path.
//
// Outputs:
//
//	*Classification - Never nil for a found path; unrecognized shapes
//	fall back to a generic generational description, never an empty
//	label.
//	error - ErrUnavailable on store faults during rule evaluation.
func (c *Classifier) Classify(ctx context.Context, tenant TenantID, path *RelationshipPath) (*Classification, error) {
	if path == nil || !path.PathFound {
		return nil, fmt.Errorf("classify requires a found path")
	}

	edges := path.Edges()
	if len(edges) == 0 {
		return &Classification{Kind: KindSelf, Label: "Self"}, nil
	}

	shape := parseShape(edges)
	if !shape.regular {
		return genericClassification(edges), nil
	}

	end := path.Nodes[len(path.Nodes)-1].PersonID

	if shape.up == 0 && shape.down == 0 && !(shape.leadSpouse && shape.trailSpouse) {
		// Single spouse edge: paths never carry consecutive spouse edges,
		// so no blood core means the endpoints are partners.
		return &Classification{
			Kind:        KindSpouse,
			Label:       c.sexLabel(ctx, tenant, end, "Husband", "Wife", "Spouse"),
			SpouseLinks: 1,
		}, nil
	}

	switch {
	case shape.leadSpouse && shape.trailSpouse:
		// Spouse on both ends of a blood core ("co-in-law") has no
		// single conventional name.
		return genericClassification(edges), nil

	case shape.leadSpouse:
		return c.classifyInLaw(ctx, tenant, path, shape, end)

	case shape.trailSpouse:
		return c.classifyStepOrSpouseOf(ctx, tenant, path, shape, end)

	default:
		return c.classifyBlood(ctx, tenant, path, shape, end)
	}
}

// pathShape is the decomposition of an edge sequence into an optional
// leading spouse edge, a run of parent edges, a run of child edges, and
// an optional trailing spouse edge.
type pathShape struct {
	leadSpouse  bool
	trailSpouse bool
	up          int // parent edges
	down        int // child edges
	regular     bool
}

// parseShape decomposes an edge sequence. Sequences with interior spouse
// edges or with parent edges after child edges are irregular and fall
// back to the generic description.
func parseShape(edges []EdgeKind) pathShape {
	var s pathShape
	i, j := 0, len(edges)

	if edges[0] == EdgeSpouse {
		s.leadSpouse = true
		i++
	}
	if j > i && edges[j-1] == EdgeSpouse {
		s.trailSpouse = true
		j--
	}

	k := i
	for k < j && edges[k] == EdgeParent {
		k++
	}
	s.up = k - i
	for k < j && edges[k] == EdgeChild {
		k++
	}
	s.down = j - i - s.up

	s.regular = k == j
	return s
}

// classifyBlood handles pure parent/child edge sequences.
func (c *Classifier) classifyBlood(ctx context.Context, tenant TenantID,
	path *RelationshipPath, shape pathShape, end PersonID) (*Classification, error) {

	up, down := shape.up, shape.down
	cls := &Classification{
		GenerationsUp:   up,
		GenerationsDown: down,
	}
	// Turning point: the node reached after the last parent edge.
	cls.CommonAncestorID = path.Nodes[up].PersonID

	switch {
	case down == 0: // straight up
		cls.Kind, cls.Label = linealKind(up, KindParent, KindGrandparent, "Parent", "Grandparent")
		// The common ancestor of a lineal pair is the elder endpoint.
		cls.CommonAncestorID = end

	case up == 0: // straight down
		cls.Kind, cls.Label = linealKind(down, KindChild, KindGrandchild, "Child", "Grandchild")
		cls.CommonAncestorID = path.Nodes[0].PersonID

	case up == 1 && down == 1:
		full, err := c.sharedParents(ctx, tenant, path.Nodes[0].PersonID, end)
		if err != nil {
			return nil, err
		}
		if full {
			cls.Kind = KindSibling
			cls.Label = c.sexLabel(ctx, tenant, end, "Brother", "Sister", "Sibling")
		} else {
			cls.Kind = KindHalfSibling
			cls.Label = c.sexLabel(ctx, tenant, end, "Half-brother", "Half-sister", "Half-sibling")
		}

	case down == 1: // up >= 2: uncle/aunt line
		cls.Kind = KindUncleAunt
		base := c.sexLabel(ctx, tenant, end, "Uncle", "Aunt", "Uncle/Aunt")
		cls.Label = greatPrefix(up-2) + base

	case up == 1: // down >= 2: niece/nephew line
		cls.Kind = KindNieceNephew
		base := c.sexLabel(ctx, tenant, end, "Nephew", "Niece", "Niece/Nephew")
		cls.Label = greatPrefix(down-2) + base

	default: // up >= 2 && down >= 2: cousins
		cls.Kind = KindCousin
		cls.Label = cousinLabel(up, down)
	}

	return cls, nil
}

// classifyInLaw handles a leading spouse edge before a blood core:
// relatives of the path starter's spouse.
func (c *Classifier) classifyInLaw(ctx context.Context, tenant TenantID,
	path *RelationshipPath, shape pathShape, end PersonID) (*Classification, error) {

	// Classify the blood remainder as seen from the spouse.
	rest := &RelationshipPath{
		PathFound: true,
		Nodes:     path.Nodes[1:],
		Length:    path.Length - 1,
	}
	blood, err := c.classifyBlood(ctx, tenant, rest, pathShape{up: shape.up, down: shape.down}, end)
	if err != nil {
		return nil, err
	}

	cls := &Classification{
		CommonAncestorID: blood.CommonAncestorID,
		GenerationsUp:    blood.GenerationsUp,
		GenerationsDown:  blood.GenerationsDown,
		SpouseLinks:      1,
	}

	switch blood.Kind {
	case KindParent:
		cls.Kind = KindParentInLaw
		cls.Label = c.sexLabel(ctx, tenant, end, "Father-in-law", "Mother-in-law", "Parent-in-law")
	case KindSibling, KindHalfSibling:
		cls.Kind = KindSiblingInLaw
		cls.Label = c.sexLabel(ctx, tenant, end, "Brother-in-law", "Sister-in-law", "Sibling-in-law")
	case KindChild:
		// Spouse's child from another union.
		cls.Kind = KindStepChild
		cls.Label = c.sexLabel(ctx, tenant, end, "Stepson", "Stepdaughter", "Stepchild")
	default:
		cls.Kind = KindInLaw
		cls.Label = blood.Label + " of spouse"
	}
	return cls, nil
}

// classifyStepOrSpouseOf handles a trailing spouse edge after a blood
// core: spouses of the path starter's blood relatives.
func (c *Classifier) classifyStepOrSpouseOf(ctx context.Context, tenant TenantID,
	path *RelationshipPath, shape pathShape, end PersonID) (*Classification, error) {

	rest := &RelationshipPath{
		PathFound: true,
		Nodes:     path.Nodes[:len(path.Nodes)-1],
		Length:    path.Length - 1,
	}
	// End of the blood core, not of the whole path.
	bloodEnd := rest.Nodes[len(rest.Nodes)-1].PersonID
	blood, err := c.classifyBlood(ctx, tenant, rest, pathShape{up: shape.up, down: shape.down}, bloodEnd)
	if err != nil {
		return nil, err
	}

	cls := &Classification{
		CommonAncestorID: blood.CommonAncestorID,
		GenerationsUp:    blood.GenerationsUp,
		GenerationsDown:  blood.GenerationsDown,
		SpouseLinks:      1,
	}

	switch blood.Kind {
	case KindParent:
		cls.Kind = KindStepParent
		cls.Label = c.sexLabel(ctx, tenant, end, "Stepfather", "Stepmother", "Step-parent")
	case KindChild:
		cls.Kind = KindChildInLaw
		cls.Label = c.sexLabel(ctx, tenant, end, "Son-in-law", "Daughter-in-law", "Child-in-law")
	case KindSibling, KindHalfSibling:
		cls.Kind = KindSiblingInLaw
		cls.Label = c.sexLabel(ctx, tenant, end, "Brother-in-law", "Sister-in-law", "Sibling-in-law")
	default:
		cls.Kind = KindStep
		cls.Label = "Spouse of " + strings.ToLower(blood.Label)
	}
	return cls, nil
}

// lineal relationships share a label scheme in both directions.
func linealKind(n int, one, many RelationKind, oneLabel, manyLabel string) (RelationKind, string) {
	switch n {
	case 1:
		return one, oneLabel
	case 2:
		return many, manyLabel
	default:
		return many, greatPrefix(n-2) + manyLabel
	}
}

// greatPrefix builds the "great-" repetition for deep lineal and
// collateral relationships: 0 -> "", 1 -> "Great-", 3 -> "3rd great-".
func greatPrefix(n int) string {
	switch {
	case n <= 0:
		return ""
	case n == 1:
		return "Great-"
	default:
		return fmt.Sprintf("%s great-", ordinal(n))
	}
}

// cousinLabel derives the cousin degree and removal from the generation
// offsets rather than a per-degree table.
func cousinLabel(up, down int) string {
	degree := up
	if down < up {
		degree = down
	}
	degree--
	removed := up - down
	if removed < 0 {
		removed = -removed
	}

	label := fmt.Sprintf("%s cousin", ordinalWord(degree))
	switch removed {
	case 0:
	case 1:
		label += " once removed"
	case 2:
		label += " twice removed"
	default:
		label += fmt.Sprintf(" %d times removed", removed)
	}
	return label
}

// genericClassification covers every path shape outside the rule table.
func genericClassification(edges []EdgeKind) *Classification {
	var up, down, spouses int
	for _, e := range edges {
		switch e {
		case EdgeParent:
			up++
		case EdgeChild:
			down++
		case EdgeSpouse:
			spouses++
		}
	}

	parts := make([]string, 0, 3)
	if up > 0 {
		parts = append(parts, fmt.Sprintf("%d %s up", up, plural(up, "generation")))
	}
	if down > 0 {
		parts = append(parts, fmt.Sprintf("%d %s down", down, plural(down, "generation")))
	}
	if spouses > 0 {
		parts = append(parts, fmt.Sprintf("%d %s", spouses, plural(spouses, "spouse link")))
	}

	return &Classification{
		Kind:            KindGeneric,
		Label:           "Related: " + strings.Join(parts, ", "),
		GenerationsUp:   up,
		GenerationsDown: down,
		SpouseLinks:     spouses,
	}
}

// sharedParents reports whether two persons share at least two parents.
func (c *Classifier) sharedParents(ctx context.Context, tenant TenantID, a, b PersonID) (bool, error) {
	pa, err := c.store.GetParents(ctx, tenant, a)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	pb, err := c.store.GetParents(ctx, tenant, b)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	set := make(map[PersonID]struct{}, len(pa))
	for _, p := range pa {
		set[p] = struct{}{}
	}
	shared := 0
	for _, p := range pb {
		if _, ok := set[p]; ok {
			shared++
		}
	}
	return shared >= 2, nil
}

// sexLabel picks the sex-specific label for a person when their sex is
// recorded, falling back to the combined form. Lookup failures fall back
// silently: labels degrade, they never fail a request.
func (c *Classifier) sexLabel(ctx context.Context, tenant TenantID, person PersonID,
	male, female, neutral string) string {

	summary, err := c.store.GetPersonSummary(ctx, tenant, person)
	if err != nil || summary == nil {
		return neutral
	}
	switch summary.Sex {
	case SexMale:
		return male
	case SexFemale:
		return female
	default:
		return neutral
	}
}

// ordinal formats 1 -> "1st", 2 -> "2nd", 3 -> "3rd", 4 -> "4th".
func ordinal(n int) string {
	suffix := "th"
	switch {
	case n%100 >= 11 && n%100 <= 13:
	case n%10 == 1:
		suffix = "st"
	case n%10 == 2:
		suffix = "nd"
	case n%10 == 3:
		suffix = "rd"
	}
	return fmt.Sprintf("%d%s", n, suffix)
}

// ordinalWord spells small ordinals out ("first", "second"), matching
// genealogical convention for cousin degrees.
func ordinalWord(n int) string {
	words := []string{"zeroth", "first", "second", "third", "fourth",
		"fifth", "sixth", "seventh", "eighth", "ninth", "tenth"}
	if n >= 0 && n < len(words) {
		return words[n]
	}
	return ordinal(n)
}

// plural appends "s" for counts other than one.
func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

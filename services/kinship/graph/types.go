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

// Default traversal bounds.
const (
	// DefaultMaxPathDepth is the per-side search depth used when a path
	// request does not specify one.
	DefaultMaxPathDepth = 15

	// MaxPathDepthCap is the hard per-side depth limit for path searches.
	// Requests above the cap are rejected with ErrDepthExceeded, never
	// silently clamped.
	MaxPathDepthCap = 20

	// MaxTreeGenerations is the hard generation limit for tree views.
	MaxTreeGenerations = 10
)

// PersonID uniquely identifies a person record. IDs are opaque strings
// (UUIDs in practice) and compare case-insensitively after normalization.
type PersonID string

// TenantID identifies the organization that owns a set of person records.
// Every lookup and every cached result is scoped to exactly one tenant.
type TenantID string

// UnionID identifies a marriage/partnership grouping.
type UnionID string

// Sex is the recorded sex of a person.
type Sex int

const (
	// SexUnknown means the record carries no sex information.
	SexUnknown Sex = iota

	// SexMale is a recorded male sex.
	SexMale

	// SexFemale is a recorded female sex.
	SexFemale
)

// String returns the string representation of the Sex.
func (s Sex) String() string {
	switch s {
	case SexMale:
		return "male"
	case SexFemale:
		return "female"
	default:
		return "unknown"
	}
}

// DatePrecision qualifies how exact a genealogical date is.
type DatePrecision int

const (
	// PrecisionUnknown means no usable date information.
	PrecisionUnknown DatePrecision = iota

	// PrecisionExact is a fully known date.
	PrecisionExact

	// PrecisionAbout is an approximate date ("abt 1872").
	PrecisionAbout

	// PrecisionBetween is a date bracketed by two bounds.
	PrecisionBetween

	// PrecisionBefore is an upper bound only.
	PrecisionBefore

	// PrecisionAfter is a lower bound only.
	PrecisionAfter
)

// String returns the string representation of the DatePrecision.
func (p DatePrecision) String() string {
	switch p {
	case PrecisionExact:
		return "exact"
	case PrecisionAbout:
		return "about"
	case PrecisionBetween:
		return "between"
	case PrecisionBefore:
		return "before"
	case PrecisionAfter:
		return "after"
	default:
		return "unknown"
	}
}

// DateValue is a genealogical date with its precision qualifier.
type DateValue struct {
	// Date is the ISO-8601 date string ("1872-03-15"), possibly partial
	// ("1872", "1872-03"). Empty when Precision is PrecisionUnknown.
	Date string `json:"date,omitempty"`

	// Precision qualifies how the Date should be interpreted.
	Precision DatePrecision `json:"precision,omitempty"`
}

// Person is a full person record as held by the write side.
//
// Identity (ID, TenantID) is immutable; demographic fields are mutable
// and any mutation must be followed by a cache invalidation.
type Person struct {
	ID        PersonID  `json:"id"`
	TenantID  TenantID  `json:"tenantId"`
	Name      string    `json:"name"`
	Sex       Sex       `json:"sex"`
	BirthDate DateValue `json:"birthDate,omitempty"`
	DeathDate DateValue `json:"deathDate,omitempty"`
	IsLiving  bool      `json:"isLiving"`
}

// PersonSummary is the read-model slice of a person that traversal and
// classification code needs. Returned by GraphStore.GetPersonSummary.
type PersonSummary struct {
	ID          PersonID  `json:"id"`
	DisplayName string    `json:"displayName"`
	Sex         Sex       `json:"-"`
	SexLabel    string    `json:"sex"`
	BirthDate   DateValue `json:"birthDate,omitempty"`
	DeathDate   DateValue `json:"deathDate,omitempty"`
	IsLiving    bool      `json:"isLiving"`
}

// UnionType is the kind of partnership a Union represents.
type UnionType int

const (
	// UnionMarriage is a marriage.
	UnionMarriage UnionType = iota

	// UnionCivil is a civil union or registered partnership.
	UnionCivil

	// UnionEngagement is an engagement.
	UnionEngagement

	// UnionOther is any other recorded partnership.
	UnionOther
)

// String returns the string representation of the UnionType.
func (t UnionType) String() string {
	switch t {
	case UnionMarriage:
		return "marriage"
	case UnionCivil:
		return "civil"
	case UnionEngagement:
		return "engagement"
	default:
		return "other"
	}
}

// Union is an undirected grouping of two or more persons.
type Union struct {
	ID        UnionID    `json:"id"`
	TenantID  TenantID   `json:"tenantId"`
	Type      UnionType  `json:"type"`
	Members   []PersonID `json:"members"`
	StartDate DateValue  `json:"startDate,omitempty"`
	EndDate   DateValue  `json:"endDate,omitempty"`
}

// EdgeKind is the typed step between two consecutive persons on a
// relationship path, read in path direction.
type EdgeKind int

const (
	// EdgeNone marks the final node of a path (no outgoing step).
	EdgeNone EdgeKind = iota

	// EdgeParent means the next person is a parent of the current one.
	EdgeParent

	// EdgeChild means the next person is a child of the current one.
	EdgeChild

	// EdgeSpouse means the next person is a union partner of the current one.
	EdgeSpouse
)

// edgeKindNames maps EdgeKind values to their wire representations.
var edgeKindNames = map[EdgeKind]string{
	EdgeNone:   "",
	EdgeParent: "parent",
	EdgeChild:  "child",
	EdgeSpouse: "spouse",
}

// String returns the string representation of the EdgeKind.
func (k EdgeKind) String() string {
	return edgeKindNames[k]
}

// Inverse returns the edge kind as seen when walking the path backwards.
// Parent and Child invert into each other; Spouse is its own inverse.
func (k EdgeKind) Inverse() EdgeKind {
	switch k {
	case EdgeParent:
		return EdgeChild
	case EdgeChild:
		return EdgeParent
	default:
		return k
	}
}

// PathNode is one person on a relationship path together with the typed
// step toward the next person. The last node carries EdgeNone.
type PathNode struct {
	PersonID   PersonID `json:"personId"`
	EdgeToNext EdgeKind `json:"-"`
	EdgeLabel  string   `json:"edgeToNext,omitempty"`
}

// RelationshipPath is the result of a path search between two persons.
//
// PathFound distinguishes "no connection within the depth bound" (a valid,
// successful search) from error conditions such as a missing endpoint.
// A search for a person against themselves yields PathFound=true with a
// single node and Length 0.
type RelationshipPath struct {
	PathFound bool       `json:"pathFound"`
	Nodes     []PathNode `json:"path,omitempty"`

	// Length is the number of edges on the path (nodes minus one).
	Length int `json:"pathLength"`

	// SpouseLinks is the number of spouse edges on the path.
	SpouseLinks int `json:"spouseLinks"`
}

// Edges returns the edge-kind sequence of the path, in path order.
func (p *RelationshipPath) Edges() []EdgeKind {
	if len(p.Nodes) < 2 {
		return nil
	}
	kinds := make([]EdgeKind, 0, len(p.Nodes)-1)
	for _, n := range p.Nodes[:len(p.Nodes)-1] {
		kinds = append(kinds, n.EdgeToNext)
	}
	return kinds
}

// Reverse returns the same path walked from the far end, with every edge
// inverted. Classifying a reversed path yields the inverse relationship.
func (p *RelationshipPath) Reverse() *RelationshipPath {
	if !p.PathFound || len(p.Nodes) == 0 {
		return p
	}
	nodes := make([]PathNode, len(p.Nodes))
	for i, n := range p.Nodes {
		ni := len(p.Nodes) - 1 - i
		nodes[ni] = PathNode{PersonID: n.PersonID}
		if i > 0 {
			kind := p.Nodes[i-1].EdgeToNext.Inverse()
			nodes[ni].EdgeToNext = kind
			nodes[ni].EdgeLabel = kind.String()
		}
	}
	return &RelationshipPath{
		PathFound:   true,
		Nodes:       nodes,
		Length:      p.Length,
		SpouseLinks: p.SpouseLinks,
	}
}

// ViewMode selects which subtree a tree materialization produces.
type ViewMode int

const (
	// ViewPedigree expands ancestors of the root.
	ViewPedigree ViewMode = iota

	// ViewDescendants expands descendants of the root.
	ViewDescendants

	// ViewHourglass expands both directions around the root.
	ViewHourglass
)

// viewModeNames maps ViewMode values to their wire representations.
var viewModeNames = map[ViewMode]string{
	ViewPedigree:    "pedigree",
	ViewDescendants: "descendants",
	ViewHourglass:   "hourglass",
}

// String returns the string representation of the ViewMode.
func (m ViewMode) String() string {
	return viewModeNames[m]
}

// ParseViewMode converts a wire string into a ViewMode.
func ParseViewMode(s string) (ViewMode, bool) {
	for mode, name := range viewModeNames {
		if name == s {
			return mode, true
		}
	}
	return ViewPedigree, false
}

// TreeRelation describes how a tree node relates to the view root.
type TreeRelation int

const (
	// RelationRoot is the root person itself.
	RelationRoot TreeRelation = iota

	// RelationAncestor is a blood ancestor of the root.
	RelationAncestor

	// RelationDescendant is a blood descendant of the root.
	RelationDescendant

	// RelationSpouse is a union partner attached at some generation,
	// not expanded further.
	RelationSpouse
)

// treeRelationNames maps TreeRelation values to their wire representations.
var treeRelationNames = map[TreeRelation]string{
	RelationRoot:       "root",
	RelationAncestor:   "ancestor",
	RelationDescendant: "descendant",
	RelationSpouse:     "spouse",
}

// String returns the string representation of the TreeRelation.
func (r TreeRelation) String() string {
	return treeRelationNames[r]
}

// TreePersonNode is one person in a materialized tree view.
type TreePersonNode struct {
	ID PersonID `json:"id"`

	// GenerationLevel is the distance from the root in generations.
	// Always non-negative; Relation disambiguates direction.
	GenerationLevel int `json:"generationLevel"`

	// Relation is how this node relates to the root.
	Relation TreeRelation `json:"-"`

	// RelationLabel is the wire form of Relation.
	RelationLabel string `json:"relationshipType"`

	// AnchorID is the person this node hangs off in the tree structure:
	// the child it was reached through for ancestors, the parent for
	// descendants, the blood partner for spouses. Empty for the root.
	AnchorID PersonID `json:"parentId,omitempty"`

	// SpouseUnionID is set for RelationSpouse nodes when the union that
	// links the partner to its anchor is known.
	SpouseUnionID UnionID `json:"spouseUnionId,omitempty"`

	// HasMoreAncestors is true when this node has parents that the
	// requested generation bound excluded.
	HasMoreAncestors bool `json:"hasMoreAncestors"`

	// HasMoreDescendants is true when this node has children that the
	// requested generation bound excluded.
	HasMoreDescendants bool `json:"hasMoreDescendants"`
}

// TreeView is a bounded, rooted subtree materialized for visualization.
//
// Persons are listed in deterministic order: the root first, then
// ancestors generation by generation, then descendants, then attached
// spouses, each layer sorted by person id. Identical inputs therefore
// serialize to identical bytes, which the cache layer relies on.
type TreeView struct {
	RootPersonID PersonID         `json:"rootPersonId"`
	ViewMode     string           `json:"viewMode"`
	TotalPersons int              `json:"totalPersons"`
	Persons      []TreePersonNode `json:"persons"`
}

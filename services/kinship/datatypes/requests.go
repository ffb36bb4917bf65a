// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes defines the request and response bodies of the
// kinship HTTP API, with go-playground/validator rules attached.
package datatypes

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/AleutianAI/KinGraph/services/kinship/graph"
)

// =============================================================================
// Shared Validator Instance
// =============================================================================

// kinshipValidate is the validator instance for kinship datatypes.
var kinshipValidate *validator.Validate

func init() {
	kinshipValidate = validator.New()
}

// generateUUID returns a new UUID v4 string.
func generateUUID() string {
	return uuid.NewString()
}

// =============================================================================
// Relationship Path Types
// =============================================================================

// FindPathRequest is the body of POST /v1/relationship/path.
//
// # Description
//
// Asks for the shortest relationship path between two persons. The
// endpoint order only affects how the relationship label reads, never
// which path is found.
//
// # Validation
//
// Uses go-playground/validator:
//   - RequestID: optional, must be valid UUID v4 when present
//   - Person1ID, Person2ID: required, at most 128 characters
//   - MaxDepth: 0 (service default) up to 20
type FindPathRequest struct {
	RequestID string `json:"request_id" validate:"omitempty,uuid4"`
	Timestamp int64  `json:"timestamp" validate:"gte=0"`
	Person1ID string `json:"person1Id" validate:"required,max=128"`
	Person2ID string `json:"person2Id" validate:"required,max=128"`
	MaxDepth  int    `json:"maxDepth" validate:"gte=0,lte=20"`
}

// Validate validates the FindPathRequest fields.
func (r *FindPathRequest) Validate() error {
	return kinshipValidate.Struct(r)
}

// EnsureDefaults populates RequestID and Timestamp when absent.
func (r *FindPathRequest) EnsureDefaults() {
	if r.RequestID == "" {
		r.RequestID = generateUUID()
	}
	if r.Timestamp == 0 {
		r.Timestamp = time.Now().UnixMilli()
	}
}

// =============================================================================
// Tree View Types
// =============================================================================

// TreeViewRequest is the bound form of the GET /v1/tree/:personId
// query parameters.
//
// # Validation
//
//   - View: pedigree, descendants or hourglass (default pedigree)
//   - Generations / AncestorGenerations / DescendantGenerations: 0-10
type TreeViewRequest struct {
	View                  string `form:"view" validate:"omitempty,oneof=pedigree descendants hourglass"`
	Generations           int    `form:"generations" validate:"gte=0,lte=10"`
	AncestorGenerations   int    `form:"ancestorGenerations" validate:"gte=0,lte=10"`
	DescendantGenerations int    `form:"descendantGenerations" validate:"gte=0,lte=10"`
	IncludeSpouses        bool   `form:"spouses"`
}

// Validate validates the TreeViewRequest fields.
func (r *TreeViewRequest) Validate() error {
	return kinshipValidate.Struct(r)
}

// Mode resolves the requested view mode, defaulting to pedigree.
func (r *TreeViewRequest) Mode() graph.ViewMode {
	switch r.View {
	case "descendants":
		return graph.ViewDescendants
	case "hourglass":
		return graph.ViewHourglass
	default:
		return graph.ViewPedigree
	}
}

// Bounds resolves the generation bounds per view mode. The flat
// Generations parameter is a shorthand that feeds whichever direction
// the mode expands; the direction-specific parameters win when set.
func (r *TreeViewRequest) Bounds() (ancestors, descendants int) {
	ancestors = r.AncestorGenerations
	descendants = r.DescendantGenerations
	switch r.Mode() {
	case graph.ViewPedigree:
		if ancestors == 0 {
			ancestors = r.Generations
		}
		descendants = 0
	case graph.ViewDescendants:
		if descendants == 0 {
			descendants = r.Generations
		}
		ancestors = 0
	case graph.ViewHourglass:
		if ancestors == 0 {
			ancestors = r.Generations
		}
		if descendants == 0 {
			descendants = r.Generations
		}
	}
	return ancestors, descendants
}

// =============================================================================
// Mutation Types
// =============================================================================

// CreatePersonRequest is the body of POST /v1/persons.
type CreatePersonRequest struct {
	ID        string `json:"id" validate:"omitempty,max=128"`
	Name      string `json:"name" validate:"required,max=512"`
	Sex       string `json:"sex" validate:"omitempty,oneof=male female unknown"`
	BirthDate string `json:"birthDate" validate:"omitempty,max=10"`
	DeathDate string `json:"deathDate" validate:"omitempty,max=10"`
	IsLiving  bool   `json:"isLiving"`
}

// Validate validates the CreatePersonRequest fields.
func (r *CreatePersonRequest) Validate() error {
	return kinshipValidate.Struct(r)
}

// EnsureDefaults assigns a generated id when the client omitted one.
func (r *CreatePersonRequest) EnsureDefaults() {
	if r.ID == "" {
		r.ID = generateUUID()
	}
}

// ToPerson converts the request into a graph person record.
func (r *CreatePersonRequest) ToPerson(tenant graph.TenantID) graph.Person {
	p := graph.Person{
		ID:       graph.PersonID(r.ID),
		TenantID: tenant,
		Name:     r.Name,
		Sex:      ParseSex(r.Sex),
		IsLiving: r.IsLiving,
	}
	if r.BirthDate != "" {
		p.BirthDate = graph.DateValue{Date: r.BirthDate, Precision: graph.PrecisionExact}
	}
	if r.DeathDate != "" {
		p.DeathDate = graph.DateValue{Date: r.DeathDate, Precision: graph.PrecisionExact}
	}
	return p
}

// EdgeRequest is the body of the parent-child edge endpoints.
type EdgeRequest struct {
	ParentID string `json:"parentId" validate:"required,max=128"`
	ChildID  string `json:"childId" validate:"required,max=128"`
}

// Validate validates the EdgeRequest fields.
func (r *EdgeRequest) Validate() error {
	return kinshipValidate.Struct(r)
}

// CreateUnionRequest is the body of POST /v1/unions.
type CreateUnionRequest struct {
	ID        string   `json:"id" validate:"omitempty,max=128"`
	Type      string   `json:"type" validate:"omitempty,oneof=marriage civil engagement other"`
	MemberIDs []string `json:"memberIds" validate:"required,min=2,dive,required,max=128"`
	StartDate string   `json:"startDate" validate:"omitempty,max=10"`
	EndDate   string   `json:"endDate" validate:"omitempty,max=10"`
}

// Validate validates the CreateUnionRequest fields.
func (r *CreateUnionRequest) Validate() error {
	return kinshipValidate.Struct(r)
}

// EnsureDefaults assigns a generated id when the client omitted one.
func (r *CreateUnionRequest) EnsureDefaults() {
	if r.ID == "" {
		r.ID = generateUUID()
	}
}

// ToUnion converts the request into a graph union record.
func (r *CreateUnionRequest) ToUnion(tenant graph.TenantID) graph.Union {
	u := graph.Union{
		ID:       graph.UnionID(r.ID),
		TenantID: tenant,
		Type:     ParseUnionType(r.Type),
	}
	for _, m := range r.MemberIDs {
		u.Members = append(u.Members, graph.PersonID(m))
	}
	if r.StartDate != "" {
		u.StartDate = graph.DateValue{Date: r.StartDate, Precision: graph.PrecisionExact}
	}
	if r.EndDate != "" {
		u.EndDate = graph.DateValue{Date: r.EndDate, Precision: graph.PrecisionExact}
	}
	return u
}

// UnionMemberRequest is the body of the union membership endpoints.
type UnionMemberRequest struct {
	PersonID string `json:"personId" validate:"required,max=128"`
}

// Validate validates the UnionMemberRequest fields.
func (r *UnionMemberRequest) Validate() error {
	return kinshipValidate.Struct(r)
}

// =============================================================================
// Enum Parsing
// =============================================================================

// ParseSex maps the wire form of a sex value to its graph enum.
// Unrecognized values map to unknown rather than failing, matching how
// genealogical records treat absent data.
func ParseSex(s string) graph.Sex {
	switch s {
	case "male":
		return graph.SexMale
	case "female":
		return graph.SexFemale
	default:
		return graph.SexUnknown
	}
}

// ParseUnionType maps the wire form of a union type to its graph enum.
func ParseUnionType(s string) graph.UnionType {
	switch s {
	case "", "marriage":
		return graph.UnionMarriage
	case "civil":
		return graph.UnionCivil
	case "engagement":
		return graph.UnionEngagement
	default:
		return graph.UnionOther
	}
}

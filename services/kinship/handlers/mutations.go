// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/KinGraph/services/kinship/datatypes"
	"github.com/AleutianAI/KinGraph/services/kinship/engine"
	"github.com/AleutianAI/KinGraph/services/kinship/graph"
	"github.com/AleutianAI/KinGraph/services/kinship/middleware"
)

// CreatePerson handles POST /v1/persons.
func CreatePerson(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := kinshipTracer.Start(c.Request.Context(), "CreatePerson")
		defer span.End()

		var req datatypes.CreatePersonRequest
		if err := c.BindJSON(&req); err != nil {
			span.RecordError(err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := req.Validate(); err != nil {
			span.RecordError(err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		req.EnsureDefaults()

		tenant := middleware.GetTenant(c)
		person := req.ToPerson(tenant)
		if err := eng.CreatePerson(ctx, person); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("CreatePerson failed", "tenant", tenant, "person", person.ID, "error", err)
			writeError(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{"id": person.ID})
	}
}

// UpdatePerson handles PUT /v1/persons/:personId.
func UpdatePerson(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := kinshipTracer.Start(c.Request.Context(), "UpdatePerson")
		defer span.End()

		var req datatypes.CreatePersonRequest
		if err := c.BindJSON(&req); err != nil {
			span.RecordError(err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		req.ID = c.Param("personId")
		if err := req.Validate(); err != nil {
			span.RecordError(err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		tenant := middleware.GetTenant(c)
		person := req.ToPerson(tenant)
		if err := eng.UpdatePerson(ctx, person); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("UpdatePerson failed", "tenant", tenant, "person", person.ID, "error", err)
			writeError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"id": person.ID})
	}
}

// DeletePerson handles DELETE /v1/persons/:personId.
func DeletePerson(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := kinshipTracer.Start(c.Request.Context(), "DeletePerson")
		defer span.End()

		tenant := middleware.GetTenant(c)
		person := graph.PersonID(c.Param("personId"))
		if err := eng.DeletePerson(ctx, tenant, person); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("DeletePerson failed", "tenant", tenant, "person", person, "error", err)
			writeError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"deleted": person})
	}
}

// AddParentChildEdge handles POST /v1/edges/parent-child.
func AddParentChildEdge(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := kinshipTracer.Start(c.Request.Context(), "AddParentChildEdge")
		defer span.End()

		req, ok := bindEdge(c)
		if !ok {
			return
		}

		tenant := middleware.GetTenant(c)
		err := eng.AddParentChildEdge(ctx, tenant,
			graph.PersonID(req.ParentID), graph.PersonID(req.ChildID))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("AddParentChildEdge failed",
				"tenant", tenant, "parent", req.ParentID, "child", req.ChildID, "error", err)
			writeError(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{"parentId": req.ParentID, "childId": req.ChildID})
	}
}

// RemoveParentChildEdge handles DELETE /v1/edges/parent-child.
func RemoveParentChildEdge(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := kinshipTracer.Start(c.Request.Context(), "RemoveParentChildEdge")
		defer span.End()

		req, ok := bindEdge(c)
		if !ok {
			return
		}

		tenant := middleware.GetTenant(c)
		err := eng.RemoveParentChildEdge(ctx, tenant,
			graph.PersonID(req.ParentID), graph.PersonID(req.ChildID))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("RemoveParentChildEdge failed",
				"tenant", tenant, "parent", req.ParentID, "child", req.ChildID, "error", err)
			writeError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"parentId": req.ParentID, "childId": req.ChildID})
	}
}

// CreateUnion handles POST /v1/unions.
func CreateUnion(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := kinshipTracer.Start(c.Request.Context(), "CreateUnion")
		defer span.End()

		var req datatypes.CreateUnionRequest
		if err := c.BindJSON(&req); err != nil {
			span.RecordError(err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := req.Validate(); err != nil {
			span.RecordError(err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		req.EnsureDefaults()

		tenant := middleware.GetTenant(c)
		union := req.ToUnion(tenant)
		if err := eng.CreateUnion(ctx, union); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("CreateUnion failed", "tenant", tenant, "union", union.ID, "error", err)
			writeError(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{"id": union.ID})
	}
}

// AddUnionMember handles POST /v1/unions/:unionId/members.
func AddUnionMember(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := kinshipTracer.Start(c.Request.Context(), "AddUnionMember")
		defer span.End()

		req, ok := bindUnionMember(c)
		if !ok {
			return
		}

		tenant := middleware.GetTenant(c)
		union := graph.UnionID(c.Param("unionId"))
		err := eng.AddUnionMember(ctx, tenant, union, graph.PersonID(req.PersonID))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("AddUnionMember failed",
				"tenant", tenant, "union", union, "person", req.PersonID, "error", err)
			writeError(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{"unionId": union, "personId": req.PersonID})
	}
}

// RemoveUnionMember handles DELETE /v1/unions/:unionId/members.
func RemoveUnionMember(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := kinshipTracer.Start(c.Request.Context(), "RemoveUnionMember")
		defer span.End()

		req, ok := bindUnionMember(c)
		if !ok {
			return
		}

		tenant := middleware.GetTenant(c)
		union := graph.UnionID(c.Param("unionId"))
		err := eng.RemoveUnionMember(ctx, tenant, union, graph.PersonID(req.PersonID))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("RemoveUnionMember failed",
				"tenant", tenant, "union", union, "person", req.PersonID, "error", err)
			writeError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"unionId": union, "personId": req.PersonID})
	}
}

// bindEdge binds and validates an edge request body, writing the error
// response itself on failure.
func bindEdge(c *gin.Context) (datatypes.EdgeRequest, bool) {
	var req datatypes.EdgeRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return req, false
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return req, false
	}
	return req, true
}

func bindUnionMember(c *gin.Context) (datatypes.UnionMemberRequest, bool) {
	var req datatypes.UnionMemberRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return req, false
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return req, false
	}
	return req, true
}

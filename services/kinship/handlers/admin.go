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

// HealthCheck handles GET /health.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// CacheStats handles GET /v1/cache/stats.
func CacheStats(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := eng.CacheStats(c.Request.Context())
		if err != nil {
			slog.Error("CacheStats failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "cache stats unavailable"})
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

// InvalidateTenantCache handles DELETE /v1/cache.
//
// Purges every cached result for the resolved tenant. Intended for
// bulk imports, where invalidating per mutated person would thrash.
func InvalidateTenantCache(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := kinshipTracer.Start(c.Request.Context(), "InvalidateTenantCache")
		defer span.End()

		tenant := middleware.GetTenant(c)
		n, err := eng.InvalidateTenant(ctx, tenant)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("InvalidateTenantCache failed", "tenant", tenant, "error", err)
			writeError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"invalidated": n})
	}
}

// InvalidatePersonCache handles DELETE /v1/cache/persons/:personId.
//
// Purges every cached result containing the person. Normal mutations
// invalidate automatically; this endpoint covers out-of-band data
// changes, such as direct store edits during migrations.
func InvalidatePersonCache(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := kinshipTracer.Start(c.Request.Context(), "InvalidatePersonCache")
		defer span.End()

		tenant := middleware.GetTenant(c)
		person := graph.PersonID(c.Param("personId"))
		if err := eng.OnPersonMutated(ctx, tenant, person); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("InvalidatePersonCache failed",
				"tenant", tenant, "person", person, "error", err)
			writeError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"personId": person})
	}
}

// InvalidateEdgeCache handles POST /v1/cache/edges/invalidate.
//
// Notification hook for hosts that write parent-child edges directly
// to the store: purges cached results containing either endpoint.
func InvalidateEdgeCache(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := kinshipTracer.Start(c.Request.Context(), "InvalidateEdgeCache")
		defer span.End()

		var req datatypes.EdgeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := req.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		tenant := middleware.GetTenant(c)
		err := eng.OnEdgeMutated(ctx, tenant,
			graph.PersonID(req.ParentID), graph.PersonID(req.ChildID))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("InvalidateEdgeCache failed",
				"tenant", tenant, "parent", req.ParentID, "child", req.ChildID,
				"error", err)
			writeError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"parentId": req.ParentID, "childId": req.ChildID})
	}
}

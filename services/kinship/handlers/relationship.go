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

// FindRelationshipPath handles POST /v1/relationship/path.
//
// # Description
//
// Finds and classifies the shortest relationship path between the two
// persons named in the request body, scoped to the resolved tenant.
// An unconnected pair is a 200 with pathFound=false, not an error.
func FindRelationshipPath(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := kinshipTracer.Start(c.Request.Context(), "FindRelationshipPath")
		defer span.End()

		var req datatypes.FindPathRequest
		if err := c.BindJSON(&req); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("Failed to parse the path request", "error", err)
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
		res, err := eng.FindRelationshipPath(ctx, tenant,
			graph.PersonID(req.Person1ID), graph.PersonID(req.Person2ID), req.MaxDepth)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("FindRelationshipPath failed",
				"tenant", tenant, "person1", req.Person1ID,
				"person2", req.Person2ID, "error", err)
			writeError(c, err)
			return
		}

		c.JSON(http.StatusOK, res)
	}
}

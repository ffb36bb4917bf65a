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

// GetTreeView handles GET /v1/tree/:personId.
//
// # Description
//
// Materializes a generation-bounded tree view around the person. The
// view query parameter selects pedigree (default), descendants or
// hourglass; generations bounds the expansion and spouses=true attaches
// union partners as leaves. The response body comes straight from the
// result cache, so identical queries return identical bytes.
func GetTreeView(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := kinshipTracer.Start(c.Request.Context(), "GetTreeView")
		defer span.End()

		root := graph.PersonID(c.Param("personId"))

		var req datatypes.TreeViewRequest
		if err := c.ShouldBindQuery(&req); err != nil {
			span.RecordError(err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters"})
			return
		}
		if err := req.Validate(); err != nil {
			span.RecordError(err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		tenant := middleware.GetTenant(c)
		ancestors, descendants := req.Bounds()
		payload, err := eng.GetTreeView(ctx, tenant, root, req.Mode(),
			ancestors, descendants, req.IncludeSpouses)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("GetTreeView failed",
				"tenant", tenant, "root", root, "view", req.Mode().String(), "error", err)
			writeError(c, err)
			return
		}

		c.Data(http.StatusOK, "application/json", payload)
	}
}

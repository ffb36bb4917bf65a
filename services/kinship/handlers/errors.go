// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers implements the HTTP handlers of the kinship service.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"

	"github.com/AleutianAI/KinGraph/services/kinship/graph"
)

var kinshipTracer = otel.Tracer("kingraph.kinship.handlers")

// statusFor maps a kinship error to its HTTP status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, graph.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, graph.ErrDepthExceeded):
		return http.StatusBadRequest
	case errors.Is(err, graph.ErrSelfLoop),
		errors.Is(err, graph.ErrUnionTooSmall):
		return http.StatusBadRequest
	case errors.Is(err, graph.ErrDuplicatePerson):
		return http.StatusConflict
	case errors.Is(err, graph.ErrTenantMismatch):
		return http.StatusForbidden
	case errors.Is(err, graph.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError emits the canonical error body for a kinship error.
func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	body := gin.H{"error": err.Error()}
	if status == http.StatusInternalServerError {
		// Internal details stay in the logs.
		body["error"] = "internal error"
	}
	c.JSON(status, body)
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/KinGraph/services/kinship/observability"
)

// InFlightMiddleware tracks the number of API requests currently being
// served. No-op when metrics have not been initialized.
func InFlightMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		m := observability.DefaultMetrics
		if m == nil {
			c.Next()
			return
		}
		m.RequestsInFlight.Inc()
		defer m.RequestsInFlight.Dec()
		c.Next()
	}
}

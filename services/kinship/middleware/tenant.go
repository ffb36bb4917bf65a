// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package middleware provides HTTP middleware for the kinship service.
//
// # Tenant Resolution Flow
//
// Every kinship lookup is tenant-scoped. The tenant middleware extracts
// the tenant id from the X-Org-ID header, rejects requests that carry
// none, and stores the id in the Gin context for downstream handlers.
//
//	Request
//	   │
//	   ▼
//	TenantMiddleware
//	   │
//	   ├─► Extract tenant from "X-Org-ID: <id>"
//	   │
//	   └─► Store tenant in context
//	           │
//	           ▼
//	       Handler (retrieves via GetTenant)
//
// # Single-Tenant Behavior
//
// Deployments that serve one organization can configure a default
// tenant; requests without the header then resolve to it instead of
// being rejected.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/KinGraph/services/kinship/graph"
)

// =============================================================================
// Context Keys
// =============================================================================

// tenantKey is the context key for storing the resolved tenant id.
// Using a typed key prevents collisions with other context values.
const tenantKey = "kingraph_tenant"

// TenantHeader is the request header carrying the tenant id.
const TenantHeader = "X-Org-ID"

// =============================================================================
// Context Helpers
// =============================================================================

// SetTenant stores the resolved tenant id in the Gin context.
//
// Called by TenantMiddleware after resolution; handlers retrieve the
// value via GetTenant. Request-scoped, safe for concurrent requests.
func SetTenant(c *gin.Context, tenant graph.TenantID) {
	c.Set(tenantKey, tenant)
}

// GetTenant retrieves the resolved tenant id from the Gin context.
// Returns the empty tenant when the middleware has not run.
func GetTenant(c *gin.Context) graph.TenantID {
	if v, exists := c.Get(tenantKey); exists {
		if tenant, ok := v.(graph.TenantID); ok {
			return tenant
		}
	}
	return ""
}

// =============================================================================
// Tenant Middleware
// =============================================================================

// TenantMiddleware creates a Gin middleware that resolves the tenant.
//
// # Description
//
// Reads the X-Org-ID header and stores the trimmed value in the
// context. Requests without a tenant are rejected with 400, unless a
// non-empty defaultTenant is configured, in which case they resolve to
// it. Tenant ids are opaque; no existence check happens here, because
// an unknown tenant simply owns no persons.
//
// # Inputs
//
//   - defaultTenant: Fallback for requests without the header. Empty
//     means the header is mandatory.
//
// # Outputs
//
//   - gin.HandlerFunc: Middleware function ready for use with Gin.
//
// # Examples
//
//	v1 := router.Group("/v1")
//	v1.Use(middleware.TenantMiddleware(""))
//
// # Thread Safety
//
// Thread-safe. The returned middleware can be used concurrently.
func TenantMiddleware(defaultTenant graph.TenantID) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant := graph.TenantID(strings.TrimSpace(c.GetHeader(TenantHeader)))
		if tenant == "" {
			tenant = defaultTenant
		}
		if tenant == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": "missing " + TenantHeader + " header",
			})
			return
		}

		SetTenant(c, tenant)
		c.Next()
	}
}

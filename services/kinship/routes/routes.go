// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AleutianAI/KinGraph/services/kinship/engine"
	"github.com/AleutianAI/KinGraph/services/kinship/graph"
	"github.com/AleutianAI/KinGraph/services/kinship/handlers"
	"github.com/AleutianAI/KinGraph/services/kinship/middleware"
)

// SetupRoutes registers every kinship endpoint on the router.
//
// defaultTenant configures single-tenant deployments; empty makes the
// X-Org-ID header mandatory on the /v1 group.
func SetupRoutes(router *gin.Engine, eng *engine.Engine, defaultTenant graph.TenantID) {
	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API version 1 group
	v1 := router.Group("/v1")
	v1.Use(middleware.InFlightMiddleware())
	v1.Use(middleware.TenantMiddleware(defaultTenant))
	{
		v1.POST("/relationship/path", handlers.FindRelationshipPath(eng))
		v1.GET("/tree/:personId", handlers.GetTreeView(eng))

		// Person and edge administration routes
		persons := v1.Group("/persons")
		{
			persons.POST("", handlers.CreatePerson(eng))
			persons.PUT("/:personId", handlers.UpdatePerson(eng))
			persons.DELETE("/:personId", handlers.DeletePerson(eng))
		}
		edges := v1.Group("/edges")
		{
			edges.POST("/parent-child", handlers.AddParentChildEdge(eng))
			edges.DELETE("/parent-child", handlers.RemoveParentChildEdge(eng))
		}
		unions := v1.Group("/unions")
		{
			unions.POST("", handlers.CreateUnion(eng))
			unions.POST("/:unionId/members", handlers.AddUnionMember(eng))
			unions.DELETE("/:unionId/members", handlers.RemoveUnionMember(eng))
		}

		// Cache administration routes
		cacheAdmin := v1.Group("/cache")
		{
			cacheAdmin.GET("/stats", handlers.CacheStats(eng))
			cacheAdmin.DELETE("", handlers.InvalidateTenantCache(eng))
			cacheAdmin.DELETE("/persons/:personId", handlers.InvalidatePersonCache(eng))
			cacheAdmin.POST("/edges/invalidate", handlers.InvalidateEdgeCache(eng))
		}
	}
}

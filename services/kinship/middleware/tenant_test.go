// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// Tests for tenant middleware

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/KinGraph/services/kinship/graph"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// echoTenant registers a handler that reports the resolved tenant.
func echoTenant(defaultTenant graph.TenantID) *gin.Engine {
	router := gin.New()
	router.GET("/whoami", TenantMiddleware(defaultTenant), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"tenant": GetTenant(c)})
	})
	return router
}

func TestTenantMiddleware_HeaderResolved(t *testing.T) {
	router := echoTenant("")

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set(TenantHeader, "org-42")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "org-42")
}

func TestTenantMiddleware_MissingHeaderRejected(t *testing.T) {
	router := echoTenant("")

	req := httptest.NewRequest("GET", "/whoami", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTenantMiddleware_DefaultTenantFallback(t *testing.T) {
	router := echoTenant("single-org")

	req := httptest.NewRequest("GET", "/whoami", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "single-org")
}

func TestTenantMiddleware_HeaderWinsOverDefault(t *testing.T) {
	router := echoTenant("single-org")

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set(TenantHeader, "  org-7  ")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "org-7")
}

func TestGetTenant_WithoutMiddleware(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Equal(t, graph.TenantID(""), GetTenant(c))
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// Tests for kinship HTTP handlers

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/KinGraph/services/kinship/cache"
	"github.com/AleutianAI/KinGraph/services/kinship/engine"
	"github.com/AleutianAI/KinGraph/services/kinship/graph"
	"github.com/AleutianAI/KinGraph/services/kinship/middleware"
	"github.com/AleutianAI/KinGraph/services/kinship/store/memstore"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testTenant = graph.TenantID("org-1")

// newHandlerEngine builds an engine over a seeded in-memory store:
// grandpa -> dad -> me, with uncle as dad's brother.
func newHandlerEngine(t *testing.T) *engine.Engine {
	t.Helper()
	ctx := context.Background()
	ms := memstore.New()
	for _, id := range []graph.PersonID{"grandpa", "dad", "uncle", "me"} {
		require.NoError(t, ms.CreatePerson(ctx, graph.Person{
			ID: id, TenantID: testTenant, Name: string(id), Sex: graph.SexMale,
		}))
	}
	require.NoError(t, ms.AddParentChildEdge(ctx, testTenant, "grandpa", "dad"))
	require.NoError(t, ms.AddParentChildEdge(ctx, testTenant, "grandpa", "uncle"))
	require.NoError(t, ms.AddParentChildEdge(ctx, testTenant, "dad", "me"))
	return engine.New(ms, cache.NewTreeCache())
}

// withTenant injects the tenant without running the middleware chain.
func withTenant(handler gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		middleware.SetTenant(c, testTenant)
		handler(c)
	}
}

func postJSON(router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest("POST", path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// =============================================================================
// HealthCheck Tests
// =============================================================================

func TestHealthCheck_ReturnsOK(t *testing.T) {
	router := gin.New()
	router.GET("/health", HealthCheck)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]string
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, "ok", response["status"])
}

// =============================================================================
// FindRelationshipPath Tests
// =============================================================================

func TestFindRelationshipPath_Success(t *testing.T) {
	router := gin.New()
	router.POST("/path", withTenant(FindRelationshipPath(newHandlerEngine(t))))

	w := postJSON(router, "/path", map[string]any{
		"person1Id": "me", "person2Id": "uncle",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"relationshipLabel":"Uncle"`)
}

func TestFindRelationshipPath_InvalidBody(t *testing.T) {
	router := gin.New()
	router.POST("/path", withTenant(FindRelationshipPath(newHandlerEngine(t))))

	req := httptest.NewRequest("POST", "/path", bytes.NewBufferString("{not json"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFindRelationshipPath_ValidationRejectsDepth(t *testing.T) {
	router := gin.New()
	router.POST("/path", withTenant(FindRelationshipPath(newHandlerEngine(t))))

	w := postJSON(router, "/path", map[string]any{
		"person1Id": "me", "person2Id": "uncle", "maxDepth": 50,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFindRelationshipPath_UnknownPersonIs404(t *testing.T) {
	router := gin.New()
	router.POST("/path", withTenant(FindRelationshipPath(newHandlerEngine(t))))

	w := postJSON(router, "/path", map[string]any{
		"person1Id": "me", "person2Id": "ghost",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// =============================================================================
// GetTreeView Tests
// =============================================================================

func TestGetTreeView_Success(t *testing.T) {
	router := gin.New()
	router.GET("/tree/:personId", withTenant(GetTreeView(newHandlerEngine(t))))

	req := httptest.NewRequest("GET", "/tree/me?view=pedigree&generations=2", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")

	var view graph.TreeView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, graph.PersonID("me"), view.RootPersonID)
	assert.Equal(t, 3, view.TotalPersons)
}

func TestGetTreeView_BadView(t *testing.T) {
	router := gin.New()
	router.GET("/tree/:personId", withTenant(GetTreeView(newHandlerEngine(t))))

	req := httptest.NewRequest("GET", "/tree/me?view=sideways", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// =============================================================================
// Error Mapping Tests
// =============================================================================

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, statusFor(graph.ErrNotFound))
	assert.Equal(t, http.StatusBadRequest, statusFor(graph.ErrDepthExceeded))
	assert.Equal(t, http.StatusBadRequest, statusFor(graph.ErrSelfLoop))
	assert.Equal(t, http.StatusConflict, statusFor(graph.ErrDuplicatePerson))
	assert.Equal(t, http.StatusForbidden, statusFor(graph.ErrTenantMismatch))
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(graph.ErrUnavailable))
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
}

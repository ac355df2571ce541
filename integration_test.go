package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/field-service-admin/controllers"
	"github.com/kendall-kelly/field-service-admin/services"
	"github.com/kendall-kelly/field-service-admin/tests/fakeapi"
	"github.com/kendall-kelly/field-service-admin/tests/testutil"
	"github.com/stretchr/testify/assert"
)

// setupRouter creates the full console router against a fake remote API
func setupRouter(t *testing.T) (*gin.Engine, *services.Console, *fakeapi.API) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	api := fakeapi.New(t)
	console := testutil.NewConsole(t, api, services.ConsoleOptions{PaymentPollInterval: 20 * time.Millisecond})

	router := controllers.SetupRouter(console, controllers.RouterOptions{})
	router.GET("/api/v1/health", healthCheck)

	return router, console, api
}

// TestHealthEndpointIntegration tests the /api/v1/health endpoint with full routing
func TestHealthEndpointIntegration(t *testing.T) {
	router, _, _ := setupRouter(t)

	req, _ := http.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code, "Expected status 200 OK")

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err, "Response should be valid JSON")
	assert.Equal(t, true, response["success"])
	assert.Equal(t, "Field Service Admin Console is running", response["message"])
}

// TestHealthEndpointMethod tests that only GET method is allowed
func TestHealthEndpointMethod(t *testing.T) {
	router, _, _ := setupRouter(t)

	for _, method := range []string{"POST", "PUT", "DELETE"} {
		req, _ := http.NewRequest(method, "/api/v1/health", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code, method+" should not be allowed")
	}
}

// TestHealthEndpointHeaders tests that proper headers are set
func TestHealthEndpointHeaders(t *testing.T) {
	router, _, _ := setupRouter(t)

	req, _ := http.NewRequest("GET", "/api/v1/health", nil)
	req.Header.Set("X-Request-ID", "health-1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "health-1", w.Header().Get("X-Request-ID"))
}

// TestHealthDoesNotRequireSession checks the console stays observable while logged out
func TestHealthDoesNotRequireSession(t *testing.T) {
	router, console, api := setupRouter(t)

	req, _ := http.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, console.Session.IsAuthenticated())
	assert.Empty(t, api.Requests())
}

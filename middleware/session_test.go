package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/field-service-admin/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSessionRouter(session *services.SessionStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestLogger())
	router.GET("/admin/tickets/open", RequireSession(session), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
	return router
}

func TestRequireSessionWithoutToken(t *testing.T) {
	router := newSessionRouter(services.NewSessionStore(services.NewMemorySessionStorage()))

	req := httptest.NewRequest(http.MethodGet, "/admin/tickets/open", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.False(t, response["success"].(bool))
	errorData := response["error"].(map[string]interface{})
	assert.Equal(t, "UNAUTHORIZED", errorData["code"])
	assert.Equal(t, "/login", errorData["redirect"])
}

func TestRequireSessionWithRestoredToken(t *testing.T) {
	storage := services.NewMemorySessionStorage()
	require.NoError(t, storage.Save(context.Background(), "stored-token"))
	session := services.NewSessionStore(storage)
	require.NoError(t, session.Restore(context.Background()))

	router := newSessionRouter(session)

	req := httptest.NewRequest(http.MethodGet, "/admin/tickets/open", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequestLoggerEchoesRequestID(t *testing.T) {
	router := newSessionRouter(services.NewSessionStore(services.NewMemorySessionStorage()))

	req := httptest.NewRequest(http.MethodGet, "/admin/tickets/open", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
}

func TestRequestLoggerGeneratesRequestID(t *testing.T) {
	router := newSessionRouter(services.NewSessionStore(services.NewMemorySessionStorage()))

	req := httptest.NewRequest(http.MethodGet, "/admin/tickets/open", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestRequestLoggerIncludesOperator(t *testing.T) {
	var buf bytes.Buffer
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	defer slog.SetDefault(previous)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestLogger())
	router.GET("/notices", func(c *gin.Context) {
		c.Set(operatorIDKey, "auth0|operator-7")
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	req := httptest.NewRequest(http.MethodGet, "/notices", nil)
	req.Header.Set(RequestIDHeader, "req-7")
	router.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "request", entry["msg"])
	assert.Equal(t, "auth0|operator-7", entry["operator_id"])
	assert.Equal(t, "req-7", entry["request_id"])
	assert.Equal(t, float64(http.StatusOK), entry["status"])
}

package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/field-service-admin/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func operatorClaims(subject, scope string) *validator.ValidatedClaims {
	return &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{Issuer: "https://test.auth0.com/", Subject: subject},
		CustomClaims:     &OperatorClaims{Scope: scope},
	}
}

// gatedRouter serves /admin/tickets/open behind RequireScope, with claims
// injected the way EnsureValidToken would leave them
func gatedRouter(claims any) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/admin/tickets/open",
		func(c *gin.Context) {
			if claims != nil {
				c.Set(validatedClaimsKey, claims)
			}
			c.Next()
		},
		RequireScope(OperatorScope),
		func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"success": true})
		},
	)
	return router
}

func gateErrorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var response struct {
		Success bool `json:"success"`
		Error   struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.False(t, response.Success)
	return response.Error.Code
}

func TestOperatorClaimsHasScope(t *testing.T) {
	claims := OperatorClaims{Scope: "read:tickets admin:console"}

	assert.True(t, claims.HasScope(OperatorScope))
	assert.True(t, claims.HasScope("read:tickets"))
	assert.False(t, claims.HasScope("admin"), "scopes match whole words only")
	assert.False(t, OperatorClaims{}.HasScope(OperatorScope))
}

func TestRequireScopeOperatorGate(t *testing.T) {
	tests := []struct {
		name   string
		claims any
		status int
		code   string
	}{
		{"operator scope", operatorClaims("auth0|op", "admin:console"), http.StatusOK, ""},
		{"other scopes only", operatorClaims("auth0|op", "read:tickets write:tickets"), http.StatusForbidden, "INSUFFICIENT_SCOPE"},
		{"no custom claims", &validator.ValidatedClaims{}, http.StatusForbidden, "INSUFFICIENT_SCOPE"},
		{"no claims", nil, http.StatusUnauthorized, "MISSING_CLAIMS"},
		{"wrong claims type", "not-claims", http.StatusUnauthorized, "MISSING_CLAIMS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			gatedRouter(tt.claims).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/tickets/open", nil))

			assert.Equal(t, tt.status, w.Code)
			if tt.code != "" {
				assert.Equal(t, tt.code, gateErrorCode(t, w))
			}
		})
	}
}

func TestOperatorContextAccessors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, err := GetOperatorID(c)
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "MISSING_OPERATOR_ID", authErr.Code)

	_, err = GetClaims(c)
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "MISSING_CLAIMS", authErr.Code)

	c.Set(operatorIDKey, 42)
	_, err = GetOperatorID(c)
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "INVALID_OPERATOR_ID", authErr.Code)

	claims := operatorClaims("auth0|op-1", OperatorScope)
	c.Set(operatorIDKey, "auth0|op-1")
	c.Set(validatedClaimsKey, claims)

	id, err := GetOperatorID(c)
	require.NoError(t, err)
	assert.Equal(t, "auth0|op-1", id)

	got, err := GetClaims(c)
	require.NoError(t, err)
	assert.Same(t, claims, got)
}

func TestEnsureValidTokenRejectsMissingToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	gate, err := EnsureValidToken(&config.Config{Auth0Domain: "test.auth0.com", Auth0Audience: "https://console.test.com"})
	require.NoError(t, err)

	reached := false
	router := gin.New()
	router.GET("/admin/tickets/open", gate, func(c *gin.Context) { reached = true })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/tickets/open", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_TOKEN", gateErrorCode(t, w))
	assert.False(t, reached)
}

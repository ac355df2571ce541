package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/field-service-admin/config"
)

// OperatorScope is the scope an operator token needs to reach /admin routes
const OperatorScope = "admin:console"

// Context keys set by EnsureValidToken
const (
	operatorIDKey      = "operator_id"
	validatedClaimsKey = "validated_claims"
)

// OperatorClaims carries the space-separated scope list of an operator token
type OperatorClaims struct {
	Scope string `json:"scope"`
}

// Validate satisfies validator.CustomClaims; scopes are checked per route by RequireScope
func (c OperatorClaims) Validate(ctx context.Context) error {
	return nil
}

// HasScope reports whether scope is one of the granted scopes
func (c OperatorClaims) HasScope(scope string) bool {
	return slices.Contains(strings.Fields(c.Scope), scope)
}

// EnsureValidToken is a middleware that checks the operator's Auth0 JWT.
// It guards the console itself; the admin's bearer token for the remote API is separate.
func EnsureValidToken(cfg *config.Config) (gin.HandlerFunc, error) {
	issuerURL, err := url.Parse("https://" + cfg.Auth0Domain + "/")
	if err != nil {
		return nil, fmt.Errorf("failed to parse the issuer url: %w", err)
	}

	provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)

	jwtValidator, err := validator.New(
		provider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{cfg.Auth0Audience},
		validator.WithCustomClaims(
			func() validator.CustomClaims {
				return &OperatorClaims{}
			},
		),
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to set up the jwt validator: %w", err)
	}

	errorHandler := func(w http.ResponseWriter, r *http.Request, err error) {
		slog.Warn("rejected operator token", "path", r.URL.Path, "error", err)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		if _, writeErr := w.Write([]byte(`{"success":false,"error":{"code":"INVALID_TOKEN","message":"Operator token is missing or invalid."}}`)); writeErr != nil {
			slog.Error("failed to write error response", "error", writeErr)
		}
	}

	middleware := jwtmiddleware.New(
		jwtValidator.ValidateToken,
		jwtmiddleware.WithErrorHandler(errorHandler),
	)

	return func(c *gin.Context) {
		passed := false
		var handler http.HandlerFunc = func(w http.ResponseWriter, r *http.Request) {
			token := r.Context().Value(jwtmiddleware.ContextKey{}).(*validator.ValidatedClaims)

			c.Set(operatorIDKey, token.RegisteredClaims.Subject)
			c.Set(validatedClaimsKey, token)
			passed = true
		}

		middleware.CheckJWT(handler).ServeHTTP(c.Writer, c.Request)
		if !passed {
			c.Abort()
			return
		}
		c.Next()
	}, nil
}

// GetOperatorID extracts the operator ID from the Gin context
func GetOperatorID(c *gin.Context) (string, error) {
	operatorID, exists := c.Get(operatorIDKey)
	if !exists {
		return "", &AuthError{Code: "MISSING_OPERATOR_ID", Message: "Operator ID not found in context"}
	}

	operatorIDStr, ok := operatorID.(string)
	if !ok {
		return "", &AuthError{Code: "INVALID_OPERATOR_ID", Message: "Operator ID is not a string"}
	}

	return operatorIDStr, nil
}

// GetClaims extracts the validated JWT claims from the Gin context
func GetClaims(c *gin.Context) (*validator.ValidatedClaims, error) {
	claims, exists := c.Get(validatedClaimsKey)
	if !exists {
		return nil, &AuthError{Code: "MISSING_CLAIMS", Message: "Claims not found in context"}
	}

	validatedClaims, ok := claims.(*validator.ValidatedClaims)
	if !ok {
		return nil, &AuthError{Code: "INVALID_CLAIMS", Message: "Claims are not in the expected format"}
	}

	return validatedClaims, nil
}

// RequireScope aborts unless the operator token stored by EnsureValidToken grants scope
func RequireScope(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := GetClaims(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "MISSING_CLAIMS",
					"message": "Operator claims missing from request",
				},
			})
			return
		}

		operator, ok := claims.CustomClaims.(*OperatorClaims)
		if !ok || !operator.HasScope(scope) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INSUFFICIENT_SCOPE",
					"message": "Operator token lacks the " + scope + " scope",
				},
			})
			return
		}

		c.Next()
	}
}

// AuthError is a missing or malformed operator value in the request context
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

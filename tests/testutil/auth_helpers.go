package testutil

import (
	"strings"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/field-service-admin/middleware"
)

// OperatorIssuer is the issuer stamped on mock operator claims
const OperatorIssuer = "https://test.auth0.com/"

// OperatorClaims builds the claims EnsureValidToken would attach for an operator token
func OperatorClaims(operatorID string, scopes ...string) *validator.ValidatedClaims {
	return &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{
			Issuer:  OperatorIssuer,
			Subject: operatorID,
		},
		CustomClaims: &middleware.OperatorClaims{Scope: strings.Join(scopes, " ")},
	}
}

// MockOperatorGate stands in for EnsureValidToken in router tests. Pair it
// with middleware.RequireScope to exercise the scope check.
func MockOperatorGate(operatorID string, scopes ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("operator_id", operatorID)
		c.Set("validated_claims", OperatorClaims(operatorID, scopes...))
		c.Next()
	}
}

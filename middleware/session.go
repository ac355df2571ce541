package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/field-service-admin/services"
)

// RequireSession blocks protected console routes until an admin has logged in
func RequireSession(session *services.SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !session.IsAuthenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":     "UNAUTHORIZED",
					"message":  "Please log in to continue",
					"redirect": services.LoginPath,
				},
			})
			return
		}
		c.Next()
	}
}

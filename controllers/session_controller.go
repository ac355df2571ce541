package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/field-service-admin/services"
)

// LoginRequest represents the request body for signing in to the console
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /login
func (cc *ConsoleController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "A valid email and password are required")
		return
	}

	err := cc.console.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		var apiErr *services.APIError
		switch {
		case errors.Is(err, services.ErrAccessDenied):
			respondError(c, http.StatusForbidden, "ACCESS_DENIED", err.Error())
		case errors.As(err, &apiErr):
			respondError(c, http.StatusUnauthorized, "LOGIN_FAILED", services.ServerMessage(err, "Login failed."))
		default:
			slog.Error("console login failed", "email", req.Email, "error", err)
			respondError(c, http.StatusBadGateway, "LOGIN_FAILED", "Login failed.")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"redirect": services.PanelUsers.Path(services.UserStatusKeyPending),
		},
	})
}

// Logout handles POST /logout
func (cc *ConsoleController) Logout(c *gin.Context) {
	if err := cc.console.Logout(c.Request.Context()); err != nil {
		slog.Error("failed to clear stored session", "error", err)
		respondError(c, http.StatusInternalServerError, "LOGOUT_FAILED", "Failed to clear the stored session")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"redirect": services.LoginPath,
		},
	})
}

// GetSession handles GET /session
func (cc *ConsoleController) GetSession(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"authenticated": cc.console.Session.IsAuthenticated(),
		},
	})
}

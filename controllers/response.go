package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/field-service-admin/services"
)

// respondError writes the standard error envelope
func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// respondSessionExpired tells the front end to return to the login view
func respondSessionExpired(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":     "SESSION_EXPIRED",
			"message":  "Your session has expired. Please log in again.",
			"redirect": services.LoginPath,
		},
	})
}

// respondActionError maps console errors onto HTTP responses
func respondActionError(c *gin.Context, err error) {
	var validationErr *services.ValidationError
	var actionErr *services.ActionError
	var apiErr *services.APIError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": validationErr.Message,
				"field":   validationErr.Field,
			},
		})
	case errors.Is(err, services.ErrSessionExpired), errors.Is(err, services.ErrNotAuthenticated):
		respondSessionExpired(c)
	case errors.Is(err, services.ErrAccessDenied):
		respondError(c, http.StatusForbidden, "ACCESS_DENIED", err.Error())
	case errors.Is(err, services.ErrActionInFlight):
		respondError(c, http.StatusConflict, "ACTION_IN_FLIGHT", err.Error())
	case errors.Is(err, services.ErrConfirmationNotOpen):
		respondError(c, http.StatusConflict, "NO_CONFIRMATION", "There is nothing to confirm")
	case errors.Is(err, services.ErrNoActivePayment):
		respondError(c, http.StatusNotFound, "NO_ACTIVE_PAYMENT", "No payment is awaiting resolution")
	case errors.Is(err, services.ErrUnknownStatus):
		respondError(c, http.StatusBadRequest, "INVALID_STATUS", err.Error())
	case errors.As(err, &actionErr):
		status := http.StatusBadGateway
		if errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
			status = apiErr.StatusCode
		}
		respondError(c, status, "ACTION_FAILED", actionErr.Message)
	case errors.Is(err, services.ErrClosed):
		respondError(c, http.StatusServiceUnavailable, "SHUTTING_DOWN", "The console is shutting down")
	default:
		slog.Error("unhandled console error", "path", c.Request.URL.Path, "error", err)
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Something went wrong")
	}
}

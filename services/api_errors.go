package services

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrAccessDenied is returned when a non-admin account tries to sign in
	ErrAccessDenied = errors.New("Access Denied: You must be an admin.")

	// ErrNotAuthenticated is returned when an authenticated call is made without a session
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrSessionExpired is returned after the remote API rejected the token and the session was cleared
	ErrSessionExpired = errors.New("session expired, please log in again")

	// ErrActionInFlight is returned when the same action is already running for an entity
	ErrActionInFlight = errors.New("this action is already in progress")

	// ErrNoActivePayment is returned when there is no payment intent to act on
	ErrNoActivePayment = errors.New("no payment is awaiting resolution")

	// ErrMissingPaymentIntentID is returned when the server answers a payment initiation without an intent id
	ErrMissingPaymentIntentID = errors.New("payment intent has no id")

	// ErrConfirmationNotOpen is returned when confirming a gate that holds no prompt
	ErrConfirmationNotOpen = errors.New("no confirmation is pending")

	// ErrClosed is returned once the console has been shut down
	ErrClosed = errors.New("console is closed")
)

// APIError is a non-2xx response from the remote API
type APIError struct {
	StatusCode int
	Message    string // server-supplied message, empty when the body carried none
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("remote API returned status %d", e.StatusCode)
}

// IsUnauthorized reports whether err is a 401 from the remote API
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// ServerMessage returns the server-provided message carried by err, or fallback.
// Errors produced locally (validation, access denied) keep their own text.
func ServerMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return fallback
	}
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Message
	}
	if errors.Is(err, ErrAccessDenied) || errors.Is(err, ErrSessionExpired) || errors.Is(err, ErrActionInFlight) {
		return err.Error()
	}
	return fallback
}

// ValidationError is a local, pre-network validation failure
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

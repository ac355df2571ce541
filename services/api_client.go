package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/kendall-kelly/field-service-admin/config"
	"github.com/kendall-kelly/field-service-admin/models"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// maxErrorBody caps how much of an error response is read for its message
const maxErrorBody = 64 * 1024

// LoginResponse is the body returned by POST /auth/login
type LoginResponse struct {
	Token string `json:"token"`
	User  struct {
		ID       string `json:"_id"`
		FullName string `json:"fullName"`
		Email    string `json:"email"`
		Role     string `json:"role"`
	} `json:"user"`
}

// APIClient talks to the remote field service REST API.
// Every authenticated call takes the bearer token explicitly so a call keeps
// the token it started with for its whole lifetime.
type APIClient struct {
	baseURL    string
	filterMode string
	httpClient *http.Client
}

// NewAPIClient creates a new API client from configuration
func NewAPIClient(cfg *config.Config) *APIClient {
	return &APIClient{
		baseURL:    cfg.APIBaseURL,
		filterMode: cfg.TicketFilterMode,
		httpClient: &http.Client{
			Timeout:   cfg.APITimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// NewAPIClientWithHTTPClient creates a client around an existing http.Client (primarily for testing)
func NewAPIClientWithHTTPClient(baseURL string, httpClient *http.Client) *APIClient {
	return &APIClient{
		baseURL:    baseURL,
		filterMode: config.TicketFilterPath,
		httpClient: httpClient,
	}
}

// Login exchanges credentials for a bearer token
func (c *APIClient) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	body := map[string]string{"email": email, "password": password}
	var resp LoginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListEngineers lists engineer applications for a users status key (pending, approved)
func (c *APIClient) ListEngineers(ctx context.Context, token, statusKey string) ([]models.User, error) {
	var users []models.User
	path := "/admin/engineers/" + url.PathEscape(statusKey)
	if err := c.do(ctx, http.MethodGet, path, token, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateEngineerApplication approves or rejects an engineer application
func (c *APIClient) UpdateEngineerApplication(ctx context.Context, token, userID, action string) error {
	path := fmt.Sprintf("/admin/engineers/%s/%s", url.PathEscape(userID), url.PathEscape(action))
	return c.do(ctx, http.MethodPut, path, token, struct{}{}, nil)
}

// ListTickets lists tickets carrying the given status label (Open, In Progress, Closed)
func (c *APIClient) ListTickets(ctx context.Context, token, statusLabel string) ([]models.Ticket, error) {
	path := "/tickets/" + url.PathEscape(statusLabel)
	if c.filterMode == config.TicketFilterQuery {
		path = "/tickets?" + url.Values{"status": {statusLabel}}.Encode()
	}

	var tickets []models.Ticket
	if err := c.do(ctx, http.MethodGet, path, token, nil, &tickets); err != nil {
		return nil, err
	}
	return tickets, nil
}

// ListAllTickets lists every ticket regardless of status
func (c *APIClient) ListAllTickets(ctx context.Context, token string) ([]models.Ticket, error) {
	var tickets []models.Ticket
	if err := c.do(ctx, http.MethodGet, "/tickets", token, nil, &tickets); err != nil {
		return nil, err
	}
	return tickets, nil
}

// CreateTicket posts a validated ticket draft
func (c *APIClient) CreateTicket(ctx context.Context, token string, draft TicketDraft) error {
	return c.do(ctx, http.MethodPost, "/tickets", token, draft, nil)
}

// AssignEngineer assigns an approved engineer to a ticket
func (c *APIClient) AssignEngineer(ctx context.Context, token, ticketID, engineerID string) error {
	path := fmt.Sprintf("/tickets/%s/assign", url.PathEscape(ticketID))
	return c.do(ctx, http.MethodPut, path, token, map[string]string{"engineerId": engineerID}, nil)
}

// UpdateTicketStatus moves a ticket to the given status label
func (c *APIClient) UpdateTicketStatus(ctx context.Context, token, ticketID, statusLabel string) error {
	path := fmt.Sprintf("/tickets/%s/status", url.PathEscape(ticketID))
	return c.do(ctx, http.MethodPut, path, token, map[string]string{"status": statusLabel}, nil)
}

// InitiatePayment asks the remote API to start a UPI payment for a closed ticket
func (c *APIClient) InitiatePayment(ctx context.Context, token, ticketID string) (*models.PaymentIntent, error) {
	path := fmt.Sprintf("/tickets/%s/initiate-payment", url.PathEscape(ticketID))
	var intent models.PaymentIntent
	if err := c.do(ctx, http.MethodPost, path, token, struct{}{}, &intent); err != nil {
		return nil, err
	}
	intent.TicketID = ticketID
	return &intent, nil
}

// do performs a JSON request. An empty token sends no Authorization header.
func (c *APIClient) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s %s: %w", method, path, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Debug("failed to close response body", "error", closeErr)
		}
	}()

	slog.Debug("remote API call",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
		"request_id", requestID,
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return apiErr
	}

	var body struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &body) == nil {
		apiErr.Message = body.Message
	}
	return apiErr
}

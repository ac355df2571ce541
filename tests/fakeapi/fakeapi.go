// Package fakeapi is an in-memory stand-in for the field service REST API used in tests
package fakeapi

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/field-service-admin/models"
)

// Credentials accepted by the fake API
const (
	AdminEmail    = "admin@example.com"
	EngineerEmail = "engineer@example.com"
	Password      = "secret"
	Token         = "fake-admin-token"
)

// RecordedRequest is one call received by the fake API
type RecordedRequest struct {
	Method        string
	Path          string
	RawQuery      string
	Authorization string
	Body          []byte
}

type fakeFailure struct {
	status  int
	message string
}

// API records every call and serves a mutable engineer and ticket store
type API struct {
	Server *httptest.Server

	mu        sync.Mutex
	requests  []RecordedRequest
	engineers map[string][]models.User
	tickets   []models.Ticket
	failures  map[string]fakeFailure
	delays    map[string]time.Duration
	expired   bool
	nextID    int
}

// New starts a fake API server that is closed when the test ends
func New(t *testing.T) *API {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &API{
		engineers: map[string][]models.User{},
		failures:  map[string]fakeFailure{},
		delays:    map[string]time.Duration{},
		nextID:    1,
	}

	router := gin.New()
	router.Use(f.record)
	api := router.Group("/api")
	{
		api.POST("/auth/login", f.login)
		api.GET("/admin/engineers/:status", f.authorized, f.listEngineers)
		api.PUT("/admin/engineers/:id/:action", f.authorized, f.decideEngineer)
		api.GET("/tickets", f.authorized, f.listTickets)
		api.GET("/tickets/:status", f.authorized, f.listTicketsByPath)
		api.POST("/tickets", f.authorized, f.createTicket)
		api.PUT("/tickets/:id/assign", f.authorized, f.assignTicket)
		api.PUT("/tickets/:id/status", f.authorized, f.updateStatus)
		api.POST("/tickets/:id/initiate-payment", f.authorized, f.initiatePayment)
	}

	f.Server = httptest.NewServer(router)
	t.Cleanup(f.Server.Close)
	return f
}

// BaseURL is the API root to configure the console with
func (f *API) BaseURL() string {
	return f.Server.URL + "/api"
}

// SetEngineers replaces the users listed under a status key
func (f *API) SetEngineers(status string, users ...models.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.engineers[status] = users
}

// SetTickets replaces the ticket collection
func (f *API) SetTickets(tickets ...models.Ticket) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tickets = tickets
}

// Tickets returns a copy of the ticket collection
func (f *API) Tickets() []models.Ticket {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Ticket(nil), f.tickets...)
}

// SetPaymentStatus sets the payment status of a ticket
func (f *API) SetPaymentStatus(ticketID, status string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.tickets {
		if f.tickets[i].TicketID == ticketID {
			f.tickets[i].PaymentStatus = status
		}
	}
}

// FailOn makes method+path answer with status and a {"message"} body
func (f *API) FailOn(method, path string, status int, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[method+" "+path] = fakeFailure{status: status, message: message}
}

// DelayOn holds method+path for d before it is handled
func (f *API) DelayOn(method, path string, d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delays[method+" "+path] = d
}

// ExpireToken makes every authenticated call answer 401
func (f *API) ExpireToken() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expired = true
}

// Requests returns every recorded call
func (f *API) Requests() []RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RecordedRequest(nil), f.requests...)
}

// Count returns how many calls were made to method+path (path without query)
func (f *API) Count(method, path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.requests {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// WaitForCount polls until method+path was called at least n times
func (f *API) WaitForCount(t *testing.T, method, path string, n int, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if f.Count(method, path) >= n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected at least %d calls to %s %s, got %d", n, method, path, f.Count(method, path))
}

func (f *API) record(c *gin.Context) {
	body, _ := io.ReadAll(c.Request.Body)
	c.Request.Body = io.NopCloser(bytes.NewReader(body))

	f.mu.Lock()
	f.requests = append(f.requests, RecordedRequest{
		Method:        c.Request.Method,
		Path:          c.Request.URL.Path,
		RawQuery:      c.Request.URL.RawQuery,
		Authorization: c.GetHeader("Authorization"),
		Body:          body,
	})
	failure, failing := f.failures[c.Request.Method+" "+c.Request.URL.Path]
	delay := f.delays[c.Request.Method+" "+c.Request.URL.Path]
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	if failing {
		c.AbortWithStatusJSON(failure.status, gin.H{"message": failure.message})
		return
	}
	c.Next()
}

func (f *API) authorized(c *gin.Context) {
	f.mu.Lock()
	expired := f.expired
	f.mu.Unlock()

	if expired || c.GetHeader("Authorization") != "Bearer "+Token {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid or expired token"})
		return
	}
	c.Next()
}

func (f *API) login(c *gin.Context) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Password != Password {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
		return
	}

	role := "Engineer"
	if body.Email == AdminEmail {
		role = models.RoleAdmin
	}
	c.JSON(http.StatusOK, gin.H{
		"token": Token,
		"user": gin.H{
			"_id":      "u-" + strings.Split(body.Email, "@")[0],
			"fullName": "Test " + role,
			"email":    body.Email,
			"role":     role,
		},
	})
}

func (f *API) listEngineers(c *gin.Context) {
	f.mu.Lock()
	users := append([]models.User{}, f.engineers[c.Param("status")]...)
	f.mu.Unlock()
	c.JSON(http.StatusOK, users)
}

func (f *API) decideEngineer(c *gin.Context) {
	id, action := c.Param("id"), c.Param("action")
	target := map[string]string{"approve": models.UserStatusApproved, "reject": models.UserStatusRejected}[action]
	if target == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Unknown action"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	pending := f.engineers["pending"]
	for i, u := range pending {
		if u.ID == id {
			u.Status = target
			f.engineers["pending"] = append(append([]models.User{}, pending[:i]...), pending[i+1:]...)
			f.engineers[strings.ToLower(target)] = append(f.engineers[strings.ToLower(target)], u)
			c.JSON(http.StatusOK, u)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
}

func (f *API) listTickets(c *gin.Context) {
	f.filterTickets(c, c.Query("status"))
}

func (f *API) listTicketsByPath(c *gin.Context) {
	f.filterTickets(c, c.Param("status"))
}

func (f *API) filterTickets(c *gin.Context, status string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Ticket{}
	for _, t := range f.tickets {
		if status == "" || t.Status == status {
			out = append(out, t)
		}
	}
	c.JSON(http.StatusOK, out)
}

func (f *API) createTicket(c *gin.Context) {
	var ticket models.Ticket
	if err := c.ShouldBindJSON(&ticket); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid ticket"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	ticket.TicketID = fmt.Sprintf("T-%03d", f.nextID)
	f.nextID++
	ticket.Status = models.TicketStatusOpen
	ticket.PaymentStatus = models.PaymentStatusPending
	ticket.CreatedAt = time.Now().UTC()
	f.tickets = append(f.tickets, ticket)
	c.JSON(http.StatusCreated, ticket)
}

func (f *API) assignTicket(c *gin.Context) {
	var body struct {
		EngineerID string `json:"engineerId"`
	}
	_ = c.ShouldBindJSON(&body)

	f.updateTicket(c, func(t *models.Ticket) {
		t.AssignedEngineer = &models.AssignedEngineer{ID: body.EngineerID}
		t.Status = models.TicketStatusInProgress
	})
}

func (f *API) updateStatus(c *gin.Context) {
	var body struct {
		Status string `json:"status"`
	}
	_ = c.ShouldBindJSON(&body)

	f.updateTicket(c, func(t *models.Ticket) {
		t.Status = body.Status
		if body.Status == models.TicketStatusClosed {
			now := time.Now().UTC()
			t.ClosedAt = &now
		}
	})
}

func (f *API) initiatePayment(c *gin.Context) {
	intentID := "pi_" + c.Param("id")
	f.updateTicket(c, func(t *models.Ticket) {
		t.PaymentDetails = &models.PaymentDetails{PaymentIntentID: intentID}
	}, gin.H{
		"paymentIntentId": intentID,
		"upiUrl":          "upi://pay?pa=field@upi&tr=" + intentID,
	})
}

func (f *API) updateTicket(c *gin.Context, mutate func(*models.Ticket), response ...gin.H) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.tickets {
		if f.tickets[i].TicketID == c.Param("id") {
			mutate(&f.tickets[i])
			if len(response) > 0 {
				c.JSON(http.StatusOK, response[0])
			} else {
				c.JSON(http.StatusOK, f.tickets[i])
			}
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"message": "Ticket not found"})
}

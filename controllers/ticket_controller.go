package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/field-service-admin/models"
	"github.com/kendall-kelly/field-service-admin/services"
)

// Ticket row actions
const (
	TicketActionAssign          = "assign"
	TicketActionClose           = "close"
	TicketActionInitiatePayment = "initiate-payment"
	TicketActionDetails         = "details"
)

// TicketRow is one row of the tickets panel
type TicketRow struct {
	Ticket  models.Ticket `json:"ticket"`
	Actions []string      `json:"actions"`
}

// AssignEngineerRequest represents the request body for assigning an engineer
type AssignEngineerRequest struct {
	EngineerID string `json:"engineerId"`
}

// ChangeStatusRequest represents the request body for changing a ticket's status
type ChangeStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func ticketActions(t models.Ticket) []string {
	actions := make([]string, 0, 4)
	if t.CanAssign() {
		actions = append(actions, TicketActionAssign)
	}
	if t.CanClose() {
		actions = append(actions, TicketActionClose)
	}
	if t.CanInitiatePayment() {
		actions = append(actions, TicketActionInitiatePayment)
	}
	return append(actions, TicketActionDetails)
}

func ticketView(state services.FetchState[models.Ticket]) CollectionView[TicketRow] {
	rows := make([]TicketRow, 0, len(state.Data))
	for _, t := range state.Data {
		rows = append(rows, TicketRow{Ticket: t, Actions: ticketActions(t)})
	}
	return CollectionView[TicketRow]{
		Status:  state.StatusKey,
		Loading: state.Loading,
		Error:   state.Error,
		Rows:    rows,
	}
}

// RedirectTickets handles GET /admin/tickets
func (cc *ConsoleController) RedirectTickets(c *gin.Context) {
	c.Redirect(http.StatusFound, services.PanelTickets.Path(services.PanelTickets.DefaultStatus()))
}

// ListTickets handles GET /admin/tickets/:status
func (cc *ConsoleController) ListTickets(c *gin.Context) {
	state, ok := cc.selectTickets(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    ticketView(state),
	})
}

// GetTicket handles GET /admin/tickets/:status/:id
func (cc *ConsoleController) GetTicket(c *gin.Context) {
	state, ok := cc.selectTickets(c)
	if !ok {
		return
	}

	id := c.Param("id")
	for _, t := range state.Data {
		if t.TicketID == id {
			c.JSON(http.StatusOK, gin.H{
				"success": true,
				"data":    TicketRow{Ticket: t, Actions: ticketActions(t)},
			})
			return
		}
	}

	respondError(c, http.StatusNotFound, "TICKET_NOT_FOUND", "Ticket not found")
}

// CreateTicket handles POST /admin/tickets
func (cc *ConsoleController) CreateTicket(c *gin.Context) {
	var form services.TicketForm
	if err := c.ShouldBindJSON(&form); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid ticket form")
		return
	}

	result, err := cc.console.Actions.CreateTicket(c.Request.Context(), form)
	if err != nil {
		respondActionError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    result,
	})
}

// GetTicketExpertise handles GET /admin/ticket-expertise
func (cc *ConsoleController) GetTicketExpertise(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    cc.console.Validator.Expertise(),
	})
}

// ListAssignableEngineers handles GET /admin/assignable-engineers
func (cc *ConsoleController) ListAssignableEngineers(c *gin.Context) {
	state, err := cc.console.Actions.AssignableEngineers(c.Request.Context())
	if !handleFetchError(c, state.Error, err) {
		return
	}

	engineers := state.Data
	if engineers == nil {
		engineers = []models.User{}
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"loading":   state.Loading,
			"error":     state.Error,
			"engineers": engineers,
		},
	})
}

// AssignEngineer handles PUT /admin/tickets/:id/assign
func (cc *ConsoleController) AssignEngineer(c *gin.Context) {
	var req AssignEngineerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	result, err := cc.console.Actions.AssignEngineer(c.Request.Context(), c.Param("id"), req.EngineerID)
	if err != nil {
		respondActionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

// ChangeTicketStatus handles POST /admin/tickets/:id/status.
// It opens the confirmation prompt; POST /confirm applies the change.
func (cc *ConsoleController) ChangeTicketStatus(c *gin.Context) {
	var req ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Status is required")
		return
	}

	if err := cc.console.Actions.RequestStatusChange(c.Param("id"), req.Status); err != nil {
		respondActionError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"data":    cc.console.Gate.Prompt(),
	})
}

// InitiatePayment handles POST /admin/tickets/:id/payment.
// It opens the confirmation prompt; POST /confirm creates the payment intent.
func (cc *ConsoleController) InitiatePayment(c *gin.Context) {
	if err := cc.console.Actions.RequestPayment(c.Param("id")); err != nil {
		respondActionError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"data":    cc.console.Gate.Prompt(),
	})
}

// ExportTickets handles POST /admin/exports/tickets/:status
func (cc *ConsoleController) ExportTickets(c *gin.Context) {
	if cc.exporter == nil {
		respondError(c, http.StatusServiceUnavailable, "EXPORT_DISABLED", "Ticket exports are not configured")
		return
	}

	key := c.Param("status")
	if !services.PanelTickets.IsValidStatus(key) {
		respondError(c, http.StatusBadRequest, "INVALID_STATUS", "Unknown ticket status: "+key)
		return
	}

	result, err := cc.exporter.Export(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, services.ErrSessionExpired) || errors.Is(err, services.ErrNotAuthenticated) {
			respondSessionExpired(c)
			return
		}
		slog.Error("ticket export failed", "status", key, "error", err)
		respondError(c, http.StatusBadGateway, "EXPORT_FAILED", "Failed to export tickets")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    result,
	})
}

func (cc *ConsoleController) selectTickets(c *gin.Context) (services.FetchState[models.Ticket], bool) {
	key, redirect := services.PanelTickets.ResolveStatus(c.Param("status"))
	if redirect {
		c.Redirect(http.StatusFound, services.PanelTickets.Path(key))
		return services.FetchState[models.Ticket]{}, false
	}

	var state services.FetchState[models.Ticket]
	var err error
	if c.Query("refresh") == "true" {
		state, err = cc.console.Tickets.Reload(c.Request.Context(), key)
	} else {
		state, err = cc.console.Tickets.Select(c.Request.Context(), key)
	}
	return state, handleFetchError(c, state.Error, err)
}

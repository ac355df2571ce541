package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/kendall-kelly/field-service-admin/models"
)

// Engineer application decisions
const (
	EngineerActionApprove = "approve"
	EngineerActionReject  = "reject"
)

var engineerActionPastTense = map[string]string{
	EngineerActionApprove: "approved",
	EngineerActionReject:  "rejected",
}

// ActionResult is what a successful action reports back to the front end
type ActionResult struct {
	Message  string                `json:"message"`
	Redirect string                `json:"redirect,omitempty"`
	Payment  *models.PaymentIntent `json:"payment,omitempty"`
}

// ActionError is a failed mutation, carrying the message shown to the admin
type ActionError struct {
	Message string
	Err     error
}

func (e *ActionError) Error() string {
	return e.Message
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

// Dispatcher issues authenticated mutations and refreshes the collection the
// result now belongs to. Approve/reject, status changes and payments are only
// reachable through the confirmation gate.
//
// Once issued, a mutation and its reload ignore the caller's cancellation;
// only the API client's transport timeout bounds them.
type Dispatcher struct {
	api       *APIClient
	session   *SessionStore
	users     *Fetcher[models.User]
	engineers *Fetcher[models.User]
	tickets   *Fetcher[models.Ticket]
	gate      *ConfirmGate
	watcher   *PaymentWatcher
	notices   *NoticeQueue
	validator *TicketDraftValidator

	mu       sync.Mutex
	inFlight map[string]bool
}

// RequestEngineerDecision opens the confirmation gate for approving or rejecting an application
func (d *Dispatcher) RequestEngineerDecision(userID, action string) error {
	if _, ok := engineerActionPastTense[action]; !ok {
		return &ValidationError{Field: "action", Message: fmt.Sprintf("Unknown action: %s", action)}
	}
	if strings.TrimSpace(userID) == "" {
		return &ValidationError{Field: "id", Message: "User id is required"}
	}

	d.gate.Open(
		"Confirm "+action,
		fmt.Sprintf("Are you sure you want to %s this application? This action cannot be undone.", action),
		func(ctx context.Context) (ActionResult, error) {
			return d.decideEngineer(ctx, userID, action)
		},
	)
	return nil
}

func (d *Dispatcher) decideEngineer(ctx context.Context, userID, action string) (ActionResult, error) {
	ctx = context.WithoutCancel(ctx)
	release, err := d.begin("engineer:" + userID)
	if err != nil {
		return ActionResult{}, err
	}
	defer release()

	token, err := d.token()
	if err != nil {
		return ActionResult{}, err
	}
	if err := d.api.UpdateEngineerApplication(ctx, token, userID, action); err != nil {
		return ActionResult{}, d.fail(ctx, err, "Action failed.", "engineer decision failed", "user_id", userID, "action", action)
	}

	result := d.succeed(fmt.Sprintf("User successfully %s.", engineerActionPastTense[action]), PanelUsers.Path(UserStatusKeyPending))
	slog.Info("engineer application decided", "user_id", userID, "action", action)
	d.reloadUsers(ctx, UserStatusKeyPending)
	return result, nil
}

// CreateTicket validates the form locally and posts it. Validation failures
// return a *ValidationError and never reach the network.
func (d *Dispatcher) CreateTicket(ctx context.Context, form TicketForm) (ActionResult, error) {
	draft, err := d.validator.Validate(form)
	if err != nil {
		return ActionResult{}, err
	}
	ctx = context.WithoutCancel(ctx)

	token, err := d.token()
	if err != nil {
		return ActionResult{}, err
	}
	if err := d.api.CreateTicket(ctx, token, draft); err != nil {
		return ActionResult{}, d.fail(ctx, err, "Ticket creation failed.", "ticket creation failed", "company", draft.CompanyName)
	}

	result := d.succeed("Ticket created successfully.", PanelTickets.Path(TicketStatusKeyOpen))
	slog.Info("ticket created", "company", draft.CompanyName, "amount", draft.Amount)
	d.reloadTickets(ctx, TicketStatusKeyOpen)
	return result, nil
}

// AssignableEngineers loads the approved engineers an admin can pick from
func (d *Dispatcher) AssignableEngineers(ctx context.Context) (FetchState[models.User], error) {
	return d.engineers.Reload(ctx, UserStatusKeyApproved)
}

// AssignEngineer assigns an approved engineer to a ticket. An empty selection is refused locally.
func (d *Dispatcher) AssignEngineer(ctx context.Context, ticketID, engineerID string) (ActionResult, error) {
	engineerID = strings.TrimSpace(engineerID)
	if engineerID == "" {
		return ActionResult{}, &ValidationError{Field: "engineerId", Message: "Please select an engineer."}
	}
	if !d.isAssignable(ctx, engineerID) {
		return ActionResult{}, &ValidationError{Field: "engineerId", Message: "Please select an approved engineer."}
	}

	release, err := d.begin("ticket:" + ticketID)
	if err != nil {
		return ActionResult{}, err
	}
	defer release()
	ctx = context.WithoutCancel(ctx)

	token, err := d.token()
	if err != nil {
		return ActionResult{}, err
	}
	if err := d.api.AssignEngineer(ctx, token, ticketID, engineerID); err != nil {
		return ActionResult{}, d.fail(ctx, err, "Assignment failed.", "engineer assignment failed", "ticket_id", ticketID, "engineer_id", engineerID)
	}

	result := d.succeed("Engineer assigned successfully.", PanelTickets.Path(TicketStatusKeyInProgress))
	slog.Info("engineer assigned", "ticket_id", ticketID, "engineer_id", engineerID)
	d.reloadTickets(ctx, TicketStatusKeyInProgress)
	return result, nil
}

// RequestStatusChange opens the confirmation gate for moving a ticket to a new status.
// status may be a display label (In Progress) or a status key (in-progress).
func (d *Dispatcher) RequestStatusChange(ticketID, status string) error {
	label, ok := TicketStatusLabel(StatusKeyForLabel(status))
	if !ok {
		return &ValidationError{Field: "status", Message: fmt.Sprintf("Unknown ticket status: %s", status)}
	}

	d.gate.Open(
		fmt.Sprintf("Confirm %s Ticket", label),
		fmt.Sprintf("Are you sure you want to set this ticket to %s?", label),
		func(ctx context.Context) (ActionResult, error) {
			return d.changeTicketStatus(ctx, ticketID, label)
		},
	)
	return nil
}

func (d *Dispatcher) changeTicketStatus(ctx context.Context, ticketID, label string) (ActionResult, error) {
	ctx = context.WithoutCancel(ctx)
	release, err := d.begin("ticket:" + ticketID)
	if err != nil {
		return ActionResult{}, err
	}
	defer release()

	token, err := d.token()
	if err != nil {
		return ActionResult{}, err
	}
	if err := d.api.UpdateTicketStatus(ctx, token, ticketID, label); err != nil {
		return ActionResult{}, d.fail(ctx, err, "Status update failed.", "ticket status update failed", "ticket_id", ticketID, "status", label)
	}

	key := StatusKeyForLabel(label)
	result := d.succeed("Ticket status updated.", PanelTickets.Path(key))
	slog.Info("ticket status updated", "ticket_id", ticketID, "status", label)
	d.reloadTickets(ctx, key)
	return result, nil
}

// RequestPayment opens the confirmation gate for initiating a UPI payment
func (d *Dispatcher) RequestPayment(ticketID string) error {
	if strings.TrimSpace(ticketID) == "" {
		return &ValidationError{Field: "id", Message: "Ticket id is required"}
	}

	d.gate.Open(
		"Initiate Payment",
		"Are you sure you want to initiate payment for this ticket?",
		func(ctx context.Context) (ActionResult, error) {
			return d.initiatePayment(ctx, ticketID)
		},
	)
	return nil
}

func (d *Dispatcher) initiatePayment(ctx context.Context, ticketID string) (ActionResult, error) {
	ctx = context.WithoutCancel(ctx)
	release, err := d.begin("ticket:" + ticketID)
	if err != nil {
		return ActionResult{}, err
	}
	defer release()

	token, err := d.token()
	if err != nil {
		return ActionResult{}, err
	}
	intent, err := d.api.InitiatePayment(ctx, token, ticketID)
	if err != nil {
		return ActionResult{}, d.fail(ctx, err, "Payment initiation failed.", "payment initiation failed", "ticket_id", ticketID)
	}

	if err := d.watcher.Start(*intent); err != nil {
		return ActionResult{}, d.fail(ctx, err, "Payment initiation failed.", "payment initiation returned no intent id", "ticket_id", ticketID)
	}
	d.notices.Push(NoticeInfo, "Payment initiated. Use a UPI app to complete the payment.")
	return ActionResult{
		Message: "Payment initiated. Use a UPI app to complete the payment.",
		Payment: intent,
	}, nil
}

// begin marks key as in flight; a second action on the same entity is refused until release
func (d *Dispatcher) begin(key string) (func(), error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.inFlight[key] {
		return nil, ErrActionInFlight
	}
	d.inFlight[key] = true
	return func() {
		d.mu.Lock()
		delete(d.inFlight, key)
		d.mu.Unlock()
	}, nil
}

func (d *Dispatcher) token() (string, error) {
	token := d.session.Token()
	if token == "" {
		return "", ErrNotAuthenticated
	}
	return token, nil
}

func (d *Dispatcher) succeed(message, redirect string) ActionResult {
	d.notices.Push(NoticeSuccess, message)
	return ActionResult{Message: message, Redirect: redirect}
}

// fail reports a failed mutation. A rejected token ends the session.
func (d *Dispatcher) fail(ctx context.Context, err error, fallback, logMsg string, attrs ...any) error {
	message := ServerMessage(err, fallback)
	d.notices.Push(NoticeError, "Error: "+message)

	if IsUnauthorized(err) {
		d.session.Expire(ctx)
		return &ActionError{Message: message, Err: ErrSessionExpired}
	}

	slog.Warn(logMsg, append(attrs, "error", err)...)
	return &ActionError{Message: message, Err: err}
}

func (d *Dispatcher) reloadUsers(ctx context.Context, key string) {
	if _, err := d.users.Reload(ctx, key); err != nil && !errors.Is(err, ErrClosed) {
		slog.Debug("reload after action failed", "panel", PanelUsers, "status", key, "error", err)
	}
}

func (d *Dispatcher) reloadTickets(ctx context.Context, key string) {
	if _, err := d.tickets.Reload(ctx, key); err != nil && !errors.Is(err, ErrClosed) {
		slog.Debug("reload after action failed", "panel", PanelTickets, "status", key, "error", err)
	}
}

// isAssignable checks engineerID against the loaded approved list. An id
// missing from it triggers one reload before it is refused; when nothing is
// loaded or the reload fails the remote API decides.
func (d *Dispatcher) isAssignable(ctx context.Context, engineerID string) bool {
	state := d.engineers.State()
	if !state.Loaded || containsEngineer(state.Data, engineerID) {
		return true
	}

	state, err := d.engineers.Reload(ctx, UserStatusKeyApproved)
	if err != nil {
		slog.Debug("approved engineers reload failed", "engineer_id", engineerID, "error", err)
		return true
	}
	return containsEngineer(state.Data, engineerID)
}

func containsEngineer(engineers []models.User, id string) bool {
	for _, e := range engineers {
		if e.ID == id {
			return true
		}
	}
	return false
}

package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/kendall-kelly/field-service-admin/models"
)

// resolvedReloadTimeout bounds the closed-list reload after a payment settles
const resolvedReloadTimeout = 30 * time.Second

// ConsoleOptions tunes a Console
type ConsoleOptions struct {
	PaymentPollInterval time.Duration
	TicketExpertise     []string
}

// Console ties one admin session to its fetchers, actions, confirmation gate
// and payment watcher.
type Console struct {
	Session   *SessionStore
	API       *APIClient
	Users     *Fetcher[models.User]
	Engineers *Fetcher[models.User]
	Tickets   *Fetcher[models.Ticket]
	Gate      *ConfirmGate
	Watcher   *PaymentWatcher
	Notices   *NoticeQueue
	Validator *TicketDraftValidator
	Actions   *Dispatcher
}

// NewConsole wires a console around an API client and a session store
func NewConsole(api *APIClient, session *SessionStore, opts ConsoleOptions) *Console {
	c := &Console{
		Session:   session,
		API:       api,
		Gate:      NewConfirmGate(),
		Notices:   NewNoticeQueue(),
		Validator: NewTicketDraftValidator(opts.TicketExpertise),
	}

	listUsers := func(ctx context.Context, token, key string) ([]models.User, error) {
		return api.ListEngineers(ctx, token, key)
	}
	c.Users = NewFetcher("users", PanelUsers, session, listUsers, "Could not fetch users.")
	c.Engineers = NewFetcher("engineers", PanelUsers, session, listUsers, "Could not fetch engineers.")
	c.Tickets = NewFetcher("tickets", PanelTickets, session, func(ctx context.Context, token, key string) ([]models.Ticket, error) {
		label, _ := TicketStatusLabel(key)
		return api.ListTickets(ctx, token, label)
	}, "Could not fetch tickets.")

	c.Watcher = NewPaymentWatcher(c.allTickets, opts.PaymentPollInterval, c.paymentResolved)

	c.Actions = &Dispatcher{
		api:       api,
		session:   session,
		users:     c.Users,
		engineers: c.Engineers,
		tickets:   c.Tickets,
		gate:      c.Gate,
		watcher:   c.Watcher,
		notices:   c.Notices,
		validator: c.Validator,
		inFlight:  make(map[string]bool),
	}

	session.OnTeardown(c.reset)
	return c
}

// Login signs the admin in through the remote API
func (c *Console) Login(ctx context.Context, email, password string) error {
	return c.Session.Login(ctx, c.API, email, password)
}

// Logout ends the session and discards every held collection
func (c *Console) Logout(ctx context.Context) error {
	return c.Session.Logout(ctx)
}

// Close stops the payment watcher and disposes of the fetchers
func (c *Console) Close() {
	c.Watcher.Close()
	c.Users.Close()
	c.Engineers.Close()
	c.Tickets.Close()
}

// reset runs on session teardown
func (c *Console) reset() {
	_ = c.Watcher.Cancel()
	c.Gate.Cancel()
	c.Users.Reset()
	c.Engineers.Reset()
	c.Tickets.Reset()
}

// allTickets feeds the payment watcher with the unfiltered ticket collection
func (c *Console) allTickets(ctx context.Context) ([]models.Ticket, error) {
	token := c.Session.Token()
	if token == "" {
		return nil, ErrNotAuthenticated
	}
	tickets, err := c.API.ListAllTickets(ctx, token)
	if IsUnauthorized(err) {
		c.Session.Expire(ctx)
	}
	return tickets, err
}

func (c *Console) paymentResolved(intent models.PaymentIntent, paymentStatus string) {
	if paymentStatus == models.PaymentStatusPaid {
		c.Notices.Push(NoticeSuccess, "Payment succeeded!")
	} else {
		c.Notices.Push(NoticeError, "Payment failed.")
	}

	ctx, cancel := context.WithTimeout(context.Background(), resolvedReloadTimeout)
	defer cancel()
	if _, err := c.Tickets.Reload(ctx, TicketStatusKeyClosed); err != nil {
		slog.Warn("failed to reload closed tickets after payment", "payment_intent_id", intent.PaymentIntentID, "error", err)
	}
}

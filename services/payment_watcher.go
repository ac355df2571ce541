package services

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/kendall-kelly/field-service-admin/models"
)

// Watcher states
const (
	WatcherIdle               = "idle"
	WatcherAwaitingResolution = "awaiting_resolution"
)

// DefaultPaymentPollInterval is how often an in-flight payment is checked
const DefaultPaymentPollInterval = 5 * time.Second

// TicketSource returns the full, unfiltered ticket collection
type TicketSource func(ctx context.Context) ([]models.Ticket, error)

// PaymentResolvedFunc is called once when a watched payment settles as Paid or Failed
type PaymentResolvedFunc func(intent models.PaymentIntent, paymentStatus string)

// PaymentWatcherStatus is what the QR view renders
type PaymentWatcherStatus struct {
	State  string                `json:"state"`
	Intent *models.PaymentIntent `json:"intent,omitempty"`
}

// PaymentWatcher polls the ticket collection while a payment intent is active.
// At most one intent is watched at a time; starting a new one replaces the old.
type PaymentWatcher struct {
	source     TicketSource
	interval   time.Duration
	onResolved PaymentResolvedFunc

	mu         sync.Mutex
	intent     *models.PaymentIntent
	cancel     context.CancelFunc
	generation uint64
	wg         sync.WaitGroup
}

// NewPaymentWatcher creates an idle watcher
func NewPaymentWatcher(source TicketSource, interval time.Duration, onResolved PaymentResolvedFunc) *PaymentWatcher {
	if interval <= 0 {
		interval = DefaultPaymentPollInterval
	}
	return &PaymentWatcher{source: source, interval: interval, onResolved: onResolved}
}

// Start stores intent as the active payment and begins polling.
// An intent without an id is refused and leaves the current one in place.
func (w *PaymentWatcher) Start(intent models.PaymentIntent) error {
	if strings.TrimSpace(intent.PaymentIntentID) == "" {
		return ErrMissingPaymentIntentID
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.stopLocked()
	ctx, cancel := context.WithCancel(context.Background())
	w.intent = &intent
	w.cancel = cancel
	generation := w.generation

	slog.Info("watching payment", "payment_intent_id", intent.PaymentIntentID, "ticket_id", intent.TicketID, "interval", w.interval)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				slog.Error("payment watcher panicked",
					"panic", fmt.Sprintf("%v", r),
					"stack", string(debug.Stack()),
				)
			}
		}()
		w.run(ctx, generation, intent)
	}()
	return nil
}

// Cancel clears the active intent without classifying the outcome.
// No poll starts after Cancel returns.
func (w *PaymentWatcher) Cancel() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.intent == nil {
		return ErrNoActivePayment
	}
	slog.Info("payment watch cancelled", "payment_intent_id", w.intent.PaymentIntentID)
	w.stopLocked()
	return nil
}

// Status returns the watcher state and the active intent, if any
func (w *PaymentWatcher) Status() PaymentWatcherStatus {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.intent == nil {
		return PaymentWatcherStatus{State: WatcherIdle}
	}
	intent := *w.intent
	return PaymentWatcherStatus{State: WatcherAwaitingResolution, Intent: &intent}
}

// Close stops any polling and waits for the polling goroutine to exit
func (w *PaymentWatcher) Close() {
	w.mu.Lock()
	w.stopLocked()
	w.mu.Unlock()
	w.wg.Wait()
}

// stopLocked cancels the running loop and clears the intent; callers hold w.mu
func (w *PaymentWatcher) stopLocked() {
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	w.intent = nil
	w.generation++
}

func (w *PaymentWatcher) run(ctx context.Context, generation uint64, intent models.PaymentIntent) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		// select picks randomly when both are ready
		if ctx.Err() != nil {
			return
		}
		if w.poll(ctx, generation, intent) {
			return
		}
	}
}

// poll checks the ticket collection once and reports whether the watch ended
func (w *PaymentWatcher) poll(ctx context.Context, generation uint64, intent models.PaymentIntent) bool {
	tickets, err := w.source(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return true
		}
		slog.Warn("payment status poll failed", "payment_intent_id", intent.PaymentIntentID, "error", err)
		return false
	}

	status := ""
	for _, t := range tickets {
		if t.PaymentIntentID() == intent.PaymentIntentID {
			status = t.PaymentStatus
			break
		}
	}
	if status != models.PaymentStatusPaid && status != models.PaymentStatusFailed {
		return false
	}

	w.mu.Lock()
	if w.generation != generation {
		// Cancelled or replaced while the poll was in flight
		w.mu.Unlock()
		return true
	}
	w.stopLocked()
	w.mu.Unlock()

	slog.Info("payment resolved", "payment_intent_id", intent.PaymentIntentID, "payment_status", status)
	if w.onResolved != nil {
		w.onResolved(intent, status)
	}
	return true
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrUnknownStatus is returned when a fetcher is asked for a status key outside its panel
var ErrUnknownStatus = errors.New("unknown status key")

// LoadFunc issues one authenticated read for a status key
type LoadFunc[T any] func(ctx context.Context, token, statusKey string) ([]T, error)

// FetchState is a snapshot of a fetcher's collection
type FetchState[T any] struct {
	StatusKey string `json:"status"`
	Data      []T    `json:"data"`
	Loading   bool   `json:"loading"`
	Error     string `json:"error,omitempty"`
	Loaded    bool   `json:"loaded"`
}

// Fetcher loads one status-scoped collection and exposes its loading/error/data state.
//
// Every request is tagged with a sequence number; a response that is not the
// latest issued for this fetcher is discarded, so rapid status switches
// cannot leave stale rows behind.
type Fetcher[T any] struct {
	name     string
	panel    Panel
	session  *SessionStore
	load     LoadFunc[T]
	fallback string

	mu     sync.Mutex
	state  FetchState[T]
	seq    uint64
	closed bool
}

// NewFetcher creates a fetcher for a panel. fallback is shown when a failed
// load carries no server message.
func NewFetcher[T any](name string, panel Panel, session *SessionStore, load LoadFunc[T], fallback string) *Fetcher[T] {
	return &Fetcher[T]{
		name:     name,
		panel:    panel,
		session:  session,
		load:     load,
		fallback: fallback,
	}
}

// State returns a snapshot of the current collection
func (f *Fetcher[T]) State() FetchState[T] {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshot()
}

// Select makes key the active status. It fetches only when the key differs
// from the active one or nothing has been requested yet.
func (f *Fetcher[T]) Select(ctx context.Context, key string) (FetchState[T], error) {
	if !f.panel.IsValidStatus(key) {
		return f.State(), fmt.Errorf("%w: %q", ErrUnknownStatus, key)
	}

	f.mu.Lock()
	if f.state.StatusKey == key && (f.state.Loaded || f.state.Loading) {
		state := f.snapshot()
		f.mu.Unlock()
		return state, nil
	}
	f.mu.Unlock()

	return f.Reload(ctx, key)
}

// Reload always issues a read for key and applies it if it is still the latest request
func (f *Fetcher[T]) Reload(ctx context.Context, key string) (FetchState[T], error) {
	if !f.panel.IsValidStatus(key) {
		return f.State(), fmt.Errorf("%w: %q", ErrUnknownStatus, key)
	}

	token := f.session.Token()
	if token == "" {
		return f.State(), ErrNotAuthenticated
	}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return FetchState[T]{}, ErrClosed
	}
	f.seq++
	seq := f.seq
	if f.state.StatusKey != key {
		// rows from another status never survive a switch
		f.state = FetchState[T]{}
	}
	f.state.StatusKey = key
	f.state.Loading = true
	f.mu.Unlock()

	data, err := f.load(ctx, token, key)

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return FetchState[T]{}, ErrClosed
	}
	if seq != f.seq {
		// A newer request owns the state now
		state := f.snapshot()
		f.mu.Unlock()
		slog.Debug("discarded stale response", "fetcher", f.name, "status", key)
		return state, nil
	}

	f.state.Loading = false
	if err != nil {
		f.state.Error = ServerMessage(err, f.fallback)
		f.state.Loaded = false
		state := f.snapshot()
		f.mu.Unlock()

		if IsUnauthorized(err) {
			f.session.Expire(ctx)
			return state, ErrSessionExpired
		}
		slog.Warn("failed to load collection", "fetcher", f.name, "status", key, "error", err)
		return state, err
	}

	if data == nil {
		data = []T{}
	}
	f.state.Data = data
	f.state.Error = ""
	f.state.Loaded = true
	state := f.snapshot()
	f.mu.Unlock()
	return state, nil
}

// Reset forgets the held collection and abandons any in-flight request
func (f *Fetcher[T]) Reset() {
	f.mu.Lock()
	f.seq++
	f.state = FetchState[T]{}
	f.mu.Unlock()
}

// Close disposes of the fetcher; completions arriving afterwards are dropped
func (f *Fetcher[T]) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}

// snapshot copies the state; callers hold f.mu
func (f *Fetcher[T]) snapshot() FetchState[T] {
	state := f.state
	if f.state.Data != nil {
		state.Data = append([]T(nil), f.state.Data...)
	}
	return state
}

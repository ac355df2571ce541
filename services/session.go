package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/kendall-kelly/field-service-admin/models"
)

// Authenticator exchanges admin credentials for a bearer token
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*LoginResponse, error)
}

// SessionStore holds the admin bearer token and mirrors it to durable storage.
// It is created once at startup and handed to every component that needs it.
type SessionStore struct {
	storage SessionStorage

	mu         sync.RWMutex
	token      string
	onTeardown []func()
}

// NewSessionStore creates a session store over a storage adapter
func NewSessionStore(storage SessionStorage) *SessionStore {
	return &SessionStore{storage: storage}
}

// Restore reads a previously stored token, if any
func (s *SessionStore) Restore(ctx context.Context) error {
	token, err := s.storage.Load(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	if token != "" {
		slog.Info("restored admin session from storage")
	}
	return nil
}

// Token returns the current bearer token, or "" when logged out
func (s *SessionStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// IsAuthenticated reports whether a token is held
func (s *SessionStore) IsAuthenticated() bool {
	return s.Token() != ""
}

// OnTeardown registers fn to run whenever the session ends (logout or rejected token)
func (s *SessionStore) OnTeardown(fn func()) {
	s.mu.Lock()
	s.onTeardown = append(s.onTeardown, fn)
	s.mu.Unlock()
}

// Login authenticates against the remote API and stores the token.
// Accounts whose role is not Admin are refused and nothing is stored.
func (s *SessionStore) Login(ctx context.Context, auth Authenticator, email, password string) error {
	resp, err := auth.Login(ctx, email, password)
	if err != nil {
		return err
	}
	if resp.User.Role != models.RoleAdmin {
		slog.Warn("refused console login for non-admin account", "email", email, "role", resp.User.Role)
		return ErrAccessDenied
	}
	if resp.Token == "" {
		return errors.New("login response carried no token")
	}

	if err := s.storage.Save(ctx, resp.Token); err != nil {
		return fmt.Errorf("login succeeded but the session could not be stored: %w", err)
	}

	s.mu.Lock()
	s.token = resp.Token
	s.mu.Unlock()

	slog.Info("admin logged in", "email", email)
	return nil
}

// Logout clears the token from memory and storage
func (s *SessionStore) Logout(ctx context.Context) error {
	s.clear()
	if err := s.storage.Clear(ctx); err != nil {
		return err
	}
	slog.Info("admin logged out")
	return nil
}

// Expire tears the session down after the remote API rejected the token
func (s *SessionStore) Expire(ctx context.Context) {
	if !s.IsAuthenticated() {
		return
	}
	s.clear()
	// Teardown hooks may cancel the caller's context (the payment watcher's poll does)
	if err := s.storage.Clear(context.WithoutCancel(ctx)); err != nil {
		slog.Error("failed to clear expired session from storage", "error", err)
	}
	slog.Warn("admin session rejected by remote API, logged out")
}

func (s *SessionStore) clear() {
	s.mu.Lock()
	s.token = ""
	hooks := append([]func(){}, s.onTeardown...)
	s.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
}

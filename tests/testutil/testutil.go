package testutil

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/kendall-kelly/field-service-admin/config"
	"github.com/kendall-kelly/field-service-admin/services"
	"github.com/kendall-kelly/field-service-admin/tests/fakeapi"
)

// RequireTestEnvironment fails the test unless GO_ENV=test, so a stray run
// never logs in against a real API or clears a real stored session.
func RequireTestEnvironment(t *testing.T) {
	t.Helper()

	if env := os.Getenv("GO_ENV"); env != "test" {
		t.Fatalf("SAFETY CHECK FAILED: tests must run with GO_ENV=test, current GO_ENV=%q", env)
	}
}

// SetConsoleEnv isolates config.Load from the developer's environment:
// memory sessions, no operator gate, no report bucket and no trace exporter.
// overrides are applied last. Values are restored when the test ends.
func SetConsoleEnv(t *testing.T, overrides map[string]string) {
	t.Helper()

	env := map[string]string{
		"GO_ENV":                      "test",
		"SESSION_BACKEND":             config.SessionBackendMemory,
		"AUTH0_DOMAIN":                "",
		"AUTH0_AUDIENCE":              "",
		"AWS_S3_BUCKET":               "",
		"OTEL_EXPORTER_OTLP_ENDPOINT": "",
		"LOG_LEVEL":                   "error",
	}
	for k, v := range overrides {
		env[k] = v
	}
	for k, v := range env {
		t.Setenv(k, v)
	}
}

// NewConsole builds a console over api with an in-memory session.
// It is closed when the test ends.
func NewConsole(t *testing.T, api *fakeapi.API, opts services.ConsoleOptions) *services.Console {
	t.Helper()

	client := services.NewAPIClientWithHTTPClient(api.BaseURL(), &http.Client{Timeout: 5 * time.Second})
	console := services.NewConsole(client, services.NewSessionStore(services.NewMemorySessionStorage()), opts)
	t.Cleanup(console.Close)
	return console
}

// LoginAdmin signs the fake API's admin account in
func LoginAdmin(t *testing.T, console *services.Console) {
	t.Helper()

	if err := console.Login(context.Background(), fakeapi.AdminEmail, fakeapi.Password); err != nil {
		t.Fatalf("admin login failed: %v", err)
	}
}

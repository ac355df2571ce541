package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/kendall-kelly/field-service-admin/config"
	"github.com/kendall-kelly/field-service-admin/controllers"
	"github.com/kendall-kelly/field-service-admin/middleware"
	"github.com/kendall-kelly/field-service-admin/services"
)

const serviceName = "field-service-admin"

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the console HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(commandContext(cmd))
		},
	}
}

func newLoginCommand() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in as an admin and store the session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			cfg, closeStorage, session, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer closeStorage()

			if err := session.Login(ctx, services.NewAPIClient(cfg), email, password); err != nil {
				return fmt.Errorf("login failed: %s", services.ServerMessage(err, "Login failed."))
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged in. Session stored.")
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Admin email")
	cmd.Flags().StringVar(&password, "password", "", "Admin password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			_, closeStorage, session, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer closeStorage()

			if err := session.Logout(ctx); err != nil {
				return fmt.Errorf("logout failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, closeStorage, session, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer closeStorage()

	shutdownTelemetry := config.SetupTelemetry(ctx, cfg, serviceName)
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			slog.Error("failed to shut down telemetry", "error", err)
		}
	}()

	console := services.NewConsole(services.NewAPIClient(cfg), session, services.ConsoleOptions{
		PaymentPollInterval: cfg.PaymentPollInterval,
		TicketExpertise:     cfg.TicketExpertise,
	})
	defer console.Close()

	opts := controllers.RouterOptions{CORSOrigins: cfg.CORSOrigins}

	if cfg.ExportEnabled() {
		storage, err := services.NewS3Service(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to set up report storage: %w", err)
		}
		opts.Exporter = services.NewTicketExporter(storage, console.Tickets)
		slog.Info("ticket exports enabled", "bucket", cfg.AWSS3Bucket)
	}

	if cfg.OperatorGateEnabled() {
		ensureValidToken, err := middleware.EnsureValidToken(cfg)
		if err != nil {
			return fmt.Errorf("failed to set up operator authentication: %w", err)
		}
		opts.OperatorGate = []gin.HandlerFunc{ensureValidToken, middleware.RequireScope(middleware.OperatorScope)}
		slog.Info("operator gate enabled", "domain", cfg.Auth0Domain)
	}

	switch {
	case cfg.IsProduction():
		gin.SetMode(gin.ReleaseMode)
	case cfg.IsTest():
		gin.SetMode(gin.TestMode)
	case cfg.IsDevelopment():
		gin.SetMode(gin.DebugMode)
	}

	router := controllers.SetupRouter(console, opts)
	router.GET("/api/v1/health", healthCheck)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.APITimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("console is running", "address", "http://localhost:"+cfg.Port, "api", cfg.APIBaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		return fmt.Errorf("failed to start server: %w", err)
	}

	slog.Info("shutting down console...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		return err
	}

	slog.Info("console exited gracefully")
	return nil
}

// bootstrap loads configuration, installs the logger and restores the stored session
func bootstrap(ctx context.Context) (*config.Config, func(), *services.SessionStore, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	config.InitLogger(cfg, os.Stderr)

	storage, closeStorage, err := openSessionStorage(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	session := services.NewSessionStore(storage)
	if err := session.Restore(ctx); err != nil {
		closeStorage()
		return nil, nil, nil, fmt.Errorf("failed to restore session: %w", err)
	}
	return cfg, closeStorage, session, nil
}

// openSessionStorage builds the session storage adapter named by SESSION_BACKEND
func openSessionStorage(ctx context.Context, cfg *config.Config) (services.SessionStorage, func(), error) {
	switch cfg.SessionBackend {
	case config.SessionBackendRedis:
		client, err := services.NewRedisClient(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		slog.Info("session storage", "backend", cfg.SessionBackend, "addr", cfg.RedisAddr)
		return services.NewRedisSessionStorage(client), func() {
			if err := client.Close(); err != nil {
				slog.Error("failed to close redis client", "error", err)
			}
		}, nil

	case config.SessionBackendMemory:
		slog.Info("session storage", "backend", cfg.SessionBackend)
		return services.NewMemorySessionStorage(), func() {}, nil

	default:
		if err := config.ConnectDatabase(cfg.DatabaseURL); err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		slog.Info("session storage", "backend", config.SessionBackendDatabase)
		db := config.GetDB()
		return services.NewGormSessionStorage(db), func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}, nil
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

package app

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

	httpapi "github.com/smarttile/energyd/internal/energy/http"
	"github.com/smarttile/energyd/internal/energy/mail"
	"github.com/smarttile/energyd/internal/energy/service"
	"github.com/smarttile/energyd/internal/energy/sim"
	"github.com/smarttile/energyd/internal/energy/store"
	"github.com/smarttile/energyd/internal/energy/store/drivers/sqlite"
	"github.com/smarttile/energyd/pkg/cryptox"
	"github.com/smarttile/energyd/pkg/sessionx"
	"github.com/smarttile/energyd/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the energy service application with all its
// dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db       store.Store
	sessions *sessionx.Manager
	mailer   mail.Mailer

	// Services
	userService         *service.UserService
	resetService        *service.ResetService
	ledgerService       *service.LedgerService
	statsService        *service.StatsService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "energyd",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if cfg.SessionSecret == "" {
		return nil, errors.New("SESSION_SECRET must be set")
	}
	app.sessions = sessionx.NewManager(cfg.SessionSecret, "energyd", sessionx.DefaultTTL)

	// Set pepper path for password hashing
	cryptox.SetPepperPath(app.cfg.PepperFile)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.initMailer()
	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	// Start housekeeping service
	app.housekeepingService.Start()

	app.logger.Info("energy service starting", "port", app.cfg.Port, "version", BuildVersion)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		// Perform graceful shutdown
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down energy service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	// Shutdown the HTTP server
	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	// Stop the housekeeping service
	app.housekeepingService.Stop()

	// Close database connection
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("energy service stopped")
	return nil
}

// initDatabase initializes the database and applies migrations
func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_txlock=immediate", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initMailer picks SMTP when configured, otherwise the log mailer so reset
// links still show up somewhere in development.
func (app *Application) initMailer() {
	if app.cfg.MailHost == "" {
		app.logger.Info("SMTP not configured, using log mailer")
		app.mailer = &mail.LogMailer{Logger: app.logger}
		return
	}

	app.mailer = mail.NewSMTPMailer(
		app.cfg.MailHost,
		app.cfg.MailPort,
		app.cfg.MailUsername,
		app.cfg.MailPassword,
		app.cfg.MailFrom,
		"Smart Tiles",
	)
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	app.userService = &service.UserService{Store: app.db}

	app.resetService = &service.ResetService{
		Store:   app.db,
		Mailer:  app.mailer,
		BaseURL: app.cfg.BaseURL,
		TTL:     app.cfg.ResetTokenTTL,
	}

	app.ledgerService = &service.LedgerService{Store: app.db}

	app.statsService = &service.StatsService{
		Store:       app.db,
		PricePerKWh: app.cfg.PricePerKWh,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
		app.cfg.TokenRetention,
	)
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.sessions,
		BuildVersion,
		app.db,
		app.mailer,
		sim.New(),
		app.logger,
	)

	// Wire services to router
	router.UserService = app.userService
	router.ResetService = app.resetService
	router.LedgerService = app.ledgerService
	router.StatsService = app.statsService
	router.ApplyRoutes()

	app.router = router

	// Initialize HTTP server
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

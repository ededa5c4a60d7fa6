package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bitmerch/bitmerch/internal/archive"
	httpapi "github.com/bitmerch/bitmerch/internal/http"
	"github.com/bitmerch/bitmerch/internal/payment"
	"github.com/bitmerch/bitmerch/internal/service"
	"github.com/bitmerch/bitmerch/internal/store"
	"github.com/bitmerch/bitmerch/internal/store/drivers/sqlite"
	"github.com/bitmerch/bitmerch/pkg/idempotency"
	"github.com/bitmerch/bitmerch/pkg/jwtx"
	"github.com/bitmerch/bitmerch/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the storefront backend with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db    store.Store
	codec *jwtx.Codec
	guard *idempotency.Guard

	// Services
	authService    *service.AuthService
	productService *service.ProductService
	paymentService *service.PaymentService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
// Missing token secrets fail here, before anything listens.
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "bitmerch-api",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	codec, err := jwtx.NewCodec(jwtx.Config{
		AccessSecret:  cfg.AccessTokenSecret,
		RefreshSecret: cfg.RefreshTokenSecret,
		Issuer:        cfg.TokenIssuer,
		Audience:      cfg.TokenAudience,
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshTTL:    cfg.RefreshTokenTTL,
	})
	if err != nil {
		_ = app.db.Close()
		return nil, fmt.Errorf("failed to initialize token codec: %w", err)
	}
	app.codec = codec
	app.guard = idempotency.New(cfg.IdempotencyTTL)

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	// Start the idempotency janitor
	app.guard.Start()

	app.logger.Info("storefront api starting", "port", app.cfg.Port, "version", BuildVersion)

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

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down storefront api...")

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

	// Stop the idempotency janitor
	app.guard.Stop()

	// Close database connection
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("storefront api stopped")
	return nil
}

// initDatabase initializes the database and applies migrations.
func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
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

// initServices initializes all business logic services.
func (app *Application) initServices() {
	app.authService = &service.AuthService{
		Store:       app.db,
		Codec:       app.codec,
		DefaultRole: app.cfg.ClientRole,
	}

	app.productService = &service.ProductService{
		Store:     app.db,
		Converter: archive.NewHTTPConverter(app.cfg.ArchiveAPIBaseURL, app.cfg.ArchiveAPISecret),
	}

	app.paymentService = &service.PaymentService{
		Store:    app.db,
		Verifier: payment.NewPaystackClient(app.cfg.PaystackBaseURL, app.cfg.PaystackSecretKey),
	}
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.codec,
		app.guard,
		httpapi.RouterConfig{
			BuildVersion:  BuildVersion,
			AllowedOrigin: app.cfg.AllowedOrigin,
			AdminRole:     app.cfg.AdminRole,
			UploadDir:     app.cfg.UploadDir,
		},
		app.db,
		app.logger,
	)

	// Wire services to router
	router.AuthService = app.authService
	router.ProductService = app.productService
	router.PaymentService = app.paymentService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

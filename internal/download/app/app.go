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

	"github.com/luofilm/luofilm/internal/download/events"
	httpapi "github.com/luofilm/luofilm/internal/download/http"
	"github.com/luofilm/luofilm/internal/download/metrics"
	"github.com/luofilm/luofilm/internal/download/service"
	"github.com/luofilm/luofilm/internal/download/source"
	"github.com/luofilm/luofilm/internal/download/store"
	"github.com/luofilm/luofilm/internal/download/store/drivers/redis"
	"github.com/luofilm/luofilm/internal/download/store/drivers/sqlite"
	"github.com/luofilm/luofilm/pkg/httpx"
	"github.com/luofilm/luofilm/pkg/jwtx"
	"github.com/luofilm/luofilm/pkg/slogx"
)

const (
	// BuildVersion is overridden at build time via -ldflags.
	BuildVersion = "v0.1.0"
)

// Application is the download service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db        store.Store
	metrics   *metrics.Metrics
	publisher events.Publisher
	verifier  jwtx.Verifier
	fetcher   *source.Fetcher

	entitlementService  *service.EntitlementService
	downloadService     *service.DownloadService
	redemptionService   *service.RedemptionService
	subscriptionService *service.SubscriptionService
	sweeperService      *service.SweeperService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with every dependency initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "download-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
		metrics: metrics.Default(),
	}

	httpx.LoadRateLimitProfiles()

	ctx := context.Background()
	if err := app.initStore(ctx); err != nil {
		return nil, err
	}

	if err := app.initDependencies(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initServices()

	if err := app.subscriptionService.SeedAdmins(slogx.WithContext(ctx, app.logger), cfg.AdminUserIDs); err != nil {
		_ = app.db.Close()
		return nil, fmt.Errorf("failed to seed admin profiles: %w", err)
	}

	app.initHTTP()
	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	if app.sweeperService != nil {
		app.sweeperService.Start()
	}

	app.logger.Info("download service starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"store", app.cfg.StoreDriver,
		"auth", app.cfg.AuthEnabled(),
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
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

// Shutdown drains in-flight requests, stops the sweeper and releases the
// store and event publisher.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down download service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if app.sweeperService != nil {
		app.sweeperService.Stop()
	}

	if err := app.publisher.Close(); err != nil {
		app.logger.Error("error closing event publisher", "error", err)
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing store", "error", err)
		return err
	}

	app.logger.Info("download service stopped")
	return nil
}

// initStore opens the configured driver and applies its migrations.
func (app *Application) initStore(ctx context.Context) error {
	switch app.cfg.StoreDriver {
	case StoreDriverRedis:
		client, err := redis.Connect(ctx, app.cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		app.db = redis.NewStore(client, redis.DefaultPrefix)
		app.logger.Info("redis store connected")

	default:
		db, err := sqlite.NewStore(sqlite.DSN(app.cfg.DatabaseFile))
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		app.db = db
	}

	if err := app.db.ApplyMigrations(); err != nil {
		_ = app.db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("store ready", "driver", app.cfg.StoreDriver)
	return nil
}

// initDependencies builds the bearer verifier, event publisher and upstream
// fetcher.
func (app *Application) initDependencies() error {
	if app.cfg.AuthEnabled() {
		verifier, err := jwtx.NewHS256([]byte(app.cfg.JWTSecret), app.cfg.Issuer)
		if err != nil {
			return fmt.Errorf("failed to initialize jwt verifier: %w", err)
		}
		app.verifier = verifier
	} else {
		app.logger.Warn("bearer authentication disabled; admin routes are not mounted")
	}

	if len(app.cfg.KafkaBrokers) > 0 {
		pub, err := events.NewKafkaPublisher(app.cfg.KafkaBrokers, app.cfg.KafkaTopic)
		if err != nil {
			return fmt.Errorf("failed to initialize kafka publisher: %w", err)
		}
		app.publisher = pub
		app.logger.Info("kafka event publisher enabled", "topic", app.cfg.KafkaTopic)
	} else {
		app.publisher = events.NopPublisher{}
	}

	rules := []source.Rule{source.GoogleDrive}
	if app.cfg.RewriteRulesFile != "" {
		extra, err := source.LoadRules(app.cfg.RewriteRulesFile)
		if err != nil {
			return fmt.Errorf("failed to load rewrite rules: %w", err)
		}
		rules = append(rules, extra...)
		app.logger.Info("rewrite rules loaded", "file", app.cfg.RewriteRulesFile, "count", len(extra))
	}
	app.fetcher = source.NewFetcher(
		source.NewHTTPClient(app.cfg.UpstreamTimeout),
		source.NewRewriteTable(rules...),
	)
	return nil
}

func (app *Application) initServices() {
	app.entitlementService = &service.EntitlementService{Store: app.db}

	app.downloadService = &service.DownloadService{
		Store:         app.db,
		Entitlements:  app.entitlementService,
		Events:        app.publisher,
		Metrics:       app.metrics,
		PublicBaseURL: app.cfg.PublicBaseURL,
		TokenTTL:      app.cfg.DownloadTokenTTL,
	}
	app.redemptionService = &service.RedemptionService{
		Store:   app.db,
		Fetcher: app.fetcher,
		Events:  app.publisher,
		Metrics: app.metrics,
	}
	app.subscriptionService = &service.SubscriptionService{
		Store:        app.db,
		Entitlements: app.entitlementService,
	}

	if app.cfg.SweepEnabled {
		app.sweeperService = service.NewSweeperService(app.db, app.logger, app.cfg.SweepInterval)
		app.sweeperService.Metrics = app.metrics
	} else {
		app.logger.Warn("expiry sweeper disabled")
	}
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.verifier,
		BuildVersion,
		app.db,
		app.metrics,
		app.logger,
	)

	router.DownloadService = app.downloadService
	router.RedemptionService = app.redemptionService
	router.SubscriptionService = app.subscriptionService
	router.ApplyRoutes()

	app.router = router

	// No WriteTimeout: film transfers run for as long as the client reads.
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}

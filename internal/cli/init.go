// Package cli holds the start-up steps shared by the pennywise binaries:
// environment loading, logging, and the wiring of the ledger with its
// backend, caches and event publishers.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"pennywise/internal/amqp"
	"pennywise/internal/auth"
	"pennywise/internal/backend"
	"pennywise/internal/cache"
	"pennywise/internal/config"
	apphttp "pennywise/internal/http"
	"pennywise/internal/insights"
	"pennywise/internal/ledger"
	"pennywise/internal/log"
	"pennywise/internal/offline"
)

const (
	cacheNamespace  = "pennywise"
	localViewSize   = 1000
	cleanupInterval = time.Minute
)

// LoadEnvFile loads .env for local development. A missing file is fine.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadConfig reads the environment and checks it with validate, which is
// usually (*config.Config).Validate or ValidateWorker.
func LoadConfig(validate func(*config.Config) error) (*config.Config, error) {
	LoadEnvFile()
	cfg := config.Load()
	if validate != nil {
		if err := validate(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT and
// installs it as the slog default. One-shot commands log to stderr so their
// output stays clean.
func NewLogger(cfg *config.Config, out io.Writer) *log.Logger {
	logger := log.New(log.Config{
		Level:  log.ParseLevel(cfg.LogLevel),
		Format: cfg.LogFormat,
		Output: out,
	})
	log.SetDefault(logger)
	return logger
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// App is everything the API server and the one-shot commands share.
type App struct {
	Config   *config.Config
	Logger   *log.Logger
	Backend  *backend.Backend
	Sessions *ledger.Manager
	Views    cache.Store
	Goals    *offline.GoalStore
	Catalog  config.Catalog
	Insights *insights.Engine
	Verifier *auth.Verifier

	events *amqp.Client
	redis  *cache.RedisStore
	caches *cache.Manager
}

// NewApp connects the configured backend, cache and event bus. On error
// everything opened so far is closed again.
func NewApp(ctx context.Context, cfg *config.Config, logger *log.Logger) (app *App, err error) {
	if logger == nil {
		logger = log.Discard()
	}
	app = &App{
		Config:   cfg,
		Logger:   logger,
		Verifier: auth.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer),
		Insights: insights.NewEngine(insights.Config{
			MaxSuggestions: cfg.MaxSuggestions,
			Currency:       cfg.CurrencySymbol,
		}),
		caches: cache.NewManager(logger),
	}
	defer func() {
		if err != nil {
			app.Close()
			app = nil
		}
	}()

	app.Catalog = config.DefaultCatalog()
	if cfg.CatalogFile != "" {
		if app.Catalog, err = config.LoadCatalog(cfg.CatalogFile); err != nil {
			return app, err
		}
	}

	var blobs offline.Blobs
	if cfg.RedisURL != "" {
		app.redis, err = cache.NewRedisStore(ctx, cfg.RedisURL, cacheNamespace)
		if err != nil {
			return app, err
		}
		app.Views, blobs = app.redis, app.redis
		logger.Info("Using Redis for views and snapshots")
	} else {
		local := cache.NewLocalStore(localViewSize, cfg.CacheTTL)
		app.caches.Register(local)
		app.Views = local
		if blobs, err = offline.NewFileBlobs(cfg.GoalsPath); err != nil {
			return app, err
		}
	}
	app.Goals = offline.NewGoalStore(blobs)

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return app, err
	}
	if app.redis != nil {
		bcfg.Blobs = app.redis
	}
	if app.Backend, err = backend.NewFactory(logger).CreateBackend(ctx, bcfg); err != nil {
		return app, err
	}

	publishers := ledger.Publishers{apphttp.NewViewInvalidator(app.Views, logger)}
	if cfg.AMQPURL != "" {
		if app.events, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger); err != nil {
			return app, fmt.Errorf("connect event bus: %w", err)
		}
		publishers = append(publishers, app.events)
		logger.Info("Publishing ledger events", "exchange", cfg.AMQPExchange)
	}

	app.Sessions = ledger.NewManager(app.Backend.Gateway, publishers, cfg.SessionCacheSize, cfg.SessionTTL, logger)
	app.caches.Register(app.Sessions.Sessions())
	app.caches.StartCleanup(cleanupInterval)

	logger.Info("Application initialized",
		log.FieldBackend, string(app.Backend.Type),
		"redis", app.redis != nil,
		"amqp", app.events != nil)
	return app, nil
}

// Checks returns the readiness probes of the remote dependencies.
func (a *App) Checks() map[string]func(context.Context) error {
	checks := map[string]func(context.Context) error{
		"backend": a.Backend.Ping,
	}
	if a.redis != nil {
		checks["redis"] = a.redis.Ping
	}
	return checks
}

// ServerDeps hands the wired collaborators to the HTTP server.
func (a *App) ServerDeps() apphttp.Deps {
	return apphttp.Deps{
		Sessions: a.Sessions,
		Views:    a.Views,
		Goals:    a.Goals,
		Catalog:  a.Catalog,
		Insights: a.Insights,
		Verifier: a.Verifier,
		Checks:   a.Checks(),
		Logger:   a.Logger,
	}
}

// Close releases connections in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	if a.caches != nil {
		a.caches.Stop()
	}
	if a.events != nil {
		errs = append(errs, a.events.Close())
	}
	if a.Backend != nil {
		errs = append(errs, a.Backend.Close())
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	return errors.Join(errs...)
}

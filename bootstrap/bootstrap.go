// Package bootstrap wires all dependencies and starts the application.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/easyworld/worldgen/adapters/clock"
	"github.com/easyworld/worldgen/adapters/hasher"
	apihttp "github.com/easyworld/worldgen/adapters/http"
	"github.com/easyworld/worldgen/adapters/idgen"
	"github.com/easyworld/worldgen/adapters/metrics"
	"github.com/easyworld/worldgen/adapters/oracle"
	"github.com/easyworld/worldgen/adapters/remote"
	"github.com/easyworld/worldgen/adapters/sqlite"
	"github.com/easyworld/worldgen/app"
	"github.com/easyworld/worldgen/config"
	"github.com/easyworld/worldgen/core/analytics"
	"github.com/easyworld/worldgen/core/schema"
	"github.com/easyworld/worldgen/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options provides optional configuration for application initialization.
type Options struct {
	// ConfigPath is the YAML file to load. Empty or missing falls back to
	// WORLDGEN_* environment variables.
	ConfigPath string

	// HotReload watches ConfigPath and SIGHUP for changes.
	HotReload bool

	// Version is reported by /version.
	Version string

	// Oracle replaces the configured oracle.
	Oracle ports.Oracle

	// Registry collects metrics instead of the default Prometheus registerer.
	Registry *prometheus.Registry

	// LogOutput receives log lines. Defaults to stdout.
	LogOutput io.Writer
}

// App represents the running application.
type App struct {
	Logger     zerolog.Logger
	Config     *config.Config
	DB         *sqlite.DB
	Journal    *analytics.SQLiteStore
	Metrics    *metrics.Collector
	World      *app.WorldService
	HTTPServer *http.Server

	holder       *config.Holder
	worldHandler *apihttp.WorldHandler
	logCloser    io.Closer
}

// New loads configuration and initializes the application.
func New(opts Options) (*App, error) {
	if opts.HotReload && opts.ConfigPath != "" {
		holder, err := config.NewHolder(opts.ConfigPath, zerolog.Nop())
		if err != nil {
			return nil, err
		}
		a, err := NewWithConfig(holder.Get(), opts)
		if err != nil {
			holder.Stop()
			return nil, err
		}
		a.watch(holder)
		return a, nil
	}

	cfg, err := config.LoadWithFallback(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return NewWithConfig(cfg, opts)
}

// NewWithConfig initializes the application from a loaded configuration.
func NewWithConfig(cfg *config.Config, opts Options) (*App, error) {
	out := opts.LogOutput
	if out == nil {
		out = os.Stdout
	}
	logger, logCloser := NewLogger(cfg.Logging, out)

	logger.Info().
		Str("oracle", cfg.Oracle.Provider).
		Bool("analytics", cfg.Analytics.Enabled).
		Msg("initializing worldgen")

	a := &App{
		Logger:    logger,
		Config:    cfg,
		logCloser: logCloser,
	}

	if err := a.init(cfg, opts); err != nil {
		a.Shutdown()
		return nil, err
	}
	return a, nil
}

func (a *App) init(cfg *config.Config, opts Options) error {
	// Metrics
	var metricsHandler http.Handler
	if opts.Registry != nil {
		a.Metrics = metrics.NewWithRegistry(opts.Registry)
		metricsHandler = promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{})
	} else {
		a.Metrics = metrics.New()
	}

	// Journal
	if cfg.Analytics.Enabled {
		if err := a.initJournal(cfg.Analytics); err != nil {
			return fmt.Errorf("init journal: %w", err)
		}
	}

	// Oracle
	o := opts.Oracle
	if o == nil {
		var err error
		o, err = NewOracle(context.Background(), cfg.Oracle)
		if err != nil {
			return fmt.Errorf("init oracle: %w", err)
		}
	}
	a.Logger.Info().Str("oracle", o.Name()).Msg("oracle ready")

	deps := app.WorldDeps{
		Oracle:        o,
		Registry:      schema.Default(),
		Observer:      a.Metrics,
		Fingerprinter: hasher.NewBlake2b(cfg.Analytics.FingerprintKey),
		Clock:         clock.Real{},
		IDGen:         idgen.UUID{},
		Logger:        a.Logger,
	}
	if a.Journal != nil {
		deps.Recorder = a.Journal
	}
	a.World = app.NewWorldService(deps, app.WorldConfig{OracleTimeout: cfg.Oracle.Timeout})

	// HTTP
	a.worldHandler = apihttp.NewWorldHandler(a.World, a.Logger)
	a.worldHandler.SetRetryAfter(cfg.Server.RetryAfter)

	var checker apihttp.HealthChecker
	if a.DB != nil {
		checker = a.DB
	}

	routerCfg := apihttp.RouterConfig{
		EnableOpenAPI:  cfg.OpenAPI.Enabled,
		RequestTimeout: cfg.Server.RequestTimeout,
		Version:        opts.Version,
	}
	if cfg.Metrics.Enabled {
		routerCfg.Metrics = a.Metrics
		routerCfg.MetricsHandler = metricsHandler
	}

	router := apihttp.NewRouter(
		a.worldHandler,
		apihttp.NewSchemaHandler(a.World.Registry()),
		apihttp.NewHealthHandler(checker),
		a.Logger,
		routerCfg,
	)

	a.HTTPServer = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return nil
}

func (a *App) initJournal(cfg config.AnalyticsConfig) error {
	db, err := sqlite.Open(cfg.Path)
	if err != nil {
		return err
	}
	a.DB = db

	applied, err := db.Migrate()
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	for _, v := range applied {
		a.Logger.Info().Str("version", v).Msg("applied migration")
	}

	journal, err := analytics.NewSQLiteStore(db.DB, analytics.SQLiteConfig{
		BatchSize:     cfg.BatchSize,
		FlushInterval: cfg.FlushInterval,
		BufferSize:    cfg.BufferSize,
		Logger:        a.Logger,
	})
	if err != nil {
		return err
	}
	a.Journal = journal

	a.Logger.Info().Str("path", cfg.Path).Msg("generation journal enabled")
	return nil
}

// NewOracle builds the oracle named by cfg.Provider.
func NewOracle(ctx context.Context, cfg config.OracleConfig) (ports.Oracle, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		return oracle.NewGemini(ctx, oracle.GeminiConfig{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			BaseURL:     cfg.URL,
		})
	case config.ProviderRemote:
		client := remote.NewClient(remote.ClientConfig{
			BaseURL: cfg.URL,
			APIKey:  cfg.APIKey,
			// The service deadline is enforced per request; this only
			// stops a stuck connection from outliving it.
			Timeout: cfg.Timeout + 5*time.Second,
			Headers: cfg.Headers,
		})
		return remote.NewOracle(client, cfg.Path), nil
	case config.ProviderReplay:
		return oracle.NewReplay(cfg.File), nil
	default:
		return nil, fmt.Errorf("unknown oracle provider %q", cfg.Provider)
	}
}

// watch applies reloadable settings whenever the holder reloads.
func (a *App) watch(holder *config.Holder) {
	a.holder = holder
	holder.SetLogger(a.Logger)
	holder.OnChange(a.applyConfig)
	holder.OnReloadError(func(err error) {
		a.Metrics.ConfigReloaded(err, time.Now())
	})

	if err := holder.WatchFile(); err != nil {
		a.Logger.Warn().Err(err).Msg("config file watch unavailable, SIGHUP still reloads")
	}
	holder.WatchSignals()
}

// applyConfig pushes reloaded settings into the running components.
func (a *App) applyConfig(cfg *config.Config, changes []config.FieldChange) {
	for _, c := range changes {
		switch c.Field {
		case "logging.level":
			if level, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
				zerolog.SetGlobalLevel(level)
			}
		case "oracle.timeout":
			a.World.SetOracleTimeout(cfg.Oracle.Timeout)
		case "server.retry_after":
			a.worldHandler.SetRetryAfter(cfg.Server.RetryAfter)
		}
	}
	a.Metrics.ConfigReloaded(nil, time.Now())
	a.Logger.Info().Int("changes", len(changes)).Msg("configuration applied")
}

// Run starts the HTTP server and blocks until SIGINT or SIGTERM.
func (a *App) Run() error {
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().
			Str("addr", a.HTTPServer.Addr).
			Msg("starting http server")
		if err := a.HTTPServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt or error
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		a.Shutdown()
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.Logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	return a.Shutdown()
}

// Shutdown gracefully stops the application. Pending journal records are
// flushed before the database closes.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if a.holder != nil {
		a.holder.Stop()
	}

	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("http server shutdown error")
		}
	}

	if a.Journal != nil {
		if err := a.Journal.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("journal close error")
		}
	}

	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("database close error")
		}
	}

	a.Logger.Info().Msg("shutdown complete")

	if a.logCloser != nil {
		a.logCloser.Close()
		a.logCloser = nil
	}
	return nil
}

// NewLogger builds the application logger. A configured file is rotated by
// lumberjack and receives the same lines as out. The returned closer is nil
// when no file is configured.
func NewLogger(cfg config.LoggingConfig, out io.Writer) (zerolog.Logger, io.Closer) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	console := out
	if cfg.Format == "console" {
		console = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	if cfg.File.Path == "" {
		return zerolog.New(console).With().Timestamp().Logger(), nil
	}

	file := &lumberjack.Logger{
		Filename:   cfg.File.Path,
		MaxSize:    cfg.File.MaxSizeMB,
		MaxBackups: cfg.File.MaxBackups,
		MaxAge:     cfg.File.MaxAgeDays,
		Compress:   cfg.File.Compress,
	}
	w := zerolog.MultiLevelWriter(console, file)
	return zerolog.New(w).With().Timestamp().Logger(), file
}

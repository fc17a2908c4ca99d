// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/starford/echovault/internal/api"
	"github.com/starford/echovault/internal/capturesync"
	"github.com/starford/echovault/internal/checkpoint"
	"github.com/starford/echovault/internal/configwatch"
	"github.com/starford/echovault/internal/mcpserver"
	"github.com/starford/echovault/internal/notestore"
	"github.com/starford/echovault/internal/orchestrator"
	"github.com/starford/echovault/internal/remote"
	"github.com/starford/echovault/internal/scheduler"
	"github.com/starford/echovault/internal/sse"
	"github.com/starford/echovault/internal/storage"
	"github.com/starford/echovault/internal/syncservice"
	"github.com/starford/echovault/internal/todosync"
	pkgconfig "github.com/starford/echovault/pkg/config"
)

const (
	progressThrottle = 500 * time.Millisecond
	shutdownTimeout  = 10 * time.Second
)

// App is the fully wired application shared by the server and CLI commands.
type App struct {
	Config       *Config
	Logger       *slog.Logger
	Notes        *notestore.Store
	Checkpoints  *checkpoint.DB
	Orchestrator *orchestrator.Orchestrator
	Service      *syncservice.Service
	Broker       *sse.Broker

	configPath string
	version    string
	level      *slog.LevelVar
	remote     *remote.Client
	logCloser  io.Closer
}

// Build wires every component from the configuration.
func Build(opts ...Option) (*App, error) {
	a := &application{logOutput: os.Stdout, version: "dev"}
	for _, opt := range opts {
		opt(a)
	}
	if a.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := a.config

	level := new(slog.LevelVar)
	level.Set(cfg.App.LogLevel)
	var (
		out       = a.logOutput
		logCloser io.Closer
	)
	if cfg.App.LogFile != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.App.LogFile,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		}
		out, logCloser = lj, lj
	}
	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("remote", cfg.Remote.BaseURL),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.Duration("sync_interval", cfg.Sync.Interval),
		slog.Bool("todos", cfg.Todo.Enabled),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure vault directory exists.
	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create vault dir: %w", err)
	}
	fs, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	client, err := remote.NewClient(cfg.Remote.BaseURL, cfg.Remote.Token,
		remote.WithHTTPClient(&http.Client{Timeout: cfg.Remote.Timeout}))
	if err != nil {
		return nil, fmt.Errorf("init remote: %w", err)
	}

	settings, err := cfg.Settings(client.AudioLink)
	if err != nil {
		return nil, fmt.Errorf("derive settings: %w", err)
	}

	db, err := checkpoint.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init checkpoint db: %w", err)
	}

	broker := sse.NewBroker(progressThrottle)
	notes := notestore.New(fs, settings.Notes)

	captures := capturesync.New(client, notes, db,
		capturesync.Multi(capturesync.LogReporter(logger), broker), logger, settings.Capture)
	todos := todosync.New(client, fs, notes, logger, settings.Todo)
	orch := orchestrator.New(captures, todos, notes, logger, settings.TodoEnabled,
		orchestrator.WithHistory(db), orchestrator.WithNotifier(broker))

	return &App{
		Config:       cfg,
		Logger:       logger,
		Notes:        notes,
		Checkpoints:  db,
		Orchestrator: orch,
		Service:      syncservice.New(orch, db, client, notes, cfg.Todo.Emblem),
		Broker:       broker,
		configPath:   a.configPath,
		version:      a.version,
		level:        level,
		remote:       client,
		logCloser:    logCloser,
	}, nil
}

// Close releases the database, the event broker and the log file.
func (app *App) Close() error {
	app.Broker.Close()
	err := app.Checkpoints.Close()
	if app.logCloser != nil {
		err = errors.Join(err, app.logCloser.Close())
	}
	return err
}

// MCP returns an MCP server over the application service.
func (app *App) MCP() *mcpserver.Server {
	return mcpserver.New(app.Service, app.version)
}

// Reload re-reads the config file and pushes the new settings to running
// components. An invalid file is logged and the previous settings stay in
// effect. Remote and storage changes need a restart.
func (app *App) Reload(sched *scheduler.Scheduler) {
	next := NewDefaultConfig()
	if err := pkgconfig.Load(app.configPath, next); err != nil {
		app.Logger.Warn("config: reload failed, keeping previous settings", slog.String("error", err.Error()))
		return
	}
	settings, err := next.Settings(app.remote.AudioLink)
	if err != nil {
		app.Logger.Warn("config: reload failed, keeping previous settings", slog.String("error", err.Error()))
		return
	}

	if next.Remote != app.Config.Remote || next.Vault.Path != app.Config.Vault.Path ||
		next.SQLite != app.Config.SQLite || next.App.HTTP != app.Config.App.HTTP || next.Auth != app.Config.Auth {
		app.Logger.Warn("config: remote, vault path, database, http and auth changes apply after restart")
	}

	app.level.Set(next.App.LogLevel)
	app.Orchestrator.Refresh(settings)
	if sched != nil {
		sched.SetInterval(next.Sync.Interval)
	}
	app.Logger.Info("config: reloaded",
		slog.Duration("sync_interval", next.Sync.Interval),
		slog.String("log_level", next.App.LogLevel.String()))
}

// Run builds the application and serves until ctx is cancelled or a signal
// arrives.
func Run(ctx context.Context, opts ...Option) error {
	app, err := Build(opts...)
	if err != nil {
		return err
	}
	defer app.Close()
	return app.Serve(ctx)
}

// Serve runs the HTTP server, the sync scheduler and the config watcher.
func (app *App) Serve(ctx context.Context) error {
	cfg := app.Config
	logger := app.Logger

	sched := scheduler.New(scheduler.RunnerFunc(func(ctx context.Context) {
		app.Orchestrator.RunOnce(ctx)
	}), cfg.Sync.Interval, cfg.Sync.OnStart, logger)

	apiRouter := api.NewRouter(app.Service, cfg.Auth.AuthEnabled(), cfg.Auth.Token, app.Broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := app.Checkpoints.Checkpoint(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return sched.Run(gCtx)
	})

	if app.configPath != "" {
		g.Go(func() error {
			err := configwatch.Watch(gCtx, app.configPath, configwatch.DefaultDebounce, logger, func() {
				app.Reload(sched)
			})
			if err != nil {
				logger.Warn("config: watch disabled", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the scheduler and watcher stop with the
// HTTP server.
var errShutdown = errors.New("shutdown")

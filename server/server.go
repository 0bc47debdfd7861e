// Package server provides the HTTP surface of the pomod daemon.
//
// The server exposes a REST API to observe and control the focus timer,
// including reading the clock-reconciled run state, applying transitions,
// and viewing completed sessions.
//
// # Endpoints
//
//   - GET /health - Simple health check, returns "ok"
//   - GET /api/state - Clock-reconciled timer state
//   - GET /api/status - Consolidated status (state, session count, next reminder, build)
//   - POST /api/start | /api/pause | /api/resume | /api/reset - Timer transitions
//   - GET /api/history - Completed sessions, newest first (optional ?limit=N)
//   - GET /api/log - Recent captured log entries (optional ?source=S)
//   - GET /config - Current configuration as YAML, secrets redacted
//   - POST /reload - Reloads configuration from disk
//   - GET /metrics - Prometheus metrics (scrape mode only)
//
// # Architecture
//
// The config is swapped atomically on reload, and reminder triggers are
// rebuilt from the new config. The timer runner and its storage are
// wired once at startup and unaffected by reloads.
//
// # Example
//
//	srv, err := server.New("/etc/pomod/config.yaml", logger, rnr)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pomodhq/pomod/buildinfo"
	"github.com/pomodhq/pomod/config"
	"github.com/pomodhq/pomod/history"
	"github.com/pomodhq/pomod/logging"
	"github.com/pomodhq/pomod/runner"
	"github.com/pomodhq/pomod/schedule"
	"github.com/pomodhq/pomod/server/handlers"
	"github.com/pomodhq/pomod/timer"
)

const (
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 10 * time.Second
	defaultShutdownTimeout = 5 * time.Second
	defaultListenAddr      = ":8080"
)

// serverDeps holds config-derived dependencies that are swapped atomically on reload.
type serverDeps struct {
	config *config.Config
}

// ReminderFactory builds a reminder manager from config. The server calls
// it at startup and again on every config reload.
type ReminderFactory func(reminders []config.Reminder) (*schedule.Manager, error)

// Server is the HTTP server for the pomod daemon.
type Server struct {
	addr           string
	configPath     string
	logger         *slog.Logger
	logLevel       *slog.LevelVar
	deps           atomic.Pointer[serverDeps]
	httpServer     *http.Server
	runner         *runner.Runner
	collector      *logging.LogCollector
	metricsHandler http.Handler
	certLoader     *CertLoader
	props          handlers.ServerProperties

	reminderFactory ReminderFactory

	// mu guards the reminder manager swap on reload.
	mu              sync.Mutex
	reminders       *schedule.Manager
	remindersCancel context.CancelFunc
	runCtx          context.Context
}

// Option configures a Server.
type Option func(*Server) error

// WithListenAddr configures the address the server listens on.
// Default is ":8080".
func WithListenAddr(addr string) Option {
	return func(s *Server) error {
		s.addr = addr
		return nil
	}
}

// WithTLS serves HTTPS with the given certificate pair. The pair is
// reloaded when the files change on disk.
func WithTLS(certFile, keyFile string) Option {
	return func(s *Server) error {
		loader, err := NewCertLoader(certFile, keyFile, s.logger)
		if err != nil {
			return fmt.Errorf("loading TLS certificate: %w", err)
		}
		s.certLoader = loader
		return nil
	}
}

// WithLogCollector exposes recently captured log entries at /api/log.
func WithLogCollector(c *logging.LogCollector) Option {
	return func(s *Server) error {
		s.collector = c
		return nil
	}
}

// WithMetricsHandler exposes the given handler at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) error {
		s.metricsHandler = h
		return nil
	}
}

// WithLogLevelVar lets config reloads adjust the daemon log level.
func WithLogLevelVar(v *slog.LevelVar) Option {
	return func(s *Server) error {
		s.logLevel = v
		return nil
	}
}

// WithReminders configures cron-scheduled reminders. They are rebuilt
// from the new config on every reload.
func WithReminders(factory ReminderFactory) Option {
	return func(s *Server) error {
		s.reminderFactory = factory
		return s.rebuildReminders(s.Config().Reminders)
	}
}

// New creates a new Server with the given config path and options.
// The runner must already be wired to its storage.
func New(configPath string, logger *slog.Logger, rnr *runner.Runner, opts ...Option) (*Server, error) {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	s := &Server{
		addr:       defaultListenAddr,
		configPath: configPath,
		logger:     logger,
		runner:     rnr,
		props: handlers.ServerProperties{
			Build:     buildinfo.Get(),
			StartedAt: time.Now(),
			Hostname:  hostname,
		},
	}

	if err := s.Reload(); err != nil {
		return nil, err
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// SetLogLevel changes the daemon's log level at runtime.
func (s *Server) SetLogLevel(level slog.Level) {
	if s.logLevel != nil {
		s.logLevel.Set(level)
	}
}

// Reload reads the config from disk and rebuilds config-derived state:
// the served config, the log level, and the reminder triggers. A config
// that fails to load or produces unbuildable triggers is rejected whole,
// leaving the previous config and triggers live.
func (s *Server) Reload() error {
	cfg, err := config.LoadConfig(s.configPath)
	if err != nil {
		return err
	}

	// Build the replacement trigger set before any part of the new
	// config becomes visible.
	var mgr *schedule.Manager
	if s.reminderFactory != nil {
		mgr, err = s.reminderFactory(cfg.Reminders)
		if err != nil {
			return fmt.Errorf("building reminder triggers: %w", err)
		}
	}

	if s.logLevel != nil {
		if err := s.logLevel.UnmarshalText([]byte(cfg.Logging.Level)); err != nil {
			s.logger.Warn("ignoring invalid log level", "level", cfg.Logging.Level)
		}
	}

	s.deps.Store(&serverDeps{config: &cfg})

	if s.reminderFactory != nil {
		s.swapReminders(mgr)
	}

	s.logger.Info("configuration loaded", "config_path", s.configPath)

	return nil
}

// rebuildReminders builds a manager from the given reminder config and
// swaps it in.
func (s *Server) rebuildReminders(reminders []config.Reminder) error {
	mgr, err := s.reminderFactory(reminders)
	if err != nil {
		return fmt.Errorf("building reminder triggers: %w", err)
	}
	s.swapReminders(mgr)
	return nil
}

// swapReminders replaces the running trigger set with mgr. When the
// server is already running, the new triggers start immediately and the
// old ones stop.
func (s *Server) swapReminders(mgr *schedule.Manager) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.remindersCancel != nil {
		s.remindersCancel()
		s.remindersCancel = nil
	}
	s.reminders = mgr

	if s.runCtx != nil && mgr != nil && mgr.Len() > 0 {
		ctx, cancel := context.WithCancel(s.runCtx)
		s.remindersCancel = cancel
		mgr.Start(ctx)
	}
}

// Config returns the current configuration.
func (s *Server) Config() *config.Config {
	return s.deps.Load().config
}

// State returns the clock-reconciled timer state by delegating to the runner.
func (s *Server) State(ctx context.Context) (timer.RunState, error) {
	return s.runner.State(ctx)
}

// History returns completed sessions by delegating to the runner.
func (s *Server) History(ctx context.Context) ([]history.Entry, error) {
	return s.runner.History(ctx)
}

// NextRun returns the next scheduled reminder time, or nil if no
// reminders are configured.
func (s *Server) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reminders == nil {
		return nil
	}
	next := s.reminders.NextRun()
	if next.IsZero() {
		return nil
	}
	return &next
}

// Properties returns metadata about the running daemon.
func (s *Server) Properties() handlers.ServerProperties {
	return s.props
}

// Run starts the HTTP server and blocks until the context is cancelled.
// It performs a graceful shutdown when the context is done. Configured
// reminder triggers are started automatically.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.httpServer = &http.Server{
		Addr:         s.addr,
		Handler:      mux,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
	}
	if s.certLoader != nil {
		s.httpServer.TLSConfig = &tls.Config{
			GetCertificate: s.certLoader.GetCertificate,
		}
	}

	s.mu.Lock()
	s.runCtx = ctx
	if s.reminders != nil && s.reminders.Len() > 0 {
		rctx, cancel := context.WithCancel(ctx)
		s.remindersCancel = cancel
		s.logger.Info("starting reminder triggers", "count", s.reminders.Len())
		s.reminders.Start(rctx)
	}
	s.mu.Unlock()

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server",
			"addr", s.addr,
			"config_path", s.configPath,
			"tls", s.certLoader != nil,
		)
		var err error
		if s.certLoader != nil {
			err = s.httpServer.ListenAndServeTLS("", "")
		} else {
			err = s.httpServer.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for context cancellation or server error
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	configHandler := handlers.NewConfigHandler(s)
	reloadHandler := handlers.NewReloadHandler(s.logger, s)
	stateHandler := handlers.NewStateHandler(s)
	historyHandler := handlers.NewHistoryHandler(s)
	apiStatusHandler := handlers.NewAPIStatusHandler(s.logger, s)

	// API endpoints
	mux.HandleFunc("GET /health", handlers.HandleHealth)
	mux.Handle("GET /api/state", stateHandler)
	mux.Handle("GET /api/status", apiStatusHandler)
	mux.Handle("GET /api/history", historyHandler)
	mux.Handle("POST /api/start", handlers.NewTransitionHandler(s.logger, "start", s.runner.Start))
	mux.Handle("POST /api/pause", handlers.NewTransitionHandler(s.logger, "pause", s.runner.Pause))
	mux.Handle("POST /api/resume", handlers.NewTransitionHandler(s.logger, "resume", s.runner.Resume))
	mux.Handle("POST /api/reset", handlers.NewTransitionHandler(s.logger, "reset", s.runner.Reset))
	mux.Handle("GET /config", configHandler)
	mux.Handle("POST /reload", reloadHandler)

	if s.collector != nil {
		mux.Handle("GET /api/log", handlers.NewLogHandler(s.collector))
	}
	if s.metricsHandler != nil {
		mux.Handle("GET /metrics", s.metricsHandler)
	}
}

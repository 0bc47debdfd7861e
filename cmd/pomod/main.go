package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/pomodhq/pomod/analytics"
	"github.com/pomodhq/pomod/buildinfo"
	"github.com/pomodhq/pomod/config"
	"github.com/pomodhq/pomod/history"
	"github.com/pomodhq/pomod/logging"
	"github.com/pomodhq/pomod/metrics"
	"github.com/pomodhq/pomod/notify"
	"github.com/pomodhq/pomod/runner"
	"github.com/pomodhq/pomod/schedule"
	"github.com/pomodhq/pomod/server"
	"github.com/pomodhq/pomod/storage"
	"github.com/pomodhq/pomod/timer"
	"github.com/pomodhq/pomod/watcher"
)

type Args struct {
	ConfigPath string
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A .env file is a development convenience; absence is not an error.
	_ = godotenv.Load()

	args := parseArgs()
	if args.ConfigPath == "" {
		return fmt.Errorf("config flag (-c or --config) is required")
	}

	cfg, err := config.LoadConfig(args.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, levelVar, err := logging.NewDynamic(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Output:    cfg.Logging.Output,
		AddSource: cfg.Logging.AddSource,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	build := buildinfo.Get()
	logger.Info("pomod started",
		"config_path", args.ConfigPath,
		"version", build.Version,
		"backend", cfg.Storage.Backend,
	)

	hostname, err := os.Hostname()
	if err != nil {
		return fmt.Errorf("failed to get hostname: %w", err)
	}

	// Every subsystem logs through the collector so /api/log can show
	// recent entries per source.
	collector := logging.NewLogCollector()
	base := logger.Logger

	st, err := storage.Open(storage.Config{
		Backend: cfg.Storage.Backend,
		Dir:     cfg.Storage.Dir,
		Path:    cfg.Storage.Path,
		Redis: storage.RedisConfig{
			Addr:     cfg.Storage.Redis.Addr,
			Password: cfg.Storage.Redis.Password,
			DB:       cfg.Storage.Redis.DB,
			Prefix:   cfg.Storage.Redis.Prefix,
		},
	}, logging.ForSource(base, collector, "storage"))
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer st.Close()

	ts := timer.NewStore(st, logging.ForSource(base, collector, "timer"))
	hl := history.NewLog(st, logging.ForSource(base, collector, "history"))

	var metricsHandler http.Handler
	var registry metrics.Registry
	switch cfg.Monitoring.Mode {
	case "scrape":
		reg, err := metrics.NewScrapeRegistry()
		if err != nil {
			return fmt.Errorf("failed to create metrics registry: %w", err)
		}
		registry = reg
		metricsHandler = reg.Handler()
	case "push":
		registry = metrics.NewPushRegistry(metrics.PushConfig{
			URL:      cfg.Monitoring.VictoriaMetricsURL,
			Prefix:   cfg.Monitoring.MetricsPrefix,
			Job:      cfg.Monitoring.JobName,
			Instance: hostname,
			Logger:   logging.ForSource(base, collector, "metrics"),
		})
	}

	runnerOpts := []runner.Option{
		runner.WithPollInterval(cfg.PollInterval),
	}

	if registry != nil {
		m, err := runner.NewMetrics(registry)
		if err != nil {
			return fmt.Errorf("failed to create metrics: %w", err)
		}
		runnerOpts = append(runnerOpts, runner.WithMetrics(m))
	}

	// The webhook and the analytics sink are shared between the runner
	// (session completions) and the reminder triggers.
	var reminderNotifier schedule.Notifier
	if cfg.Notify.WebhookURL != "" {
		webhook := notify.NewWebhook(cfg.Notify.WebhookURL)
		runnerOpts = append(runnerOpts, runner.WithNotifier(webhook))
		reminderNotifier = webhook
	}
	if cfg.Notify.ChimeCommand != "" {
		runnerOpts = append(runnerOpts, runner.WithChime(notify.NewChime(cfg.Notify.ChimeCommand)))
	}

	var reminderAnalytics schedule.Analytics
	if cfg.Analytics.Enabled {
		sink, err := analytics.NewPostHog(analytics.Config{
			APIKey:     cfg.Analytics.APIKey,
			Endpoint:   cfg.Analytics.Endpoint,
			AppVersion: build.Version,
		}, st, logging.ForSource(base, collector, "analytics"))
		if err != nil {
			return fmt.Errorf("failed to initialize analytics: %w", err)
		}
		defer sink.Close()
		runnerOpts = append(runnerOpts, runner.WithAnalytics(sink))
		reminderAnalytics = sink
	}

	rnr := runner.New(logging.ForSource(base, collector, "runner"), ts, hl, runnerOpts...)

	reminderFactory := func(reminders []config.Reminder) (*schedule.Manager, error) {
		rs := make([]schedule.Reminder, len(reminders))
		for i, r := range reminders {
			rs[i] = schedule.Reminder{Cron: r.Cron, Message: r.Message}
		}
		return schedule.NewManager(rs, reminderNotifier, reminderAnalytics,
			logging.ForSource(base, collector, "schedule"))
	}

	serverOpts := []server.Option{
		server.WithListenAddr(cfg.Server.Addr),
		server.WithLogCollector(collector),
		server.WithLogLevelVar(levelVar),
		server.WithReminders(reminderFactory),
	}
	if cfg.Server.TLS.CertFile != "" {
		serverOpts = append(serverOpts, server.WithTLS(cfg.Server.TLS.CertFile, cfg.Server.TLS.KeyFile))
	}
	if metricsHandler != nil {
		serverOpts = append(serverOpts, server.WithMetricsHandler(metricsHandler))
	}

	srv, err := server.New(args.ConfigPath, logging.ForSource(base, collector, "server"), rnr, serverOpts...)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	// Set up signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	if cfg.Storage.Backend == "file" && cfg.Storage.Watch {
		w, err := watcher.New(cfg.Storage.Dir, logging.ForSource(base, collector, "watcher"))
		if err != nil {
			return fmt.Errorf("failed to create storage watcher: %w", err)
		}
		if err := w.Start(); err != nil {
			return fmt.Errorf("failed to start storage watcher: %w", err)
		}
		defer w.Stop()

		// An external write means another process moved the timer; poll
		// right away instead of waiting for the next tick.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case key := <-w.Keys():
					if _, err := rnr.Poll(ctx); err != nil {
						logger.Warn("poll after storage change failed", "key", key, "error", err)
					}
				}
			}
		}()
	}

	go func() {
		_ = rnr.Run(ctx)
	}()

	return srv.Run(ctx)
}

func parseArgs() Args {
	configPath := flag.String("config", "", "Path to config file")
	configPathShort := flag.String("c", "", "Path to config file (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nPomod - Focus Timer Daemon\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s --config /etc/pomod/config.yaml\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -c config.yaml\n", os.Args[0])
	}

	flag.Parse()

	path := *configPath
	if path == "" && *configPathShort != "" {
		path = *configPathShort
	}

	return Args{ConfigPath: path}
}

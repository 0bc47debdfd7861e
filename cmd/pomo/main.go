package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/pomodhq/pomod/analytics"
	"github.com/pomodhq/pomod/buildinfo"
	"github.com/pomodhq/pomod/config"
	"github.com/pomodhq/pomod/history"
	"github.com/pomodhq/pomod/logging"
	"github.com/pomodhq/pomod/metrics"
	"github.com/pomodhq/pomod/notify"
	"github.com/pomodhq/pomod/runner"
	"github.com/pomodhq/pomod/storage"
	"github.com/pomodhq/pomod/timer"
)

type Args struct {
	ConfigPath   string
	Command      string
	HistoryLimit int
	ShowVersion  bool
	Validate     bool
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	args := parseArgs()

	// Handle version request
	if args.ShowVersion || args.Command == "version" {
		showVersion()
		return nil
	}

	// Validate required config path
	if args.ConfigPath == "" {
		return fmt.Errorf("config flag (-c or --config) is required")
	}

	cfg, err := config.LoadConfig(args.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Handle validation-only request
	if args.Validate {
		fmt.Printf("Configuration validation successful: %s\n", args.ConfigPath)
		return nil
	}

	// Routine logs stay on stderr at warn level so the printed result is
	// the only stdout output.
	logger, err := logging.New(logging.Config{
		Level:  "warn",
		Format: "text",
		Output: "stderr",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

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
	}, logger.Logger)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer st.Close()

	ts := timer.NewStore(st, logger.Logger)
	hl := history.NewLog(st, logger.Logger)

	// The one-shot commands go through the same runner as the daemon, so
	// a status read completes an expired session and fires the same
	// collaborators.
	runnerOpts := []runner.Option{}

	if cfg.Monitoring.Mode == "push" {
		hostname, err := os.Hostname()
		if err != nil {
			return fmt.Errorf("failed to get hostname: %w", err)
		}
		registry := metrics.NewPushRegistry(metrics.PushConfig{
			URL:      cfg.Monitoring.VictoriaMetricsURL,
			Prefix:   cfg.Monitoring.MetricsPrefix,
			Job:      cfg.Monitoring.JobName,
			Instance: hostname,
			Logger:   logger.Logger,
		})
		m, err := runner.NewMetrics(registry)
		if err != nil {
			return fmt.Errorf("failed to create metrics: %w", err)
		}
		runnerOpts = append(runnerOpts, runner.WithMetrics(m))
	}

	if cfg.Notify.WebhookURL != "" {
		runnerOpts = append(runnerOpts, runner.WithNotifier(notify.NewWebhook(cfg.Notify.WebhookURL)))
	}
	if cfg.Notify.ChimeCommand != "" {
		runnerOpts = append(runnerOpts, runner.WithChime(notify.NewChime(cfg.Notify.ChimeCommand)))
	}

	if cfg.Analytics.Enabled {
		sink, err := analytics.NewPostHog(analytics.Config{
			APIKey:     cfg.Analytics.APIKey,
			Endpoint:   cfg.Analytics.Endpoint,
			AppVersion: buildinfo.Get().Version,
		}, st, logger.Logger)
		if err != nil {
			return fmt.Errorf("failed to initialize analytics: %w", err)
		}
		defer sink.Close()
		runnerOpts = append(runnerOpts, runner.WithAnalytics(sink))
	}

	rnr := runner.New(logger.Logger, ts, hl, runnerOpts...)

	ctx := context.Background()

	switch args.Command {
	case "status":
		rs, err := rnr.State(ctx)
		if err != nil {
			return err
		}
		printState(rs)

	case "start":
		rs, err := rnr.Start(ctx)
		if err != nil {
			return err
		}
		fmt.Println("Session started.")
		printState(rs)

	case "pause":
		rs, err := rnr.Pause(ctx)
		if err != nil {
			return err
		}
		printState(rs)

	case "resume":
		rs, err := rnr.Resume(ctx)
		if err != nil {
			return err
		}
		printState(rs)

	case "reset":
		rs, err := rnr.Reset(ctx)
		if err != nil {
			return err
		}
		fmt.Println("Session reset.")
		printState(rs)

	case "history":
		entries, err := rnr.History(ctx)
		if err != nil {
			return err
		}
		printHistory(entries, args.HistoryLimit)

	default:
		return fmt.Errorf("unknown command %q (use status, start, pause, resume, reset, history, or version)", args.Command)
	}

	return nil
}

func printState(rs timer.RunState) {
	fmt.Printf("Status:    %s\n", rs.Status)
	fmt.Printf("Remaining: %02d:%02d\n", rs.RemainingSec/60, rs.RemainingSec%60)
	if rs.StartedAt != nil {
		fmt.Printf("Started:   %s\n", rs.StartedAt.Local().Format("15:04:05"))
	}
	if rs.EndAt != nil {
		fmt.Printf("Ends:      %s\n", time.UnixMilli(*rs.EndAt).Local().Format("15:04:05"))
	}
}

func printHistory(entries []history.Entry, limit int) {
	if len(entries) == 0 {
		fmt.Println("No completed sessions.")
		return
	}

	total := len(entries)
	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}

	for _, e := range entries {
		fmt.Printf("%s  %2dm  %s\n",
			e.CompletedAt.Local().Format("2006-01-02 15:04"),
			e.DurationSec/60,
			e.ID,
		)
	}
	if len(entries) < total {
		fmt.Printf("(showing %d of %d)\n", len(entries), total)
	} else {
		fmt.Printf("%d completed sessions\n", total)
	}
}

func showVersion() {
	props := buildinfo.Get()
	fmt.Printf("pomo %s\n", props.Version)
	fmt.Printf("Built: %s\n", props.BuildTime)
	fmt.Printf("Commit: %s\n", props.GitCommit)
}

func parseArgs() Args {
	configPath := flag.String("config", "", "Path to config file")
	configPathShort := flag.String("c", "", "Path to config file (shorthand)")
	historyLimit := flag.Int("n", 0, "Show at most N history entries (0 shows all)")
	showVersion := flag.Bool("version", false, "Show version information")
	versionShort := flag.Bool("v", false, "Show version information (shorthand)")
	validate := flag.Bool("validate", false, "Validate configuration and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <command>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nPomo - Focus Timer CLI\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  status   Show the current timer state (default)\n")
		fmt.Fprintf(os.Stderr, "  start    Start a fresh 25 minute session\n")
		fmt.Fprintf(os.Stderr, "  pause    Pause the running session\n")
		fmt.Fprintf(os.Stderr, "  resume   Resume a paused session\n")
		fmt.Fprintf(os.Stderr, "  reset    Abandon the current session\n")
		fmt.Fprintf(os.Stderr, "  history  List completed sessions, newest first\n")
		fmt.Fprintf(os.Stderr, "  version  Show version information\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s --config config.yaml start\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -c config.yaml -n 5 history\n", os.Args[0])
	}

	flag.Parse()

	path := *configPath
	if path == "" && *configPathShort != "" {
		path = *configPathShort
	}

	command := flag.Arg(0)
	if command == "" {
		command = "status"
	}

	return Args{
		ConfigPath:   path,
		Command:      command,
		HistoryLimit: *historyLimit,
		ShowVersion:  *showVersion || *versionShort,
		Validate:     *validate,
	}
}

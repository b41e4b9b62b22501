package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/skriva/dirsyncd/internal/config"
	"github.com/skriva/dirsyncd/internal/sink"
	"github.com/skriva/dirsyncd/internal/sync"
)

var (
	// Set by goreleaser
	version = "dev"
	commit  = "none"
	date    = "unknown"

	// Global flags
	cfgFile   string
	source    string
	replica   string
	logFile   string
	interval  int
	logLevel  string
	logFormat string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "dirsyncd",
	Short: "Mirror a source directory tree to a replica location",
	Long: `dirsyncd keeps a replica directory identical to a source directory:
files and directories are created, updated, and deleted on the replica
until both trees match. Content changes are detected by hashing, so a file
whose bytes changed is updated even when its size and modification time
did not.

The run command repeats this on a fixed interval until interrupted; the
sync command performs a single pass.`,
	SilenceUsage: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Synchronize periodically until interrupted",
	Long: `Run scans both trees, applies the differences to the replica, then waits
the configured interval and repeats. SIGINT or SIGTERM stops the loop after
the action in flight completes.`,
	RunE: runRun,
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Perform a single synchronization pass",
	RunE:  runSync,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("dirsyncd %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (optional)")
	pf.StringVarP(&source, "source", "i", "", "path to the source directory")
	pf.StringVarP(&replica, "replica", "o", "", "path to the replica directory")
	pf.StringVarP(&logFile, "logfile", "l", "", "log file path; 'LAST' appends to the most recent log file (default: logs/sync_log-<timestamp>.log)")
	pf.IntVarP(&interval, "interval", "t", 0, "seconds between synchronization cycles (default 60)")
	pf.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&logFormat, "log-format", "", "log format (text, json)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(versionCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, cancel := setupSignalHandler()
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	events, logger, closeSink, err := buildSink(cfg)
	if err != nil {
		return err
	}
	defer closeSink()

	logger.Info("starting periodic synchronization",
		"source", cfg.Source,
		"replica", cfg.Replica,
		"interval_seconds", cfg.Interval)

	engine := sync.NewEngine(cfg.Source, cfg.Replica, events)
	scheduler := sync.NewScheduler(engine, cfg.IntervalDuration(), events)

	if err := scheduler.Run(ctx); err != nil {
		logger.Error("synchronization failed", "error", err)
		return err
	}
	return nil
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx, cancel := setupSignalHandler()
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	events, logger, closeSink, err := buildSink(cfg)
	if err != nil {
		return err
	}
	defer closeSink()

	engine := sync.NewEngine(cfg.Source, cfg.Replica, events)
	scheduler := sync.NewScheduler(engine, cfg.IntervalDuration(), events)

	if err := scheduler.RunOnce(ctx); err != nil {
		logger.Error("synchronization failed", "error", err)
		return err
	}
	return nil
}

// loadConfig builds the effective configuration: the optional YAML file
// first, then any explicitly set flags on top.
func loadConfig() (*config.Config, error) {
	cfg := &config.Config{}
	if cfgFile != "" {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flags := rootCmd.PersistentFlags()
	if flags.Changed("source") {
		cfg.Source = source
	}
	if flags.Changed("replica") {
		cfg.Replica = replica
	}
	if flags.Changed("logfile") {
		cfg.Log.File = logFile
	}
	if flags.Changed("interval") {
		cfg.Interval = interval
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = logFormat
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// buildSink resolves the log destination and wires the event sink to a
// logger writing to both console and file. File write failures degrade to
// console-only output rather than stopping synchronization.
func buildSink(cfg *config.Config) (sink.Sink, *slog.Logger, func(), error) {
	logPath, err := sink.ResolveLogPath(cfg.Log.File)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to resolve log path: %w", err)
	}

	out := io.Writer(os.Stdout)
	closeSink := func() {}

	f, err := sink.OpenLogFile(logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dirsyncd: logging to console only: %v\n", err)
	} else {
		out = io.MultiWriter(os.Stdout, f)
		closeSink = func() { _ = f.Close() }
	}

	logger := setupLogger(out, cfg.Log.Level, cfg.Log.Format)
	return sink.NewLogger(logger), logger, closeSink, nil
}

func setupLogger(out io.Writer, level, format string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	return slog.New(handler)
}

func setupSignalHandler() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		cancel()
	}()

	return ctx, cancel
}

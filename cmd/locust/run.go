package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/locust-proxy/locust/pkg/admin"
	"github.com/locust-proxy/locust/pkg/ca"
	"github.com/locust-proxy/locust/pkg/cli"
	"github.com/locust-proxy/locust/pkg/config"
	"github.com/locust-proxy/locust/pkg/feedback"
	"github.com/locust-proxy/locust/pkg/pipeline"
	"github.com/locust-proxy/locust/pkg/session"
	"github.com/locust-proxy/locust/pkg/store"
	"github.com/locust-proxy/locust/pkg/telemetry/logging"
	"github.com/locust-proxy/locust/pkg/telemetry/metrics"
	"github.com/locust-proxy/locust/pkg/telemetry/sink"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Locust proxy",
	Long: `Start the Locust proxy with the specified configuration.

The proxy binds the client-facing listener, starts the feedback worker, and
schedules the periodic ranking recalculation before serving traffic.

Examples:
  # Start with default config
  locust run

  # Start with custom config
  locust run --config /etc/locust/config.yaml

  # Override listen address
  locust run --listen 0.0.0.0:8080

  # Validate config without starting the proxy
  locust run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the proxy")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	if runFlags.listenAddress != "" {
		cfg.Admin.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}

	log, err := logging.New(logging.Config{
		Level:  cfg.Telemetry.Logging.Level,
		Format: cfg.Telemetry.Logging.Format,
	})
	if err != nil {
		return cli.NewConfigError("telemetry.logging", fmt.Sprintf("invalid logging config: %v", err))
	}

	if runFlags.dryRun {
		fmt.Println("config valid")
		return nil
	}

	authority, err := ca.New(ca.Config{
		RootCertPath:   cfg.CA.RootCertPath,
		RootKeyPath:    cfg.CA.RootKeyPath,
		CacheCapacity:  cfg.CA.CacheCapacity,
		CacheTTL:       cfg.CA.CacheTTL,
		WatchForReload: cfg.CA.WatchForReload,
		EnableHTTP2:    cfg.CA.EnableHTTP2,
	})
	if err != nil {
		return cli.NewCommandError("run", fmt.Errorf("load certificate authority: %w", err))
	}
	defer authority.Close()

	registry, err := store.Open(store.Config{
		Path:               cfg.Store.Path,
		BusyTimeout:        cfg.Store.BusyTimeout,
		CheckpointInterval: cfg.Store.CheckpointInterval,
	})
	if err != nil {
		return cli.NewCommandError("run", fmt.Errorf("open store: %w", err))
	}
	defer registry.Close()

	sessions := session.New(registry)

	var feedbackSink feedback.Sink
	if cfg.Telemetry.Sink.Addr != "" {
		feedbackSink = sink.New(cfg.Telemetry.Sink.Addr)
	}

	collector := metrics.NewCollector(cfg.Telemetry.Metrics.Enabled, nil)

	feedbackLog := slogLogger(cfg.Telemetry.Logging).With("component", "feedback")
	feedbackCh := feedback.NewChannel(cfg.Feedback.ChannelCapacity, feedbackLog)
	worker := feedback.NewWorker(feedbackCh, registry, feedbackSink, collector, feedbackLog)

	pipe := pipeline.New(pipeline.Config{
		Authority:       authority,
		Registry:        registry,
		Sessions:        sessions,
		Feedback:        feedbackCh,
		Metrics:         collector,
		Logger:          log.With("component", "pipeline"),
		DispatchTimeout: cfg.Admin.DispatchTimeout,
	})

	shell := admin.New(admin.Config{
		ListenAddress:       cfg.Admin.ListenAddress,
		RecalculateInterval: cfg.Admin.RecalculateInterval,
		ShutdownTimeout:     cfg.Admin.ShutdownTimeout,
	}, pipe.Handler(), feedbackCh, worker, log.With("component", "admin"))

	if cfg.Telemetry.Metrics.Enabled && cfg.Telemetry.Metrics.ListenAddress != "" {
		metricsMux := http.NewServeMux()
		metricsMux.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
		metricsServer := &http.Server{Addr: cfg.Telemetry.Metrics.ListenAddress, Handler: metricsMux}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("metrics listener failed", "error", err)
			}
		}()
		defer metricsServer.Close()
	}

	// Shell.Run installs its own SIGINT/SIGTERM handling (spec §4.F); a
	// bare background context is enough here.
	if err := shell.Run(context.Background()); err != nil {
		return cli.NewCommandError("run", err)
	}
	return nil
}

// slogLogger builds a plain *slog.Logger matching the configured level and
// format, for the packages (pkg/feedback) that depend on log/slog directly
// rather than on pkg/telemetry/logging's redacting wrapper.
func slogLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

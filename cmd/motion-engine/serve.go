package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/motionai/motion-engine/internal/api"
	"github.com/motionai/motion-engine/internal/config"
	"github.com/motionai/motion-engine/internal/database"
	"github.com/motionai/motion-engine/internal/ingest"
	"github.com/motionai/motion-engine/internal/metrics"
	"github.com/motionai/motion-engine/internal/mqttclient"
	"github.com/motionai/motion-engine/internal/pipeline"
	"github.com/motionai/motion-engine/internal/ratelimit"
	"github.com/motionai/motion-engine/internal/storage"
	"github.com/motionai/motion-engine/internal/tracing"
)

const (
	jobTimeout      = 15 * time.Minute
	shutdownTimeout = 10 * time.Second
	usageResetEvery = time.Hour
)

func newServeCommand(flags *globalFlags) *cobra.Command {
	var httpAddr, watchDir string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, job workers and watch-folder ingest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(config.Overrides{
				EnvFile:     flags.envFile,
				HTTPAddr:    httpAddr,
				LogLevel:    flags.logLevel,
				DatabaseURL: flags.databaseURL,
				MediaDir:    flags.mediaDir,
				WatchDir:    watchDir,
			})
			if err != nil {
				early := zerolog.New(os.Stderr).With().Timestamp().Logger()
				early.Error().Err(err).Msg("failed to load config")
				return err
			}
			return serve(cfg)
		},
	}
	cmd.Flags().StringVar(&httpAddr, "http-addr", "", "HTTP listen address")
	cmd.Flags().StringVar(&watchDir, "watch-dir", "", "Drop folder for automatic ingest")
	return cmd
}

func serve(cfg *config.Config) error {
	startTime := time.Now()
	log := newLogger(os.Stdout, cfg.LogLevel)
	log.Info().Str("version", version).Msg("motion-engine starting")

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Tracing
	trace, err := tracing.Setup(ctx, tracing.Options{
		ServiceName: "motion-engine",
		Version:     version,
		Enabled:     cfg.TraceEnabled,
		Endpoint:    cfg.TraceEndpoint,
	})
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}

	eng, err := newEngine(cfg, log)
	if err != nil {
		return err
	}
	defer eng.Close()
	if !eng.db.Configured() {
		log.Warn().Msg("DATABASE_URL not set, post endpoints will return 503")
	}

	// Media storage
	store, err := storage.New(cfg.S3, cfg.MediaDir, log.With().Str("component", "storage").Logger())
	if err != nil {
		return err
	}
	log.Info().Str("type", store.Type()).Msg("media store ready")
	fetcher := storage.NewFetcher(store, cfg.MaxUploadBytes, cfg.ProviderTimeout)

	// Job events
	var publisher pipeline.Publisher = mqttclient.LogPublisher{Log: log.With().Str("component", "jobs").Logger()}
	var broker api.BrokerStatus
	if cfg.MQTTBrokerURL != "" {
		mqtt, err := mqttclient.Connect(mqttclient.Options{
			BrokerURL:   cfg.MQTTBrokerURL,
			ClientID:    cfg.MQTTClientID,
			TopicPrefix: cfg.MQTTTopicPrefix,
			Username:    cfg.MQTTUsername,
			Password:    cfg.MQTTPassword,
			Log:         log,
		})
		if err != nil {
			return fmt.Errorf("connect to mqtt broker: %w", err)
		}
		defer mqtt.Close()
		publisher = mqtt
		broker = mqtt
	}

	// Pipeline
	runner := pipeline.NewRunner(pipeline.RunnerOptions{
		Fetcher:     fetcher,
		Transcriber: eng.transcriber,
		Generator:   eng.generator,
		Posts:       eng.db,
		Remover:     store,
		Log:         log,
	})
	pool := pipeline.NewWorkerPool(pipeline.WorkerPoolOptions{
		Processor:  runner,
		Workers:    cfg.Workers,
		QueueSize:  cfg.QueueSize,
		JobTimeout: jobTimeout,
		Publisher:  publisher,
		Log:        log,
	})
	pool.Start()
	defer pool.Stop()

	prometheus.MustRegister(metrics.NewCollector(eng.db.Pool, pool))

	// Rate limiting
	var limiter ratelimit.Limiter = ratelimit.NewMemory(cfg.RateLimit, cfg.RateLimitWindow)
	if cfg.RedisURL != "" {
		rl, err := ratelimit.NewRedis(cfg.RedisURL, "", cfg.RateLimit, cfg.RateLimitWindow)
		if err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}
		defer rl.Close()
		limiter = rl
		log.Info().Msg("rate limiting backed by redis")
	}

	// Watch-folder ingest
	var watcher api.WatcherSource
	if cfg.WatchDir != "" {
		fw := ingest.NewFileWatcher(ingest.Options{
			WatchDir:       cfg.WatchDir,
			UserID:         cfg.WatchUserID,
			TargetLanguage: cfg.WatchLanguage(),
			Template:       cfg.WatchTemplate,
			MaxBytes:       cfg.MaxUploadBytes,
			Submitter:      pool,
			Log:            log,
		})
		if err := fw.Start(); err != nil {
			return fmt.Errorf("start file watcher: %w", err)
		}
		defer fw.Stop()
		watcher = fw
	}

	go resetUsageLoop(ctx, eng.db, log.With().Str("component", "usage").Logger())

	// HTTP Server
	httpLog := log.With().Str("component", "http").Logger()
	srv := api.NewServer(api.ServerOptions{
		Config:      cfg,
		Posts:       eng.db,
		DB:          eng.db,
		Transcriber: eng.transcriber,
		Fetcher:     fetcher,
		Creator:     runner,
		Queue:       pool,
		Content:     eng.generator,
		Media:       store,
		MQTT:        broker,
		Watcher:     watcher,
		Limiter:     limiter,
		Version:     version,
		StartTime:   startTime,
		Log:         httpLog,
	})

	// Start HTTP server in background
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	// Wait for shutdown signal or server error
	var serveErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case serveErr = <-errCh:
		if serveErr != nil {
			log.Error().Err(serveErr).Msg("http server error")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown error")
	}
	if err := trace.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("tracing shutdown error")
	}

	log.Info().Msg("motion-engine stopped")
	return serveErr
}

// resetUsageLoop zeroes stale daily usage counters once at startup and then
// hourly. A database that is not configured makes it a no-op.
func resetUsageLoop(ctx context.Context, db *database.Handle, log zerolog.Logger) {
	if !db.Configured() {
		return
	}
	ticker := time.NewTicker(usageResetEvery)
	defer ticker.Stop()
	for {
		n, err := db.ResetDailyUsage(ctx)
		if err != nil && ctx.Err() == nil {
			log.Warn().Err(err).Msg("daily usage reset failed")
		} else if n > 0 {
			log.Info().Int64("rows", n).Msg("daily usage reset")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

package main

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

	"github.com/couchcryptid/disaster-rtd-service/internal/adapter/fcm"
	"github.com/couchcryptid/disaster-rtd-service/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/disaster-rtd-service/internal/adapter/kafka"
	"github.com/couchcryptid/disaster-rtd-service/internal/adapter/kakao"
	"github.com/couchcryptid/disaster-rtd-service/internal/adapter/postgres"
	"github.com/couchcryptid/disaster-rtd-service/internal/adapter/redisstore"
	"github.com/couchcryptid/disaster-rtd-service/internal/config"
	"github.com/couchcryptid/disaster-rtd-service/internal/console"
	"github.com/couchcryptid/disaster-rtd-service/internal/enrich"
	"github.com/couchcryptid/disaster-rtd-service/internal/notify"
	"github.com/couchcryptid/disaster-rtd-service/internal/observability"
	"github.com/couchcryptid/disaster-rtd-service/internal/pipeline"
	"github.com/couchcryptid/disaster-rtd-service/internal/scheduler"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to read .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, stop, cfg, logger, metrics); err != nil {
		logger.Error("service failed", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

func run(ctx context.Context, stop context.CancelFunc, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) error {
	if err := postgres.Migrate(cfg.DatabaseURL, logger); err != nil {
		return err
	}
	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	records := postgres.NewRecordStore(pool, logger)

	enricher, enricherChecks, closeEnricher, err := newEnricher(ctx, cfg, logger, metrics)
	if err != nil {
		return err
	}
	defer closeEnricher()

	opts := []pipeline.Option{pipeline.WithRetry(cfg.StoreRetryAttempts, 0)}
	if cfg.PushEnabled() {
		sender, err := fcm.NewClient(ctx, cfg.FCMProjectID, cfg.FCMCredentialsFile, cfg.UpstreamTimeout, logger)
		if err != nil {
			return err
		}
		opts = append(opts, pipeline.WithNotifier(notify.New(postgres.NewTokenStore(pool), sender, cfg.PushBatchSize, metrics, logger)))
		logger.Info("push notifications enabled", "project", cfg.FCMProjectID, "batch_size", cfg.PushBatchSize)
	} else {
		logger.Info("push notifications disabled")
	}
	if len(cfg.KafkaBrokers) > 0 {
		publisher := kafkaadapter.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		defer func() {
			if err := publisher.Close(); err != nil {
				logger.Error("kafka publisher close error", "error", err)
			}
		}()
		opts = append(opts, pipeline.WithPublisher(publisher))
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	p := pipeline.New(pipeline.NewTransformer(enricher, logger), records, logger, metrics, opts...)

	sched := scheduler.New(logger, metrics,
		scheduler.WithTick(cfg.SchedulerTick),
		scheduler.WithPoolSize(cfg.WorkerPoolSize),
	)
	for _, src := range newSources(cfg, logger) {
		if err := sched.Register(src.Name(), cfg.Intervals[src.Name()], p.Job(src)); err != nil {
			return fmt.Errorf("register %s: %w", src.Name(), err)
		}
	}

	ready := append(httpadapter.ReadinessChecks{sched}, enricherChecks...)
	srv := httpadapter.NewServer(cfg.HTTPAddr, ready, sched, p, records, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	schedDone := make(chan error, 1)
	go func() { schedDone <- sched.Run(ctx) }()

	switch {
	case !cfg.ConsoleEnabled:
	case !console.Interactive():
		logger.Info("console disabled: stdin is not a terminal")
	default:
		con := console.New(sched, p, records, hazardJobs, logger)
		go func() {
			err := con.Run(ctx)
			switch {
			case errors.Is(err, console.ErrQuit):
				logger.Info("operator requested shutdown")
				stop()
			case err != nil:
				logger.Error("console error", "error", err)
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	select {
	case err := <-schedDone:
		if err != nil {
			logger.Error("scheduler error", "error", err)
		}
	case <-shutdownCtx.Done():
		logger.Warn("scheduler did not drain before shutdown timeout")
	}
	return nil
}

// newEnricher builds the geocode cache, or returns a nil enricher when
// geocoding is disabled. The returned checks cover the cache backend.
func newEnricher(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (pipeline.Enricher, httpadapter.ReadinessChecks, func(), error) {
	noop := func() {}
	if !cfg.GeocodeEnabled {
		metrics.GeocodeEnabled.Set(0)
		logger.Info("geocoding disabled")
		return nil, nil, noop, nil
	}

	var (
		store   enrich.Store
		checks  httpadapter.ReadinessChecks
		closeFn = noop
	)
	switch cfg.GeocacheBackend {
	case "redis":
		connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		rs, client, err := redisstore.New(connectCtx, cfg.RedisAddr, logger)
		if err != nil {
			return nil, nil, noop, err
		}
		store = rs
		checks = append(checks, rs)
		closeFn = func() { _ = client.Close() }
	default:
		fs, err := enrich.NewFileStore(cfg.GeocachePath, logger)
		if err != nil {
			return nil, nil, noop, err
		}
		store = fs
		closeFn = func() {
			if err := fs.Close(); err != nil {
				logger.Error("geocache close error", "error", err)
			}
		}
	}

	geocoder := kakao.NewClient(cfg.KakaoRESTKey, cfg.GeocodeTimeout, metrics, logger)
	cache, err := enrich.New(ctx, geocoder, store, cfg.GeocodeTimeout, metrics, logger)
	if err != nil {
		closeFn()
		return nil, nil, noop, err
	}
	metrics.GeocodeEnabled.Set(1)
	logger.Info("geocoding enabled", "backend", cfg.GeocacheBackend, "timeout", cfg.GeocodeTimeout)
	return cache, checks, closeFn, nil
}

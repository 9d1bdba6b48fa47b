// cmd/server/main.go
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"stresscheck/internal/alerts"
	"stresscheck/internal/analysis"
	"stresscheck/internal/api"
	"stresscheck/internal/common/camunda"
	"stresscheck/internal/common/config"
	"stresscheck/internal/common/database"
	"stresscheck/internal/common/logger"
	"stresscheck/internal/common/observability"
	"stresscheck/internal/sentiment"
	"stresscheck/internal/transcript"
	analyzeresponses "stresscheck/internal/workers/analysis/analyze-responses"
	"stresscheck/pkg/registry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting stresscheck server",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	ctx := context.Background()

	obs := observability.New(observability.Options{
		ServiceName:    cfg.Observability.ServiceName,
		JaegerEndpoint: cfg.Observability.JaegerEndpoint,
		Logger:         log,
	})

	readiness := map[string]api.ReadinessCheck{}

	// --- Redis (classifier cache) ---
	var rdb redis.Cmdable
	if cfg.Classifier.Cache.Enabled && cfg.Database.Redis.Address != "" {
		rc, err := database.NewRedis(ctx, cfg.Database.Redis)
		if err != nil {
			zapLog.Warn("redis unavailable, classifier cache disabled", zap.Error(err))
		} else {
			defer rc.Close()
			rdb = rc.GetClient()
			readiness["redis"] = rc.Ping
			zapLog.Info("Redis connected successfully")
		}
	}

	// --- PostgreSQL (transcript store) ---
	var db *sql.DB
	if cfg.Transcript.Store == transcript.StorePostgres {
		pg, err := database.NewPostgres(ctx, cfg.Database.Postgres)
		if err != nil {
			zapLog.Fatal("postgres connection failed", zap.Error(err))
		}
		defer pg.Close()
		db = pg.GetDB()
		readiness["postgres"] = pg.Ping
		zapLog.Info("PostgreSQL connected successfully")
	}

	classifier, err := sentiment.New(cfg.Classifier, sentiment.Options{
		Redis:  rdb,
		Tracer: obs.Tracer(),
		Logger: log,
	})
	if err != nil {
		zapLog.Fatal("classifier init failed", zap.Error(err))
	}

	analyzer := analysis.NewAnalyzer(analysis.Config{
		MaxTokens:         cfg.Classifier.MaxTokens,
		ClassifierTimeout: config.GetDuration(cfg.Classifier.Timeout),
	}, classifier, log, obs)

	store, err := transcript.New(ctx, cfg.Transcript, db, log)
	if err != nil {
		zapLog.Fatal("transcript store init failed", zap.Error(err))
	}
	defer store.Close()

	notifier, err := alerts.New(ctx, cfg.Alerts, cfg.Analysis.AlertLevel, log)
	if err != nil {
		zapLog.Fatal("alerts init failed", zap.Error(err))
	}

	// --- Zeebe worker ---
	var jobWorker *camunda.Worker
	if cfg.Camunda.Enabled {
		zc, err := camunda.Connect(ctx, &camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
		}, log)
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		defer zc.Close()
		readiness["zeebe"] = zc.HealthCheck
		zapLog.Info("Zeebe client connected successfully")

		jobWorker = startAnalyzeWorker(zc, cfg, analyzer, store, notifier, log, zapLog)
	}

	// --- HTTP API ---
	var apiNotifier api.Notifier
	if notifier != nil {
		apiNotifier = notifier
	}
	srv := &http.Server{
		Addr: cfg.Server.Address,
		Handler: api.NewRouter(api.Options{
			Analyzer:        analyzer,
			Store:           store,
			Notifier:        apiNotifier,
			Logger:          log,
			AllowedOrigins:  cfg.Server.AllowedOrigins,
			MaxBodyBytes:    cfg.Server.MaxBodyBytes,
			ReadinessChecks: readiness,
			Version:         cfg.App.Version,
			RateLimitRPS:    cfg.Server.RateLimitRPS,
			RateLimitBurst:  cfg.Server.RateLimitBurst,
		}),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}
	jobWorker.Stop()
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down telemetry", zap.Error(err))
	}

	zapLog.Info("Server stopped gracefully")
}

func startAnalyzeWorker(
	zc *camunda.Client,
	cfg *config.Config,
	analyzer *analysis.Analyzer,
	store transcript.Store,
	notifier *alerts.Notifier,
	log logger.Logger,
	zapLog *zap.Logger,
) *camunda.Worker {
	wcfg := config.GetWorkerConfig(cfg, analyzeresponses.TaskType)

	reg, err := registry.Default()
	if err != nil {
		zapLog.Fatal("activity registry load failed", zap.Error(err))
	}

	opts := analyzeresponses.HandlerOptions{
		Config:   analyzeresponses.LoadConfig(reg, config.GetDuration(wcfg.Timeout), wcfg.MaxRetries),
		Registry: reg,
		Analyzer: analyzer,
		Logger:   log,
	}
	if finder, ok := store.(analyzeresponses.TranscriptFinder); ok {
		opts.Transcripts = finder
	}
	if notifier != nil {
		opts.Notifier = notifier
	}

	handler, err := analyzeresponses.NewHandler(opts)
	if err != nil {
		zapLog.Fatal("failed to create analyze handler", zap.Error(err))
	}
	return camunda.StartWorker(zc.GetClient(), analyzeresponses.TaskType, wcfg, handler, log)
}

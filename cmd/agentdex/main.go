package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/agentdex/internal/config"
	dbRedis "github.com/kailas-cloud/agentdex/internal/db/redis"
	"github.com/kailas-cloud/agentdex/internal/domain"
	logpkg "github.com/kailas-cloud/agentdex/internal/logger"
	"github.com/kailas-cloud/agentdex/internal/metrics"
	agentrepo "github.com/kailas-cloud/agentdex/internal/repository/agent"
	"github.com/kailas-cloud/agentdex/internal/repository/embcache"
	outcomerepo "github.com/kailas-cloud/agentdex/internal/repository/outcome"
	chiTransport "github.com/kailas-cloud/agentdex/internal/transport/chi"
	openaiEmb "github.com/kailas-cloud/agentdex/internal/transport/openai"
	"github.com/kailas-cloud/agentdex/internal/usecase/backfill"
	healthuc "github.com/kailas-cloud/agentdex/internal/usecase/health"
	"github.com/kailas-cloud/agentdex/internal/usecase/match"
	outcomeuc "github.com/kailas-cloud/agentdex/internal/usecase/outcome"
	"github.com/kailas-cloud/agentdex/internal/usecase/semantic"
	"github.com/kailas-cloud/agentdex/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting agentdex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register engine metrics explicitly (no init())
	metrics.RegisterEngineMetrics()

	// A missing API key is not an error: the engine runs with the
	// text fallback until a provider credential is configured.
	// Pass nil interface (not typed nil pointer!) when absent.
	var embedder domain.Embedder
	var healthChecker healthuc.EmbeddingChecker
	if cfg.Embedding.APIKey != "" {
		emb := openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			Timeout:    time.Duration(cfg.Embedding.TimeoutSec) * time.Second,
			Provider:   cfg.Embedding.Provider,
			Logger:     logger,
		})
		embedder = emb
		healthChecker = emb
		logger.Info("Embedding provider configured",
			zap.String("provider", cfg.Embedding.Provider),
			zap.String("model", cfg.Embedding.Model),
			zap.Int("dimensions", cfg.Embedding.Dimensions),
		)
	} else {
		logger.Warn("No embedding API key configured, semantic search will use text fallback")
	}

	weights, err := cfg.Weights()
	if err != nil {
		logger.Fatal("Invalid scoring weights", zap.Error(err))
	}
	scorer, err := match.NewScorer(weights)
	if err != nil {
		logger.Fatal("Failed to create scorer", zap.Error(err))
	}

	agents := agentrepo.New(store)
	outcomes := outcomerepo.New(store)

	matchSvc := match.New(agents, scorer,
		match.WithDefaultLimit(cfg.Matching.DefaultLimit),
	)
	semanticOpts := []semantic.Option{
		semantic.WithDefaultLimit(cfg.Matching.DefaultLimit),
		semantic.WithMinSimilarity(cfg.Matching.MinSimilarity),
	}
	if embedder != nil {
		semanticOpts = append(semanticOpts,
			semantic.WithQueryCache(embcache.New(store, embcache.DefaultTTL)))
	}
	semanticSvc := semantic.New(agents, embedder, logger, semanticOpts...)
	outcomeSvc := outcomeuc.New(outcomes)
	backfillSvc := backfill.New(agents, embedder, logger,
		backfill.WithPacing(cfg.Backfill.BatchSize, time.Duration(cfg.Backfill.PauseMS)*time.Millisecond),
	)
	healthSvc := healthuc.New(store, healthChecker)

	server := chiTransport.NewServer(matchSvc, semanticSvc, outcomeSvc, backfillSvc, healthSvc, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Router(cfg.Auth.APIKeys),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

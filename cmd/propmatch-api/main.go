package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/propmatch/internal/config"
	"github.com/kailas-cloud/propmatch/internal/corpus"
	"github.com/kailas-cloud/propmatch/internal/db"
	dbRedis "github.com/kailas-cloud/propmatch/internal/db/redis"
	"github.com/kailas-cloud/propmatch/internal/domain"
	"github.com/kailas-cloud/propmatch/internal/domain/query"
	logpkg "github.com/kailas-cloud/propmatch/internal/logger"
	"github.com/kailas-cloud/propmatch/internal/metrics"
	"github.com/kailas-cloud/propmatch/internal/repository/embcache"
	chiTransport "github.com/kailas-cloud/propmatch/internal/transport/chi"
	openaiEmb "github.com/kailas-cloud/propmatch/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/propmatch/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/propmatch/internal/usecase/health"
	matchuc "github.com/kailas-cloud/propmatch/internal/usecase/match"
	"github.com/kailas-cloud/propmatch/internal/version"
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

	logger.Info("Starting propmatch API server",
		zap.String("version", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("corpus_path", cfg.Corpus.Path),
		zap.String("embedding_model", cfg.Embedding.Model),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterHTTPMetrics()
	metrics.RegisterMatchMetrics()
	metrics.RegisterEmbeddingMetrics()

	ctx := context.Background()

	// Optional embedding cache. rueidis speaks to both Redis and Valkey.
	var cache db.Store
	if cfg.Cache.Enabled() {
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		cache = store
		defer cache.Close()

		if err := cache.WaitForReady(ctx, time.Duration(cfg.Cache.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Cache not ready", zap.Error(err))
		}
		logger.Info("Connected to embedding cache",
			zap.String("driver", cfg.Cache.Driver),
			zap.Strings("addrs", cfg.Cache.Addrs),
		)
	}

	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})
	if err := domain.EnsureReady(ctx, base, time.Duration(cfg.Embedding.TimeoutSec)*time.Second); err != nil {
		logger.Fatal("Embedding provider not ready",
			zap.String("provider", cfg.Embedding.Provider),
			zap.String("model", cfg.Embedding.Model),
			zap.Error(err),
		)
	}
	queryEmbedder := buildQueryEmbedder(base, cfg.Embedding, cfg.Cache, cache, logger)

	// Corpus is loaded once; a failure here means the service cannot start.
	loader := corpus.NewLoader(logger).
		WithAllowEmpty(cfg.Corpus.AllowEmpty).
		WithSkipCounter(metrics.CorpusSkippedTotal)
	loaded, report, err := loader.LoadFile(cfg.Corpus.Path)
	if err != nil {
		logger.Fatal("Failed to load corpus",
			zap.String("path", cfg.Corpus.Path),
			zap.Int("skipped", len(report.Skipped)),
			zap.Error(err),
		)
	}
	metrics.CorpusEntries.Set(float64(loaded.Len()))
	holder := corpus.NewHolder(loaded)

	reloadCtx, stopReload := context.WithCancel(ctx)
	defer stopReload()
	if cfg.Corpus.ReloadIntervalSec > 0 {
		reloader := corpus.NewReloader(
			cfg.Corpus.Path, loader, holder,
			time.Duration(cfg.Corpus.ReloadIntervalSec)*time.Second, logger,
		).OnSwap(func(c *corpus.Corpus) {
			metrics.CorpusEntries.Set(float64(c.Len()))
		})
		go reloader.Run(reloadCtx)
		logger.Info("Corpus hot reload enabled", zap.Int("interval_sec", cfg.Corpus.ReloadIntervalSec))
	}

	matchSvc := matchuc.New(queryEmbedder, holder, logger).
		WithDefaults(cfg.Match.Threshold, cfg.Match.TopK).
		WithTagsMode(query.TagsMode(cfg.Match.TagsMode)).
		WithPrecision(cfg.Match.Precision)

	// cache stays a nil interface when disabled, so health skips it.
	healthSvc := healthuc.New(holder, cache, newEmbeddingHealthChecker(base))

	server := chiTransport.NewServer(matchSvc, healthSvc, logger)
	handler := chiTransport.NewRouter(server, cfg.Auth.APIKeys, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server",
			zap.String("addr", addr),
			zap.Int("corpus_entries", loaded.Len()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")
	stopReload()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}

// buildQueryEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented -> Prefixed
func buildQueryEmbedder(
	base domain.Embedder,
	embCfg config.EmbeddingConfig,
	cacheCfg config.CacheConfig,
	cache db.KVStore,
	logger *zap.Logger,
) domain.Embedder {
	var embedder = base
	if cache != nil {
		embedder = embcache.New(
			base, cache, embCfg.Model,
			time.Duration(cacheCfg.TTLSec)*time.Second,
			metrics.EmbeddingCacheTotal, logger,
		)
	}

	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, embCfg.Provider, embCfg.Model, logger).
		WithTimeout(time.Duration(embCfg.TimeoutSec) * time.Second).
		WithRateLimit(embCfg.RateLimitRPS, embCfg.RateLimitBurst)

	// outermost, so the cache key includes the instruction
	return embeddinguc.NewPrefixed(embedder, embeddinguc.RoleQuery, embCfg.QueryInstruction)
}

package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/projectrag/internal/config"
	"github.com/kailas-cloud/projectrag/internal/db"
	dbRedis "github.com/kailas-cloud/projectrag/internal/db/redis"
	"github.com/kailas-cloud/projectrag/internal/domain"
	"github.com/kailas-cloud/projectrag/internal/index"
	logpkg "github.com/kailas-cloud/projectrag/internal/logger"
	"github.com/kailas-cloud/projectrag/internal/metrics"
	"github.com/kailas-cloud/projectrag/internal/repository/embcache"
	"github.com/kailas-cloud/projectrag/internal/storage/sqlite"
	anthropicGen "github.com/kailas-cloud/projectrag/internal/transport/anthropic"
	openaiTransport "github.com/kailas-cloud/projectrag/internal/transport/openai"
	"github.com/kailas-cloud/projectrag/internal/usecase/chat"
	embeddinguc "github.com/kailas-cloud/projectrag/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/projectrag/internal/usecase/health"
	trackeruc "github.com/kailas-cloud/projectrag/internal/usecase/tracker"
	"github.com/kailas-cloud/projectrag/internal/version"
)

// app is the composition root shared by the serve and ask commands.
type app struct {
	env     string
	cfg     config.Config
	logger  *zap.Logger
	store   *sqlite.Store
	kv      *dbRedis.Store // nil when the embedding cache is disabled
	indexes *index.Cache
	chat    *chat.Service
	tracker *trackeruc.Service
	health  *healthuc.Service
}

func newApp(ctx context.Context, env string) (*app, error) {
	cfg, err := config.Load(env)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	logger.Info("Starting projectrag",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("db_path", cfg.Database.Path),
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("llm_model", cfg.LLM.Model),
	)

	a := &app{env: env, cfg: cfg, logger: logger}

	a.store, err = sqlite.Open(ctx, cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open tracker database: %w", err)
	}

	var kv db.KVStore
	if cfg.Cache.Enabled() {
		a.kv, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Username: cfg.Cache.Username,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("create embedding cache: %w", err)
		}
		timeout := time.Duration(cfg.Cache.ReadinessTimeout) * time.Second
		if err := a.kv.WaitForReady(ctx, timeout); err != nil {
			a.Close()
			return nil, fmt.Errorf("embedding cache not ready: %w", err)
		}
		kv = a.kv
		logger.Info("Connected to embedding cache", zap.Strings("addrs", cfg.Cache.Addrs))
	}

	// Register provider and index metrics explicitly (no init())
	metrics.RegisterProviderMetrics()

	docEmbedder, probe := buildEmbedder(cfg.Embedding, cfg.Embedding.DocumentInstruction, kv, cfg.Cache.TTLHours, logger)
	queryEmbedder, _ := buildEmbedder(cfg.Embedding, cfg.Embedding.QueryInstruction, kv, cfg.Cache.TTLHours, logger)
	logger.Info("Embedders created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.Bool("cached", kv != nil),
	)

	a.indexes = index.NewCache(a.store, docEmbedder, queryEmbedder, logger)
	a.indexes.SetBuildTimeout(cfg.RAG.RefreshTimeout())
	a.chat = chat.New(a.indexes, buildGenerator(cfg.LLM, logger), cfg.RAG.TopK, cfg.RAG.RequestTimeout())
	a.tracker = trackeruc.New(a.store)

	// Pass a nil interface, not a typed nil pointer, when the cache is disabled.
	var cachePinger healthuc.DBPinger
	if a.kv != nil {
		cachePinger = a.kv
	}
	a.health = healthuc.New(a.store, cachePinger, newEmbeddingHealthChecker(probe))

	return a, nil
}

// Close releases the database and cache connections and flushes the logger.
func (a *app) Close() {
	if a.kv != nil {
		a.kv.Close()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("Close tracker database", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented -> Instruction.
// The bare provider is also returned for health checks, which the decorators do not forward.
func buildEmbedder(
	cfg config.EmbeddingConfig,
	instruction string,
	kv db.KVStore,
	ttlHours int,
	logger *zap.Logger,
) (domain.Embedder, domain.Embedder) {
	// Base provider (with transport metrics built-in)
	base := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		Dimensions: cfg.Dimensions,
		Provider:   cfg.Provider,
		Logger:     logger,
	})

	var embedder domain.Embedder = base
	if kv != nil {
		// Instruction is applied outside the cache, so it is part of the cached text.
		scope := fmt.Sprintf("%s:%d", cfg.Model, cfg.Dimensions)
		embedder = embcache.New(base, kv, scope,
			time.Duration(ttlHours)*time.Hour, metrics.EmbeddingCacheTotal, logger)
	}

	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, cfg.Provider, cfg.Model, cfg.BatchSize, logger)

	if instruction != "" {
		return domain.NewInstructionEmbedder(embedder, instruction), base
	}
	return embedder, base
}

// buildGenerator selects the language model client by provider.
func buildGenerator(cfg config.LLMConfig, logger *zap.Logger) chat.Generator {
	if cfg.Provider == config.ProviderAnthropic {
		return anthropicGen.NewGenerator(&anthropicGen.Config{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
			Timeout:     cfg.Timeout(),
			Logger:      logger,
		})
	}
	return openaiTransport.NewGenerator(&openaiTransport.GeneratorConfig{
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		Temperature: float32(cfg.Temperature),
		MaxTokens:   cfg.MaxTokens,
		Timeout:     cfg.Timeout(),
		Provider:    cfg.Provider,
		Logger:      logger,
	})
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

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

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/lumina-search/lumina/internal/config"
	dbMilvus "github.com/lumina-search/lumina/internal/db/milvus"
	dbRedis "github.com/lumina-search/lumina/internal/db/redis"
	"github.com/lumina-search/lumina/internal/domain"
	domimage "github.com/lumina-search/lumina/internal/domain/image"
	"github.com/lumina-search/lumina/internal/domain/search/result"
	"github.com/lumina-search/lumina/internal/domain/stats"
	"github.com/lumina-search/lumina/internal/imaging"
	logpkg "github.com/lumina-search/lumina/internal/logger"
	"github.com/lumina-search/lumina/internal/metrics"
	"github.com/lumina-search/lumina/internal/repository/embcache"
	imagerepo "github.com/lumina-search/lumina/internal/repository/image"
	chiTransport "github.com/lumina-search/lumina/internal/transport/chi"
	cohereEmb "github.com/lumina-search/lumina/internal/transport/cohere"
	openaiEmb "github.com/lumina-search/lumina/internal/transport/openai"
	embeddinguc "github.com/lumina-search/lumina/internal/usecase/embedding"
	healthuc "github.com/lumina-search/lumina/internal/usecase/health"
	imageuc "github.com/lumina-search/lumina/internal/usecase/image"
	searchuc "github.com/lumina-search/lumina/internal/usecase/search"
	"github.com/lumina-search/lumina/internal/version"
)

// imageIndex is what the composition root needs from either vector store backend.
type imageIndex interface {
	Ensure(ctx context.Context) error
	Ping(ctx context.Context) error
	Upsert(ctx context.Context, records []domimage.Record) error
	Query(ctx context.Context, vector []float32, topK int, namespace string) ([]result.Result, error)
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (stats.Stats, error)
}

func main() {
	// A missing .env is fine: real deployments set the environment directly
	_ = godotenv.Load()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLoggerWithFile(env, logpkg.FileConfig{
		Path:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	}, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting Lumina API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("vectorstore_driver", cfg.VectorStore.Driver),
		zap.Strings("vectorstore_addrs", cfg.VectorStore.Addrs),
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.String("embedding_model", cfg.Embedding.Model),
	)

	metrics.Register()

	ctx := context.Background()
	readiness := time.Duration(cfg.VectorStore.ReadinessTimeout) * time.Second
	indexCfg := imagerepo.Config{
		Index:     cfg.VectorStore.Index,
		KeyPrefix: cfg.VectorStore.KeyPrefix,
		Dimension: cfg.VectorStore.Dimension,
		ChunkSize: cfg.VectorStore.UpsertChunkSize,
	}

	// Vector store
	var (
		index      imageIndex
		redisStore *dbRedis.Store
		closeStore func()
	)
	switch cfg.VectorStore.Driver {
	case config.DriverRedis:
		redisStore, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.VectorStore.Addrs,
			Username: cfg.VectorStore.Username,
			Password: cfg.VectorStore.Password,
			DB:       cfg.VectorStore.DB,
		})
		if err != nil {
			logger.Fatal("Failed to create redis store", zap.Error(err))
		}
		closeStore = redisStore.Close
		if err := redisStore.WaitForReady(ctx, readiness); err != nil {
			logger.Fatal("Redis not ready", zap.Error(err))
		}
		index = imagerepo.NewRedisIndex(redisStore, indexCfg,
			cfg.VectorStore.HNSWM, cfg.VectorStore.HNSWEFConstruct, logger)
	case config.DriverMilvus:
		dialCtx, cancel := context.WithTimeout(ctx, readiness)
		milvusStore, err := dbMilvus.NewStore(dialCtx, dbMilvus.Config{
			Address:  cfg.VectorStore.Addrs[0],
			Username: cfg.VectorStore.Username,
			Password: cfg.VectorStore.Password,
			DBName:   cfg.VectorStore.DBName,
		})
		cancel()
		if err != nil {
			logger.Fatal("Failed to connect to milvus", zap.Error(err))
		}
		closeStore = func() { _ = milvusStore.Close() }
		index = imagerepo.NewMilvusIndex(milvusStore, indexCfg, logger)
	default:
		logger.Fatal("Unknown vectorstore driver", zap.String("driver", cfg.VectorStore.Driver))
	}
	defer closeStore()

	if err := index.Ensure(ctx); err != nil {
		logger.Fatal("Failed to ensure vector index", zap.Error(err))
	}
	logger.Info("Vector index ready",
		zap.String("index", cfg.VectorStore.Index),
		zap.Int("dimension", cfg.VectorStore.Dimension),
	)

	embedder := buildEmbedder(cfg.Embedding, redisStore, cfg.VectorStore.KeyPrefix, logger)
	logger.Info("Embedder created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Bool("query_cache", cfg.Embedding.Cache.Enabled),
	)

	// Use cases
	prep := imaging.NewPreparer(cfg.Embedding.MaxImageSide, cfg.Embedding.JPEGQuality).
		WithMaxPixels(cfg.Embedding.MaxPixels)
	imageSvc := imageuc.New(index, embedder, prep, logger).
		WithNamespace(cfg.VectorStore.DefaultNamespace).
		WithBatch(cfg.Upload.BatchEmbedSize, cfg.Upload.BatchConcurrency)
	searchSvc := searchuc.New(index, embedder, logger)
	healthSvc := healthuc.New(index, embedder, index, embedder.Model())

	server := chiTransport.NewServer(imageSvc, searchSvc, healthSvc, chiTransport.Options{
		MaxUploadBytes: int64(cfg.HTTP.MaxUploadMB) << 20,
		MaxBatchFiles:  cfg.Upload.MaxBatchFiles,
	}, logger)

	router := chiTransport.NewRouter(server, chiTransport.RouterConfig{
		APIKeys:     cfg.Auth.APIKeys,
		CORSOrigins: cfg.HTTP.CORSOrigins,
		StaticDir:   cfg.HTTP.StaticDir,
		Development: env != "prod",
	}, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

// buildEmbedder assembles the decorator chain: provider -> Cached (optional) -> Instrumented.
func buildEmbedder(
	cfg config.EmbeddingConfig,
	cacheStore *dbRedis.Store,
	keyPrefix string,
	logger *zap.Logger,
) *embeddinguc.InstrumentedEmbedder {
	var base domain.MultimodalEmbedder
	switch cfg.Provider {
	case config.ProviderOpenAI:
		base = openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			Provider:   cfg.Provider,
			Logger:     logger,
		})
	default:
		base = cohereEmb.NewEmbedder(&cohereEmb.Config{
			APIKey:   cfg.APIKey,
			BaseURL:  cfg.BaseURL,
			Model:    cfg.Model,
			Provider: cfg.Provider,
			Logger:   logger,
		})
	}

	embedder := base
	if cfg.Cache.Enabled && cacheStore != nil {
		embedder = embcache.New(base, cacheStore, keyPrefix, cfg.Model,
			time.Duration(cfg.Cache.TTLHours)*time.Hour, metrics.EmbeddingCacheTotal, logger)
	}

	return embeddinguc.NewInstrumentedEmbedder(embedder, cfg.Provider, cfg.Model, cfg.MaxBatchSize, logger)
}

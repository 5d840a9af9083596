package lumina

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	dbMilvus "github.com/lumina-search/lumina/internal/db/milvus"
	dbRedis "github.com/lumina-search/lumina/internal/db/redis"
	"github.com/lumina-search/lumina/internal/domain"
	dombatch "github.com/lumina-search/lumina/internal/domain/batch"
	domimage "github.com/lumina-search/lumina/internal/domain/image"
	"github.com/lumina-search/lumina/internal/domain/search/request"
	"github.com/lumina-search/lumina/internal/domain/search/result"
	"github.com/lumina-search/lumina/internal/domain/stats"
	"github.com/lumina-search/lumina/internal/imaging"
	imagerepo "github.com/lumina-search/lumina/internal/repository/image"
	cohereEmb "github.com/lumina-search/lumina/internal/transport/cohere"
	openaiEmb "github.com/lumina-search/lumina/internal/transport/openai"
	embeddinguc "github.com/lumina-search/lumina/internal/usecase/embedding"
	healthuc "github.com/lumina-search/lumina/internal/usecase/health"
	imageuc "github.com/lumina-search/lumina/internal/usecase/image"
	searchuc "github.com/lumina-search/lumina/internal/usecase/search"
)

const (
	driverRedis  = "redis"
	driverMilvus = "milvus"

	providerCohere = "cohere"
	providerOpenAI = "openai"

	defaultDimension        = 1536
	defaultIndex            = "lumina"
	defaultKeyPrefix        = "lumina:"
	defaultHNSWM            = 16
	defaultHNSWEF           = 200
	defaultReadinessTimeout = 10 * time.Second
)

// Internal interfaces, swapped for mocks in tests.
type imageUseCase interface {
	Upload(ctx context.Context, f imageuc.File, namespace string) (domimage.Record, error)
	UploadBatch(ctx context.Context, files []imageuc.File, namespace string) ([]dombatch.Result, error)
	Delete(ctx context.Context, id, namespace string) error
}

type searchUseCase interface {
	Search(ctx context.Context, req *request.Request) ([]result.Result, error)
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
	Stats(ctx context.Context) (stats.Stats, error)
}

// index is what the client needs from either vector store backend.
type index interface {
	Ensure(ctx context.Context) error
	Ping(ctx context.Context) error
	Upsert(ctx context.Context, records []domimage.Record) error
	Query(ctx context.Context, vector []float32, topK int, namespace string) ([]result.Result, error)
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (stats.Stats, error)
}

// Client is the Lumina library entry point.
type Client struct {
	closer    func()
	namespace string
	images    imageUseCase
	search    searchUseCase
	health    healthUseCase
	obs       *observer
}

// New creates a Client, connects to the vector store and makes sure the index exists.
// The provided context bounds the connection and index setup.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		namespace: domimage.DefaultNamespace,
		dimension: defaultDimension,
		index:     defaultIndex,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("lumina: vector store address required (use WithRedis or WithMilvus)")
	}
	if err := domimage.ValidateNamespace(cfg.namespace); err != nil {
		return nil, fmt.Errorf("lumina: %w", err)
	}
	emb, model, err := createEmbedder(cfg)
	if err != nil {
		return nil, err
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	idx, closer, err := createIndex(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := idx.Ensure(ctx); err != nil {
		closer()
		return nil, fmt.Errorf("lumina: ensure index: %w", err)
	}

	return wireClient(cfg, idx, closer, emb, model, obs), nil
}

func createEmbedder(cfg *clientConfig) (domain.MultimodalEmbedder, string, error) {
	if cfg.embedder != nil {
		return adaptEmbedder(cfg.embedder), cfg.model, nil
	}
	switch cfg.provider {
	case providerCohere:
		model := cfg.model
		if model == "" {
			model = cohereEmb.DefaultModel
		}
		return cohereEmb.NewEmbedder(&cohereEmb.Config{
			APIKey: cfg.apiKey,
			Model:  model,
		}), model, nil
	case providerOpenAI:
		if cfg.model == "" {
			return nil, "", errors.New("lumina: model required for the openai provider")
		}
		return openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:  cfg.apiKey,
			BaseURL: cfg.baseURL,
			Model:   cfg.model,
		}), cfg.model, nil
	case "":
		return nil, "", errors.New("lumina: embedding provider required (use WithCohere, WithOpenAI or WithEmbedder)")
	default:
		return nil, "", fmt.Errorf("lumina: unknown embedding provider %q", cfg.provider)
	}
}

func createIndex(ctx context.Context, cfg *clientConfig) (index, func(), error) {
	repoCfg := imagerepo.Config{
		Index:     cfg.index,
		KeyPrefix: defaultKeyPrefix,
		Dimension: cfg.dimension,
	}

	switch cfg.driver {
	case driverRedis:
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.addrs,
			Username: cfg.username,
			Password: cfg.password,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("lumina: create redis store: %w", err)
		}
		if err := s.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			s.Close()
			return nil, nil, fmt.Errorf("lumina: redis not ready: %w", err)
		}
		return imagerepo.NewRedisIndex(s, repoCfg, defaultHNSWM, defaultHNSWEF, zap.NewNop()), s.Close, nil
	case driverMilvus:
		s, err := dbMilvus.NewStore(ctx, dbMilvus.Config{
			Address:  cfg.addrs[0],
			Username: cfg.username,
			Password: cfg.password,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("lumina: connect to milvus: %w", err)
		}
		return imagerepo.NewMilvusIndex(s, repoCfg, zap.NewNop()), func() { _ = s.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("lumina: unknown driver %q", cfg.driver)
	}
}

// wireClient builds the use cases on top of an index and an embedder.
// Internal components log nothing; the client reports through its observer.
func wireClient(
	cfg *clientConfig, idx index, closer func(),
	emb domain.MultimodalEmbedder, model string, obs *observer,
) *Client {
	nop := zap.NewNop()
	provider := cfg.provider
	if cfg.embedder != nil {
		provider = "custom"
	}
	instrumented := embeddinguc.NewInstrumentedEmbedder(emb, provider, model, 0, nop)

	prep := imaging.NewPreparer(cfg.maxSide, cfg.quality).WithMaxPixels(cfg.maxPixels)
	return &Client{
		closer:    closer,
		namespace: cfg.namespace,
		images: imageuc.New(idx, instrumented, prep, nop).
			WithNamespace(cfg.namespace).
			WithBatch(cfg.batchSize, cfg.concurrent),
		search: searchuc.New(idx, instrumented, nop),
		health: healthuc.New(idx, instrumented, idx, model),
		obs:    obs,
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.closer != nil {
		c.closer()
	}
}

// Namespace returns the namespace the client reads and writes.
func (c *Client) Namespace() string { return c.namespace }

package embedding

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lumina-search/lumina/internal/domain"
)

// DefaultMaxAPIBatchSize is the largest image batch sent in one provider call.
const DefaultMaxAPIBatchSize = 96

// InstrumentedEmbedder wraps a multimodal embedder with logging and per-request usage tracking.
// Transport metrics (requests, duration, tokens) are recorded in the provider packages.
// This layer splits oversized image batches and reports tokens into the request context.
type InstrumentedEmbedder struct {
	inner        domain.MultimodalEmbedder
	provider     string
	model        string
	maxBatchSize int
	logger       *zap.Logger
}

// NewInstrumentedEmbedder wraps an embedder. maxBatchSize <= 0 means DefaultMaxAPIBatchSize.
func NewInstrumentedEmbedder(
	inner domain.MultimodalEmbedder, provider, model string,
	maxBatchSize int, logger *zap.Logger,
) *InstrumentedEmbedder {
	if maxBatchSize <= 0 {
		maxBatchSize = DefaultMaxAPIBatchSize
	}
	return &InstrumentedEmbedder{
		inner:        inner,
		provider:     provider,
		model:        model,
		maxBatchSize: maxBatchSize,
		logger:       logger,
	}
}

// Model returns the embedding model name.
func (p *InstrumentedEmbedder) Model() string { return p.model }

// Embed delegates text embedding and records usage.
func (p *InstrumentedEmbedder) Embed(
	ctx context.Context, text string,
) (domain.EmbeddingResult, error) {
	start := time.Now()
	result, err := p.inner.Embed(ctx, text)
	duration := time.Since(start)

	if err != nil {
		p.logger.Error("Embedding request failed",
			zap.String("provider", p.provider),
			zap.String("model", p.model),
			zap.String("kind", "text"),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}

	domain.UsageFromContext(ctx).AddTokens(result.TotalTokens)
	p.logger.Debug("Embedding request completed",
		zap.String("provider", p.provider),
		zap.String("model", p.model),
		zap.String("kind", "text"),
		zap.Duration("duration", duration),
		zap.Int("dimensions", len(result.Embedding)),
		zap.Int("total_tokens", result.TotalTokens),
	)
	return result, nil
}

// EmbedImage delegates image embedding and records usage.
func (p *InstrumentedEmbedder) EmbedImage(
	ctx context.Context, dataURI string,
) (domain.EmbeddingResult, error) {
	start := time.Now()
	result, err := p.inner.EmbedImage(ctx, dataURI)
	duration := time.Since(start)

	if err != nil {
		p.logger.Error("Image embedding request failed",
			zap.String("provider", p.provider),
			zap.String("model", p.model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.EmbeddingResult{}, fmt.Errorf("embed image: %w", err)
	}

	domain.UsageFromContext(ctx).AddTokens(result.TotalTokens)
	p.logger.Debug("Image embedding completed",
		zap.String("provider", p.provider),
		zap.String("model", p.model),
		zap.Duration("duration", duration),
		zap.Int("dimensions", len(result.Embedding)),
		zap.Int("total_tokens", result.TotalTokens),
	)
	return result, nil
}

// BatchEmbedImages splits dataURIs into provider-sized sub-batches and delegates to inner.
func (p *InstrumentedEmbedder) BatchEmbedImages(
	ctx context.Context, dataURIs []string,
) (domain.BatchEmbeddingResult, error) {
	if len(dataURIs) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}

	start := time.Now()
	result, err := p.embedChunked(ctx, dataURIs)
	if err != nil {
		return domain.BatchEmbeddingResult{}, err
	}

	domain.UsageFromContext(ctx).AddTokens(result.TotalTokens)
	p.logger.Debug("Batch image embedding completed",
		zap.String("provider", p.provider),
		zap.String("model", p.model),
		zap.Duration("duration", time.Since(start)),
		zap.Int("batch_size", len(dataURIs)),
		zap.Int("total_tokens", result.TotalTokens),
	)
	return result, nil
}

// HealthCheck forwards to the inner provider when it supports health checks.
func (p *InstrumentedEmbedder) HealthCheck(ctx context.Context) error {
	hc, ok := p.inner.(domain.HealthChecker)
	if !ok {
		return nil
	}
	if err := hc.HealthCheck(ctx); err != nil {
		return fmt.Errorf("embedding health check: %w", err)
	}
	return nil
}

func (p *InstrumentedEmbedder) embedChunked(
	ctx context.Context, dataURIs []string,
) (domain.BatchEmbeddingResult, error) {
	allEmbeddings := make([][]float32, 0, len(dataURIs))
	var totalPrompt, totalTokens int

	for offset := 0; offset < len(dataURIs); offset += p.maxBatchSize {
		end := min(offset+p.maxBatchSize, len(dataURIs))
		part := dataURIs[offset:end]

		res, err := domain.EmbedImages(ctx, p.inner, part)
		if err != nil {
			p.logger.Error("Batch image embedding failed",
				zap.String("provider", p.provider),
				zap.String("model", p.model),
				zap.Int("chunk_offset", offset),
				zap.Int("chunk_size", len(part)),
				zap.Error(err),
			)
			return domain.BatchEmbeddingResult{}, fmt.Errorf("batch embed images: %w", err)
		}
		if len(res.Embeddings) != len(part) {
			return domain.BatchEmbeddingResult{}, fmt.Errorf("%w: expected %d embeddings, got %d",
				domain.ErrEmbeddingProviderError, len(part), len(res.Embeddings))
		}

		allEmbeddings = append(allEmbeddings, res.Embeddings...)
		totalPrompt += res.PromptTokens
		totalTokens += res.TotalTokens
	}

	return domain.BatchEmbeddingResult{
		Embeddings:   allEmbeddings,
		PromptTokens: totalPrompt,
		TotalTokens:  totalTokens,
	}, nil
}

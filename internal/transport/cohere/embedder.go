// Package cohere embeds search text and images through the Cohere v2 embed API.
package cohere

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
	"github.com/cohere-ai/cohere-go/v2/core"
	"github.com/cohere-ai/cohere-go/v2/option"
	"go.uber.org/zap"

	"github.com/lumina-search/lumina/internal/domain"
	"github.com/lumina-search/lumina/internal/metrics"
)

// DefaultModel is the multimodal model text and images share a vector space in.
const DefaultModel = "embed-v4.0"

// maxImagesPerCall is the provider's limit on images in a single embed request.
const maxImagesPerCall = 96

const (
	kindText  = "text"
	kindImage = "image"
)

var (
	_ domain.MultimodalEmbedder = (*Embedder)(nil)
	_ domain.BatchImageEmbedder = (*Embedder)(nil)
	_ domain.HealthChecker      = (*Embedder)(nil)
)

// Embedder calls Cohere's /v2/embed. Text goes in as search_query, images as image.
type Embedder struct {
	client   *cohereclient.Client
	model    string
	provider string
	logger   *zap.Logger
}

// Config holds the Cohere provider settings.
type Config struct {
	APIKey   string
	BaseURL  string // empty for the public endpoint
	Model    string
	Provider string
	Logger   *zap.Logger
}

// NewEmbedder creates a Cohere embedding provider.
func NewEmbedder(cfg *Config) *Embedder {
	// Provider calls are never retried; failures surface to the caller as-is.
	opts := []option.RequestOption{
		option.WithToken(cfg.APIKey),
		option.WithMaxAttempts(1),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	provider := cfg.Provider
	if provider == "" {
		provider = "cohere"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Embedder{
		client:   cohereclient.NewClient(opts...),
		model:    model,
		provider: provider,
		logger:   logger,
	}
}

// Embed vectorizes search text.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	res, err := e.embed(ctx, kindText, &cohere.V2EmbedRequest{
		Texts:     []string{text},
		InputType: cohere.EmbedInputTypeSearchQuery,
	}, 1)
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{
		Embedding:    res.Embeddings[0],
		PromptTokens: res.PromptTokens,
		TotalTokens:  res.TotalTokens,
	}, nil
}

// EmbedImage vectorizes one prepared image.
func (e *Embedder) EmbedImage(ctx context.Context, dataURI string) (domain.EmbeddingResult, error) {
	res, err := e.embed(ctx, kindImage, &cohere.V2EmbedRequest{
		Images:    []string{dataURI},
		InputType: cohere.EmbedInputTypeImage,
	}, 1)
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{
		Embedding:    res.Embeddings[0],
		PromptTokens: res.PromptTokens,
		TotalTokens:  res.TotalTokens,
	}, nil
}

// BatchEmbedImages vectorizes several images in one request, preserving input order.
func (e *Embedder) BatchEmbedImages(ctx context.Context, dataURIs []string) (domain.BatchEmbeddingResult, error) {
	if len(dataURIs) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}
	if len(dataURIs) > maxImagesPerCall {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("%w: %d images exceed the per-call limit of %d",
			domain.ErrInvalidRequest, len(dataURIs), maxImagesPerCall)
	}
	return e.embed(ctx, kindImage, &cohere.V2EmbedRequest{
		Images:    dataURIs,
		InputType: cohere.EmbedInputTypeImage,
	}, len(dataURIs))
}

// HealthCheck embeds a one-word query. Cohere has no free ping endpoint.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	if _, err := e.Embed(ctx, "ping"); err != nil {
		return fmt.Errorf("embed probe: %w", err)
	}
	return nil
}

func (e *Embedder) embed(ctx context.Context, kind string, req *cohere.V2EmbedRequest, want int) (domain.BatchEmbeddingResult, error) {
	req.Model = e.model
	req.EmbeddingTypes = []cohere.EmbeddingType{cohere.EmbeddingTypeFloat}

	start := time.Now()
	resp, err := e.client.V2.Embed(ctx, req)
	if err != nil {
		metrics.ObserveEmbedding(e.provider, e.model, kind, start, 0, 0, "api_error")
		return domain.BatchEmbeddingResult{}, parseAPIError(err)
	}
	if resp == nil || resp.Embeddings == nil || len(resp.Embeddings.Float) != want {
		got := 0
		if resp != nil && resp.Embeddings != nil {
			got = len(resp.Embeddings.Float)
		}
		metrics.ObserveEmbedding(e.provider, e.model, kind, start, 0, 0, "count_mismatch")
		return domain.BatchEmbeddingResult{}, fmt.Errorf("%w: expected %d embeddings, got %d",
			domain.ErrEmbeddingProviderError, want, got)
	}

	embeddings := make([][]float32, len(resp.Embeddings.Float))
	for i, vec := range resp.Embeddings.Float {
		embeddings[i] = toFloat32(vec)
	}

	tokens := billedTokens(resp)
	metrics.ObserveEmbedding(e.provider, e.model, kind, start, tokens, tokens, "")
	e.logger.Debug("Embedding request completed",
		zap.String("kind", kind),
		zap.Int("count", want),
		zap.Int("total_tokens", tokens),
		zap.Duration("duration", time.Since(start)),
	)

	return domain.BatchEmbeddingResult{
		Embeddings:   embeddings,
		PromptTokens: tokens,
		TotalTokens:  tokens,
	}, nil
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(f)
	}
	return out
}

// billedTokens reads input tokens from the response meta. Images are billed as tokens too.
func billedTokens(resp *cohere.EmbedByTypeResponse) int {
	if resp.Meta == nil || resp.Meta.BilledUnits == nil || resp.Meta.BilledUnits.InputTokens == nil {
		return 0
	}
	return int(*resp.Meta.BilledUnits.InputTokens)
}

// parseAPIError maps SDK errors onto domain sentinels. 429 becomes domain.ErrRateLimited.
func parseAPIError(err error) error {
	var apiErr *core.APIError
	if errors.As(err, &apiErr) {
		sentinel := domain.ErrEmbeddingProviderError
		if apiErr.StatusCode == http.StatusTooManyRequests {
			sentinel = domain.ErrRateLimited
		}
		return fmt.Errorf("%w: embedding API error %d: %w", sentinel, apiErr.StatusCode, err)
	}
	return fmt.Errorf("%w: embedding request failed: %w", domain.ErrEmbeddingProviderError, err)
}

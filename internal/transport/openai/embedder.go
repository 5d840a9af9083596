// Package openai embeds text and images through an OpenAI-compatible /embeddings API.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/lumina-search/lumina/internal/domain"
	"github.com/lumina-search/lumina/internal/metrics"
)

const (
	kindText  = "text"
	kindImage = "image"
)

var (
	_ domain.MultimodalEmbedder = (*Embedder)(nil)
	_ domain.BatchImageEmbedder = (*Embedder)(nil)
	_ domain.HealthChecker      = (*Embedder)(nil)
)

// Embedder talks to an OpenAI-compatible multimodal embedding server.
// Images are sent as {"image": "<data uri>"} inputs, the format used by
// CLIP-style servers behind the OpenAI schema.
type Embedder struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
	provider   string
	logger     *zap.Logger
}

// Config holds the embedding provider settings.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
	Provider   string
	Logger     *zap.Logger
}

// NewEmbedder creates an OpenAI-compatible embedding provider.
func NewEmbedder(cfg *Config) *Embedder {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	provider := cfg.Provider
	if provider == "" {
		provider = "openai"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Embedder{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      openai.EmbeddingModel(cfg.Model),
		dimensions: cfg.Dimensions,
		provider:   provider,
		logger:     logger,
	}
}

// Embed vectorizes search text.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	res, err := e.create(ctx, kindText, []string{text}, 1)
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
	res, err := e.create(ctx, kindImage, imageInputs([]string{dataURI}), 1)
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
	return e.create(ctx, kindImage, imageInputs(dataURIs), len(dataURIs))
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (e *Embedder) HealthCheck(ctx context.Context) error {
	if _, err := e.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

func (e *Embedder) create(ctx context.Context, kind string, input any, want int) (domain.BatchEmbeddingResult, error) {
	req := openai.EmbeddingRequest{
		Input:          input,
		Model:          e.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
	}
	if e.dimensions > 0 {
		req.Dimensions = e.dimensions
	}

	model := string(e.model)
	start := time.Now()
	resp, err := e.client.CreateEmbeddings(ctx, req)
	if err != nil {
		metrics.ObserveEmbedding(e.provider, model, kind, start, 0, 0, "api_error")
		return domain.BatchEmbeddingResult{}, parseAPIError(err)
	}
	if len(resp.Data) != want {
		metrics.ObserveEmbedding(e.provider, model, kind, start, 0, 0, "count_mismatch")
		return domain.BatchEmbeddingResult{}, fmt.Errorf("%w: expected %d embeddings, got %d",
			domain.ErrEmbeddingProviderError, want, len(resp.Data))
	}

	sort.Slice(resp.Data, func(i, j int) bool { return resp.Data[i].Index < resp.Data[j].Index })
	embeddings := make([][]float32, len(resp.Data))
	for i := range resp.Data {
		embeddings[i] = resp.Data[i].Embedding
	}

	metrics.ObserveEmbedding(e.provider, model, kind, start, resp.Usage.PromptTokens, resp.Usage.TotalTokens, "")
	e.logger.Debug("Embedding request completed",
		zap.String("kind", kind),
		zap.Int("count", want),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
		zap.Duration("duration", time.Since(start)),
	)

	return domain.BatchEmbeddingResult{
		Embeddings:   embeddings,
		PromptTokens: resp.Usage.PromptTokens,
		TotalTokens:  resp.Usage.TotalTokens,
	}, nil
}

func imageInputs(dataURIs []string) []map[string]string {
	out := make([]map[string]string, len(dataURIs))
	for i, uri := range dataURIs {
		out[i] = map[string]string{"image": uri}
	}
	return out
}

// parseAPIError extracts a human-readable error from the API response.
// 429 maps to domain.ErrRateLimited, everything else to domain.ErrEmbeddingProviderError.
func parseAPIError(err error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail == "" {
			detail = string(reqErr.Body)
		}
		return fmt.Errorf("%w: embedding API error %d: %s",
			statusSentinel(reqErr.HTTPStatusCode), reqErr.HTTPStatusCode, detail)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: embedding API error %d: %s",
			statusSentinel(apiErr.HTTPStatusCode), apiErr.HTTPStatusCode, apiErr.Message)
	}

	return fmt.Errorf("%w: embedding request failed: %w", domain.ErrEmbeddingProviderError, err)
}

func statusSentinel(code int) error {
	if code == http.StatusTooManyRequests {
		return domain.ErrRateLimited
	}
	return domain.ErrEmbeddingProviderError
}

// extractDetail pulls "detail" out of a JSON error body.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}

package lumina

import (
	"context"
	"fmt"

	"github.com/lumina-search/lumina/internal/domain"
)

// Embedder maps search text and images into one vector space.
// Images arrive as base64 JPEG data URIs.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
	EmbedImage(ctx context.Context, dataURI string) (EmbeddingResult, error)
}

// BatchImageEmbedder embeds several images in one provider call.
// Optional: if the Embedder also implements it, batch uploads use it.
type BatchImageEmbedder interface {
	BatchEmbedImages(ctx context.Context, dataURIs []string) (BatchEmbeddingResult, error)
}

// EmbeddingResult carries the embedding vector and token counts.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// BatchEmbeddingResult carries multiple embedding vectors and aggregate token usage.
type BatchEmbeddingResult struct {
	Embeddings   [][]float32
	PromptTokens int
	TotalTokens  int
}

// embedderAdapter wraps a public Embedder to satisfy domain.MultimodalEmbedder.
type embedderAdapter struct {
	inner Embedder
}

// batchEmbedderAdapter additionally forwards native batch calls.
type batchEmbedderAdapter struct {
	embedderAdapter
	batch BatchImageEmbedder
}

func adaptEmbedder(e Embedder) domain.MultimodalEmbedder {
	if be, ok := e.(BatchImageEmbedder); ok {
		return &batchEmbedderAdapter{embedderAdapter: embedderAdapter{inner: e}, batch: be}
	}
	return &embedderAdapter{inner: e}
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult(r), nil
}

func (a *embedderAdapter) EmbedImage(ctx context.Context, dataURI string) (domain.EmbeddingResult, error) {
	r, err := a.inner.EmbedImage(ctx, dataURI)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed image: %w", err)
	}
	return domain.EmbeddingResult(r), nil
}

func (a *batchEmbedderAdapter) BatchEmbedImages(
	ctx context.Context, dataURIs []string,
) (domain.BatchEmbeddingResult, error) {
	r, err := a.batch.BatchEmbedImages(ctx, dataURIs)
	if err != nil {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("batch embed images: %w", err)
	}
	return domain.BatchEmbeddingResult(r), nil
}

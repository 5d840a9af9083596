package domain

import (
	"context"
	"fmt"
)

// Embedder vectorizes search text.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// ImageEmbedder vectorizes a prepared image given as a data URI.
type ImageEmbedder interface {
	EmbedImage(ctx context.Context, dataURI string) (EmbeddingResult, error)
}

// BatchImageEmbedder vectorizes several images in a single provider call.
type BatchImageEmbedder interface {
	BatchEmbedImages(ctx context.Context, dataURIs []string) (BatchEmbeddingResult, error)
}

// MultimodalEmbedder embeds both search text and images into one vector space.
type MultimodalEmbedder interface {
	Embedder
	ImageEmbedder
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector and token usage through the decorator chain.
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

// BatchImageFallback calls EmbedImage once per image for providers without a batch API.
func BatchImageFallback(ctx context.Context, e ImageEmbedder, dataURIs []string) (BatchEmbeddingResult, error) {
	embeddings := make([][]float32, len(dataURIs))
	var totalPrompt, totalTokens int

	for i, uri := range dataURIs {
		res, err := e.EmbedImage(ctx, uri)
		if err != nil {
			return BatchEmbeddingResult{}, fmt.Errorf("fallback embed image [%d]: %w", i, err)
		}
		embeddings[i] = res.Embedding
		totalPrompt += res.PromptTokens
		totalTokens += res.TotalTokens
	}

	return BatchEmbeddingResult{
		Embeddings:   embeddings,
		PromptTokens: totalPrompt,
		TotalTokens:  totalTokens,
	}, nil
}

// EmbedImages uses the native batch API when e has one, and BatchImageFallback otherwise.
func EmbedImages(ctx context.Context, e ImageEmbedder, dataURIs []string) (BatchEmbeddingResult, error) {
	if be, ok := e.(BatchImageEmbedder); ok {
		res, err := be.BatchEmbedImages(ctx, dataURIs)
		if err != nil {
			return BatchEmbeddingResult{}, fmt.Errorf("batch embed images: %w", err)
		}
		return res, nil
	}
	return BatchImageFallback(ctx, e, dataURIs)
}

package search

import (
	"context"

	"github.com/lumina-search/lumina/internal/domain"
	"github.com/lumina-search/lumina/internal/domain/search/result"
)

// Repository runs nearest-neighbour queries against the vector database.
type Repository interface {
	Query(ctx context.Context, vector []float32, topK int, namespace string) ([]result.Result, error)
}

// Embedder vectorizes search text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Package search answers natural-language queries over stored images.
package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/lumina-search/lumina/internal/domain/search/request"
	"github.com/lumina-search/lumina/internal/domain/search/result"
)

// Service embeds the query text and asks the vector database for the nearest images.
type Service struct {
	repo   Repository
	embed  Embedder
	logger *zap.Logger
}

// New creates a search service.
func New(repo Repository, embed Embedder, logger *zap.Logger) *Service {
	return &Service{repo: repo, embed: embed, logger: logger}
}

// Search returns up to TopK results in the order the database ranked them.
func (s *Service) Search(ctx context.Context, req *request.Request) ([]result.Result, error) {
	emb, err := s.embed.Embed(ctx, req.Query())
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := s.repo.Query(ctx, emb.Embedding, req.TopK(), req.Namespace())
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}

	s.logger.Debug("Search completed",
		zap.Int("top_k", req.TopK()),
		zap.String("namespace", req.Namespace()),
		zap.Int("found", len(results)),
	)
	return results, nil
}

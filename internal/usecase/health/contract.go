package health

import (
	"context"

	"github.com/lumina-search/lumina/internal/domain/stats"
)

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// StatsReader reads index statistics from the vector database.
type StatsReader interface {
	Stats(ctx context.Context) (stats.Stats, error)
}

package chi

import (
	"context"

	dombatch "github.com/lumina-search/lumina/internal/domain/batch"
	domimage "github.com/lumina-search/lumina/internal/domain/image"
	"github.com/lumina-search/lumina/internal/domain/search/request"
	"github.com/lumina-search/lumina/internal/domain/search/result"
	"github.com/lumina-search/lumina/internal/domain/stats"
	healthuc "github.com/lumina-search/lumina/internal/usecase/health"
	imageuc "github.com/lumina-search/lumina/internal/usecase/image"
)

// ImageService uploads and deletes images.
type ImageService interface {
	Upload(ctx context.Context, f imageuc.File, namespace string) (domimage.Record, error)
	UploadBatch(ctx context.Context, files []imageuc.File, namespace string) ([]dombatch.Result, error)
	Delete(ctx context.Context, id, namespace string) error
}

// SearchService answers text queries.
type SearchService interface {
	Search(ctx context.Context, req *request.Request) ([]result.Result, error)
}

// HealthService reports readiness, statistics and telemetry.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
	Stats(ctx context.Context) (stats.Stats, error)
	Telemetry(ctx context.Context) healthuc.Telemetry
}

package lumina

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

// --- imageUseCase mock ---

type mockImageUC struct {
	uploadFn func(ctx context.Context, f imageuc.File, ns string) (domimage.Record, error)
	batchFn  func(ctx context.Context, files []imageuc.File, ns string) ([]dombatch.Result, error)
	deleteFn func(ctx context.Context, id, ns string) error
}

func (m *mockImageUC) Upload(ctx context.Context, f imageuc.File, ns string) (domimage.Record, error) {
	return m.uploadFn(ctx, f, ns)
}

func (m *mockImageUC) UploadBatch(ctx context.Context, files []imageuc.File, ns string) ([]dombatch.Result, error) {
	return m.batchFn(ctx, files, ns)
}

func (m *mockImageUC) Delete(ctx context.Context, id, ns string) error {
	return m.deleteFn(ctx, id, ns)
}

// --- searchUseCase mock ---

type mockSearchUC struct {
	searchFn func(ctx context.Context, req *request.Request) ([]result.Result, error)
}

func (m *mockSearchUC) Search(ctx context.Context, req *request.Request) ([]result.Result, error) {
	return m.searchFn(ctx, req)
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	report   healthuc.Report
	stats    stats.Stats
	statsErr error
}

func (m *mockHealthUC) Check(context.Context) healthuc.Report { return m.report }

func (m *mockHealthUC) Stats(context.Context) (stats.Stats, error) { return m.stats, m.statsErr }

// --- Embedder mocks ---

type mockEmbedder struct {
	embedFn func(ctx context.Context, text string) (EmbeddingResult, error)
	imageFn func(ctx context.Context, dataURI string) (EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return m.embedFn(ctx, text)
}

func (m *mockEmbedder) EmbedImage(ctx context.Context, dataURI string) (EmbeddingResult, error) {
	return m.imageFn(ctx, dataURI)
}

type mockBatchEmbedder struct {
	mockEmbedder
	batchFn func(ctx context.Context, dataURIs []string) (BatchEmbeddingResult, error)
}

func (m *mockBatchEmbedder) BatchEmbedImages(ctx context.Context, dataURIs []string) (BatchEmbeddingResult, error) {
	return m.batchFn(ctx, dataURIs)
}

// --- helpers ---

func testClient(images imageUseCase, search searchUseCase, health healthUseCase) *Client {
	return &Client{
		namespace: domimage.DefaultNamespace,
		images:    images,
		search:    search,
		health:    health,
	}
}

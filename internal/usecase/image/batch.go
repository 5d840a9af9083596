package image

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lumina-search/lumina/internal/domain"
	dombatch "github.com/lumina-search/lumina/internal/domain/batch"
	domimage "github.com/lumina-search/lumina/internal/domain/image"
	"github.com/lumina-search/lumina/internal/metrics"
)

// prepared is an image ready for embedding, remembering its slot in the request.
type prepared struct {
	idx int
	uri string
}

// UploadBatch stores many images with per-file error reporting. Results keep request order.
// A file that is not image/* rejects the whole request before any provider call.
func (s *Service) UploadBatch(ctx context.Context, files []File, namespace string) ([]dombatch.Result, error) {
	for _, f := range files {
		if !domimage.IsImageContentType(f.ContentType) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotAnImage, displayName(f.Filename))
		}
	}

	ns, err := s.resolve(namespace)
	if err != nil {
		return nil, err
	}
	results := make([]dombatch.Result, len(files))

	ready := make([]prepared, 0, len(files))
	for i, f := range files {
		uri, err := s.prep.Prepare(f.Data)
		if err != nil {
			results[i] = dombatch.NewError(f.Filename, err)
			continue
		}
		ready = append(ready, prepared{idx: i, uri: uri})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for start := 0; start < len(ready); start += s.batchSize {
		part := ready[start:min(start+s.batchSize, len(ready))]
		g.Go(func() error {
			s.uploadChunk(gctx, files, part, ns, results)
			return nil
		})
	}
	_ = g.Wait()

	var ok, failed int
	for _, r := range results {
		if r.Status() == dombatch.StatusOK {
			ok++
		} else {
			failed++
		}
	}
	metrics.ImagesUploadedTotal.WithLabelValues("ok").Add(float64(ok))
	metrics.ImagesUploadedTotal.WithLabelValues("error").Add(float64(failed))

	s.logger.Info("Batch upload finished",
		zap.String("namespace", ns),
		zap.Int("files", len(files)),
		zap.Int("uploaded", ok),
		zap.Int("failed", failed),
	)
	return results, nil
}

// uploadChunk embeds and stores one chunk. Any failure marks every file of the chunk failed.
// Each call writes only its own result slots.
func (s *Service) uploadChunk(
	ctx context.Context, files []File, part []prepared, ns string, results []dombatch.Result,
) {
	fail := func(err error) {
		for _, p := range part {
			results[p.idx] = dombatch.NewError(files[p.idx].Filename, err)
		}
	}

	uris := make([]string, len(part))
	for i, p := range part {
		uris[i] = p.uri
	}

	res, err := domain.EmbedImages(ctx, s.embed, uris)
	if err != nil {
		s.logger.Warn("Batch chunk embedding failed", zap.Int("chunk_size", len(part)), zap.Error(err))
		fail(err)
		return
	}
	if len(res.Embeddings) != len(part) {
		fail(fmt.Errorf("%w: expected %d embeddings, got %d",
			domain.ErrEmbeddingProviderError, len(part), len(res.Embeddings)))
		return
	}

	createdAt := s.now().Unix()
	records := make([]domimage.Record, 0, len(part))
	for i, p := range part {
		rec, err := domimage.New(domimage.NewID(), files[p.idx].Filename, ns, res.Embeddings[i], createdAt)
		if err != nil {
			fail(fmt.Errorf("%w: %w", domain.ErrEmbeddingProviderError, err))
			return
		}
		records = append(records, rec)
	}

	if err := s.index.Upsert(ctx, records); err != nil {
		s.logger.Warn("Batch chunk upsert failed", zap.Int("chunk_size", len(part)), zap.Error(err))
		fail(err)
		return
	}

	for i, p := range part {
		results[p.idx] = dombatch.NewOK(files[p.idx].Filename, records[i].ID())
	}
}

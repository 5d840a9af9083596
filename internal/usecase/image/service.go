// Package image uploads and deletes images in the vector index.
package image

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lumina-search/lumina/internal/domain"
	domimage "github.com/lumina-search/lumina/internal/domain/image"
	"github.com/lumina-search/lumina/internal/metrics"
)

// Batch defaults.
const (
	DefaultBatchSize   = 50
	DefaultConcurrency = 4
)

// File is one uploaded file as received by the transport.
type File struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Service embeds uploaded images and stores them under a namespace.
type Service struct {
	index       Index
	embed       domain.ImageEmbedder
	prep        Preparer
	namespace   string
	batchSize   int
	concurrency int
	now         func() time.Time
	logger      *zap.Logger
}

// New creates an image service writing to the default namespace.
func New(index Index, embed domain.ImageEmbedder, prep Preparer, logger *zap.Logger) *Service {
	return &Service{
		index:       index,
		embed:       embed,
		prep:        prep,
		namespace:   domimage.DefaultNamespace,
		batchSize:   DefaultBatchSize,
		concurrency: DefaultConcurrency,
		now:         time.Now,
		logger:      logger,
	}
}

// WithNamespace overrides the namespace used when a request names none.
func (s *Service) WithNamespace(ns string) *Service {
	if ns != "" {
		s.namespace = ns
	}
	return s
}

// WithBatch configures the embed chunk size and how many chunks run at once.
func (s *Service) WithBatch(size, concurrency int) *Service {
	if size > 0 {
		s.batchSize = size
	}
	if concurrency > 0 {
		s.concurrency = concurrency
	}
	return s
}

// Upload validates, embeds and stores a single image. No rollback happens if the
// upsert fails after a successful embed.
func (s *Service) Upload(ctx context.Context, f File, namespace string) (domimage.Record, error) {
	if !domimage.IsImageContentType(f.ContentType) {
		return domimage.Record{}, fmt.Errorf("%w: %s", domain.ErrNotAnImage, displayName(f.Filename))
	}
	ns, err := s.resolve(namespace)
	if err != nil {
		return domimage.Record{}, err
	}

	uri, err := s.prep.Prepare(f.Data)
	if err != nil {
		metrics.ImagesUploadedTotal.WithLabelValues("error").Inc()
		return domimage.Record{}, fmt.Errorf("prepare %s: %w", displayName(f.Filename), err)
	}

	res, err := s.embed.EmbedImage(ctx, uri)
	if err != nil {
		metrics.ImagesUploadedTotal.WithLabelValues("error").Inc()
		return domimage.Record{}, fmt.Errorf("embed %s: %w", displayName(f.Filename), err)
	}

	rec, err := domimage.New(domimage.NewID(), f.Filename, ns, res.Embedding, s.now().Unix())
	if err != nil {
		metrics.ImagesUploadedTotal.WithLabelValues("error").Inc()
		return domimage.Record{}, fmt.Errorf("%w: %w", domain.ErrEmbeddingProviderError, err)
	}

	if err := s.index.Upsert(ctx, []domimage.Record{rec}); err != nil {
		metrics.ImagesUploadedTotal.WithLabelValues("error").Inc()
		return domimage.Record{}, fmt.Errorf("store %s: %w", rec.ID(), err)
	}

	metrics.ImagesUploadedTotal.WithLabelValues("ok").Inc()
	s.logger.Info("Image uploaded",
		zap.String("image_id", rec.ID()),
		zap.String("filename", rec.Filename()),
		zap.String("namespace", rec.Namespace()),
	)
	return rec, nil
}

// Delete removes an image by id. Unknown ids succeed.
func (s *Service) Delete(ctx context.Context, id, namespace string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: image id is required", domain.ErrInvalidRequest)
	}
	ns, err := s.resolve(namespace)
	if err != nil {
		return err
	}
	if err := s.index.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	s.logger.Info("Image deleted",
		zap.String("image_id", id),
		zap.String("namespace", ns),
	)
	return nil
}

// Namespace returns the default namespace.
func (s *Service) Namespace() string { return s.namespace }

// resolve falls back to the default namespace and validates the result.
func (s *Service) resolve(namespace string) (string, error) {
	ns := strings.TrimSpace(namespace)
	if ns == "" {
		ns = s.namespace
	}
	if err := domimage.ValidateNamespace(ns); err != nil {
		return "", err
	}
	return ns, nil
}

func displayName(filename string) string {
	if filename == "" {
		return domimage.UnknownFilename
	}
	return filename
}

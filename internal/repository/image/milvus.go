package image

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lumina-search/lumina/internal/db/milvus"
	"github.com/lumina-search/lumina/internal/domain"
	domimage "github.com/lumina-search/lumina/internal/domain/image"
	"github.com/lumina-search/lumina/internal/domain/search/result"
	"github.com/lumina-search/lumina/internal/domain/stats"
	"github.com/lumina-search/lumina/internal/metrics"
)

const driverMilvus = "milvus"

// milvusStore is the consumer interface for the Milvus driver (ISP).
type milvusStore interface {
	Ping(ctx context.Context) error
	EnsureCollection(ctx context.Context, def milvus.CollectionDef) error
	Upsert(ctx context.Context, coll, partition string, rows []milvus.Row) error
	Delete(ctx context.Context, coll string, ids ...string) error
	Search(ctx context.Context, coll, partition string, vector []float32, topK int, outputFields []string) ([]milvus.Hit, error)
	Stats(ctx context.Context, coll string) (int64, map[string]int64, error)
}

// MilvusIndex stores images in one collection with a partition per namespace.
type MilvusIndex struct {
	store  milvusStore
	cfg    Config
	logger *zap.Logger
}

// NewMilvusIndex creates a Milvus-backed image index.
func NewMilvusIndex(s milvusStore, cfg Config, logger *zap.Logger) *MilvusIndex {
	return &MilvusIndex{store: s, cfg: cfg, logger: logger}
}

// Definition returns the collection layout for images.
func (m *MilvusIndex) Definition() milvus.CollectionDef {
	return milvus.CollectionDef{
		Name:         m.cfg.Index,
		Dim:          m.cfg.Dimension,
		StringFields: []string{fieldFilename, fieldNamespace, fieldType},
		IntFields:    []string{fieldCreatedAt},
	}
}

// Ensure creates and loads the collection.
func (m *MilvusIndex) Ensure(ctx context.Context) error {
	if err := m.store.EnsureCollection(ctx, m.Definition()); err != nil {
		return storeError("ensure collection", err)
	}
	m.logger.Info("Vector collection ready",
		zap.String("collection", m.cfg.Index),
		zap.Int("dimension", m.cfg.Dimension),
	)
	return nil
}

// Ping checks connectivity.
func (m *MilvusIndex) Ping(ctx context.Context) error {
	return m.store.Ping(ctx)
}

// Upsert writes records grouped by namespace partition, in chunks.
func (m *MilvusIndex) Upsert(ctx context.Context, records []domimage.Record) (err error) {
	if err := checkDims(records, m.cfg.Dimension); err != nil {
		return err
	}
	defer func(start time.Time) { metrics.ObserveVectorStore(driverMilvus, "upsert", start, err) }(time.Now())

	byNS := make(map[string][]milvus.Row)
	var order []string
	for i := range records {
		rec := &records[i]
		ns := rec.Namespace()
		if _, ok := byNS[ns]; !ok {
			order = append(order, ns)
		}
		byNS[ns] = append(byNS[ns], milvus.Row{
			ID:     rec.ID(),
			Vector: rec.Vector(),
			Strings: map[string]string{
				fieldFilename:  rec.Filename(),
				fieldNamespace: ns,
				fieldType:      domimage.TypeImage,
			},
			Ints: map[string]int64{fieldCreatedAt: rec.CreatedAt()},
		})
	}

	for _, ns := range order {
		for _, part := range chunk(byNS[ns], m.cfg.chunkSize()) {
			if err := m.store.Upsert(ctx, m.cfg.Index, ns, part); err != nil {
				return m.wrap("upsert", err)
			}
		}
	}
	return nil
}

// Query returns the topK nearest images in namespace, most similar first.
func (m *MilvusIndex) Query(ctx context.Context, vector []float32, topK int, namespace string) (_ []result.Result, err error) {
	if len(vector) != m.cfg.Dimension {
		return nil, dimMismatch(len(vector), m.cfg.Dimension)
	}
	defer func(start time.Time) { metrics.ObserveVectorStore(driverMilvus, "query", start, err) }(time.Now())

	hits, err := m.store.Search(ctx, m.cfg.Index, namespace, vector, topK, []string{fieldFilename})
	if err != nil {
		return nil, m.wrap("query", err)
	}
	out := make([]result.Result, 0, len(hits))
	for _, h := range hits {
		out = append(out, result.New(h.ID, h.Fields[fieldFilename], h.Score))
	}
	return out, nil
}

// Delete removes an image from every partition. Unknown ids succeed.
func (m *MilvusIndex) Delete(ctx context.Context, id string) (err error) {
	defer func(start time.Time) { metrics.ObserveVectorStore(driverMilvus, "delete", start, err) }(time.Now())

	if err := m.store.Delete(ctx, m.cfg.Index, id); err != nil {
		return m.wrap("delete", err)
	}
	return nil
}

// Stats reports collection and per-partition row counts.
func (m *MilvusIndex) Stats(ctx context.Context) (_ stats.Stats, err error) {
	defer func(start time.Time) { metrics.ObserveVectorStore(driverMilvus, "stats", start, err) }(time.Now())

	total, perNS, err := m.store.Stats(ctx, m.cfg.Index)
	if err != nil {
		return stats.Stats{}, m.wrap("stats", err)
	}
	return stats.Stats{
		TotalVectors: total,
		Dimension:    m.cfg.Dimension,
		Namespaces:   perNS,
	}, nil
}

func (m *MilvusIndex) wrap(op string, err error) error {
	var dimErr *milvus.DimError
	if errors.As(err, &dimErr) {
		return fmt.Errorf("%w: %w", domain.ErrVectorDimMismatch, err)
	}
	return storeError(op, err)
}

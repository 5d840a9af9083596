package image

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lumina-search/lumina/internal/db"
	domimage "github.com/lumina-search/lumina/internal/domain/image"
	"github.com/lumina-search/lumina/internal/domain/search/result"
	"github.com/lumina-search/lumina/internal/domain/stats"
	"github.com/lumina-search/lumina/internal/metrics"
)

const driverRedis = "redis"

// redisStore is the consumer interface for the Redis driver (ISP).
type redisStore interface {
	Ping(ctx context.Context) error
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	DelMulti(ctx context.Context, keys ...string) (int64, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexInfo(ctx context.Context, name string) (*db.IndexInfo, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	CountBy(ctx context.Context, index, query, field string) (map[string]int64, error)
}

// RedisIndex stores each image as a hash under <prefix>image:<id>, indexed by an HNSW FT index.
type RedisIndex struct {
	store  redisStore
	cfg    Config
	hnswM  int
	hnswEF int
	logger *zap.Logger
}

// NewRedisIndex creates a Redis-backed image index.
func NewRedisIndex(s redisStore, cfg Config, hnswM, hnswEF int, logger *zap.Logger) *RedisIndex {
	return &RedisIndex{store: s, cfg: cfg, hnswM: hnswM, hnswEF: hnswEF, logger: logger}
}

// Definition returns the FT index schema for image hashes.
func (r *RedisIndex) Definition() (*db.IndexDefinition, error) {
	return db.NewIndex(r.cfg.Index).
		Prefix(r.keyPrefix()).
		TagCaseSensitive(fieldNamespace).
		Tag(fieldType).
		Numeric(fieldCreatedAt).
		VectorHNSW(fieldVector, r.cfg.Dimension, db.DistanceCosine, r.hnswM, r.hnswEF).
		Build()
}

// Ensure creates the FT index if it does not exist yet.
func (r *RedisIndex) Ensure(ctx context.Context) error {
	def, err := r.Definition()
	if err != nil {
		return err
	}
	err = r.store.CreateIndex(ctx, def)
	switch {
	case err == nil:
		r.logger.Info("Vector index created", zap.String("index", def.String()))
		return nil
	case errors.Is(err, db.ErrIndexExists):
		r.logger.Debug("Vector index already exists", zap.String("index", def.Name))
		return nil
	default:
		return storeError("create index", err)
	}
}

// Ping checks connectivity.
func (r *RedisIndex) Ping(ctx context.Context) error {
	return r.store.Ping(ctx)
}

// Upsert writes records in pipelined chunks. Existing ids are overwritten.
func (r *RedisIndex) Upsert(ctx context.Context, records []domimage.Record) (err error) {
	if err := checkDims(records, r.cfg.Dimension); err != nil {
		return err
	}
	defer func(start time.Time) { metrics.ObserveVectorStore(driverRedis, "upsert", start, err) }(time.Now())

	for _, part := range chunk(records, r.cfg.chunkSize()) {
		items := make([]db.HashSetItem, len(part))
		for i := range part {
			rec := &part[i]
			items[i] = db.HashSetItem{
				Key: r.key(rec.ID()),
				Fields: map[string]string{
					fieldID:        rec.ID(),
					fieldFilename:  rec.Filename(),
					fieldNamespace: rec.Namespace(),
					fieldType:      domimage.TypeImage,
					fieldCreatedAt: strconv.FormatInt(rec.CreatedAt(), 10),
					fieldVector:    db.EncodeVector(rec.Vector()),
				},
			}
		}
		if err := r.store.HSetMulti(ctx, items); err != nil {
			return storeError("upsert", err)
		}
	}
	return nil
}

// Query returns the topK nearest images in namespace, most similar first.
func (r *RedisIndex) Query(ctx context.Context, vector []float32, topK int, namespace string) (_ []result.Result, err error) {
	if len(vector) != r.cfg.Dimension {
		return nil, dimMismatch(len(vector), r.cfg.Dimension)
	}
	defer func(start time.Time) { metrics.ObserveVectorStore(driverRedis, "query", start, err) }(time.Now())

	res, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    r.cfg.Index,
		VectorField:  fieldVector,
		Filter:       db.TagFilter(fieldNamespace, namespace),
		Vector:       vector,
		K:            topK,
		ReturnFields: []string{fieldID, fieldFilename},
	})
	if err != nil {
		return nil, storeError("query", err)
	}

	out := make([]result.Result, 0, len(res.Entries))
	for _, e := range res.Entries {
		id := e.Fields[fieldID]
		if id == "" {
			id = strings.TrimPrefix(e.Key, r.keyPrefix())
		}
		out = append(out, result.New(id, e.Fields[fieldFilename], e.Score))
	}
	return out, nil
}

// Delete removes an image. Deleting an unknown id succeeds.
func (r *RedisIndex) Delete(ctx context.Context, id string) (err error) {
	defer func(start time.Time) { metrics.ObserveVectorStore(driverRedis, "delete", start, err) }(time.Now())

	n, err := r.store.DelMulti(ctx, r.key(id))
	if err != nil {
		return storeError("delete", err)
	}
	if n == 0 {
		r.logger.Debug("Delete of unknown image", zap.String("image_id", id))
	}
	return nil
}

// Stats reports document counts from FT.INFO and a per-namespace FT.AGGREGATE.
func (r *RedisIndex) Stats(ctx context.Context) (_ stats.Stats, err error) {
	defer func(start time.Time) { metrics.ObserveVectorStore(driverRedis, "stats", start, err) }(time.Now())

	info, err := r.store.IndexInfo(ctx, r.cfg.Index)
	if err != nil {
		return stats.Stats{}, storeError("stats", err)
	}
	perNS, err := r.store.CountBy(ctx, r.cfg.Index, "*", fieldNamespace)
	if err != nil {
		return stats.Stats{}, storeError("stats", err)
	}
	return stats.Stats{
		TotalVectors: info.NumDocs,
		Dimension:    r.cfg.Dimension,
		Namespaces:   perNS,
	}, nil
}

func (r *RedisIndex) keyPrefix() string {
	return r.cfg.KeyPrefix + "image:"
}

func (r *RedisIndex) key(id string) string {
	return r.keyPrefix() + id
}

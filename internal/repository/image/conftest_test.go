package image

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/lumina-search/lumina/internal/db"
	"github.com/lumina-search/lumina/internal/db/milvus"
	domimage "github.com/lumina-search/lumina/internal/domain/image"
)

type mockRedisStore struct {
	hsetCalls  [][]db.HashSetItem
	hsetErr    error
	delKeys    []string
	delN       int64
	delErr     error
	createdDef *db.IndexDefinition
	createErr  error
	info       *db.IndexInfo
	infoErr    error
	knnQuery   *db.KNNQuery
	knnResult  *db.SearchResult
	knnErr     error
	countBy    map[string]int64
	countErr   error
}

func (m *mockRedisStore) Ping(context.Context) error { return nil }

func (m *mockRedisStore) HSetMulti(_ context.Context, items []db.HashSetItem) error {
	m.hsetCalls = append(m.hsetCalls, items)
	return m.hsetErr
}

func (m *mockRedisStore) DelMulti(_ context.Context, keys ...string) (int64, error) {
	m.delKeys = append(m.delKeys, keys...)
	return m.delN, m.delErr
}

func (m *mockRedisStore) CreateIndex(_ context.Context, def *db.IndexDefinition) error {
	m.createdDef = def
	return m.createErr
}

func (m *mockRedisStore) IndexInfo(_ context.Context, _ string) (*db.IndexInfo, error) {
	return m.info, m.infoErr
}

func (m *mockRedisStore) SearchKNN(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	m.knnQuery = q
	return m.knnResult, m.knnErr
}

func (m *mockRedisStore) CountBy(_ context.Context, _, _, _ string) (map[string]int64, error) {
	return m.countBy, m.countErr
}

type upsertCall struct {
	partition string
	rows      []milvus.Row
}

type mockMilvusStore struct {
	ensured    *milvus.CollectionDef
	upserts    []upsertCall
	upsertErr  error
	deleted    []string
	deleteErr  error
	searchPart string
	hits       []milvus.Hit
	searchErr  error
	total      int64
	perNS      map[string]int64
	statsErr   error
}

func (m *mockMilvusStore) Ping(context.Context) error { return nil }

func (m *mockMilvusStore) EnsureCollection(_ context.Context, def milvus.CollectionDef) error {
	m.ensured = &def
	return nil
}

func (m *mockMilvusStore) Upsert(_ context.Context, _, partition string, rows []milvus.Row) error {
	m.upserts = append(m.upserts, upsertCall{partition: partition, rows: rows})
	return m.upsertErr
}

func (m *mockMilvusStore) Delete(_ context.Context, _ string, ids ...string) error {
	m.deleted = append(m.deleted, ids...)
	return m.deleteErr
}

func (m *mockMilvusStore) Search(
	_ context.Context, _, partition string, _ []float32, _ int, _ []string,
) ([]milvus.Hit, error) {
	m.searchPart = partition
	return m.hits, m.searchErr
}

func (m *mockMilvusStore) Stats(context.Context, string) (int64, map[string]int64, error) {
	return m.total, m.perNS, m.statsErr
}

func testConfig() Config {
	return Config{Index: "lumina", KeyPrefix: "lumina:", Dimension: 3, ChunkSize: 2}
}

func newRecord(t *testing.T, id, filename, ns string) domimage.Record {
	t.Helper()
	r, err := domimage.New(id, filename, ns, []float32{0.1, 0.2, 0.3}, 1700000000)
	if err != nil {
		t.Fatalf("new record: %v", err)
	}
	return r
}

func newRedisIndex(s *mockRedisStore) *RedisIndex {
	return NewRedisIndex(s, testConfig(), 16, 200, zap.NewNop())
}

func newMilvusIndex(s *mockMilvusStore) *MilvusIndex {
	return NewMilvusIndex(s, testConfig(), zap.NewNop())
}

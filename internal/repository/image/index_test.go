package image

import (
	"context"
	"errors"
	"testing"

	"github.com/lumina-search/lumina/internal/db"
	"github.com/lumina-search/lumina/internal/db/milvus"
	"github.com/lumina-search/lumina/internal/domain"
	domimage "github.com/lumina-search/lumina/internal/domain/image"
)

func TestChunk(t *testing.T) {
	got := chunk([]int{1, 2, 3, 4, 5}, 2)
	if len(got) != 3 || len(got[0]) != 2 || len(got[2]) != 1 {
		t.Errorf("unexpected chunks: %v", got)
	}
	if chunk([]int(nil), 10) != nil {
		t.Error("expected nil for empty input")
	}
}

// --- Redis ---

func TestRedisIndex_Definition(t *testing.T) {
	def, err := newRedisIndex(&mockRedisStore{}).Definition()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if def.Name != "lumina" || len(def.Prefixes) != 1 || def.Prefixes[0] != "lumina:image:" {
		t.Errorf("unexpected definition: %+v", def)
	}
	vf := def.VectorField()
	if vf == nil || vf.VectorDim != 3 || vf.VectorDistance != db.DistanceCosine || vf.VectorAlgo != db.VectorHNSW {
		t.Errorf("unexpected vector field: %+v", vf)
	}
	if f := def.Fields[0]; f.Name != "namespace" || !f.TagCaseSensitive {
		t.Errorf("namespace tag must be case sensitive: %+v", f)
	}
}

func TestRedisIndex_EnsureIgnoresExisting(t *testing.T) {
	s := &mockRedisStore{createErr: db.ErrIndexExists}
	if err := newRedisIndex(s).Ensure(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRedisIndex_EnsureError(t *testing.T) {
	s := &mockRedisStore{createErr: errors.New("READONLY")}
	err := newRedisIndex(s).Ensure(context.Background())
	if !errors.Is(err, domain.ErrVectorStoreError) {
		t.Fatalf("expected ErrVectorStoreError, got %v", err)
	}
}

func TestRedisIndex_UpsertChunks(t *testing.T) {
	s := &mockRedisStore{}
	idx := newRedisIndex(s)
	records := []domimage.Record{
		newRecord(t, "Image_1", "a.jpg", "images"),
		newRecord(t, "Image_2", "b.jpg", "images"),
		newRecord(t, "Image_3", "c.jpg", "images"),
	}

	if err := idx.Upsert(context.Background(), records); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.hsetCalls) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(s.hsetCalls))
	}

	item := s.hsetCalls[0][0]
	if item.Key != "lumina:image:Image_1" {
		t.Errorf("unexpected key %q", item.Key)
	}
	if item.Fields["filename"] != "a.jpg" || item.Fields["namespace"] != "images" || item.Fields["type"] != "image" {
		t.Errorf("unexpected fields %v", item.Fields)
	}
	if item.Fields["timestamp"] != "1700000000" {
		t.Errorf("unexpected timestamp %q", item.Fields["timestamp"])
	}
	if len(item.Fields["vector"]) != 12 {
		t.Errorf("expected 12-byte vector blob, got %d", len(item.Fields["vector"]))
	}
}

func TestRedisIndex_UpsertDimMismatch(t *testing.T) {
	s := &mockRedisStore{}
	rec, err := domimage.New("Image_x", "x.jpg", "", []float32{1, 2}, 1)
	if err != nil {
		t.Fatalf("new record: %v", err)
	}

	err = newRedisIndex(s).Upsert(context.Background(), []domimage.Record{rec})
	if !errors.Is(err, domain.ErrVectorDimMismatch) {
		t.Fatalf("expected ErrVectorDimMismatch, got %v", err)
	}
	if len(s.hsetCalls) != 0 {
		t.Error("nothing should be written")
	}
}

func TestRedisIndex_UpsertStoreError(t *testing.T) {
	s := &mockRedisStore{hsetErr: errors.New("OOM")}
	err := newRedisIndex(s).Upsert(context.Background(), []domimage.Record{newRecord(t, "Image_1", "a.jpg", "")})
	if !errors.Is(err, domain.ErrVectorStoreError) {
		t.Fatalf("expected ErrVectorStoreError, got %v", err)
	}
}

func TestRedisIndex_Query(t *testing.T) {
	s := &mockRedisStore{knnResult: &db.SearchResult{
		Total: 2,
		Entries: []db.SearchEntry{
			{Key: "lumina:image:Image_a", Score: 0.8, Fields: map[string]string{"id": "Image_a", "filename": "a.jpg"}},
			{Key: "lumina:image:Image_b", Score: 0.1, Fields: map[string]string{}},
		},
	}}

	results, err := newRedisIndex(s).Query(context.Background(), []float32{1, 0, 0}, 5, "pets")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.knnQuery.Filter != "@namespace:{pets}" || s.knnQuery.K != 5 || s.knnQuery.IndexName != "lumina" {
		t.Errorf("unexpected query %+v", s.knnQuery)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ID() != "Image_a" || results[0].Filename() != "a.jpg" || results[0].Score() != 0.8 {
		t.Errorf("unexpected first result %+v", results[0])
	}
	if results[1].ID() != "Image_b" || results[1].Filename() != "Unknown" {
		t.Errorf("expected id from key and Unknown filename, got %+v", results[1])
	}
}

func TestRedisIndex_QueryDimMismatch(t *testing.T) {
	_, err := newRedisIndex(&mockRedisStore{}).Query(context.Background(), []float32{1}, 5, "images")
	if !errors.Is(err, domain.ErrVectorDimMismatch) {
		t.Fatalf("expected ErrVectorDimMismatch, got %v", err)
	}
}

func TestRedisIndex_DeleteIdempotent(t *testing.T) {
	s := &mockRedisStore{delN: 0}
	if err := newRedisIndex(s).Delete(context.Background(), "Image_missing"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.delKeys) != 1 || s.delKeys[0] != "lumina:image:Image_missing" {
		t.Errorf("unexpected keys %v", s.delKeys)
	}
}

func TestRedisIndex_Stats(t *testing.T) {
	s := &mockRedisStore{
		info:    &db.IndexInfo{Name: "lumina", NumDocs: 10},
		countBy: map[string]int64{"images": 7, "pets": 3},
	}
	st, err := newRedisIndex(s).Stats(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.TotalVectors != 10 || st.Dimension != 3 || st.Namespaces["pets"] != 3 {
		t.Errorf("unexpected stats %+v", st)
	}
}

func TestRedisIndex_StatsError(t *testing.T) {
	s := &mockRedisStore{infoErr: db.ErrIndexNotFound}
	_, err := newRedisIndex(s).Stats(context.Background())
	if !errors.Is(err, domain.ErrVectorStoreError) {
		t.Fatalf("expected ErrVectorStoreError, got %v", err)
	}
}

// --- Milvus ---

func TestMilvusIndex_Ensure(t *testing.T) {
	s := &mockMilvusStore{}
	if err := newMilvusIndex(s).Ensure(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.ensured == nil || s.ensured.Name != "lumina" || s.ensured.Dim != 3 {
		t.Errorf("unexpected collection def %+v", s.ensured)
	}
}

func TestMilvusIndex_UpsertGroupsByNamespace(t *testing.T) {
	s := &mockMilvusStore{}
	records := []domimage.Record{
		newRecord(t, "Image_1", "a.jpg", "images"),
		newRecord(t, "Image_2", "b.jpg", "pets"),
		newRecord(t, "Image_3", "c.jpg", "images"),
		newRecord(t, "Image_4", "d.jpg", "images"),
	}

	if err := newMilvusIndex(s).Upsert(context.Background(), records); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// images: 3 rows in chunks of 2, then pets: 1 row
	if len(s.upserts) != 3 {
		t.Fatalf("expected 3 upsert calls, got %d", len(s.upserts))
	}
	if s.upserts[0].partition != "images" || len(s.upserts[0].rows) != 2 {
		t.Errorf("unexpected first call %+v", s.upserts[0])
	}
	if s.upserts[2].partition != "pets" || s.upserts[2].rows[0].ID != "Image_2" {
		t.Errorf("unexpected last call %+v", s.upserts[2])
	}
	if s.upserts[0].rows[0].Ints["timestamp"] != 1700000000 {
		t.Errorf("unexpected timestamp %v", s.upserts[0].rows[0].Ints)
	}
}

func TestMilvusIndex_UpsertDimErrorFromStore(t *testing.T) {
	s := &mockMilvusStore{upsertErr: &milvus.DimError{ID: "x", Got: 3, Want: 4}}
	err := newMilvusIndex(s).Upsert(context.Background(), []domimage.Record{newRecord(t, "Image_1", "a.jpg", "")})
	if !errors.Is(err, domain.ErrVectorDimMismatch) {
		t.Fatalf("expected ErrVectorDimMismatch, got %v", err)
	}
}

func TestMilvusIndex_Query(t *testing.T) {
	s := &mockMilvusStore{hits: []milvus.Hit{
		{ID: "Image_a", Score: 0.5, Fields: map[string]string{"filename": "a.jpg"}},
		{ID: "Image_b", Score: -0.2, Fields: map[string]string{}},
	}}

	results, err := newMilvusIndex(s).Query(context.Background(), []float32{0, 1, 0}, 2, "images")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.searchPart != "images" {
		t.Errorf("expected partition images, got %q", s.searchPart)
	}
	if len(results) != 2 || results[0].Percent() != 75 || results[1].Filename() != "Unknown" {
		t.Errorf("unexpected results %+v", results)
	}
}

func TestMilvusIndex_QueryError(t *testing.T) {
	s := &mockMilvusStore{searchErr: errors.New("timeout")}
	_, err := newMilvusIndex(s).Query(context.Background(), []float32{0, 1, 0}, 2, "images")
	if !errors.Is(err, domain.ErrVectorStoreError) {
		t.Fatalf("expected ErrVectorStoreError, got %v", err)
	}
}

func TestMilvusIndex_Delete(t *testing.T) {
	s := &mockMilvusStore{}
	if err := newMilvusIndex(s).Delete(context.Background(), "Image_1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.deleted) != 1 || s.deleted[0] != "Image_1" {
		t.Errorf("unexpected deletes %v", s.deleted)
	}
}

func TestMilvusIndex_Stats(t *testing.T) {
	s := &mockMilvusStore{total: 4, perNS: map[string]int64{"images": 4}}
	st, err := newMilvusIndex(s).Stats(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.TotalVectors != 4 || st.Dimension != 3 || st.Namespaces["images"] != 4 {
		t.Errorf("unexpected stats %+v", st)
	}
}

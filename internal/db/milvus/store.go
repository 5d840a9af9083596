package milvus

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	mclient "github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

// Schema field names shared by every collection this store manages.
const (
	FieldID     = "id"
	FieldVector = "vector"

	defaultPartition = "_default"
	idMaxLength      = 128
	strMaxLength     = 1024
)

// CollectionDef describes a collection: varchar primary key, one float
// vector and flat scalar metadata.
type CollectionDef struct {
	Name         string
	Dim          int
	StringFields []string
	IntFields    []string
}

// Schema renders the definition as a Milvus schema.
func (d *CollectionDef) Schema() *entity.Schema {
	s := entity.NewSchema().
		WithName(d.Name).
		WithDescription("lumina image vectors").
		WithField(entity.NewField().WithName(FieldID).WithDataType(entity.FieldTypeVarChar).
			WithIsPrimaryKey(true).WithMaxLength(idMaxLength)).
		WithField(entity.NewField().WithName(FieldVector).WithDataType(entity.FieldTypeFloatVector).
			WithDim(int64(d.Dim)))
	for _, name := range d.StringFields {
		s.WithField(entity.NewField().WithName(name).WithDataType(entity.FieldTypeVarChar).WithMaxLength(strMaxLength))
	}
	for _, name := range d.IntFields {
		s.WithField(entity.NewField().WithName(name).WithDataType(entity.FieldTypeInt64))
	}
	return s
}

// Row is one entity to upsert.
type Row struct {
	ID      string
	Vector  []float32
	Strings map[string]string
	Ints    map[string]int64
}

// Hit is one search match. Score is the COSINE similarity reported by Milvus.
type Hit struct {
	ID     string
	Score  float64
	Fields map[string]string
}

// Store manages collections and their namespace partitions.
type Store struct {
	c client

	mu         sync.Mutex
	defs       map[string]CollectionDef
	partitions map[string]bool // coll + "/" + partition
}

// NewStore connects to Milvus.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Address == "" {
		return nil, errors.New("address is required")
	}
	c, err := dial(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return newStore(c), nil
}

func newStore(c client) *Store {
	return &Store{
		c:          c,
		defs:       make(map[string]CollectionDef),
		partitions: make(map[string]bool),
	}
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.c.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close releases the connection.
func (s *Store) Close() error {
	return s.c.Close()
}

// EnsureCollection creates the collection with an AUTOINDEX COSINE index
// when missing, then loads it for search.
func (s *Store) EnsureCollection(ctx context.Context, def CollectionDef) error {
	if def.Name == "" || def.Dim <= 0 {
		return errors.New("collection name and positive dim are required")
	}

	exists, err := s.c.HasCollection(ctx, def.Name)
	if err != nil {
		return &Error{Op: OpHasCollection, Err: err}
	}
	if !exists {
		if err := s.c.CreateCollection(ctx, def.Schema()); err != nil {
			return &Error{Op: OpCreateCollection, Err: err}
		}
		idx, err := entity.NewIndexAUTOINDEX(entity.COSINE)
		if err != nil {
			return &Error{Op: OpCreateIndex, Err: err}
		}
		if err := s.c.CreateIndex(ctx, def.Name, FieldVector, idx); err != nil {
			return &Error{Op: OpCreateIndex, Err: err}
		}
	}
	if err := s.c.LoadCollection(ctx, def.Name); err != nil {
		return &Error{Op: OpLoadCollection, Err: err}
	}

	s.mu.Lock()
	s.defs[def.Name] = def
	s.mu.Unlock()
	return nil
}

// EnsurePartition creates a partition on first use. Known partitions are cached.
func (s *Store) EnsurePartition(ctx context.Context, coll, partition string) error {
	key := coll + "/" + partition
	s.mu.Lock()
	known := s.partitions[key]
	s.mu.Unlock()
	if known {
		return nil
	}

	exists, err := s.c.HasPartition(ctx, coll, partition)
	if err != nil {
		return &Error{Op: OpHasPartition, Err: err}
	}
	if !exists {
		if err := s.c.CreatePartition(ctx, coll, partition); err != nil {
			return &Error{Op: OpCreatePartition, Err: err}
		}
	}

	s.mu.Lock()
	s.partitions[key] = true
	s.mu.Unlock()
	return nil
}

// Upsert writes rows into a partition, creating it if needed.
func (s *Store) Upsert(ctx context.Context, coll, partition string, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}
	def, err := s.def(coll)
	if err != nil {
		return err
	}
	if err := s.EnsurePartition(ctx, coll, partition); err != nil {
		return err
	}

	cols, err := buildColumns(def, rows)
	if err != nil {
		return err
	}
	if err := s.c.Upsert(ctx, coll, partition, cols...); err != nil {
		return &Error{Op: OpUpsert, Err: err}
	}
	return nil
}

// Delete removes entities by primary key across all partitions. Unknown ids are ignored.
func (s *Store) Delete(ctx context.Context, coll string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.c.Delete(ctx, coll, "", idInExpr(ids)); err != nil {
		return &Error{Op: OpDelete, Err: err}
	}
	return nil
}

// Search runs a COSINE ANN query inside one partition.
func (s *Store) Search(
	ctx context.Context, coll, partition string, vector []float32, topK int, outputFields []string,
) ([]Hit, error) {
	if len(vector) == 0 {
		return nil, errors.New("vector is required")
	}
	if topK <= 0 {
		return nil, errors.New("topK must be positive")
	}

	var partitions []string
	if partition != "" {
		// Searching a partition that was never written returns an error in Milvus.
		exists, err := s.c.HasPartition(ctx, coll, partition)
		if err != nil {
			return nil, &Error{Op: OpHasPartition, Err: err}
		}
		if !exists {
			return []Hit{}, nil
		}
		partitions = []string{partition}
	}

	res, err := s.c.Search(ctx, coll, partitions, outputFields, vector, FieldVector, topK)
	if err != nil {
		return nil, &Error{Op: OpSearch, Err: err}
	}
	return parseSearchResults(res, outputFields)
}

// Stats returns the collection row count and a row count per non-empty partition.
func (s *Store) Stats(ctx context.Context, coll string) (int64, map[string]int64, error) {
	total, err := s.c.RowCount(ctx, coll, "")
	if err != nil {
		return 0, nil, &Error{Op: OpStatistics, Err: err}
	}

	names, err := s.c.ShowPartitions(ctx, coll)
	if err != nil {
		return 0, nil, &Error{Op: OpShowPartitions, Err: err}
	}

	perPartition := make(map[string]int64, len(names))
	for _, name := range names {
		n, err := s.c.RowCount(ctx, coll, name)
		if err != nil {
			return 0, nil, &Error{Op: OpStatistics, Err: fmt.Errorf("partition %s: %w", name, err)}
		}
		if name == defaultPartition && n == 0 {
			continue
		}
		perPartition[name] = n
	}
	return total, perPartition, nil
}

func (s *Store) def(coll string) (CollectionDef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	def, ok := s.defs[coll]
	if !ok {
		return CollectionDef{}, fmt.Errorf("collection %s not initialised", coll)
	}
	return def, nil
}

func buildColumns(def CollectionDef, rows []Row) ([]entity.Column, error) {
	ids := make([]string, len(rows))
	vectors := make([][]float32, len(rows))
	strs := make(map[string][]string, len(def.StringFields))
	ints := make(map[string][]int64, len(def.IntFields))

	for i, r := range rows {
		if r.ID == "" {
			return nil, fmt.Errorf("row %d: id is required", i)
		}
		if len(r.Vector) != def.Dim {
			return nil, &DimError{ID: r.ID, Got: len(r.Vector), Want: def.Dim}
		}
		ids[i] = r.ID
		vectors[i] = r.Vector
		for _, f := range def.StringFields {
			strs[f] = append(strs[f], r.Strings[f])
		}
		for _, f := range def.IntFields {
			ints[f] = append(ints[f], r.Ints[f])
		}
	}

	cols := []entity.Column{
		entity.NewColumnVarChar(FieldID, ids),
		entity.NewColumnFloatVector(FieldVector, def.Dim, vectors),
	}
	for _, f := range def.StringFields {
		cols = append(cols, entity.NewColumnVarChar(f, strs[f]))
	}
	for _, f := range def.IntFields {
		cols = append(cols, entity.NewColumnInt64(f, ints[f]))
	}
	return cols, nil
}

func parseSearchResults(results []mclient.SearchResult, outputFields []string) ([]Hit, error) {
	hits := []Hit{}
	if len(results) == 0 {
		return hits, nil
	}

	sr := results[0]
	if sr.Err != nil {
		return nil, &Error{Op: OpSearch, Err: sr.Err}
	}

	cols := make(map[string]entity.Column, len(outputFields))
	for _, name := range outputFields {
		if c := columnByName(sr.Fields, name); c != nil {
			cols[name] = c
		}
	}

	for i := 0; i < sr.ResultCount; i++ {
		id, err := sr.IDs.GetAsString(i)
		if err != nil {
			return nil, &Error{Op: OpSearch, Err: fmt.Errorf("read id %d: %w", i, err)}
		}
		hit := Hit{ID: id, Fields: make(map[string]string, len(cols))}
		if i < len(sr.Scores) {
			hit.Score = float64(sr.Scores[i])
		}
		for name, c := range cols {
			hit.Fields[name] = columnString(c, i)
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

func columnByName(cols []entity.Column, name string) entity.Column {
	for _, c := range cols {
		if c != nil && c.Name() == name {
			return c
		}
	}
	return nil
}

func columnString(c entity.Column, i int) string {
	if c.Type() == entity.FieldTypeInt64 {
		v, err := c.GetAsInt64(i)
		if err != nil {
			return ""
		}
		return strconv.FormatInt(v, 10)
	}
	v, err := c.GetAsString(i)
	if err != nil {
		return ""
	}
	return v
}

func idInExpr(ids []string) string {
	quoted := make([]string, len(ids))
	for i, id := range ids {
		quoted[i] = strconv.Quote(id)
	}
	return FieldID + " in [" + strings.Join(quoted, ",") + "]"
}

// Package milvus stores vectors in a Milvus collection, one partition per namespace.
package milvus

import (
	"context"
	"fmt"

	mclient "github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

// Config holds connection parameters for a Milvus store.
type Config struct {
	Address  string
	Username string
	Password string
	DBName   string
}

const countField = "count(*)"

// client is the slice of the Milvus SDK the store relies on.
type client interface {
	HasCollection(ctx context.Context, coll string) (bool, error)
	CreateCollection(ctx context.Context, schema *entity.Schema) error
	CreateIndex(ctx context.Context, coll, field string, idx entity.Index) error
	LoadCollection(ctx context.Context, coll string) error
	HasPartition(ctx context.Context, coll, partition string) (bool, error)
	CreatePartition(ctx context.Context, coll, partition string) error
	ShowPartitions(ctx context.Context, coll string) ([]string, error)
	RowCount(ctx context.Context, coll, partition string) (int64, error)
	Upsert(ctx context.Context, coll, partition string, cols ...entity.Column) error
	Delete(ctx context.Context, coll, partition, expr string) error
	Search(ctx context.Context, coll string, partitions, outputFields []string,
		vector []float32, vectorField string, topK int) ([]mclient.SearchResult, error)
	Ping(ctx context.Context) error
	Close() error
}

// sdkClient adapts mclient.Client to client.
type sdkClient struct {
	c mclient.Client
}

var _ client = (*sdkClient)(nil)

func dial(ctx context.Context, cfg Config) (*sdkClient, error) {
	c, err := mclient.NewClient(ctx, mclient.Config{
		Address:  cfg.Address,
		Username: cfg.Username,
		Password: cfg.Password,
		DBName:   cfg.DBName,
	})
	if err != nil {
		return nil, fmt.Errorf("connect milvus %s: %w", cfg.Address, err)
	}
	return &sdkClient{c: c}, nil
}

func (a *sdkClient) HasCollection(ctx context.Context, coll string) (bool, error) {
	return a.c.HasCollection(ctx, coll)
}

func (a *sdkClient) CreateCollection(ctx context.Context, schema *entity.Schema) error {
	return a.c.CreateCollection(ctx, schema, entity.DefaultShardNumber)
}

func (a *sdkClient) CreateIndex(ctx context.Context, coll, field string, idx entity.Index) error {
	return a.c.CreateIndex(ctx, coll, field, idx, false)
}

func (a *sdkClient) LoadCollection(ctx context.Context, coll string) error {
	return a.c.LoadCollection(ctx, coll, false)
}

func (a *sdkClient) HasPartition(ctx context.Context, coll, partition string) (bool, error) {
	return a.c.HasPartition(ctx, coll, partition)
}

func (a *sdkClient) CreatePartition(ctx context.Context, coll, partition string) error {
	return a.c.CreatePartition(ctx, coll, partition)
}

func (a *sdkClient) ShowPartitions(ctx context.Context, coll string) ([]string, error) {
	parts, err := a.c.ShowPartitions(ctx, coll)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		names = append(names, p.Name)
	}
	return names, nil
}

// RowCount counts live rows in a partition, or in the whole collection when
// partition is empty. count(*) skips deleted entities that statistics still report.
func (a *sdkClient) RowCount(ctx context.Context, coll, partition string) (int64, error) {
	var partitions []string
	if partition != "" {
		partitions = []string{partition}
	}
	rs, err := a.c.Query(ctx, coll, partitions, "", []string{countField})
	if err != nil {
		return 0, err
	}
	return countFrom(rs)
}

func countFrom(rs mclient.ResultSet) (int64, error) {
	col := rs.GetColumn(countField)
	if col == nil || col.Len() == 0 {
		return 0, fmt.Errorf("query result has no %s column", countField)
	}
	return col.GetAsInt64(0)
}

func (a *sdkClient) Upsert(ctx context.Context, coll, partition string, cols ...entity.Column) error {
	_, err := a.c.Upsert(ctx, coll, partition, cols...)
	return err
}

func (a *sdkClient) Delete(ctx context.Context, coll, partition, expr string) error {
	return a.c.Delete(ctx, coll, partition, expr)
}

func (a *sdkClient) Search(
	ctx context.Context, coll string, partitions, outputFields []string,
	vector []float32, vectorField string, topK int,
) ([]mclient.SearchResult, error) {
	sp, err := entity.NewIndexAUTOINDEXSearchParam(1)
	if err != nil {
		return nil, err
	}
	return a.c.Search(ctx, coll, partitions, "", outputFields,
		[]entity.Vector{entity.FloatVector(vector)}, vectorField, entity.COSINE, topK, sp)
}

func (a *sdkClient) Ping(ctx context.Context) error {
	_, err := a.c.ListCollections(ctx)
	return err
}

func (a *sdkClient) Close() error {
	return a.c.Close()
}

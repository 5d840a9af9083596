// Package db defines the storage contracts used by the vector index
// repositories. Drivers live in subpackages.
package db

import (
	"context"
	"time"
)

// Store is the Redis-family facade used by the image index and the query cache.
type Store interface {
	Pinger
	HashStore
	KVStore
	IndexManager
	Searcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashSetItem holds a single key+fields pair for pipelined HSET.
type HashSetItem struct {
	Key    string
	Fields map[string]string
}

// HashStore provides hash writes and deletes.
type HashStore interface {
	HSetMulti(ctx context.Context, items []HashSetItem) error
	DelMulti(ctx context.Context, keys ...string) (int64, error)
}

// KVStore provides simple key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// IndexInfo is the subset of FT.INFO the service reports.
type IndexInfo struct {
	Name    string
	NumDocs int64
}

// IndexManager provides FT index lifecycle operations.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	IndexInfo(ctx context.Context, name string) (*IndexInfo, error)
}

// Searcher provides query operations over FT indexes.
type Searcher interface {
	SearchKNN(ctx context.Context, q *KNNQuery) (*SearchResult, error)
	CountBy(ctx context.Context, index, query, field string) (map[string]int64, error)
}

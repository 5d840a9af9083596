// Package image persists image vectors in the configured vector database.
package image

import (
	"fmt"

	"github.com/lumina-search/lumina/internal/domain"
	domimage "github.com/lumina-search/lumina/internal/domain/image"
)

// Metadata field names stored next to every vector.
const (
	fieldID        = "id"
	fieldFilename  = "filename"
	fieldNamespace = "namespace"
	fieldType      = "type"
	fieldCreatedAt = "timestamp"
	fieldVector    = "vector"

	defaultChunkSize = 100
)

// Config describes the index both drivers write to.
type Config struct {
	Index     string // FT index or Milvus collection
	KeyPrefix string // Redis key prefix, e.g. "lumina:"
	Dimension int
	ChunkSize int // max records per upsert call
}

func (c Config) chunkSize() int {
	if c.ChunkSize <= 0 {
		return defaultChunkSize
	}
	return c.ChunkSize
}

// checkDims rejects vectors whose length differs from the index dimension.
func checkDims(records []domimage.Record, dim int) error {
	for i := range records {
		if got := len(records[i].Vector()); got != dim {
			return fmt.Errorf("%w: image %s has %d dimensions, index expects %d",
				domain.ErrVectorDimMismatch, records[i].ID(), got, dim)
		}
	}
	return nil
}

func dimMismatch(got, want int) error {
	return fmt.Errorf("%w: query vector has %d dimensions, index expects %d",
		domain.ErrVectorDimMismatch, got, want)
}

func chunk[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	out := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		out = append(out, items[start:end])
	}
	return out
}

func storeError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrVectorStoreError, op, err)
}

package image

import (
	"context"

	domimage "github.com/lumina-search/lumina/internal/domain/image"
)

// Index persists and removes image vectors.
type Index interface {
	Upsert(ctx context.Context, records []domimage.Record) error
	Delete(ctx context.Context, id string) error
}

// Preparer turns raw upload bytes into the data URI sent to the embedding provider.
type Preparer interface {
	Prepare(data []byte) (string, error)
}

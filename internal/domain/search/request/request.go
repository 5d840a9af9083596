package request

import (
	"fmt"
	"strings"

	"github.com/lumina-search/lumina/internal/domain"
	"github.com/lumina-search/lumina/internal/domain/image"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength = 4096
	DefaultTopK    = 10
	MaxTopK        = 100
)

// Request is a validated text search.
type Request struct {
	query     string
	topK      int
	namespace string
}

// New validates search parameters. An empty namespace falls back to the default.
func New(query string, topK int, namespace string) (Request, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Request{}, domain.ErrEmptyQuery
	}
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("%w: query too long (max %d chars)", domain.ErrInvalidRequest, MaxQueryLength)
	}
	if topK < 1 || topK > MaxTopK {
		return Request{}, fmt.Errorf("%w: top_k must be between 1 and %d", domain.ErrInvalidTopK, MaxTopK)
	}
	if namespace == "" {
		namespace = image.DefaultNamespace
	}
	if err := image.ValidateNamespace(namespace); err != nil {
		return Request{}, err
	}
	return Request{query: query, topK: topK, namespace: namespace}, nil
}

// Query returns the search text.
func (r *Request) Query() string { return r.query }

// TopK returns the number of neighbours to fetch.
func (r *Request) TopK() int { return r.topK }

// Namespace returns the namespace to search.
func (r *Request) Namespace() string { return r.namespace }

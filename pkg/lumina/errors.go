package lumina

import "github.com/lumina-search/lumina/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotAnImage             = domain.ErrNotAnImage
	ErrInvalidImage           = domain.ErrInvalidImage
	ErrEmptyQuery             = domain.ErrEmptyQuery
	ErrInvalidTopK            = domain.ErrInvalidTopK
	ErrInvalidRequest         = domain.ErrInvalidRequest
	ErrRateLimited            = domain.ErrRateLimited
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
	ErrVectorStoreError       = domain.ErrVectorStoreError
	ErrVectorDimMismatch      = domain.ErrVectorDimMismatch
)

package domain

import "errors"

var (
	// ErrNotAnImage signals an upload whose declared content type is not image/*.
	ErrNotAnImage = errors.New("file must be an image")
	// ErrInvalidImage signals image bytes that could not be decoded.
	ErrInvalidImage = errors.New("invalid image")
	// ErrEmptyQuery signals a search without query text.
	ErrEmptyQuery = errors.New("query parameter is required")
	// ErrInvalidTopK signals a non-integer or out-of-range top_k.
	ErrInvalidTopK = errors.New("invalid top_k value")
	// ErrInvalidRequest signals a malformed request body or parameter.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrPayloadTooLarge signals an upload over the configured size limit.
	ErrPayloadTooLarge = errors.New("payload too large")

	// ErrRateLimited signals a rate limit hit at the embedding provider.
	ErrRateLimited = errors.New("rate limited")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrVectorStoreError signals a vector database failure.
	ErrVectorStoreError = errors.New("vector store error")
	// ErrVectorDimMismatch signals an embedding whose size differs from the index dimension.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
)

// IsClientError reports whether err is caused by the caller's input.
func IsClientError(err error) bool {
	for _, s := range []error{
		ErrNotAnImage, ErrInvalidImage, ErrEmptyQuery,
		ErrInvalidTopK, ErrInvalidRequest, ErrPayloadTooLarge,
	} {
		if errors.Is(err, s) {
			return true
		}
	}
	return false
}

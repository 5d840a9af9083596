package chi

import "encoding/json"

// ErrorCode is the machine-readable error code in error responses.
type ErrorCode string

// Error codes.
const (
	ErrorCodeBadRequest             ErrorCode = "bad_request"
	ErrorCodeUnauthorized           ErrorCode = "unauthorized"
	ErrorCodeNotAnImage             ErrorCode = "not_an_image"
	ErrorCodeInvalidImage           ErrorCode = "invalid_image"
	ErrorCodeValidationFailed       ErrorCode = "validation_failed"
	ErrorCodePayloadTooLarge        ErrorCode = "payload_too_large"
	ErrorCodeRateLimited            ErrorCode = "rate_limited"
	ErrorCodeEmbeddingProviderError ErrorCode = "embedding_provider_error"
	ErrorCodeVectorStoreError       ErrorCode = "vector_store_error"
	ErrorCodeVectorDimMismatch      ErrorCode = "vector_dim_mismatch"
	ErrorCodeNotFound               ErrorCode = "not_found"
	ErrorCodeMethodNotAllowed       ErrorCode = "method_not_allowed"
	ErrorCodeInternalError          ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code   ErrorCode `json:"code"`
	Detail string    `json:"detail"`
}

// RootResponse is the GET / banner.
type RootResponse struct {
	Message string `json:"message"`
	Health  string `json:"health"`
	Version string `json:"version,omitempty"`
}

// LivenessResponse is the GET /api/health body.
type LivenessResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// ReadinessResponse is the GET /api/health/ready body.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// UploadResponse is the POST /api/upload body.
type UploadResponse struct {
	Message  string `json:"message"`
	ImageID  string `json:"image_id"`
	Filename string `json:"filename"`
}

// FailedUpload names a file that could not be stored.
type FailedUpload struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

// BatchUploadResponse is the POST /api/upload/batch body.
type BatchUploadResponse struct {
	Message       string         `json:"message"`
	UploadedIDs   []string       `json:"uploaded_ids"`
	Failed        []FailedUpload `json:"failed"`
	TotalUploaded int            `json:"total_uploaded"`
	TotalFailed   int            `json:"total_failed"`
}

// SearchRequest is the POST /api/search body. top_k is accepted as a number or a numeric string.
type SearchRequest struct {
	Query     string          `json:"query"`
	TopK      json.RawMessage `json:"top_k,omitempty"`
	Namespace string          `json:"namespace,omitempty"`
}

// SearchResultItem is one hit in a search response.
type SearchResultItem struct {
	ID                string  `json:"id"`
	Filename          string  `json:"filename"`
	Score             float64 `json:"score"`
	SimilarityPercent float64 `json:"similarity_percent"`
}

// SearchResponse is the POST /api/search body.
type SearchResponse struct {
	Query      string             `json:"query"`
	Results    []SearchResultItem `json:"results"`
	TotalFound int                `json:"total_found"`
}

// DeleteResponse is the DELETE /api/images/{image_id} body.
type DeleteResponse struct {
	Message string `json:"message"`
	ImageID string `json:"image_id"`
}

// NamespaceStats holds the vector count of one namespace.
type NamespaceStats struct {
	VectorCount int64 `json:"vector_count"`
}

// StatsResponse is the GET /api/stats body.
type StatsResponse struct {
	TotalVectors int64                     `json:"total_vectors"`
	Dimension    int                       `json:"dimension"`
	Namespaces   map[string]NamespaceStats `json:"namespaces"`
}

// DatabaseTelemetry describes the vector database in telemetry.
type DatabaseTelemetry struct {
	Connected    bool                      `json:"connected"`
	TotalVectors *int64                    `json:"total_vectors,omitempty"`
	Dimension    *int                      `json:"dimension,omitempty"`
	Namespaces   map[string]NamespaceStats `json:"namespaces,omitempty"`
}

// EmbeddingTelemetry describes the embedding provider in telemetry.
type EmbeddingTelemetry struct {
	Available bool   `json:"available"`
	Model     string `json:"model"`
}

// TelemetryResponse is the GET /api/telemetry body.
type TelemetryResponse struct {
	Status           string             `json:"status"`
	Error            string             `json:"error,omitempty"`
	Database         DatabaseTelemetry  `json:"database"`
	EmbeddingService EmbeddingTelemetry `json:"embedding_service"`
	UptimeSeconds    int64              `json:"uptime_seconds"`
}

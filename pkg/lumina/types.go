package lumina

// Image is a file to upload. ContentType must be image/*.
type Image struct {
	Filename    string
	ContentType string
	Data        []byte
}

// UploadResult reports the outcome for one image of a batch.
// Err is nil when the image was stored under ID.
type UploadResult struct {
	Filename string
	ID       string
	Err      error
}

// Hit is one search match.
type Hit struct {
	ID                string
	Filename          string
	Score             float64 // cosine similarity in [-1, 1]
	SimilarityPercent float64 // Score mapped onto [0, 100]
}

// Stats is a snapshot of the vector index.
type Stats struct {
	TotalVectors int64
	Dimension    int
	Namespaces   map[string]int64 // namespace -> vector count
}

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status string            // "ok", "degraded"
	Checks map[string]string // component -> "ok"/"error"
}

package result

import "github.com/lumina-search/lumina/internal/domain/image"

// Result is a single search hit as returned by the vector database.
type Result struct {
	id       string
	filename string
	score    float64
}

// New creates a search result. Missing filename metadata becomes "Unknown".
func New(id, filename string, score float64) Result {
	if filename == "" {
		filename = image.UnknownFilename
	}
	return Result{id: id, filename: filename, score: score}
}

// ID returns the image identifier.
func (r *Result) ID() string { return r.id }

// Filename returns the stored filename.
func (r *Result) Filename() string { return r.filename }

// Score returns the cosine similarity reported by the database.
func (r *Result) Score() float64 { return r.score }

// Percent maps a cosine similarity in [-1, 1] linearly onto [0, 100].
func (r *Result) Percent() float64 {
	return (r.score + 1) / 2 * 100
}

// Package stats describes vector index statistics.
package stats

// Stats is a snapshot of the vector index as reported by the database.
type Stats struct {
	TotalVectors int64
	Dimension    int
	Namespaces   map[string]int64 // namespace -> vector count
}

package lumina

import (
	"context"
	"fmt"
	"time"

	"github.com/lumina-search/lumina/internal/domain/search/request"
)

// DefaultTopK is the number of hits returned when Search gets topK <= 0.
const DefaultTopK = request.DefaultTopK

// Search returns the images closest to a text query, best first.
func (c *Client) Search(ctx context.Context, query string, topK int) (_ []Hit, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", start, err, "top_k", topK) }()

	if topK <= 0 {
		topK = DefaultTopK
	}
	req, err := request.New(query, topK, c.namespace)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	results, err := c.search.Search(ctx, &req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	hits := make([]Hit, len(results))
	for i := range results {
		hits[i] = Hit{
			ID:                results[i].ID(),
			Filename:          results[i].Filename(),
			Score:             results[i].Score(),
			SimilarityPercent: results[i].Percent(),
		}
	}
	return hits, nil
}

package lumina

import (
	"context"
	"fmt"
	"maps"
	"time"
)

// Stats reports the vector count overall and per namespace.
func (c *Client) Stats(ctx context.Context) (_ Stats, err error) {
	start := time.Now()
	defer func() { c.obs.observe("stats", start, err) }()

	st, err := c.health.Stats(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}
	return Stats{
		TotalVectors: st.TotalVectors,
		Dimension:    st.Dimension,
		Namespaces:   maps.Clone(st.Namespaces),
	}, nil
}

// Health checks the vector store and the embedding provider.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.health.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{
		Status: string(report.Status),
		Checks: checks,
	}
}

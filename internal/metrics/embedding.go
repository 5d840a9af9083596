package metrics

import "time"

// ObserveEmbedding records one provider call. errType is empty on success.
func ObserveEmbedding(provider, model, kind string, start time.Time, promptTokens, totalTokens int, errType string) {
	if errType != "" {
		EmbeddingRequestsTotal.WithLabelValues(provider, model, kind, "error").Inc()
		EmbeddingErrorsTotal.WithLabelValues(provider, model, errType).Inc()
		return
	}
	EmbeddingRequestsTotal.WithLabelValues(provider, model, kind, "success").Inc()
	EmbeddingRequestDuration.WithLabelValues(provider, model, kind).Observe(time.Since(start).Seconds())
	if totalTokens > 0 {
		EmbeddingTokensTotal.WithLabelValues(provider, model, "prompt").Add(float64(promptTokens))
		EmbeddingTokensTotal.WithLabelValues(provider, model, "total").Add(float64(totalTokens))
	}
}

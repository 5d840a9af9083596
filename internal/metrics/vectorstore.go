package metrics

import "time"

// ObserveVectorStore records the outcome of a single vector database call.
func ObserveVectorStore(driver, op string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	VectorStoreOperationsTotal.WithLabelValues(driver, op, status).Inc()
	VectorStoreOperationDuration.WithLabelValues(driver, op).Observe(time.Since(start).Seconds())
}

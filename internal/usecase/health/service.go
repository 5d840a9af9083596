// Package health reports readiness, index statistics and operational telemetry.
package health

import (
	"context"
	"fmt"
	"time"

	"github.com/lumina-search/lumina/internal/domain/stats"
)

// Status represents the aggregated readiness status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Telemetry status values.
const (
	Operational = "operational"
	DegradedOps = "degraded"
)

// Report aggregates readiness check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Telemetry is the operational summary shown by the UI.
type Telemetry struct {
	Status        string
	Connected     bool
	Stats         stats.Stats
	DBError       string
	Model         string
	Available     bool
	UptimeSeconds int64
}

// Service coordinates health checks and telemetry.
type Service struct {
	db        DBPinger
	embedding EmbeddingChecker
	stats     StatsReader
	model     string
	started   time.Time
	now       func() time.Time
}

// New creates a Service. embedding can be nil.
func New(db DBPinger, embedding EmbeddingChecker, st StatsReader, model string) *Service {
	return &Service{
		db:        db,
		embedding: embedding,
		stats:     st,
		model:     model,
		started:   time.Now(),
		now:       time.Now,
	}
}

// Check runs readiness checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if err := s.db.Ping(ctx); err != nil {
		checks["database"] = CheckError
	} else {
		checks["database"] = CheckOK
	}

	if s.embedding != nil {
		if err := s.embedding.HealthCheck(ctx); err != nil {
			checks["embedding"] = CheckError
		} else {
			checks["embedding"] = CheckOK
		}
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks}
}

// Stats returns the vector index statistics.
func (s *Service) Stats(ctx context.Context) (stats.Stats, error) {
	st, err := s.stats.Stats(ctx)
	if err != nil {
		return stats.Stats{}, fmt.Errorf("index stats: %w", err)
	}
	if st.Namespaces == nil {
		st.Namespaces = map[string]int64{}
	}
	return st, nil
}

// Telemetry summarizes database state and uptime. A stats failure degrades the
// report instead of failing it. The embedding service is reported by configuration,
// not probed, so telemetry never spends provider quota.
func (s *Service) Telemetry(ctx context.Context) Telemetry {
	t := Telemetry{
		Status:        Operational,
		Connected:     true,
		Model:         s.model,
		Available:     s.model != "",
		UptimeSeconds: int64(s.now().Sub(s.started).Seconds()),
	}

	st, err := s.Stats(ctx)
	if err != nil {
		t.Status = DegradedOps
		t.Connected = false
		t.DBError = err.Error()
		return t
	}
	t.Stats = st
	return t
}

package health

import "context"

// Status represents the aggregated health status.
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

// Report aggregates health check results. CorpusDocs is informational:
// an empty corpus degrades answers but keeps the service usable.
type Report struct {
	Status     Status
	Checks     map[string]CheckResult
	CorpusDocs int
}

// Service coordinates health checks.
type Service struct {
	cache      CachePinger
	embedding  EmbeddingChecker
	corpusDocs int
}

// New creates a Service. cache and embedding can be nil when the
// corresponding component is not configured.
func New(cache CachePinger, embedding EmbeddingChecker, corpusDocs int) *Service {
	return &Service{cache: cache, embedding: embedding, corpusDocs: corpusDocs}
}

// Check runs health checks against all configured components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if s.cache != nil {
		if err := s.cache.Ping(ctx); err != nil {
			checks["cache"] = CheckError
		} else {
			checks["cache"] = CheckOK
		}
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

	return Report{Status: status, Checks: checks, CorpusDocs: s.corpusDocs}
}

// Package httpapi exposes the fact-checking pipeline over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/veriscope-ai/veriscope/internal/domain"
	"github.com/veriscope-ai/veriscope/internal/extract"
	healthuc "github.com/veriscope-ai/veriscope/internal/usecase/health"
)

// Error response codes.
const (
	codeBadRequest       = "bad_request"
	codeValidationFailed = "validation_failed"
	codeEmbeddingError   = "embedding_provider_error"
	codeGenerationError  = "generation_provider_error"
	codeInternalError    = "internal_error"
)

// maxBodyBytes bounds the analyze request body (raw page HTML).
const maxBodyBytes = 4 << 20

// Analyzer is the consumer interface over the pipeline orchestrator.
type Analyzer interface {
	Analyze(ctx context.Context, query, url string) (domain.AnalysisResult, error)
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the HTTP handlers and their dependencies.
type Server struct {
	analyzer      Analyzer
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(analyzer Analyzer, health *healthuc.Service, logger *zap.Logger) *Server {
	s := &Server{
		analyzer: analyzer,
		health:   health,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrEmbeddingProvider, http.StatusBadGateway, codeEmbeddingError),
		sentinelHandler(domain.ErrGenerationProvider, http.StatusBadGateway, codeGenerationError),
	}
	return s
}

// Register mounts the API routes on r.
func (s *Server) Register(r chi.Router) {
	r.Post("/analyze", s.Analyze)
	r.Get("/healthz", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// analyzeRequest is the POST /analyze payload: the raw page HTML plus the
// page URL, echoed back in the result metadata.
type analyzeRequest struct {
	HTML string `json:"html"`
	URL  string `json:"url"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type healthResponse struct {
	Status     healthuc.Status                 `json:"status"`
	Checks     map[string]healthuc.CheckResult `json:"checks,omitempty"`
	CorpusDocs int                             `json:"corpus_docs"`
}

// Analyze handles POST /analyze: extract claim text from the submitted HTML
// and run the fact-checking pipeline over it.
func (s *Server) Analyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if req.HTML == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "html is required")
		return
	}

	query, err := extract.Query(req.HTML)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "unparseable html: "+err.Error())
		return
	}

	result, err := s.analyzer.Analyze(r.Context(), query, req.URL)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// HealthCheck handles GET /healthz.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, healthResponse{
		Status:     report.Status,
		Checks:     report.Checks,
		CorpusDocs: report.CorpusDocs,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrEmbeddingProvider,
		domain.ErrGenerationProvider,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}

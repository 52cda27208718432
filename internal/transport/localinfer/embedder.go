// Package localinfer talks to a local inference sidecar exposing raw
// transformer outputs. Unlike hosted embedding APIs the sidecar returns
// per-token hidden states, so sequence truncation and mean pooling happen
// client-side.
package localinfer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/veriscope-ai/veriscope/internal/domain"
	"github.com/veriscope-ai/veriscope/internal/metrics"
)

const providerLabel = "local"

// Embedder is a domain.Embedder backed by the sidecar. The sidecar runs a
// single model instance that is not safe for concurrent forward passes;
// wrap this embedder in domain.SerialEmbedder at composition time.
type Embedder struct {
	baseURL          string
	model            string
	maxSequenceChars int
	httpClient       *http.Client
	logger           *zap.Logger
}

// Config holds the sidecar connection settings.
type Config struct {
	BaseURL          string
	Model            string
	MaxSequenceChars int
	Timeout          time.Duration
	Logger           *zap.Logger
}

// NewEmbedder creates a sidecar-backed embedding provider.
func NewEmbedder(cfg *Config) *Embedder {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Embedder{
		baseURL:          cfg.BaseURL,
		model:            cfg.Model,
		maxSequenceChars: cfg.MaxSequenceChars,
		httpClient:       &http.Client{Timeout: timeout},
		logger:           cfg.Logger,
	}
}

type embedRequest struct {
	Model string `json:"model"`
	Text  string `json:"text"`
}

type embedResponse struct {
	HiddenStates  [][]float32 `json:"hidden_states"`
	AttentionMask []float32   `json:"attention_mask"`
	PromptTokens  int         `json:"prompt_tokens"`
}

// Embed implements domain.Embedder. Input longer than the model's context
// window is truncated rather than rejected.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if e.maxSequenceChars > 0 {
		runes := []rune(text)
		if len(runes) > e.maxSequenceChars {
			text = string(runes[:e.maxSequenceChars])
		}
	}

	body, err := json.Marshal(embedRequest{Model: e.model, Text: text})
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embed", bytes.NewReader(body))
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("build embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()

	resp, err := e.httpClient.Do(req)

	duration := time.Since(start)

	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(providerLabel, e.model, "error").Inc()
		return domain.EmbeddingResult{}, fmt.Errorf("sidecar request: %v: %w", err, domain.ErrEmbeddingProvider)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.EmbeddingRequestsTotal.WithLabelValues(providerLabel, e.model, "error").Inc()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.EmbeddingResult{}, fmt.Errorf("sidecar status %d: %s: %w",
			resp.StatusCode, string(msg), domain.ErrEmbeddingProvider)
	}

	var parsed embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(providerLabel, e.model, "error").Inc()
		return domain.EmbeddingResult{}, fmt.Errorf("decode sidecar response: %v: %w", err, domain.ErrEmbeddingProvider)
	}

	vec := MeanPool(parsed.HiddenStates, parsed.AttentionMask)
	if vec == nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(providerLabel, e.model, "error").Inc()
		return domain.EmbeddingResult{}, fmt.Errorf("unpoolable sidecar response: %w", domain.ErrEmbeddingProvider)
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(providerLabel, e.model, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(providerLabel, e.model).Observe(duration.Seconds())

	return domain.EmbeddingResult{
		Embedding:    vec,
		PromptTokens: parsed.PromptTokens,
		TotalTokens:  parsed.PromptTokens,
	}, nil
}

// HealthCheck verifies sidecar availability.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("build health request: %w", err)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sidecar health: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sidecar health status %d", resp.StatusCode)
	}
	return nil
}

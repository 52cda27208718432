package domain

import (
	"context"
	"fmt"
	"sync"
)

// Embedder is the shared text vectorization contract between layers.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// HealthChecker verifies inference provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector and token usage through the decorator chain.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// SerialEmbedder is a decorator that serializes Embed calls with a mutex.
// Used when the underlying inference runtime is not safe for concurrent
// forward passes (shared local accelerator).
type SerialEmbedder struct {
	mu    sync.Mutex
	inner Embedder
}

// NewSerialEmbedder creates a serializing decorator around inner.
func NewSerialEmbedder(inner Embedder) *SerialEmbedder {
	return &SerialEmbedder{inner: inner}
}

// Embed delegates to the inner embedder under the mutex.
func (e *SerialEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	result, err := e.inner.Embed(ctx, text)
	if err != nil {
		return EmbeddingResult{}, fmt.Errorf("serial embed: %w", err)
	}
	return result, nil
}

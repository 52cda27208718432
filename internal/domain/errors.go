package domain

import "errors"

var (
	// ErrCorpusUnavailable signals a missing or unreadable persisted corpus.
	// The pipeline treats it as a recoverable empty result, not a crash.
	ErrCorpusUnavailable = errors.New("corpus unavailable")
	// ErrEmbeddingProvider signals an embedding provider failure.
	// Propagates as a hard failure of the request.
	ErrEmbeddingProvider = errors.New("embedding provider error")
	// ErrGenerationProvider signals a generation provider failure.
	// Propagates as a hard failure of the request.
	ErrGenerationProvider = errors.New("generation provider error")
	// ErrRerankProvider signals a rerank provider failure.
	ErrRerankProvider = errors.New("rerank provider error")
)

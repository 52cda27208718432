package analyze

import (
	"context"

	"github.com/veriscope-ai/veriscope/internal/domain"
)

// Consumer interfaces over the pipeline stages (ISP). Concrete
// implementations live in usecase/retrieval, usecase/rerank and
// usecase/answer.

// Selector picks the coarse candidate set from the corpus.
type Selector interface {
	Select(queryVec []float32, docs []domain.Document, k int, minSimilarity float64) []domain.ScoredCandidate
}

// Reranker narrows candidates to the evidence passages. Degradation is
// internal: it never fails the request.
type Reranker interface {
	Rerank(ctx context.Context, query string, candidates []domain.ScoredCandidate, topP int) []domain.RerankedPassage
}

// Synthesizer produces findings and the offered source labels.
type Synthesizer interface {
	Synthesize(ctx context.Context, query string, passages []domain.RerankedPassage) ([]domain.Finding, []string, error)
}

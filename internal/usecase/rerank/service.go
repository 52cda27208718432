// Package rerank implements the second pipeline stage: precise relevance
// scoring of the coarse candidates with a cross-encoder model.
package rerank

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/veriscope-ai/veriscope/internal/domain"
)

// Service reranks candidate documents by recomputed relevance.
// Cosine similarities from the selector are discarded on input: relevance
// is recomputed, not inherited.
type Service struct {
	scorer Scorer
	logger *zap.Logger
}

// New creates a rerank service. scorer may be nil, in which case candidates
// pass through in selector order.
func New(scorer Scorer, logger *zap.Logger) *Service {
	return &Service{scorer: scorer, logger: logger}
}

// Rerank scores each candidate passage against the query and returns the top
// topP passages by relevance, descending. Empty candidate input
// short-circuits to an empty result without invoking the model. A scorer
// failure degrades to the selector's ordering rather than failing the
// request.
func (s *Service) Rerank(
	ctx context.Context, query string, candidates []domain.ScoredCandidate, topP int,
) []domain.RerankedPassage {
	if len(candidates) == 0 || topP <= 0 {
		return nil
	}

	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = c.Document.Text
	}

	if s.scorer == nil {
		return s.passthrough(candidates, topP)
	}

	scores, err := s.scorer.Score(ctx, query, texts)
	if err != nil || len(scores) != len(candidates) {
		s.logger.Warn("Rerank scoring failed, falling back to selector order",
			zap.Int("candidates", len(candidates)),
			zap.Error(err),
		)
		return s.passthrough(candidates, topP)
	}

	passages := make([]domain.RerankedPassage, len(candidates))
	for i, c := range candidates {
		passages[i] = domain.RerankedPassage{
			Source: c.Document.Source,
			Text:   c.Document.Text,
			Score:  scores[i],
		}
	}

	sort.SliceStable(passages, func(i, j int) bool {
		return passages[i].Score > passages[j].Score
	})

	if len(passages) > topP {
		passages = passages[:topP]
	}
	return passages
}

// passthrough keeps the selector's descending-similarity order. Relevance
// scores are zeroed: similarity must not leak onto the cross-encoder scale.
func (s *Service) passthrough(candidates []domain.ScoredCandidate, topP int) []domain.RerankedPassage {
	n := min(topP, len(candidates))
	passages := make([]domain.RerankedPassage, n)
	for i := range n {
		passages[i] = domain.RerankedPassage{
			Source: candidates[i].Document.Source,
			Text:   candidates[i].Document.Text,
		}
	}
	return passages
}

// Package analyze orchestrates the full fact-checking pipeline:
// query embedding, candidate selection, reranking and answer synthesis.
package analyze

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/veriscope-ai/veriscope/internal/domain"
)

// Params are the retrieval knobs of the pipeline.
type Params struct {
	TopK          int
	TopP          int
	MinSimilarity float64
}

// Service runs the pipeline over a fixed in-memory corpus.
type Service struct {
	embedder    domain.Embedder
	selector    Selector
	reranker    Reranker
	synthesizer Synthesizer
	corpus      []domain.Document
	params      Params
	logger      *zap.Logger
}

// New creates the pipeline orchestrator. corpus may be empty; the pipeline
// then degrades to ungrounded synthesis instead of failing.
func New(
	embedder domain.Embedder,
	selector Selector,
	reranker Reranker,
	synthesizer Synthesizer,
	corpus []domain.Document,
	params Params,
	logger *zap.Logger,
) *Service {
	return &Service{
		embedder:    embedder,
		selector:    selector,
		reranker:    reranker,
		synthesizer: synthesizer,
		corpus:      corpus,
		params:      params,
		logger:      logger,
	}
}

// Analyze fact-checks query text extracted from the page at url.
// Only inference provider failures are errors; an empty corpus, an empty
// candidate set or unusable model output all produce a result with zero
// findings.
func (s *Service) Analyze(ctx context.Context, query, url string) (domain.AnalysisResult, error) {
	if query == "" {
		// Nothing claim-bearing was extracted; there is nothing to check.
		return emptyResult(url), nil
	}

	var passages []domain.RerankedPassage
	if len(s.corpus) > 0 {
		emb, err := s.embedder.Embed(ctx, query)
		if err != nil {
			return domain.AnalysisResult{}, fmt.Errorf("embed query: %w", err)
		}

		candidates := s.selector.Select(emb.Embedding, s.corpus, s.params.TopK, s.params.MinSimilarity)
		passages = s.reranker.Rerank(ctx, query, candidates, s.params.TopP)

		s.logger.Debug("Retrieval complete",
			zap.Int("candidates", len(candidates)),
			zap.Int("passages", len(passages)),
		)
	}

	findings, sources, err := s.synthesizer.Synthesize(ctx, query, passages)
	if err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("synthesize answer: %w", err)
	}
	if findings == nil {
		findings = []domain.Finding{}
	}
	if sources == nil {
		sources = []string{}
	}

	return domain.AnalysisResult{
		Findings: findings,
		Sources:  sources,
		Metadata: domain.Metadata{
			URL:              url,
			CorrectionsCount: len(findings),
		},
	}, nil
}

func emptyResult(url string) domain.AnalysisResult {
	return domain.AnalysisResult{
		Findings: []domain.Finding{},
		Sources:  []string{},
		Metadata: domain.Metadata{URL: url},
	}
}

// Package answer turns reranked evidence passages into structured
// misinformation findings via a generative model. Model output is treated
// as hostile input: whatever comes back is repaired into the findings
// schema or dropped, never propagated as a parse error.
package answer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/veriscope-ai/veriscope/internal/domain"
	"github.com/veriscope-ai/veriscope/internal/metrics"
)

// Service synthesizes findings from a query and its evidence passages.
type Service struct {
	generator domain.Generator
	charCap   int
	logger    *zap.Logger
}

// New creates an answer service. charCap bounds how much of each passage
// enters the prompt.
func New(generator domain.Generator, charCap int, logger *zap.Logger) *Service {
	return &Service{generator: generator, charCap: charCap, logger: logger}
}

// Synthesize runs the generator over the query and passages and returns the
// recovered findings plus the source labels of the passages that were
// offered to the model. A generator failure is the only error path;
// malformed model output degrades to zero findings.
func (s *Service) Synthesize(
	ctx context.Context, query string, passages []domain.RerankedPassage,
) ([]domain.Finding, []string, error) {
	messages := buildMessages(query, passages, s.charCap)

	raw, err := s.generator.Generate(ctx, messages)
	if err != nil {
		return nil, nil, fmt.Errorf("generate answer: %w", err)
	}

	findings, ok := recoverFindings(raw)
	if !ok {
		metrics.GenerationParseFailuresTotal.Inc()
		s.logger.Warn("Generator output unrecoverable, returning zero findings",
			zap.Int("raw_len", len(raw)),
		)
	}

	sources := make([]string, len(passages))
	for i, p := range passages {
		sources[i] = p.Source
	}

	return findings, sources, nil
}

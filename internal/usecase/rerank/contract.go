package rerank

import "context"

// Scorer is the cross-encoder relevance model contract: one score per
// (query, passage) pair, in passage order. The scale is independent of
// cosine similarity.
type Scorer interface {
	Score(ctx context.Context, query string, passages []string) ([]float64, error)
}

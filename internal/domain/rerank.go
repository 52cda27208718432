package domain

import "context"

// Reranker scores (query, passage) pairs with a cross-encoder style model.
// Treated as a black box: only the input/output contract is assumed.
// Returns one relevance score per passage, in input order.
type Reranker interface {
	Score(ctx context.Context, query string, passages []string) ([]float64, error)
}

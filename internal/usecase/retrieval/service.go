// Package retrieval implements the first pipeline stage: coarse candidate
// selection by cosine similarity over the embedded corpus.
package retrieval

import (
	"container/heap"

	"go.uber.org/zap"

	"github.com/veriscope-ai/veriscope/internal/domain"
)

// Selector streams the corpus and keeps the k most similar documents in a
// bounded min-heap; the full corpus is never materialized into a second
// sorted structure.
//
// Admission policy (strict floor): a candidate below minSimilarity is never
// admitted, whether or not the pool is full. Once the pool holds k entries,
// an above-floor candidate replaces the current minimum only when strictly
// more similar; on equal similarity the earlier-seen candidate is kept, so
// the output is deterministic for a fixed corpus and query vector.
type Selector struct {
	logger *zap.Logger
}

// NewSelector creates a candidate selector.
func NewSelector(logger *zap.Logger) *Selector {
	return &Selector{logger: logger}
}

// Select returns at most k candidates with similarity >= minSimilarity,
// ordered by descending similarity. An empty or nil corpus yields an empty
// result. Documents with missing or dimension-mismatched embeddings are
// skipped with a logged warning and do not abort the scan.
func (s *Selector) Select(
	queryVec []float32, docs []domain.Document, k int, minSimilarity float64,
) []domain.ScoredCandidate {
	if k <= 0 || len(docs) == 0 || len(queryVec) == 0 {
		return nil
	}

	pool := make(candidateHeap, 0, k)
	heap.Init(&pool)

	for i, doc := range docs {
		if len(doc.Embedding) == 0 || len(doc.Embedding) != len(queryVec) {
			s.logger.Warn("Skipping document with malformed embedding",
				zap.Int("index", i),
				zap.String("source", doc.Source),
				zap.Int("dimensions", len(doc.Embedding)),
				zap.Int("expected", len(queryVec)),
			)
			continue
		}

		similarity := CosineSimilarity(queryVec, doc.Embedding)
		if similarity < minSimilarity {
			continue
		}

		entry := heapEntry{
			candidate: domain.ScoredCandidate{Similarity: similarity, Document: doc},
			seq:       i,
		}

		if pool.Len() < k {
			heap.Push(&pool, entry)
			continue
		}
		if similarity > pool[0].candidate.Similarity {
			pool[0] = entry
			heap.Fix(&pool, 0)
		}
	}

	// Drain ascending, emit descending.
	out := make([]domain.ScoredCandidate, pool.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(&pool).(heapEntry).candidate
	}
	return out
}

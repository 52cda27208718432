package retrieval

import "github.com/veriscope-ai/veriscope/internal/domain"

// heapEntry tracks insertion order alongside the candidate so that ties on
// equal similarity resolve deterministically (earlier insertion survives).
type heapEntry struct {
	candidate domain.ScoredCandidate
	seq       int
}

// candidateHeap is a min-heap over similarity, bounded at k by the selector.
// The root is always the weakest retained candidate.
type candidateHeap []heapEntry

func (h candidateHeap) Len() int { return len(h) }

func (h candidateHeap) Less(i, j int) bool {
	if h[i].candidate.Similarity != h[j].candidate.Similarity {
		return h[i].candidate.Similarity < h[j].candidate.Similarity
	}
	// Equal similarity: the later insertion ranks lower so it is evicted first.
	return h[i].seq > h[j].seq
}

func (h candidateHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *candidateHeap) Push(x any) {
	*h = append(*h, x.(heapEntry))
}

func (h *candidateHeap) Pop() any {
	old := *h
	n := len(old)
	entry := old[n-1]
	*h = old[:n-1]
	return entry
}

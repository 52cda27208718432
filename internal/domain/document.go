package domain

// Document is a single embedded reference document from the persisted corpus.
// Immutable once embedded: created at corpus build time, read-only at query time.
type Document struct {
	Source    string    `json:"source"`
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding"`
}

// ScoredCandidate pairs a corpus document with its cosine similarity to the query vector.
// Transient, produced per query by the candidate selector.
type ScoredCandidate struct {
	Similarity float64
	Document   Document
}

// RerankedPassage is a candidate re-scored by the cross-encoder relevance model.
// Score lives on its own scale and must not be compared with cosine similarity.
type RerankedPassage struct {
	Source string
	Text   string
	Score  float64
}

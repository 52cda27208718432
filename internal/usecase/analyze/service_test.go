package analyze

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/veriscope-ai/veriscope/internal/domain"
)

type stubEmbedder struct {
	vec   []float32
	err   error
	calls int
}

func (e *stubEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	e.calls++
	if e.err != nil {
		return domain.EmbeddingResult{}, e.err
	}
	return domain.EmbeddingResult{Embedding: e.vec}, nil
}

type stubSelector struct {
	out   []domain.ScoredCandidate
	calls int
}

func (s *stubSelector) Select(_ []float32, _ []domain.Document, _ int, _ float64) []domain.ScoredCandidate {
	s.calls++
	return s.out
}

type stubReranker struct {
	out   []domain.RerankedPassage
	calls int
}

func (r *stubReranker) Rerank(_ context.Context, _ string, _ []domain.ScoredCandidate, _ int) []domain.RerankedPassage {
	r.calls++
	return r.out
}

type stubSynthesizer struct {
	findings []domain.Finding
	sources  []string
	err      error
	passages []domain.RerankedPassage
	calls    int
}

func (s *stubSynthesizer) Synthesize(
	_ context.Context, _ string, passages []domain.RerankedPassage,
) ([]domain.Finding, []string, error) {
	s.calls++
	s.passages = passages
	if s.err != nil {
		return nil, nil, s.err
	}
	return s.findings, s.sources, nil
}

func testCorpus() []domain.Document {
	return []domain.Document{
		{Source: "who.txt", Text: "who text", Embedding: []float32{1, 0}},
		{Source: "cdc.txt", Text: "cdc text", Embedding: []float32{0, 1}},
	}
}

func testParams() Params {
	return Params{TopK: 10, TopP: 3, MinSimilarity: 0.3}
}

func TestAnalyze_FullPipeline(t *testing.T) {
	emb := &stubEmbedder{vec: []float32{1, 0}}
	sel := &stubSelector{out: []domain.ScoredCandidate{
		{Similarity: 0.9, Document: domain.Document{Source: "who.txt", Text: "who text"}},
	}}
	rer := &stubReranker{out: []domain.RerankedPassage{
		{Source: "who.txt", Text: "who text", Score: 0.8},
	}}
	syn := &stubSynthesizer{
		findings: []domain.Finding{{Text: "bad", Correction: "good"}},
		sources:  []string{"who.txt"},
	}

	svc := New(emb, sel, rer, syn, testCorpus(), testParams(), zap.NewNop())

	result, err := svc.Analyze(context.Background(), "some claims", "https://example.com/a")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if emb.calls != 1 || sel.calls != 1 || rer.calls != 1 || syn.calls != 1 {
		t.Errorf("stage calls = %d/%d/%d/%d, expected 1 each", emb.calls, sel.calls, rer.calls, syn.calls)
	}
	if len(result.Findings) != 1 || result.Findings[0].Text != "bad" {
		t.Errorf("unexpected findings: %+v", result.Findings)
	}
	if len(result.Sources) != 1 || result.Sources[0] != "who.txt" {
		t.Errorf("unexpected sources: %v", result.Sources)
	}
	if result.Metadata.URL != "https://example.com/a" {
		t.Errorf("unexpected url: %q", result.Metadata.URL)
	}
	if result.Metadata.CorrectionsCount != len(result.Findings) {
		t.Errorf("corrections_count %d != findings %d", result.Metadata.CorrectionsCount, len(result.Findings))
	}
}

func TestAnalyze_EmptyQueryShortCircuits(t *testing.T) {
	emb := &stubEmbedder{vec: []float32{1, 0}}
	syn := &stubSynthesizer{}
	svc := New(emb, &stubSelector{}, &stubReranker{}, syn, testCorpus(), testParams(), zap.NewNop())

	result, err := svc.Analyze(context.Background(), "", "https://example.com/empty")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if emb.calls != 0 || syn.calls != 0 {
		t.Errorf("providers invoked for empty query: embed=%d synth=%d", emb.calls, syn.calls)
	}
	if len(result.Findings) != 0 || result.Metadata.CorrectionsCount != 0 {
		t.Errorf("unexpected result: %+v", result)
	}
	if result.Metadata.URL != "https://example.com/empty" {
		t.Errorf("url not echoed: %q", result.Metadata.URL)
	}
}

func TestAnalyze_EmptyCorpusSkipsRetrieval(t *testing.T) {
	emb := &stubEmbedder{vec: []float32{1, 0}}
	sel := &stubSelector{}
	syn := &stubSynthesizer{findings: []domain.Finding{}, sources: []string{}}
	svc := New(emb, sel, &stubReranker{}, syn, nil, testParams(), zap.NewNop())

	result, err := svc.Analyze(context.Background(), "claims", "u")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if emb.calls != 0 || sel.calls != 0 {
		t.Errorf("retrieval invoked with empty corpus: embed=%d select=%d", emb.calls, sel.calls)
	}
	if syn.calls != 1 {
		t.Fatalf("synthesis skipped, calls=%d", syn.calls)
	}
	if len(syn.passages) != 0 {
		t.Errorf("synthesis received passages with empty corpus: %v", syn.passages)
	}
	if result.Findings == nil || result.Sources == nil {
		t.Error("result slices must be non-nil for JSON serialization")
	}
}

func TestAnalyze_EmbedderErrorPropagates(t *testing.T) {
	emb := &stubEmbedder{err: domain.ErrEmbeddingProvider}
	svc := New(emb, &stubSelector{}, &stubReranker{}, &stubSynthesizer{}, testCorpus(), testParams(), zap.NewNop())

	_, err := svc.Analyze(context.Background(), "claims", "u")
	if !errors.Is(err, domain.ErrEmbeddingProvider) {
		t.Fatalf("expected ErrEmbeddingProvider, got %v", err)
	}
}

func TestAnalyze_SynthesizerErrorPropagates(t *testing.T) {
	emb := &stubEmbedder{vec: []float32{1, 0}}
	syn := &stubSynthesizer{err: domain.ErrGenerationProvider}
	svc := New(emb, &stubSelector{}, &stubReranker{}, syn, testCorpus(), testParams(), zap.NewNop())

	_, err := svc.Analyze(context.Background(), "claims", "u")
	if !errors.Is(err, domain.ErrGenerationProvider) {
		t.Fatalf("expected ErrGenerationProvider, got %v", err)
	}
}

func TestAnalyze_NilSynthesizerSlicesNormalized(t *testing.T) {
	emb := &stubEmbedder{vec: []float32{1, 0}}
	syn := &stubSynthesizer{findings: nil, sources: nil}
	svc := New(emb, &stubSelector{}, &stubReranker{}, syn, testCorpus(), testParams(), zap.NewNop())

	result, err := svc.Analyze(context.Background(), "claims", "u")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if result.Findings == nil || result.Sources == nil {
		t.Error("nil slices must be normalized to empty")
	}
}

package answer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/veriscope-ai/veriscope/internal/domain"
)

type stubGenerator struct {
	output   string
	err      error
	messages []domain.Message
}

func (g *stubGenerator) Generate(_ context.Context, messages []domain.Message) (string, error) {
	g.messages = messages
	if g.err != nil {
		return "", g.err
	}
	return g.output, nil
}

func testPassages() []domain.RerankedPassage {
	return []domain.RerankedPassage{
		{Source: "who_measles.txt", Text: strings.Repeat("measles evidence ", 100), Score: 0.9},
		{Source: "cdc_mmr.txt", Text: "short passage", Score: 0.4},
	}
}

func newTestService(gen *stubGenerator) *Service {
	return New(gen, 1000, zap.NewNop())
}

func TestSynthesize_ReturnsFindingsAndSources(t *testing.T) {
	gen := &stubGenerator{output: `{"findings": [{"text": "bad claim", "correction": "the facts"}]}`}
	svc := newTestService(gen)

	findings, sources, err := svc.Synthesize(context.Background(), "the query", testPassages())
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if len(findings) != 1 || findings[0].Text != "bad claim" {
		t.Fatalf("unexpected findings: %+v", findings)
	}
	if len(sources) != 2 || sources[0] != "who_measles.txt" || sources[1] != "cdc_mmr.txt" {
		t.Errorf("unexpected sources: %v", sources)
	}
}

func TestSynthesize_PromptShape(t *testing.T) {
	gen := &stubGenerator{output: `{"findings": []}`}
	svc := newTestService(gen)

	if _, _, err := svc.Synthesize(context.Background(), "is this true", testPassages()); err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}

	msgs := gen.messages
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	if msgs[0].Role != domain.RoleSystem || !strings.Contains(msgs[0].Content, `"findings"`) {
		t.Error("first message must carry the output contract")
	}
	if msgs[1].Role != domain.RoleSystem {
		t.Error("grounding message must be a system turn")
	}
	if !strings.Contains(msgs[1].Content, "1. who_measles.txt:") ||
		!strings.Contains(msgs[1].Content, "2. cdc_mmr.txt:") {
		t.Errorf("grounding message missing labeled passages: %q", msgs[1].Content)
	}
	if msgs[2].Role != domain.RoleUser || !strings.Contains(msgs[2].Content, "is this true") {
		t.Error("query must be the final user turn")
	}
}

func TestSynthesize_PassageTextCapped(t *testing.T) {
	long := strings.Repeat("y", 5000)
	gen := &stubGenerator{output: `{"findings": []}`}
	svc := New(gen, 1000, zap.NewNop())

	passages := []domain.RerankedPassage{{Source: "src.txt", Text: long}}
	if _, _, err := svc.Synthesize(context.Background(), "q", passages); err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}

	grounding := gen.messages[1].Content
	if strings.Contains(grounding, strings.Repeat("y", 1001)) {
		t.Error("passage text not capped in prompt")
	}
	if !strings.Contains(grounding, strings.Repeat("y", 1000)) {
		t.Error("capped passage prefix missing from prompt")
	}
}

func TestSynthesize_NoPassagesOmitsGroundingTurn(t *testing.T) {
	gen := &stubGenerator{output: `{"findings": []}`}
	svc := newTestService(gen)

	findings, sources, err := svc.Synthesize(context.Background(), "q", nil)
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if len(gen.messages) != 2 {
		t.Fatalf("expected 2 messages without passages, got %d", len(gen.messages))
	}
	if len(findings) != 0 {
		t.Errorf("unexpected findings: %+v", findings)
	}
	if len(sources) != 0 {
		t.Errorf("expected no sources, got %v", sources)
	}
}

func TestSynthesize_MalformedOutputDegradesToEmpty(t *testing.T) {
	gen := &stubGenerator{output: "I refuse to answer in JSON."}
	svc := newTestService(gen)

	findings, sources, err := svc.Synthesize(context.Background(), "q", testPassages())
	if err != nil {
		t.Fatalf("parse failure must not be an error, got %v", err)
	}
	if findings == nil || len(findings) != 0 {
		t.Errorf("expected empty non-nil findings, got %#v", findings)
	}
	// Sources still reflect what was offered to the model.
	if len(sources) != 2 {
		t.Errorf("expected 2 sources, got %v", sources)
	}
}

func TestSynthesize_GeneratorErrorPropagates(t *testing.T) {
	gen := &stubGenerator{err: domain.ErrGenerationProvider}
	svc := newTestService(gen)

	_, _, err := svc.Synthesize(context.Background(), "q", testPassages())
	if !errors.Is(err, domain.ErrGenerationProvider) {
		t.Fatalf("expected ErrGenerationProvider, got %v", err)
	}
}

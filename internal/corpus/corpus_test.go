package corpus

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/veriscope-ai/veriscope/internal/domain"
)

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"), zap.NewNop())
	if !errors.Is(err, domain.ErrCorpusUnavailable) {
		t.Fatalf("expected ErrCorpusUnavailable, got %v", err)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.json")
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path, zap.NewNop())
	if !errors.Is(err, domain.ErrCorpusUnavailable) {
		t.Fatalf("expected ErrCorpusUnavailable, got %v", err)
	}
}

func TestLoad_SkipsMalformedEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.json")
	raw := `[
		{"source": "CDC", "text": "vaccines are safe", "embedding": [0.1, 0.2]},
		{"source": "WHO", "text": "bad embedding", "embedding": "oops"},
		{"source": "NIH", "text": "another doc", "embedding": [0.3, 0.4]}
	]`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	docs, err := Load(path, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 docs (malformed one skipped), got %d", len(docs))
	}
	if docs[0].Source != "CDC" || docs[1].Source != "NIH" {
		t.Errorf("unexpected sources: %q, %q", docs[0].Source, docs[1].Source)
	}
}

func TestSaveLoad_PreservesNonASCII(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "corpus.json")
	docs := []domain.Document{
		{Source: "WHO", Text: "La vacuna es segura — これは安全です", Embedding: []float32{0.5, -0.25}},
	}

	if err := Save(path, docs); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), "これは安全です") {
		t.Error("expected non-ASCII text preserved in the JSON file")
	}

	loaded, err := Load(path, zap.NewNop())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("expected 1 doc, got %d", len(loaded))
	}
	if loaded[0].Text != docs[0].Text {
		t.Errorf("text mismatch: %q", loaded[0].Text)
	}
	if len(loaded[0].Embedding) != 2 || loaded[0].Embedding[1] != -0.25 {
		t.Errorf("embedding mismatch: %v", loaded[0].Embedding)
	}
}

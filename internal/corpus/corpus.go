// Package corpus loads and persists the embedded reference document corpus.
//
// The persisted format is a single JSON document: an array of
// {source, text, embedding} objects, UTF-8 with non-ASCII preserved.
// The corpus is read once per process lifetime and is read-only at query
// time; a rebuild is an offline operation (cmd/veriscope-index).
package corpus

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/veriscope-ai/veriscope/internal/domain"
)

// Load reads the persisted corpus from path.
// A missing file maps to domain.ErrCorpusUnavailable so callers can degrade
// to ungrounded analysis instead of failing. Individual malformed entries are
// skipped with a logged warning; they never abort the load.
func Load(path string, logger *zap.Logger) ([]domain.Document, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("corpus file %s: %w", path, domain.ErrCorpusUnavailable)
		}
		return nil, fmt.Errorf("read corpus %s: %w", path, err)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse corpus %s: %w", path, domain.ErrCorpusUnavailable)
	}

	docs := make([]domain.Document, 0, len(raw))
	for i, entry := range raw {
		var doc domain.Document
		if err := json.Unmarshal(entry, &doc); err != nil {
			logger.Warn("Skipping malformed corpus entry",
				zap.Int("index", i),
				zap.Error(err),
			)
			continue
		}
		docs = append(docs, doc)
	}

	return docs, nil
}

// Save writes the corpus to path as a single JSON document.
func Save(path string, docs []domain.Document) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(docs); err != nil {
		return fmt.Errorf("encode corpus: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create corpus dir: %w", err)
		}
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write corpus %s: %w", path, err)
	}
	return nil
}

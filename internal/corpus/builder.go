package corpus

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/veriscope-ai/veriscope/internal/domain"
)

// Build reads every *.txt reference document under dir, embeds each, and
// returns the assembled corpus. Pure with respect to package state: the
// result is returned, never accumulated in a shared variable.
// Unreadable files are skipped with a logged warning.
func Build(ctx context.Context, dir string, embedder domain.Embedder, logger *zap.Logger) ([]domain.Document, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	if err != nil {
		return nil, fmt.Errorf("scan docs dir %s: %w", dir, err)
	}

	docs := make([]domain.Document, 0, len(paths))
	for _, path := range paths {
		content, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			logger.Warn("Skipping unreadable document", zap.String("path", path), zap.Error(err))
			continue
		}

		text := string(content)
		source := sourceLabel(text)
		if source == "" {
			logger.Warn("Skipping empty document", zap.String("path", path))
			continue
		}

		result, err := embedder.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed document %s: %w", path, err)
		}

		docs = append(docs, domain.Document{
			Source:    source,
			Text:      text,
			Embedding: result.Embedding,
		})
		logger.Info("Embedded document",
			zap.String("path", path),
			zap.String("source", source),
			zap.Int("dimensions", len(result.Embedding)),
		)
	}

	return docs, nil
}

// sourceLabel derives the document's source label from its leading token.
func sourceLabel(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

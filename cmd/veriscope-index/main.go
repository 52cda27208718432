// Command veriscope-index embeds a directory of reference documents and
// writes the corpus file the API server loads at startup.
package main

import (
	"context"
	"flag"
	"time"

	"go.uber.org/zap"

	"github.com/veriscope-ai/veriscope/internal/config"
	"github.com/veriscope-ai/veriscope/internal/corpus"
	"github.com/veriscope-ai/veriscope/internal/domain"
	logpkg "github.com/veriscope-ai/veriscope/internal/logger"
	"github.com/veriscope-ai/veriscope/internal/metrics"
	"github.com/veriscope-ai/veriscope/internal/transport/localinfer"
	openaiTransport "github.com/veriscope-ai/veriscope/internal/transport/openai"
	"github.com/veriscope-ai/veriscope/internal/version"
)

func main() {
	docsDir := flag.String("docs", "docs", "directory of .txt reference documents")
	outPath := flag.String("out", "", "output corpus path (default: corpus.path from config)")
	flag.Parse()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	out := *outPath
	if out == "" {
		out = cfg.Corpus.Path
	}

	logger.Info("Building corpus",
		zap.String("version", version.Version),
		zap.String("docs_dir", *docsDir),
		zap.String("out", out),
		zap.String("embedding_provider", cfg.Embedding.Provider),
	)

	metrics.RegisterInferenceMetrics()

	embedder := buildEmbedder(cfg, logger)

	start := time.Now()
	docs, err := corpus.Build(context.Background(), *docsDir, embedder, logger)
	if err != nil {
		logger.Fatal("Failed to build corpus", zap.Error(err))
	}

	if err := corpus.Save(out, docs); err != nil {
		logger.Fatal("Failed to write corpus", zap.Error(err))
	}

	logger.Info("Corpus written",
		zap.Int("documents", len(docs)),
		zap.Duration("took", time.Since(start)),
	)
}

func buildEmbedder(cfg config.Config, logger *zap.Logger) domain.Embedder {
	if cfg.Embedding.Provider == "local" {
		return localinfer.NewEmbedder(&localinfer.Config{
			BaseURL:          cfg.Embedding.BaseURL,
			Model:            cfg.Embedding.Model,
			MaxSequenceChars: cfg.Embedding.MaxSequenceChars,
			Logger:           logger,
		})
	}
	return openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})
}

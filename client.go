// Package veriscope is the in-process SDK for the fact-checking pipeline:
// embedding-based retrieval over a reference corpus, optional cross-encoder
// reranking and LLM answer synthesis with structured findings.
package veriscope

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/veriscope-ai/veriscope/internal/corpus"
	"github.com/veriscope-ai/veriscope/internal/domain"
	"github.com/veriscope-ai/veriscope/internal/extract"
	openaiTransport "github.com/veriscope-ai/veriscope/internal/transport/openai"
	analyzeuc "github.com/veriscope-ai/veriscope/internal/usecase/analyze"
	answeruc "github.com/veriscope-ai/veriscope/internal/usecase/answer"
	rerankuc "github.com/veriscope-ai/veriscope/internal/usecase/rerank"
	"github.com/veriscope-ai/veriscope/internal/usecase/retrieval"
)

// Document is one pre-embedded reference document.
type Document struct {
	Source    string
	Text      string
	Embedding []float32
}

// Finding is one detected incorrect statement plus its correction.
type Finding struct {
	Text       string
	Correction string
}

// Result is the outcome of one analysis.
type Result struct {
	Findings         []Finding
	Sources          []string
	URL              string
	CorrectionsCount int
}

// Client runs the fact-checking pipeline in-process.
type Client struct {
	analyze *analyzeuc.Service
	logger  *zap.Logger
}

// New creates a veriscope Client. An embedder and a generator are required,
// either custom (WithEmbedder / WithGenerator) or via WithOpenAI.
func New(opts ...Option) (*Client, error) {
	cfg := defaultClientConfig()
	for _, o := range opts {
		o(cfg)
	}

	logger := cfg.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	embedder, err := buildEmbedder(cfg, logger)
	if err != nil {
		return nil, err
	}
	generator, err := buildGenerator(cfg, logger)
	if err != nil {
		return nil, err
	}

	docs, err := loadCorpus(cfg, logger)
	if err != nil {
		return nil, err
	}

	var scorer rerankuc.Scorer
	if cfg.scorer != nil {
		scorer = &scorerAdapter{inner: cfg.scorer}
	}

	analyzeSvc := analyzeuc.New(
		embedder,
		retrieval.NewSelector(logger),
		rerankuc.New(scorer, logger),
		answeruc.New(generator, cfg.passageCharCap, logger),
		docs,
		analyzeuc.Params{
			TopK:          cfg.topK,
			TopP:          cfg.topP,
			MinSimilarity: cfg.minSimilarity,
		},
		logger,
	)

	return &Client{analyze: analyzeSvc, logger: logger}, nil
}

// AnalyzeText fact-checks plain claim text.
func (c *Client) AnalyzeText(ctx context.Context, text, url string) (Result, error) {
	res, err := c.analyze.Analyze(ctx, text, url)
	if err != nil {
		return Result{}, fmt.Errorf("veriscope: analyze: %w", err)
	}
	return resultFromDomain(res), nil
}

// AnalyzeHTML extracts claim text from a page and fact-checks it.
func (c *Client) AnalyzeHTML(ctx context.Context, html, url string) (Result, error) {
	query, err := extract.Query(html)
	if err != nil {
		return Result{}, fmt.Errorf("veriscope: extract: %w", err)
	}
	return c.AnalyzeText(ctx, query, url)
}

func buildEmbedder(cfg *clientConfig, logger *zap.Logger) (domain.Embedder, error) {
	if cfg.embedder != nil {
		return &embedderAdapter{inner: cfg.embedder}, nil
	}
	if cfg.openaiAPIKey == "" || cfg.embeddingModel == "" {
		return nil, errors.New("veriscope: embedder required (use WithOpenAI or WithEmbedder)")
	}
	return openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
		APIKey:   cfg.openaiAPIKey,
		BaseURL:  cfg.openaiBaseURL,
		Model:    cfg.embeddingModel,
		Provider: "openai",
		Logger:   logger,
	}), nil
}

func buildGenerator(cfg *clientConfig, logger *zap.Logger) (domain.Generator, error) {
	if cfg.generator != nil {
		return &generatorAdapter{inner: cfg.generator}, nil
	}
	if cfg.openaiAPIKey == "" || cfg.generationModel == "" {
		return nil, errors.New("veriscope: generator required (use WithOpenAI or WithGenerator)")
	}
	return openaiTransport.NewGenerator(&openaiTransport.GeneratorConfig{
		APIKey:      cfg.openaiAPIKey,
		BaseURL:     cfg.openaiBaseURL,
		Model:       cfg.generationModel,
		MaxTokens:   cfg.maxTokens,
		Temperature: float32(cfg.temperature),
		TopP:        float32(cfg.nucleusTopP),
		Logger:      logger,
	}), nil
}

func loadCorpus(cfg *clientConfig, logger *zap.Logger) ([]domain.Document, error) {
	if cfg.documents != nil {
		docs := make([]domain.Document, len(cfg.documents))
		for i, d := range cfg.documents {
			docs[i] = domain.Document{Source: d.Source, Text: d.Text, Embedding: d.Embedding}
		}
		return docs, nil
	}
	if cfg.corpusPath == "" {
		return nil, nil
	}
	docs, err := corpus.Load(cfg.corpusPath, logger)
	if err != nil {
		return nil, fmt.Errorf("veriscope: load corpus: %w", err)
	}
	return docs, nil
}

func resultFromDomain(res domain.AnalysisResult) Result {
	findings := make([]Finding, len(res.Findings))
	for i, f := range res.Findings {
		findings[i] = Finding{Text: f.Text, Correction: f.Correction}
	}
	return Result{
		Findings:         findings,
		Sources:          res.Sources,
		URL:              res.Metadata.URL,
		CorrectionsCount: res.Metadata.CorrectionsCount,
	}
}

// embedderAdapter wraps the public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// generatorAdapter wraps the public Generator to satisfy internal domain.Generator.
type generatorAdapter struct {
	inner Generator
}

func (a *generatorAdapter) Generate(ctx context.Context, messages []domain.Message) (string, error) {
	msgs := make([]Message, len(messages))
	for i, m := range messages {
		msgs[i] = Message{Role: m.Role, Content: m.Content}
	}
	out, err := a.inner.Generate(ctx, msgs)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	return out, nil
}

// scorerAdapter wraps the public Scorer to satisfy the rerank stage contract.
type scorerAdapter struct {
	inner Scorer
}

func (a *scorerAdapter) Score(ctx context.Context, query string, passages []string) ([]float64, error) {
	scores, err := a.inner.Score(ctx, query, passages)
	if err != nil {
		return nil, fmt.Errorf("score: %w", err)
	}
	return scores, nil
}

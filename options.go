package veriscope

import (
	"context"

	"go.uber.org/zap"

	"github.com/veriscope-ai/veriscope/internal/domain"
)

// Option configures the Client.
type Option func(*clientConfig)

type clientConfig struct {
	embedder   Embedder
	generator  Generator
	scorer     Scorer
	corpusPath string
	documents  []Document

	openaiAPIKey    string
	openaiBaseURL   string
	embeddingModel  string
	generationModel string

	topK           int
	topP           int
	minSimilarity  float64
	passageCharCap int
	maxTokens      int
	temperature    float64
	nucleusTopP    float64

	logger *zap.Logger
}

func defaultClientConfig() *clientConfig {
	return &clientConfig{
		topK:           10,
		topP:           3,
		minSimilarity:  0.3,
		passageCharCap: 1000,
		maxTokens:      512,
		temperature:    0.7,
		nucleusTopP:    0.9,
	}
}

// WithOpenAI configures both inference providers against an
// OpenAI-compatible API.
func WithOpenAI(apiKey, embeddingModel, generationModel string) Option {
	return func(c *clientConfig) {
		c.openaiAPIKey = apiKey
		c.embeddingModel = embeddingModel
		c.generationModel = generationModel
	}
}

// WithBaseURL points the OpenAI-compatible providers at a custom endpoint.
func WithBaseURL(baseURL string) Option {
	return func(c *clientConfig) {
		c.openaiBaseURL = baseURL
	}
}

// WithEmbedder supplies a custom embedding provider. Takes precedence over
// WithOpenAI for embeddings.
func WithEmbedder(e Embedder) Option {
	return func(c *clientConfig) {
		c.embedder = e
	}
}

// WithGenerator supplies a custom generation provider. Takes precedence over
// WithOpenAI for generation.
func WithGenerator(g Generator) Option {
	return func(c *clientConfig) {
		c.generator = g
	}
}

// WithReranker supplies a cross-encoder scorer. Without it, candidates keep
// their similarity order.
func WithReranker(s Scorer) Option {
	return func(c *clientConfig) {
		c.scorer = s
	}
}

// WithCorpusFile loads the reference corpus from a JSON file produced by
// the indexer.
func WithCorpusFile(path string) Option {
	return func(c *clientConfig) {
		c.corpusPath = path
	}
}

// WithDocuments supplies a pre-embedded in-memory corpus.
func WithDocuments(docs []Document) Option {
	return func(c *clientConfig) {
		c.documents = docs
	}
}

// WithRetrieval overrides the retrieval parameters: the candidate pool size,
// the number of evidence passages and the similarity floor.
func WithRetrieval(topK, topP int, minSimilarity float64) Option {
	return func(c *clientConfig) {
		c.topK = topK
		c.topP = topP
		c.minSimilarity = minSimilarity
	}
}

// WithLogger sets the client logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *clientConfig) {
		c.logger = l
	}
}

// Embedder is the public embedding provider contract.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// Generator is the public generation provider contract.
type Generator interface {
	Generate(ctx context.Context, messages []Message) (string, error)
}

// Scorer is the public cross-encoder contract: one relevance score per
// passage, in passage order.
type Scorer interface {
	Score(ctx context.Context, query string, passages []string) ([]float64, error)
}

// EmbeddingResult mirrors the provider response.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Message is a single chat turn.
type Message struct {
	Role    string
	Content string
}

// Chat roles accepted in Message.Role.
const (
	RoleSystem = domain.RoleSystem
	RoleUser   = domain.RoleUser
)

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/veriscope-ai/veriscope/internal/config"
	"github.com/veriscope-ai/veriscope/internal/corpus"
	"github.com/veriscope-ai/veriscope/internal/db"
	dbRedis "github.com/veriscope-ai/veriscope/internal/db/redis"
	"github.com/veriscope-ai/veriscope/internal/domain"
	logpkg "github.com/veriscope-ai/veriscope/internal/logger"
	"github.com/veriscope-ai/veriscope/internal/metrics"
	"github.com/veriscope-ai/veriscope/internal/repository/embcache"
	"github.com/veriscope-ai/veriscope/internal/transport/httpapi"
	"github.com/veriscope-ai/veriscope/internal/transport/localinfer"
	openaiTransport "github.com/veriscope-ai/veriscope/internal/transport/openai"
	rerankTransport "github.com/veriscope-ai/veriscope/internal/transport/rerank"
	analyzeuc "github.com/veriscope-ai/veriscope/internal/usecase/analyze"
	answeruc "github.com/veriscope-ai/veriscope/internal/usecase/answer"
	healthuc "github.com/veriscope-ai/veriscope/internal/usecase/health"
	rerankuc "github.com/veriscope-ai/veriscope/internal/usecase/rerank"
	"github.com/veriscope-ai/veriscope/internal/usecase/retrieval"
	"github.com/veriscope-ai/veriscope/internal/version"
)

func main() {
	// Load configuration based on ENV
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

	logger.Info("Starting veriscope API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.String("corpus_path", cfg.Corpus.Path),
	)

	// Register inference metrics explicitly (no init())
	metrics.RegisterInferenceMetrics()

	ctx := context.Background()

	// Optional embedding cache store
	var store db.Store
	if len(cfg.Cache.Addrs) > 0 {
		redisStore, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer redisStore.Close()

		readiness := time.Duration(cfg.Cache.ReadinessTimeout) * time.Second
		if err := redisStore.WaitForReady(ctx, readiness); err != nil {
			logger.Fatal("Cache store not ready", zap.Error(err))
		}
		store = redisStore
		logger.Info("Connected to embedding cache", zap.Strings("addrs", cfg.Cache.Addrs))
	}

	embedder, embHealth := buildEmbedder(cfg, store, logger)

	// Generation provider
	var generator domain.Generator = openaiTransport.NewGenerator(&openaiTransport.GeneratorConfig{
		APIKey:      cfg.Generation.APIKey,
		BaseURL:     cfg.Generation.BaseURL,
		Model:       cfg.Generation.Model,
		MaxTokens:   cfg.Generation.MaxTokens,
		Temperature: float32(cfg.Generation.Temperature),
		TopP:        float32(cfg.Generation.TopP),
		Logger:      logger,
	})
	if cfg.Generation.Serialize {
		generator = domain.NewSerialGenerator(generator)
	}

	// Optional cross-encoder reranker
	var scorer rerankuc.Scorer
	if cfg.Rerank.BaseURL != "" {
		scorer = rerankTransport.NewClient(&rerankTransport.Config{
			BaseURL: cfg.Rerank.BaseURL,
			APIKey:  cfg.Rerank.APIKey,
			Model:   cfg.Rerank.Model,
			Timeout: time.Duration(cfg.Rerank.TimeoutSec) * time.Second,
			Logger:  logger,
		})
		logger.Info("Reranker enabled", zap.String("model", cfg.Rerank.Model))
	} else {
		logger.Warn("Reranker disabled, candidates pass through in similarity order")
	}

	// Load the embedded corpus; a missing corpus degrades to ungrounded answers.
	docs, err := corpus.Load(cfg.Corpus.Path, logger)
	if err != nil {
		if !errors.Is(err, domain.ErrCorpusUnavailable) {
			logger.Fatal("Failed to load corpus", zap.Error(err))
		}
		logger.Warn("Corpus unavailable, starting with empty corpus",
			zap.String("path", cfg.Corpus.Path), zap.Error(err))
		docs = nil
	}
	logger.Info("Corpus loaded", zap.Int("documents", len(docs)))

	// Pipeline services
	selector := retrieval.NewSelector(logger)
	rerankSvc := rerankuc.New(scorer, logger)
	answerSvc := answeruc.New(generator, cfg.Retrieval.PassageCharCap, logger)
	analyzeSvc := analyzeuc.New(embedder, selector, rerankSvc, answerSvc, docs, analyzeuc.Params{
		TopK:          cfg.Retrieval.TopK,
		TopP:          cfg.Retrieval.TopP,
		MinSimilarity: cfg.Retrieval.MinSimilarity,
	}, logger)

	var cachePinger healthuc.CachePinger
	if store != nil {
		cachePinger = store
	}
	healthSvc := healthuc.New(cachePinger, embHealth, len(docs))

	server := httpapi.NewServer(analyzeSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildEmbedder assembles the embedder decorator chain:
// provider -> serial (optional) -> cached (optional).
// The second return value exposes the base provider's health check; the
// decorators do not forward it.
func buildEmbedder(cfg config.Config, store db.Store, logger *zap.Logger) (domain.Embedder, healthuc.EmbeddingChecker) {
	var base domain.Embedder
	var health healthuc.EmbeddingChecker

	switch cfg.Embedding.Provider {
	case "local":
		local := localinfer.NewEmbedder(&localinfer.Config{
			BaseURL:          cfg.Embedding.BaseURL,
			Model:            cfg.Embedding.Model,
			MaxSequenceChars: cfg.Embedding.MaxSequenceChars,
			Logger:           logger,
		})
		base, health = local, local
	default:
		remote := openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			Provider:   cfg.Embedding.Provider,
			Logger:     logger,
		})
		base, health = remote, remote
	}

	embedder := base
	if cfg.Embedding.Serialize {
		embedder = domain.NewSerialEmbedder(embedder)
	}
	if store != nil {
		// Cache outermost so hits skip the serialization lock too.
		embedder = embcache.New(embedder, store, cfg.Embedding.Model, metrics.EmbeddingCacheTotal, logger)
	}
	return embedder, health
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}

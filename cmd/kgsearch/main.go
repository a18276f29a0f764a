package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/spacebio/kgsearch/internal/config"
	"github.com/spacebio/kgsearch/internal/corpus"
	"github.com/spacebio/kgsearch/internal/db"
	dbRedis "github.com/spacebio/kgsearch/internal/db/redis"
	"github.com/spacebio/kgsearch/internal/domain"
	"github.com/spacebio/kgsearch/internal/index/lexical"
	"github.com/spacebio/kgsearch/internal/index/semantic"
	logpkg "github.com/spacebio/kgsearch/internal/logger"
	"github.com/spacebio/kgsearch/internal/metrics"
	"github.com/spacebio/kgsearch/internal/repository/embcache"
	factsrepo "github.com/spacebio/kgsearch/internal/repository/facts"
	chiTransport "github.com/spacebio/kgsearch/internal/transport/chi"
	openaiProv "github.com/spacebio/kgsearch/internal/transport/openai"
	"github.com/spacebio/kgsearch/internal/transport/rerank"
	embeddinguc "github.com/spacebio/kgsearch/internal/usecase/embedding"
	healthuc "github.com/spacebio/kgsearch/internal/usecase/health"
	searchuc "github.com/spacebio/kgsearch/internal/usecase/search"
	"github.com/spacebio/kgsearch/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting kgsearch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	// Wait for the fact store to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Fact store not ready", zap.Error(err))
	}
	logger.Info("Connected to fact store")

	// Register inference metrics explicitly (no init())
	metrics.RegisterInferenceMetrics()

	embedder := buildEmbedder(cfg, store, logger)

	// Build the engine: corpus snapshot + both indices, once at startup.
	// A restart is required to observe new facts.
	conv := domain.Convention{
		IDPrefix: cfg.Corpus.IDPrefix,
		SubDelim: cfg.Corpus.SubEntityDelimiter,
	}
	repo := factsrepo.New(store, cfg.Storage.KeyPrefix)

	corp, err := corpus.Load(ctx, repo, conv, logger)
	if err != nil {
		logger.Fatal("Failed to load corpus", zap.Error(err))
	}

	lexIndex := lexical.Fit(corp.IDs(), corp.Texts(), cfg.Search.MaxVocab)

	semIndex, err := semantic.Build(ctx, embedder, corp.IDs(), corp.Texts())
	if err != nil {
		logger.Fatal("Failed to build semantic index", zap.Error(err))
	}
	logger.Info("Indices built", zap.Int("documents", corp.Len()))

	scorer := rerank.NewScorer(&rerank.Config{
		BaseURL: cfg.Reranker.BaseURL,
		APIKey:  cfg.Reranker.APIKey,
		Model:   cfg.Reranker.Model,
		Timeout: time.Duration(cfg.Reranker.TimeoutSec) * time.Second,
		Logger:  logger,
	})

	var summarizer searchuc.Summarizer
	if cfg.Summary.Enabled {
		summarizer = openaiProv.NewSummarizer(&openaiProv.SummarizerConfig{
			APIKey:      cfg.Summary.APIKey,
			BaseURL:     cfg.Summary.BaseURL,
			Model:       cfg.Summary.Model,
			Temperature: cfg.Summary.Temperature,
			MaxTokens:   cfg.Summary.MaxTokens,
			Logger:      logger,
		})
	}

	searchSvc := searchuc.New(
		corp, lexIndex, semIndex, embedder, scorer, repo, summarizer,
		searchuc.Config{
			CandidateK:  cfg.Search.CandidateK,
			RerankDepth: cfg.Search.RerankDepth,
			ScoreFloor:  cfg.Search.Floor(),
			SummaryTopN: cfg.Search.SummaryTopN,
		},
		logger,
	)

	healthSvc := healthuc.New(store, newEmbeddingHealthChecker(embedder))

	server := chiTransport.NewServer(searchSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins(cfg.HTTP.CORSOrigins),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))
	r.Use(metrics.Middleware())

	r.Post("/api/search", server.Search)
	r.Get("/healthz", server.Health)
	r.Handle("/metrics", promhttp.Handler())

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

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented.
// The concrete return type carries BatchEmbed, which the semantic index build
// needs on top of Embed.
func buildEmbedder(cfg config.Config, store db.Store, logger *zap.Logger) *embeddinguc.InstrumentedEmbedder {
	base := openaiProv.NewEmbedder(&openaiProv.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Logger:     logger,
	})

	var embedder domain.Embedder = base
	if store != nil {
		embedder = embcache.New(base, store, cfg.Storage.KeyPrefix, metrics.EmbeddingCacheTotal, logger)
	}

	return embeddinguc.NewInstrumentedEmbedder(embedder, cfg.Embedding.Model, logger)
}

func corsOrigins(configured []string) []string {
	if len(configured) == 0 {
		return []string{"*"}
	}
	return configured
}

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
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

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line -- one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}

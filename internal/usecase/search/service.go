package search

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spacebio/kgsearch/internal/domain"
	"github.com/spacebio/kgsearch/internal/domain/search/request"
	"github.com/spacebio/kgsearch/internal/domain/search/result"
	"github.com/spacebio/kgsearch/internal/metrics"
)

// Config tunes the retrieval pipeline.
type Config struct {
	// CandidateK is the per-index ranking depth feeding fusion.
	CandidateK int
	// RerankDepth bounds how many fused candidates reach the pairwise scorer.
	RerankDepth int
	// ScoreFloor is the hard relevance filter applied after reranking,
	// calibrated to the default cross-encoder's score scale.
	ScoreFloor float64
	// SummaryTopN is how many results seed the summary prompt.
	SummaryTopN int
}

// DefaultConfig returns the pipeline defaults.
func DefaultConfig() Config {
	return Config{
		CandidateK:  50,
		RerankDepth: 20,
		ScoreFloor:  -2.0,
		SummaryTopN: 5,
	}
}

// Service executes the multi-stage retrieval pipeline: lexical + semantic
// rankings, RRF fusion, cross-encoder rerank, threshold + enrichment.
// All referenced state is immutable after construction, so concurrent
// queries are safe without locking.
type Service struct {
	corpus     CorpusReader
	lexical    LexicalIndex
	semantic   SemanticIndex
	embed      Embedder
	scorer     Scorer
	meta       MetadataReader
	summarizer Summarizer // nil disables generation; callers get a placeholder
	cfg        Config
	logger     *zap.Logger
}

// New creates a search service. summarizer may be nil.
func New(
	corpus CorpusReader,
	lexical LexicalIndex,
	semantic SemanticIndex,
	embed Embedder,
	scorer Scorer,
	meta MetadataReader,
	summarizer Summarizer,
	cfg Config,
	logger *zap.Logger,
) *Service {
	def := DefaultConfig()
	if cfg.CandidateK <= 0 {
		cfg.CandidateK = def.CandidateK
	}
	if cfg.RerankDepth <= 0 {
		cfg.RerankDepth = def.RerankDepth
	}
	if cfg.SummaryTopN <= 0 {
		cfg.SummaryTopN = def.SummaryTopN
	}
	return &Service{
		corpus:     corpus,
		lexical:    lexical,
		semantic:   semantic,
		embed:      embed,
		scorer:     scorer,
		meta:       meta,
		summarizer: summarizer,
		cfg:        cfg,
		logger:     logger,
	}
}

// Search runs the full pipeline for one validated request. An empty result
// list is a success outcome; errors mean the pipeline itself failed and the
// engine stays usable for subsequent queries.
func (s *Service) Search(ctx context.Context, req *request.Request) (result.Response, error) {
	start := time.Now()

	resp := result.Response{Results: []result.Article{}}

	if s.corpus.Len() == 0 {
		if req.IncludeSummary() {
			resp.Summary = result.SummaryNoResults
		}
		metrics.SearchRequestsTotal.WithLabelValues("success").Inc()
		return resp, nil
	}

	lexHits := s.lexical.Search(req.Query(), s.cfg.CandidateK)

	emb, err := s.embed.Embed(ctx, req.Query())
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("error").Inc()
		return result.Response{}, fmt.Errorf("embed query: %w", err)
	}
	semHits := s.semantic.Search(emb.Embedding, s.cfg.CandidateK)

	fused := fuseRRF(lexHits, semHits)

	ranked, err := s.rerank(ctx, req.Query(), fused, req.TopK())
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("error").Inc()
		return result.Response{}, err
	}

	articles, err := s.assemble(ctx, ranked)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("error").Inc()
		return result.Response{}, err
	}
	resp.Results = articles

	if req.IncludeSummary() {
		resp.Summary = s.summarize(ctx, req.Query(), articles)
	}

	s.logger.Debug("search pipeline completed",
		zap.Int("lexical_hits", len(lexHits)),
		zap.Int("semantic_hits", len(semHits)),
		zap.Int("fused", len(fused)),
		zap.Int("reranked", len(ranked)),
		zap.Int("results", len(articles)),
		zap.Duration("latency", time.Since(start)),
	)
	metrics.SearchRequestsTotal.WithLabelValues("success").Inc()

	return resp, nil
}

// rerank scores the fused prefix with the pairwise capability and re-sorts.
// The prefix bound keeps the expensive scorer call small regardless of fused
// size. An empty prefix returns without invoking the scorer.
func (s *Service) rerank(ctx context.Context, query string, fused []result.Hit, topK int) ([]result.Hit, error) {
	prefix := fused
	if len(prefix) > s.cfg.RerankDepth {
		prefix = prefix[:s.cfg.RerankDepth]
	}
	if len(prefix) == 0 {
		return nil, nil
	}

	texts := make([]string, len(prefix))
	for i, h := range prefix {
		if doc, ok := s.corpus.Doc(h.ID); ok {
			texts[i] = doc.Text
		}
	}

	scores, err := s.scorer.Score(ctx, query, texts)
	if err != nil {
		return nil, fmt.Errorf("rerank: %w", err)
	}
	if len(scores) != len(prefix) {
		return nil, fmt.Errorf("%w: got %d scores for %d pairs",
			domain.ErrScoringProvider, len(scores), len(prefix))
	}

	ranked := make([]result.Hit, len(prefix))
	for i, h := range prefix {
		ranked[i] = result.Hit{ID: h.ID, Score: scores[i]}
	}
	// Stable: equal scores keep fusion order.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if len(ranked) > topK {
		ranked = ranked[:topK]
	}
	return ranked, nil
}

// assemble applies the relevance floor, resolves each hit to its parent
// document, and enriches it with bibliographic metadata. Multiple sub-entities
// of one parent are deliberately NOT deduplicated: each ranked highly on its
// own and callers may want to see that.
func (s *Service) assemble(ctx context.Context, ranked []result.Hit) ([]result.Article, error) {
	out := make([]result.Article, 0, len(ranked))
	for _, h := range ranked {
		if h.Score < s.cfg.ScoreFloor {
			continue
		}

		parent := h.ID
		if doc, ok := s.corpus.Doc(h.ID); ok {
			parent = doc.ParentID
		}

		meta, err := s.meta.Metadata(ctx, parent)
		if err != nil {
			return nil, fmt.Errorf("metadata for %s: %w", parent, err)
		}

		out = append(out, result.Article{
			PMCID:   parent,
			Title:   result.OrUnknown(meta.Title, result.UnknownTitle),
			Journal: result.OrUnknown(meta.Journal, result.UnknownJournal),
			Year:    result.OrUnknown(meta.Year, result.UnknownYear),
			Authors: result.FormatAuthors(meta.Authors),
			Score:   h.Score,
		})
	}
	return out, nil
}

// summarize degrades to fixed placeholders: generation failure must never
// fail the search call.
func (s *Service) summarize(ctx context.Context, query string, articles []result.Article) string {
	if len(articles) == 0 {
		return result.SummaryNoResults
	}
	if s.summarizer == nil {
		return result.SummaryUnavailable
	}

	top := articles
	if len(top) > s.cfg.SummaryTopN {
		top = top[:s.cfg.SummaryTopN]
	}

	text, err := s.summarizer.Summarize(ctx, query, top)
	if err != nil || strings.TrimSpace(text) == "" {
		s.logger.Warn("summary generation failed", zap.Error(err))
		return result.SummaryUnavailable
	}
	return strings.TrimSpace(text)
}

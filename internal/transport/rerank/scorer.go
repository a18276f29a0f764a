// Package rerank provides the pairwise relevance capability as a client for
// a cross-encoder serving endpoint (TEI/Jina-compatible POST /rerank). No Go
// SDK exists for these endpoints, so the client is plain net/http in the
// same shape as the other transport providers.
package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spacebio/kgsearch/internal/domain"
	"github.com/spacebio/kgsearch/internal/metrics"
)

// Config holds cross-encoder endpoint settings.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
	Logger  *zap.Logger
}

// Scorer scores (query, document) pairs with a remote cross-encoder.
type Scorer struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	logger     *zap.Logger
}

// NewScorer creates a rerank client.
func NewScorer(cfg *Config) *Scorer {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Scorer{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		logger:     cfg.Logger,
	}
}

type rerankRequest struct {
	Model           string   `json:"model,omitempty"`
	Query           string   `json:"query"`
	Documents       []string `json:"documents"`
	TopN            int      `json:"top_n"`
	ReturnDocuments bool     `json:"return_documents"`
}

type rerankResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
}

// Score returns one relevance score per text, order-preserving with the
// input. All failures are wrapped with domain.ErrScoringProvider.
func (s *Scorer) Score(ctx context.Context, query string, texts []string) ([]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(rerankRequest{
		Model:     s.model,
		Query:     query,
		Documents: texts,
		TopN:      len(texts),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %w", domain.ErrScoringProvider, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/rerank", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", domain.ErrScoringProvider, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	start := time.Now()

	resp, err := s.httpClient.Do(req)

	duration := time.Since(start)

	if err != nil {
		metrics.InferenceRequestsTotal.WithLabelValues(metrics.CapRerank, s.model, "error").Inc()
		return nil, fmt.Errorf("%w: %w", domain.ErrScoringProvider, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		metrics.InferenceRequestsTotal.WithLabelValues(metrics.CapRerank, s.model, "error").Inc()
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: rerank API error %d: %s",
			domain.ErrScoringProvider, resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var parsed rerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		metrics.InferenceRequestsTotal.WithLabelValues(metrics.CapRerank, s.model, "error").Inc()
		return nil, fmt.Errorf("%w: decode response: %w", domain.ErrScoringProvider, err)
	}

	scores := make([]float64, len(texts))
	seen := make([]bool, len(texts))
	for _, r := range parsed.Results {
		if r.Index < 0 || r.Index >= len(texts) {
			return nil, fmt.Errorf("%w: result index %d out of range", domain.ErrScoringProvider, r.Index)
		}
		scores[r.Index] = r.RelevanceScore
		seen[r.Index] = true
	}
	for i, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("%w: missing score for document %d", domain.ErrScoringProvider, i)
		}
	}

	metrics.InferenceRequestsTotal.WithLabelValues(metrics.CapRerank, s.model, "success").Inc()
	metrics.InferenceRequestDuration.WithLabelValues(metrics.CapRerank, s.model).Observe(duration.Seconds())

	s.logger.Debug("Rerank completed",
		zap.String("model", s.model),
		zap.Int("pairs", len(texts)),
		zap.Duration("duration", duration),
	)

	return scores, nil
}

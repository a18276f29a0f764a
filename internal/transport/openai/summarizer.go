package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/spacebio/kgsearch/internal/domain"
	"github.com/spacebio/kgsearch/internal/domain/search/result"
	"github.com/spacebio/kgsearch/internal/metrics"
)

// Summarizer generates a free-text summary of search results via the
// OpenAI-compatible chat completion API.
type Summarizer struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	logger      *zap.Logger
}

// SummarizerConfig holds summary provider settings.
type SummarizerConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	Logger      *zap.Logger
}

// NewSummarizer creates an OpenAI-compatible summary provider.
func NewSummarizer(cfg *SummarizerConfig) *Summarizer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Summarizer{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		logger:      cfg.Logger,
	}
}

// Summarize produces a short summary of the top results. Errors are wrapped
// with domain.ErrSummaryProvider; the pipeline swallows them into a
// placeholder.
func (s *Summarizer) Summarize(ctx context.Context, query string, results []result.Article) (string, error) {
	prompt := BuildSummaryPrompt(query, results)

	start := time.Now()

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})

	duration := time.Since(start)

	if err != nil {
		metrics.InferenceRequestsTotal.WithLabelValues(metrics.CapSummary, s.model, "error").Inc()
		return "", fmt.Errorf("%w: %w", domain.ErrSummaryProvider, err)
	}
	if len(resp.Choices) == 0 {
		metrics.InferenceRequestsTotal.WithLabelValues(metrics.CapSummary, s.model, "error").Inc()
		return "", fmt.Errorf("%w: empty completion response", domain.ErrSummaryProvider)
	}

	metrics.InferenceRequestsTotal.WithLabelValues(metrics.CapSummary, s.model, "success").Inc()
	metrics.InferenceRequestDuration.WithLabelValues(metrics.CapSummary, s.model).Observe(duration.Seconds())

	s.logger.Debug("Summary generated",
		zap.String("model", s.model),
		zap.Duration("duration", duration),
	)

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// BuildSummaryPrompt formats the top results into the summary instruction.
func BuildSummaryPrompt(query string, results []result.Article) string {
	var b strings.Builder
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s\n", i+1, r.Title)
		fmt.Fprintf(&b, "   Authors: %s (%s)\n", r.Authors, r.Year)
		fmt.Fprintf(&b, "   Journal: %s\n\n", r.Journal)
	}

	return fmt.Sprintf(`Based on these search results for %q, write a short, clear, and concise summary of the main findings. When mentioning findings, cite them using author names and years in parentheses like (Smith et al., 2023). Keep it under 3 sentences. Do not use markdown formatting, numbered citations, or bullet points:

%s
Summary:`, query, b.String())
}

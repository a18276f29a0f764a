package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/spacebio/kgsearch/internal/domain"
)

type embeddingData struct {
	Index     int       `json:"index"`
	Embedding []float32 `json:"embedding"`
}

type embeddingsBody struct {
	Data  []embeddingData `json:"data"`
	Usage struct {
		PromptTokens int `json:"prompt_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
}

func newTestEmbedder(t *testing.T, handler http.HandlerFunc) *Embedder {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewEmbedder(&Config{
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Model:   "all-minilm",
		Logger:  zap.NewNop(),
	})
}

func TestEmbed(t *testing.T) {
	embedder := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		var body embeddingsBody
		body.Data = []embeddingData{{Index: 0, Embedding: []float32{0.1, 0.2}}}
		body.Usage.PromptTokens = 3
		body.Usage.TotalTokens = 3
		_ = json.NewEncoder(w).Encode(body)
	})

	res, err := embedder.Embed(context.Background(), "microgravity")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(res.Embedding) != 2 || res.Embedding[0] != 0.1 {
		t.Errorf("embedding = %v", res.Embedding)
	}
	if res.TotalTokens != 3 {
		t.Errorf("tokens = %d", res.TotalTokens)
	}
}

func TestBatchEmbed_RespectsIndex(t *testing.T) {
	embedder := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		// Out of order on purpose.
		var body embeddingsBody
		body.Data = []embeddingData{
			{Index: 1, Embedding: []float32{2}},
			{Index: 0, Embedding: []float32{1}},
		}
		_ = json.NewEncoder(w).Encode(body)
	})

	res, err := embedder.BatchEmbed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("BatchEmbed: %v", err)
	}
	if res.Embeddings[0][0] != 1 || res.Embeddings[1][0] != 2 {
		t.Errorf("embeddings = %v", res.Embeddings)
	}
}

func TestBatchEmbed_Empty(t *testing.T) {
	embedder := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("API called for empty input")
	})

	res, err := embedder.BatchEmbed(context.Background(), nil)
	if err != nil {
		t.Fatalf("BatchEmbed: %v", err)
	}
	if len(res.Embeddings) != 0 {
		t.Errorf("embeddings = %v", res.Embeddings)
	}
}

func TestBatchEmbed_CountMismatch(t *testing.T) {
	embedder := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		var body embeddingsBody
		body.Data = []embeddingData{{Index: 0, Embedding: []float32{1}}}
		_ = json.NewEncoder(w).Encode(body)
	})

	_, err := embedder.BatchEmbed(context.Background(), []string{"a", "b"})
	if !errors.Is(err, domain.ErrEmbeddingProvider) {
		t.Fatalf("expected ErrEmbeddingProvider, got %v", err)
	}
}

func TestEmbed_APIError(t *testing.T) {
	embedder := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"model not found"}`, http.StatusNotFound)
	})

	_, err := embedder.Embed(context.Background(), "x")
	if !errors.Is(err, domain.ErrEmbeddingProvider) {
		t.Fatalf("expected ErrEmbeddingProvider, got %v", err)
	}
}

func TestHealthCheck(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		embedder := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"data":[]}`))
		})
		if err := embedder.HealthCheck(context.Background()); err != nil {
			t.Errorf("HealthCheck: %v", err)
		}
	})

	t.Run("down", func(t *testing.T) {
		embedder := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
		})
		if err := embedder.HealthCheck(context.Background()); err == nil {
			t.Error("expected error")
		}
	})
}

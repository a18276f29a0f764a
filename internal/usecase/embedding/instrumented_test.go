package embedding

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/spacebio/kgsearch/internal/domain"
)

// batchProvider implements both Embedder and BatchEmbedder and records chunk
// sizes it receives.
type batchProvider struct {
	err        error
	chunkSizes []int
}

func (p *batchProvider) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if p.err != nil {
		return domain.EmbeddingResult{}, p.err
	}
	return domain.EmbeddingResult{Embedding: []float32{1}, TotalTokens: 2}, nil
}

func (p *batchProvider) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	p.chunkSizes = append(p.chunkSizes, len(texts))
	if p.err != nil {
		return domain.BatchEmbeddingResult{}, p.err
	}
	embeddings := make([][]float32, len(texts))
	for i := range embeddings {
		embeddings[i] = []float32{1}
	}
	return domain.BatchEmbeddingResult{Embeddings: embeddings, TotalTokens: 2 * len(texts)}, nil
}

// singleProvider has no batch support, forcing the fallback path.
type singleProvider struct {
	calls int
}

func (p *singleProvider) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	p.calls++
	return domain.EmbeddingResult{Embedding: []float32{1}, TotalTokens: 1}, nil
}

func TestBatchEmbed_Chunks(t *testing.T) {
	provider := &batchProvider{}
	embedder := NewInstrumentedEmbedder(provider, "m", zap.NewNop())

	texts := make([]string, DefaultMaxAPIBatchSize+10)
	for i := range texts {
		texts[i] = "t"
	}

	res, err := embedder.BatchEmbed(context.Background(), texts)
	if err != nil {
		t.Fatalf("BatchEmbed: %v", err)
	}
	if len(res.Embeddings) != len(texts) {
		t.Fatalf("got %d embeddings, want %d", len(res.Embeddings), len(texts))
	}
	if len(provider.chunkSizes) != 2 {
		t.Fatalf("chunks = %v, want 2 chunks", provider.chunkSizes)
	}
	if provider.chunkSizes[0] != DefaultMaxAPIBatchSize || provider.chunkSizes[1] != 10 {
		t.Errorf("chunk sizes = %v", provider.chunkSizes)
	}
	if res.TotalTokens != 2*len(texts) {
		t.Errorf("tokens = %d, want %d", res.TotalTokens, 2*len(texts))
	}
}

func TestBatchEmbed_FallbackWithoutBatchSupport(t *testing.T) {
	provider := &singleProvider{}
	embedder := NewInstrumentedEmbedder(provider, "m", zap.NewNop())

	res, err := embedder.BatchEmbed(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("BatchEmbed: %v", err)
	}
	if provider.calls != 3 {
		t.Errorf("Embed called %d times, want 3", provider.calls)
	}
	if len(res.Embeddings) != 3 {
		t.Errorf("got %d embeddings", len(res.Embeddings))
	}
	if res.TotalTokens != 3 {
		t.Errorf("tokens = %d", res.TotalTokens)
	}
}

func TestBatchEmbed_EmptyInput(t *testing.T) {
	provider := &batchProvider{}
	embedder := NewInstrumentedEmbedder(provider, "m", zap.NewNop())

	res, err := embedder.BatchEmbed(context.Background(), nil)
	if err != nil {
		t.Fatalf("BatchEmbed: %v", err)
	}
	if len(res.Embeddings) != 0 || len(provider.chunkSizes) != 0 {
		t.Errorf("provider called for empty input")
	}
}

func TestBatchEmbed_Error(t *testing.T) {
	provider := &batchProvider{err: domain.ErrEmbeddingProvider}
	embedder := NewInstrumentedEmbedder(provider, "m", zap.NewNop())

	if _, err := embedder.BatchEmbed(context.Background(), []string{"a"}); !errors.Is(err, domain.ErrEmbeddingProvider) {
		t.Fatalf("expected ErrEmbeddingProvider, got %v", err)
	}
}

func TestEmbed(t *testing.T) {
	provider := &batchProvider{}
	embedder := NewInstrumentedEmbedder(provider, "m", zap.NewNop())

	res, err := embedder.Embed(context.Background(), "x")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(res.Embedding) != 1 {
		t.Errorf("embedding = %v", res.Embedding)
	}
}

func TestEmbed_Error(t *testing.T) {
	provider := &batchProvider{err: domain.ErrEmbeddingProvider}
	embedder := NewInstrumentedEmbedder(provider, "m", zap.NewNop())

	if _, err := embedder.Embed(context.Background(), "x"); !errors.Is(err, domain.ErrEmbeddingProvider) {
		t.Fatalf("expected ErrEmbeddingProvider, got %v", err)
	}
}

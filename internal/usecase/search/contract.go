package search

import (
	"context"

	"github.com/spacebio/kgsearch/internal/domain"
	"github.com/spacebio/kgsearch/internal/domain/search/result"
)

// LexicalIndex answers a query with a sparse similarity ranking.
type LexicalIndex interface {
	Search(query string, k int) []result.Hit
}

// SemanticIndex answers an embedded query with a dense similarity ranking.
type SemanticIndex interface {
	Search(query []float32, k int) []result.Hit
}

// CorpusReader resolves candidate ids to documents.
type CorpusReader interface {
	Len() int
	Doc(id string) (domain.Document, bool)
}

// MetadataReader fetches bibliographic metadata for result enrichment.
type MetadataReader interface {
	Metadata(ctx context.Context, id string) (domain.Metadata, error)
}

// Scorer is the pairwise relevance capability. It scores each (query, text)
// pair jointly and returns one score per text, order-preserving. The score
// scale is model-specific; only relative order and the configured floor are
// meaningful.
type Scorer interface {
	Score(ctx context.Context, query string, texts []string) ([]float64, error)
}

// Summarizer produces a free-text summary seeded with the top results.
type Summarizer interface {
	Summarize(ctx context.Context, query string, results []result.Article) (string, error)
}

// Embedder vectorizes the query text.
type Embedder = domain.Embedder

// Package semantic implements a dense embedding index over document texts.
// Vectors come from an injected embedding capability; the index only stores
// l2-normalized copies and answers cosine similarity queries.
package semantic

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/spacebio/kgsearch/internal/domain"
	"github.com/spacebio/kgsearch/internal/domain/search/result"
)

// Index holds one normalized embedding per document in corpus insertion
// order. Immutable after Build.
type Index struct {
	ids  []string
	vecs [][]float32
}

// Build batch-embeds the corpus texts. ids and texts are aligned and define
// insertion order. An empty corpus builds an empty index without calling the
// embedder.
func Build(ctx context.Context, embedder domain.BatchEmbedder, ids, texts []string) (*Index, error) {
	if len(texts) == 0 {
		return &Index{}, nil
	}

	res, err := embedder.BatchEmbed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed corpus: %w", err)
	}
	if len(res.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d documents",
			domain.ErrEmbeddingProvider, len(res.Embeddings), len(texts))
	}

	vecs := make([][]float32, len(res.Embeddings))
	for i, v := range res.Embeddings {
		vecs[i] = normalize(v)
	}

	return &Index{
		ids:  append([]string(nil), ids...),
		vecs: vecs,
	}, nil
}

// Search returns the top k documents by cosine similarity to the query
// vector, descending, ties broken by corpus insertion order.
func (x *Index) Search(query []float32, k int) []result.Hit {
	if len(x.ids) == 0 || k <= 0 {
		return nil
	}

	q := normalize(query)

	hits := make([]result.Hit, len(x.ids))
	for i, id := range x.ids {
		hits[i] = result.Hit{ID: id, Score: dot(q, x.vecs[i])}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

// normalize returns an l2-normalized copy. The zero vector stays zero.
func normalize(v []float32) []float32 {
	var norm float64
	for _, f := range v {
		norm += float64(f) * float64(f)
	}
	norm = math.Sqrt(norm)
	out := make([]float32, len(v))
	if norm == 0 {
		return out
	}
	for i, f := range v {
		out[i] = float32(float64(f) / norm)
	}
	return out
}

// dot computes the inner product of two normalized vectors. A dimension
// mismatch scores zero rather than panicking; the provider contract makes it
// unreachable in practice.
func dot(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

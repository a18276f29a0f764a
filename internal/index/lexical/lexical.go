// Package lexical implements a TF-IDF vector space over document texts.
// Weights use smoothed inverse document frequency (ln((1+n)/(1+df)) + 1) and
// l2-normalized document vectors, so similarity is a plain dot product.
package lexical

import (
	"math"
	"sort"

	"github.com/spacebio/kgsearch/internal/domain/search/result"
)

// DefaultMaxVocab caps the fitted vocabulary size.
const DefaultMaxVocab = 10000

// sparseVec maps vocabulary column to weight.
type sparseVec map[int]float64

// Index is a fitted TF-IDF index. Immutable after Fit.
type Index struct {
	vocab map[string]int
	idf   []float64
	ids   []string    // corpus insertion order
	docs  []sparseVec // aligned with ids
}

// Fit builds the vocabulary and document vectors. ids and texts are aligned
// and define the corpus insertion order used for tie-breaking. A maxVocab of
// zero or less falls back to DefaultMaxVocab. An empty corpus is valid and
// yields an index that answers every query with no hits.
func Fit(ids, texts []string, maxVocab int) *Index {
	if maxVocab <= 0 {
		maxVocab = DefaultMaxVocab
	}

	tokenized := make([][]string, len(texts))
	corpusCounts := make(map[string]int)
	docFreq := make(map[string]int)
	for i, text := range texts {
		toks := tokenize(text)
		tokenized[i] = toks
		seen := make(map[string]struct{}, len(toks))
		for _, t := range toks {
			corpusCounts[t]++
			if _, ok := seen[t]; !ok {
				seen[t] = struct{}{}
				docFreq[t]++
			}
		}
	}

	vocab := buildVocab(corpusCounts, maxVocab)

	n := len(texts)
	idf := make([]float64, len(vocab))
	for term, col := range vocab {
		idf[col] = math.Log(float64(1+n)/float64(1+docFreq[term])) + 1
	}

	idx := &Index{
		vocab: vocab,
		idf:   idf,
		ids:   append([]string(nil), ids...),
		docs:  make([]sparseVec, len(texts)),
	}
	for i, toks := range tokenized {
		idx.docs[i] = idx.vectorize(toks)
	}
	return idx
}

// buildVocab keeps the maxVocab most frequent terms, ties broken
// alphabetically for determinism.
func buildVocab(counts map[string]int, maxVocab int) map[string]int {
	terms := make([]string, 0, len(counts))
	for t := range counts {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool {
		if counts[terms[i]] != counts[terms[j]] {
			return counts[terms[i]] > counts[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > maxVocab {
		terms = terms[:maxVocab]
	}

	vocab := make(map[string]int, len(terms))
	// Column order alphabetical within the surviving terms, like a fitted
	// vectorizer's sorted feature names.
	sort.Strings(terms)
	for col, t := range terms {
		vocab[t] = col
	}
	return vocab
}

// vectorize produces an l2-normalized tf-idf vector for a token sequence.
// Out-of-vocabulary tokens contribute nothing; an all-OOV sequence yields the
// zero vector.
func (x *Index) vectorize(tokens []string) sparseVec {
	tf := make(map[int]int)
	for _, t := range tokens {
		if col, ok := x.vocab[t]; ok {
			tf[col]++
		}
	}
	if len(tf) == 0 {
		return sparseVec{}
	}

	vec := make(sparseVec, len(tf))
	var norm float64
	for col, count := range tf {
		w := float64(count) * x.idf[col]
		vec[col] = w
		norm += w * w
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return sparseVec{}
	}
	for col := range vec {
		vec[col] /= norm
	}
	return vec
}

// Search returns the top k documents by cosine similarity to the query,
// descending, ties broken by corpus insertion order. A query with no
// in-vocabulary terms scores zero against every document; that is a valid
// ranking, not an error.
func (x *Index) Search(query string, k int) []result.Hit {
	if len(x.ids) == 0 || k <= 0 {
		return nil
	}

	qvec := x.vectorize(tokenize(query))

	hits := make([]result.Hit, len(x.ids))
	for i, id := range x.ids {
		hits[i] = result.Hit{ID: id, Score: dot(qvec, x.docs[i])}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

// dot multiplies two normalized sparse vectors, iterating the smaller one.
func dot(a, b sparseVec) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var sum float64
	for col, w := range a {
		if bw, ok := b[col]; ok {
			sum += w * bw
		}
	}
	return sum
}

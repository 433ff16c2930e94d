// Package retriever finds the parallel examples nearest to a query sentence
// in embedding space.
package retriever

import (
	"context"
	"fmt"
	"sort"

	"github.com/valpere/amistran/internal/corpus"
	"github.com/valpere/amistran/internal/embedding"
)

// Retriever answers nearest-neighbour queries over a sentence-pair corpus.
// The backing corpus and embedding map are read-only; every query works on a
// private copy so concurrent callers never observe mutation.
type Retriever struct {
	corpus     *corpus.Corpus
	embeddings map[string][]float32
	emb        embedding.Embedder
}

func New(c *corpus.Corpus, embeddings map[string][]float32, emb embedding.Embedder) *Retriever {
	return &Retriever{corpus: c, embeddings: embeddings, emb: emb}
}

// TopK returns the k sentence pairs nearest to query, ordered by ascending
// distance. The query sentence itself is excluded when its exact key is part
// of the candidate pool; substring-similar sentences are retrieved normally.
// k = 0 returns an empty result without invoking the embedding model.
//
// The index is rebuilt on every call: the exclusion set depends on the query,
// so index positions are only valid for the candidate list built here.
func (r *Retriever) TopK(ctx context.Context, query string, k int) ([]corpus.Pair, error) {
	if k <= 0 {
		return nil, nil
	}

	// Sorted candidate keys keep index-build order deterministic, so equal
	// distances and repeated runs produce identical rankings.
	keys := make([]string, 0, len(r.embeddings))
	for zh := range r.embeddings {
		if zh == query {
			continue
		}
		keys = append(keys, zh)
	}
	sort.Strings(keys)

	if len(keys) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, len(keys))
	for i, zh := range keys {
		vectors[i] = r.embeddings[zh]
	}
	index := embedding.NewIndex(vectors)

	queryVec, err := r.emb.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	positions := index.Search(queryVec, k)
	pairs := make([]corpus.Pair, 0, len(positions))
	for _, pos := range positions {
		zh := keys[pos]
		pairs = append(pairs, corpus.Pair{Zh: zh, Amis: r.corpus.ZhToAmis[zh]})
	}
	return pairs, nil
}

// Corpus exposes the backing corpus for ground-truth lookups.
func (r *Retriever) Corpus() *corpus.Corpus {
	return r.corpus
}

// CandidateSentences returns the Chinese sentences currently embedded, in
// sorted order. Used for in-context example sampling.
func (r *Retriever) CandidateSentences() []string {
	keys := make([]string, 0, len(r.embeddings))
	for zh := range r.embeddings {
		keys = append(keys, zh)
	}
	sort.Strings(keys)
	return keys
}

package retriever

import (
	"context"
	"errors"
	"testing"

	"github.com/valpere/amistran/internal/corpus"
)

type stubEmbedder struct {
	vectors map[string][]float32
	calls   int
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	s.calls++
	if vec, ok := s.vectors[text]; ok {
		return vec, nil
	}
	return nil, errors.New("unknown text")
}

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) (map[string][]float32, error) {
	out := make(map[string][]float32, len(texts))
	for _, text := range texts {
		vec, err := s.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[text] = vec
	}
	return out, nil
}

func newTestRetriever() (*Retriever, *stubEmbedder) {
	c := &corpus.Corpus{
		ZhToAmis: map[string]string{
			"你好":   "Mahiyam",
			"你要去哪裡": "Talacowa kiso",
			"我很好":  "Kapah kako",
		},
	}
	embeddings := map[string][]float32{
		"你好":   {1, 0, 0},
		"你要去哪裡": {0, 1, 0},
		"我很好":  {0, 0, 1},
	}
	emb := &stubEmbedder{vectors: map[string][]float32{
		"你好":   {1, 0, 0},
		"你好嗎":  {0.9, 0.1, 0},
		"你要去哪裡": {0, 1, 0},
	}}
	return New(c, embeddings, emb), emb
}

func TestTopK_NearestFirst(t *testing.T) {
	r, _ := newTestRetriever()

	pairs, err := r.TopK(context.Background(), "你好嗎", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pairs) != 2 {
		t.Fatalf("expected 2 pairs, got %d", len(pairs))
	}
	if pairs[0].Zh != "你好" || pairs[0].Amis != "Mahiyam" {
		t.Errorf("expected 你好/Mahiyam first, got %+v", pairs[0])
	}
}

func TestTopK_ExcludesExactQuery(t *testing.T) {
	r, _ := newTestRetriever()

	pairs, err := r.TopK(context.Background(), "你好", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, p := range pairs {
		if p.Zh == "你好" {
			t.Errorf("query sentence leaked into results: %+v", p)
		}
	}
	if len(pairs) != 2 {
		t.Errorf("expected 2 pairs after exclusion, got %d", len(pairs))
	}
}

func TestTopK_ExclusionIsExactKeyOnly(t *testing.T) {
	// 你好嗎 is similar to the stored 你好 but not an exact key: nothing is
	// excluded and the similar sentence is retrieved.
	r, _ := newTestRetriever()

	pairs, err := r.TopK(context.Background(), "你好嗎", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pairs) != 1 || pairs[0].Amis != "Mahiyam" {
		t.Errorf("expected [Mahiyam/你好], got %+v", pairs)
	}
}

func TestTopK_ZeroK_SkipsEmbedding(t *testing.T) {
	r, emb := newTestRetriever()

	pairs, err := r.TopK(context.Background(), "你好", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pairs) != 0 {
		t.Errorf("expected empty result, got %d", len(pairs))
	}
	if emb.calls != 0 {
		t.Errorf("embedding model must not be called for k=0, got %d calls", emb.calls)
	}
}

func TestTopK_DoesNotMutateSharedEmbeddings(t *testing.T) {
	r, _ := newTestRetriever()

	if _, err := r.TopK(context.Background(), "你好", 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := r.embeddings["你好"]; !ok {
		t.Error("shared embedding map was mutated by exclusion")
	}
}

func TestTopK_Deterministic(t *testing.T) {
	r, _ := newTestRetriever()

	first, err := r.TopK(context.Background(), "你要去哪裡", 2)
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.TopK(context.Background(), "你要去哪裡", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != len(second) {
		t.Fatalf("result lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("position %d differs across identical calls: %+v vs %+v", i, first[i], second[i])
		}
	}
}

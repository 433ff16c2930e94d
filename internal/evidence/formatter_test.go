package evidence

import (
	"context"
	"strings"
	"testing"

	"github.com/valpere/amistran/internal/corpus"
)

type stubRetriever struct {
	pairs []corpus.Pair
	calls int
	lastK int
}

func (s *stubRetriever) TopK(ctx context.Context, query string, k int) ([]corpus.Pair, error) {
	s.calls++
	s.lastK = k
	if k == 0 {
		return nil, nil
	}
	if k > len(s.pairs) {
		k = len(s.pairs)
	}
	return s.pairs[:k], nil
}

type stubSegmenter struct {
	out  string
	seen string
}

func (s *stubSegmenter) Segment(ctx context.Context, sentence string) (string, error) {
	s.seen = sentence
	return s.out, nil
}

func TestFormatExamples_PairsOnly(t *testing.T) {
	retr := &stubRetriever{pairs: []corpus.Pair{
		{Zh: "你好", Amis: "Mahiyam"},
	}}
	f := New(retr, &stubSegmenter{})

	got, err := f.FormatExamples(context.Background(), "你好嗎", 1, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "[zh]: 你好\n[amis]: Mahiyam\n\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFormatExamples_RoundTrip(t *testing.T) {
	pair := corpus.Pair{Zh: "我們工作很勤勞", Amis: "Malahecad kami a matayal"}
	retr := &stubRetriever{pairs: []corpus.Pair{pair}}
	f := New(retr, &stubSegmenter{})

	block, err := f.FormatExamples(context.Background(), "查詢", 1, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	parsed := parsePairs(block)
	if len(parsed) != 1 || parsed[0] != pair {
		t.Errorf("round trip lost data: %+v", parsed)
	}
}

func TestFormatExamples_LexiconAppended(t *testing.T) {
	retr := &stubRetriever{}
	seg := &stubSegmenter{out: "[zh]: 去哪裡\n[amis]: talacowa\n\n"}
	f := New(retr, seg)

	got, err := f.FormatExamples(context.Background(), "去哪裡？", 0, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got, "[amis]: talacowa") {
		t.Errorf("lexicon evidence missing:\n%s", got)
	}
	if strings.Contains(seg.seen, "？") {
		t.Errorf("punctuation not stripped before segmentation: %q", seg.seen)
	}
}

func TestFormatExamples_LatinRunsPassThrough(t *testing.T) {
	retr := &stubRetriever{}
	seg := &stubSegmenter{}
	f := New(retr, seg)

	got, err := f.FormatExamples(context.Background(), "talacowa", 0, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got, "[zh]: talacowa\n[amis]: talacowa\n\n") {
		t.Errorf("expected identity pair for Latin run:\n%s", got)
	}
	if seg.seen != "" {
		t.Errorf("Latin run must bypass segmentation, segmenter saw %q", seg.seen)
	}
}

func TestFormatExamples_MixedScripts(t *testing.T) {
	retr := &stubRetriever{}
	seg := &stubSegmenter{out: ""}
	f := New(retr, seg)

	if _, err := f.FormatExamples(context.Background(), "NCCU是一所大學。", 0, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(seg.seen, "NCCU") {
		t.Errorf("Latin letters leaked into the Chinese pass: %q", seg.seen)
	}
	if !strings.Contains(seg.seen, "大學") {
		t.Errorf("Chinese text missing from segmentation input: %q", seg.seen)
	}
}

func TestStripPunctuation(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"你好，世界。", "你好 世界 "},
		{"hello!", "hello"},
		{"句子!?", "句子"},
		{"去哪裡", "去哪裡"},
	}
	for _, tt := range tests {
		if got := stripPunctuation(tt.in); got != tt.want {
			t.Errorf("stripPunctuation(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// parsePairs re-parses an evidence block into its pairs (test aid for the
// round-trip property).
func parsePairs(block string) []corpus.Pair {
	var pairs []corpus.Pair
	records := strings.Split(block, "\n\n")
	for _, rec := range records {
		lines := strings.Split(strings.TrimSpace(rec), "\n")
		if len(lines) != 2 {
			continue
		}
		zh, okZh := strings.CutPrefix(lines[0], "[zh]: ")
		amis, okAmis := strings.CutPrefix(lines[1], "[amis]: ")
		if okZh && okAmis {
			pairs = append(pairs, corpus.Pair{Zh: zh, Amis: amis})
		}
	}
	return pairs
}

package translator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/valpere/amistran/internal/corpus"
	"github.com/valpere/amistran/internal/llm"
	"github.com/valpere/amistran/internal/prompt"
)

// fakeClient answers reasoning-chain calls with "ans-<sentence>" and records
// the first conversation that carries a system turn.
type fakeClient struct {
	chatCalls    int
	finalCalls   [][]llm.Message
	completeArgs []string
	err          error
}

func (f *fakeClient) Complete(ctx context.Context, p string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.completeArgs = append(f.completeArgs, p)
	return "completed", nil
}

func (f *fakeClient) Chat(ctx context.Context, messages []llm.Message) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.chatCalls++
	for _, m := range messages {
		if m.Role == llm.RoleSystem {
			f.finalCalls = append(f.finalCalls, messages)
			return "final-answer", nil
		}
	}
	last := messages[len(messages)-1].Content
	sentence, _, _ := strings.Cut(last, "|")
	return "ans-" + sentence, nil
}

type fakeEvidence struct{}

func (fakeEvidence) FormatExamples(ctx context.Context, sentence string, k int, includeLexicon bool) (string, error) {
	return "EV-" + sentence, nil
}

type fakeNeighbors struct {
	pairs      []corpus.Pair
	candidates []string
	corp       *corpus.Corpus
}

func (f *fakeNeighbors) TopK(ctx context.Context, query string, k int) ([]corpus.Pair, error) {
	if k > len(f.pairs) {
		k = len(f.pairs)
	}
	return f.pairs[:k], nil
}

func (f *fakeNeighbors) Corpus() *corpus.Corpus       { return f.corp }
func (f *fakeNeighbors) CandidateSentences() []string { return f.candidates }

func testTemplates(t *testing.T) *prompt.Templates {
	t.Helper()
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		return path
	}
	rpc := write("rpc.txt", "{sentence}|{examples}")
	cot := write("cot.json", "[]")
	lfm := write("lfm.json", `{
		"system": "H:{hints}",
		"LFM": "F:{examples}|{chinese}|{llm_answer}",
		"COTLFM": "C:{chinese}|{llm_answer}"
	}`)
	return prompt.New(rpc, cot, lfm)
}

func testSession(t *testing.T, client llm.Client, cfg Config) (*Session, *fakeNeighbors) {
	t.Helper()
	ns := &fakeNeighbors{
		pairs:      []corpus.Pair{{Zh: "n1", Amis: "N1"}, {Zh: "n2", Amis: "N2"}},
		candidates: []string{"c1", "c2"},
		corp: &corpus.Corpus{ZhToAmis: map[string]string{
			"c1": "A1", "c2": "A2", "n1": "N1", "n2": "N2",
		}},
	}
	return NewSession(fakeEvidence{}, ns, testTemplates(t), client, cfg), ns
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"RPC", ModeRPC, false},
		{"cot", ModeCOT, false},
		{" lfm ", ModeLFM, false},
		{"Rpc", ModeRPC, false},
		{"GPT", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrUnsupportedMode) {
				t.Errorf("ParseMode(%q): expected ErrUnsupportedMode, got %v", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseMode(%q) = %v, %v, want %v", tt.in, got, err, tt.want)
		}
	}
}

func TestTranslate_UnknownMode(t *testing.T) {
	client := &fakeClient{}
	s, _ := testSession(t, client, DefaultConfig())
	_, err := s.Translate(context.Background(), "你好", Mode("SFT"))
	if !errors.Is(err, ErrUnsupportedMode) {
		t.Errorf("expected ErrUnsupportedMode, got %v", err)
	}
}

func TestTranslate_RPC(t *testing.T) {
	client := &fakeClient{}
	s, _ := testSession(t, client, Config{KnnK: 3, IncludeLexicon: true})

	got, err := s.Translate(context.Background(), "你好", ModeRPC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "completed" {
		t.Errorf("got %q", got)
	}
	if len(client.completeArgs) != 1 {
		t.Fatalf("expected 1 Complete call, got %d", len(client.completeArgs))
	}
	if client.completeArgs[0] != "你好|EV-你好" {
		t.Errorf("rendered prompt = %q", client.completeArgs[0])
	}
}

func TestTranslate_COT(t *testing.T) {
	client := &fakeClient{}
	s, _ := testSession(t, client, Config{KnnK: 3})

	got, err := s.Translate(context.Background(), "你好", ModeCOT)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ans-你好" {
		t.Errorf("got %q", got)
	}
	if client.chatCalls != 1 {
		t.Errorf("expected 1 Chat call, got %d", client.chatCalls)
	}
}

func TestTranslate_LFM_MessageStructure(t *testing.T) {
	client := &fakeClient{}
	cfg := Config{KnnK: 3, LFMNum: 1, LFMICTNum: 2}
	s, _ := testSession(t, client, cfg)

	got, err := s.Translate(context.Background(), "query", ModeLFM)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "final-answer" {
		t.Errorf("got %q", got)
	}
	if len(client.finalCalls) != 1 {
		t.Fatalf("expected 1 final conversation, got %d", len(client.finalCalls))
	}

	messages := client.finalCalls[0]
	// 2 in-context user/assistant pairs + system + final user.
	if len(messages) != 6 {
		t.Fatalf("expected 6 turns, got %d: %v", len(messages), messages)
	}

	for i := 0; i < 4; i += 2 {
		user, assistant := messages[i], messages[i+1]
		if user.Role != llm.RoleUser || assistant.Role != llm.RoleAssistant {
			t.Errorf("turns %d/%d have roles %s/%s", i, i+1, user.Role, assistant.Role)
		}
		rest, found := strings.CutPrefix(user.Content, "C:")
		if !found {
			t.Errorf("in-context turn %d not rendered from its template: %q", i, user.Content)
			continue
		}
		zh, answer, _ := strings.Cut(rest, "|")
		if answer != "ans-"+zh {
			t.Errorf("in-context answer mismatch: %q", user.Content)
		}
		if want := map[string]string{"c1": "A1", "c2": "A2"}[zh]; assistant.Content != want {
			t.Errorf("assistant turn for %q = %q, want %q", zh, assistant.Content, want)
		}
	}

	system := messages[4]
	if system.Role != llm.RoleSystem {
		t.Fatalf("turn 4 role = %s", system.Role)
	}
	wantHints := "H:[zh]:n1 [your answer]:ans-n1 [correct answer]:N1"
	if system.Content != wantHints {
		t.Errorf("system turn = %q, want %q", system.Content, wantHints)
	}

	final := messages[5]
	if final.Role != llm.RoleUser {
		t.Fatalf("turn 5 role = %s", final.Role)
	}
	if final.Content != "F:EV-query|query|ans-query" {
		t.Errorf("final turn = %q", final.Content)
	}
}

func TestTranslate_LFM_HintJoin(t *testing.T) {
	client := &fakeClient{}
	cfg := Config{KnnK: 3, LFMNum: 2, LFMICTNum: 1}
	s, _ := testSession(t, client, cfg)

	if _, err := s.Translate(context.Background(), "query", ModeLFM); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	system := client.finalCalls[0][len(client.finalCalls[0])-2]
	want := "H:[zh]:n1 [your answer]:ans-n1 [correct answer]:N1" +
		" ; [zh]:n2 [your answer]:ans-n2 [correct answer]:N2"
	if system.Content != want {
		t.Errorf("system turn = %q, want %q", system.Content, want)
	}
}

func TestTranslate_LFM_InContextExamplesBuiltOnce(t *testing.T) {
	client := &fakeClient{}
	cfg := Config{KnnK: 3, LFMNum: 1, LFMICTNum: 2}
	s, _ := testSession(t, client, cfg)

	ctx := context.Background()
	if _, err := s.Translate(ctx, "q1", ModeLFM); err != nil {
		t.Fatal(err)
	}
	// 2 in-context + 1 neighbour + 1 draft + 1 final.
	if client.chatCalls != 5 {
		t.Fatalf("first call made %d chats, want 5", client.chatCalls)
	}

	if _, err := s.Translate(ctx, "q2", ModeLFM); err != nil {
		t.Fatal(err)
	}
	// Cached examples: only 1 neighbour + 1 draft + 1 final on top.
	if client.chatCalls != 8 {
		t.Errorf("second call brought total to %d chats, want 8", client.chatCalls)
	}
}

func TestTranslate_LFM_SamplingIsSeeded(t *testing.T) {
	order := func(seed int64) string {
		client := &fakeClient{}
		s, ns := testSession(t, client, Config{KnnK: 1, LFMNum: 0, LFMICTNum: 3, Seed: seed})
		ns.candidates = []string{"c1", "c2", "c3", "c4"}
		ns.corp.ZhToAmis["c3"] = "A3"
		ns.corp.ZhToAmis["c4"] = "A4"

		pairs := s.sampleInContextPairs()
		var sb strings.Builder
		for _, p := range pairs {
			fmt.Fprintf(&sb, "%s,", p.Zh)
		}
		return sb.String()
	}

	if order(7) != order(7) {
		t.Error("equal seeds must sample identically")
	}
}

func TestTranslate_LFM_SampleCappedByPool(t *testing.T) {
	client := &fakeClient{}
	s, _ := testSession(t, client, Config{KnnK: 1, LFMNum: 0, LFMICTNum: 99})
	pairs := s.sampleInContextPairs()
	if len(pairs) != 2 {
		t.Errorf("expected sample capped at pool size 2, got %d", len(pairs))
	}
	seen := map[string]bool{}
	for _, p := range pairs {
		if seen[p.Zh] {
			t.Errorf("duplicate sample %q", p.Zh)
		}
		seen[p.Zh] = true
	}
}

func TestTranslate_LFM_ClientErrorPropagates(t *testing.T) {
	client := &fakeClient{err: errors.New("model offline")}
	s, _ := testSession(t, client, Config{KnnK: 1, LFMNum: 1, LFMICTNum: 1})

	_, err := s.Translate(context.Background(), "q", ModeLFM)
	if err == nil || !strings.Contains(err.Error(), "model offline") {
		t.Errorf("expected wrapped client error, got %v", err)
	}
}

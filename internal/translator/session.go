// Package translator drives the three translation modes over the retrieval
// and prompting layers. A Session owns the prompt templates, the generative
// client, and the lazily built in-context example cache of the
// learn-from-mistakes mode.
package translator

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"github.com/valpere/amistran/internal/corpus"
	"github.com/valpere/amistran/internal/llm"
	"github.com/valpere/amistran/internal/prompt"
)

// Mode selects the prompting strategy for one translation call.
type Mode string

const (
	// ModeRPC sends a single retrieve-prompt-complete request.
	ModeRPC Mode = "RPC"
	// ModeCOT prepends a fixed reasoning-chain conversation to the request.
	ModeCOT Mode = "COT"
	// ModeLFM shows the model its own earlier mistakes on similar sentences
	// alongside the correct answers before asking again.
	ModeLFM Mode = "LFM"
)

var ErrUnsupportedMode = errors.New("unsupported translation mode")

// ParseMode accepts a mode name in any letter case.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToUpper(strings.TrimSpace(s))) {
	case ModeRPC:
		return ModeRPC, nil
	case ModeCOT:
		return ModeCOT, nil
	case ModeLFM:
		return ModeLFM, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedMode, s)
}

// EvidenceFormatter assembles the retrieval and lexicon evidence block for a
// sentence.
type EvidenceFormatter interface {
	FormatExamples(ctx context.Context, sentence string, k int, includeLexicon bool) (string, error)
}

// NeighborSource supplies nearest-neighbour pairs and the sampling pool for
// in-context examples.
type NeighborSource interface {
	TopK(ctx context.Context, query string, k int) ([]corpus.Pair, error)
	Corpus() *corpus.Corpus
	CandidateSentences() []string
}

// Config carries the per-session translation knobs.
type Config struct {
	// KnnK is the number of retrieved parallel examples per prompt.
	KnnK int
	// IncludeLexicon enables the lexicon sub-pass in the evidence block.
	IncludeLexicon bool
	// LFMNum is the number of neighbour sentences turned into hints per
	// learn-from-mistakes call.
	LFMNum int
	// LFMICTNum is the number of in-context examples built once per session.
	LFMICTNum int
	// Seed fixes the in-context sampling order. Sessions with equal seeds
	// over equal corpora sample the same sentences.
	Seed int64
}

// DefaultConfig mirrors the shipped configuration defaults.
func DefaultConfig() Config {
	return Config{KnnK: 3, IncludeLexicon: true, LFMNum: 2, LFMICTNum: 2}
}

// attempt records one sentence translated by the model next to its known
// correct rendering.
type attempt struct {
	Chinese string
	Answer  string
	Correct string
}

// Session is the per-run translation state machine. Safe for sequential use;
// the in-context example cache is guarded for concurrent callers.
type Session struct {
	evidence  EvidenceFormatter
	neighbors NeighborSource
	templates *prompt.Templates
	client    llm.Client
	cfg       Config

	ictOnce sync.Once
	ict     []attempt
	ictErr  error
}

func NewSession(ev EvidenceFormatter, ns NeighborSource, tpl *prompt.Templates, client llm.Client, cfg Config) *Session {
	return &Session{
		evidence:  ev,
		neighbors: ns,
		templates: tpl,
		client:    client,
		cfg:       cfg,
	}
}

// Translate renders sentence into Amis using the given mode.
func (s *Session) Translate(ctx context.Context, sentence string, mode Mode) (string, error) {
	switch mode {
	case ModeRPC:
		return s.translateRPC(ctx, sentence)
	case ModeCOT:
		return s.translateCOT(ctx, sentence)
	case ModeLFM:
		return s.translateLFM(ctx, sentence)
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedMode, mode)
}

func (s *Session) translateRPC(ctx context.Context, sentence string) (string, error) {
	examples, err := s.evidence.FormatExamples(ctx, sentence, s.cfg.KnnK, s.cfg.IncludeLexicon)
	if err != nil {
		return "", err
	}
	p, err := s.templates.RPC(sentence, examples)
	if err != nil {
		return "", err
	}
	return s.client.Complete(ctx, p)
}

func (s *Session) translateCOT(ctx context.Context, sentence string) (string, error) {
	examples, err := s.evidence.FormatExamples(ctx, sentence, s.cfg.KnnK, s.cfg.IncludeLexicon)
	if err != nil {
		return "", err
	}
	messages, err := s.templates.COT(sentence, examples)
	if err != nil {
		return "", err
	}
	return s.client.Chat(ctx, messages)
}

// translateLFM builds the corrective multi-turn prompt. All recursive
// translations go through the reasoning-chain mode, so the recursion never
// re-enters this path.
func (s *Session) translateLFM(ctx context.Context, sentence string) (string, error) {
	if err := s.ensureInContextExamples(ctx); err != nil {
		return "", err
	}

	neighbors, err := s.neighbors.TopK(ctx, sentence, s.cfg.LFMNum)
	if err != nil {
		return "", err
	}
	hints, err := s.attemptAll(ctx, neighbors)
	if err != nil {
		return "", err
	}

	examples, err := s.evidence.FormatExamples(ctx, sentence, s.cfg.KnnK, s.cfg.IncludeLexicon)
	if err != nil {
		return "", err
	}
	draft, err := s.translateCOT(ctx, sentence)
	if err != nil {
		return "", err
	}

	set, err := s.templates.LFM()
	if err != nil {
		return "", err
	}

	var messages []llm.Message
	for _, ex := range s.ict {
		messages = append(messages, llm.Message{
			Role: llm.RoleUser,
			Content: prompt.Render(set.InContext, map[string]string{
				"chinese":    ex.Chinese,
				"llm_answer": ex.Answer,
			}),
		})
		messages = append(messages, llm.Message{Role: llm.RoleAssistant, Content: ex.Correct})
	}
	messages = append(messages, llm.Message{
		Role:    llm.RoleSystem,
		Content: prompt.Render(set.System, map[string]string{"hints": formatHints(hints)}),
	})
	messages = append(messages, llm.Message{
		Role: llm.RoleUser,
		Content: prompt.Render(set.Final, map[string]string{
			"examples":   examples,
			"chinese":    sentence,
			"llm_answer": draft,
		}),
	})

	return s.client.Chat(ctx, messages)
}

// ensureInContextExamples populates the session cache on first use. The
// examples stay fixed for the session's lifetime so every query sees the same
// demonstrations. A failed build is terminal for the session.
func (s *Session) ensureInContextExamples(ctx context.Context) error {
	s.ictOnce.Do(func() {
		pairs := s.sampleInContextPairs()
		s.ict, s.ictErr = s.attemptAll(ctx, pairs)
	})
	return s.ictErr
}

// sampleInContextPairs picks LFMICTNum distinct sentences from the candidate
// pool without replacement. The pool is sorted, so a fixed seed yields a fixed
// sample.
func (s *Session) sampleInContextPairs() []corpus.Pair {
	candidates := s.neighbors.CandidateSentences()
	n := s.cfg.LFMICTNum
	if n > len(candidates) {
		n = len(candidates)
	}

	rng := rand.New(rand.NewSource(s.cfg.Seed))
	perm := rng.Perm(len(candidates))

	zhToAmis := s.neighbors.Corpus().ZhToAmis
	pairs := make([]corpus.Pair, 0, n)
	for _, idx := range perm[:n] {
		zh := candidates[idx]
		pairs = append(pairs, corpus.Pair{Zh: zh, Amis: zhToAmis[zh]})
	}
	return pairs
}

// attemptAll translates each pair's Chinese side through the reasoning-chain
// mode, pairing the model's answer with the known correct rendering.
func (s *Session) attemptAll(ctx context.Context, pairs []corpus.Pair) ([]attempt, error) {
	attempts := make([]attempt, 0, len(pairs))
	for _, p := range pairs {
		answer, err := s.translateCOT(ctx, p.Zh)
		if err != nil {
			return nil, fmt.Errorf("translating %q for hint: %w", p.Zh, err)
		}
		attempts = append(attempts, attempt{Chinese: p.Zh, Answer: answer, Correct: p.Amis})
	}
	return attempts, nil
}

// formatHints concatenates hint triples into the system-turn digest.
func formatHints(hints []attempt) string {
	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		parts = append(parts, "[zh]:"+h.Chinese+" [your answer]:"+h.Answer+" [correct answer]:"+h.Correct)
	}
	return strings.Join(parts, " ; ")
}

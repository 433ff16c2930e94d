package lexicon

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-ego/gse"

	"github.com/valpere/amistran/internal/embedding"
)

// ErrEmptyGloss reports a lexicon entry with an empty gloss. An empty gloss
// matches every position without consuming input, so segmentation cannot
// proceed safely.
var ErrEmptyGloss = errors.New("lexicon contains an empty gloss")

// Segmenter decomposes Chinese text into lexicon matches. Exact sub-phrase
// matches use greedy longest match; leftover text is word-tokenized and routed
// through a nearest-neighbour lookup over the gloss embeddings.
type Segmenter struct {
	entries []Entry
	emb     embedding.Embedder
	index   *embedding.Index
	refs    []Ref

	tokenize func(string) []string
}

// NewSegmenter builds a Segmenter over entries. index and refs come from
// FlattenGlosses plus the lexicon embedding cache and must be aligned.
func NewSegmenter(entries []Entry, emb embedding.Embedder, index *embedding.Index, refs []Ref) (*Segmenter, error) {
	if index != nil && index.Size() != len(refs) {
		return nil, fmt.Errorf("gloss index size %d does not match mapping size %d", index.Size(), len(refs))
	}

	var seg gse.Segmenter
	if err := seg.LoadDict(); err != nil {
		return nil, fmt.Errorf("loading word segmentation dictionary: %w", err)
	}

	return &Segmenter{
		entries: entries,
		emb:     emb,
		index:   index,
		refs:    refs,
		tokenize: func(text string) []string {
			return seg.Cut(text, true)
		},
	}, nil
}

// LongestMatch returns every (entry, gloss) whose gloss is a prefix of
// remaining and whose length equals the longest such prefix. All ties are
// returned; the caller decides how to consume them.
func (s *Segmenter) LongestMatch(remaining string) ([]Ref, error) {
	var candidates []Ref
	maxLen := 0
	for i, e := range s.entries {
		for j, gloss := range e.Glosses {
			if strings.HasPrefix(remaining, gloss) {
				candidates = append(candidates, Ref{Entry: i, Gloss: j})
				if n := utf8.RuneCountInString(gloss); n > maxLen {
					maxLen = n
				}
			}
		}
	}

	if len(candidates) > 0 && maxLen == 0 {
		return nil, ErrEmptyGloss
	}

	out := candidates[:0]
	for _, ref := range candidates {
		if utf8.RuneCountInString(s.gloss(ref)) == maxLen {
			out = append(out, ref)
		}
	}
	return out, nil
}

// Segment scans sentence once, left to right. Matched spans emit one evidence
// record per tied match; the cursor advances by the first tied match's gloss.
// Unmatched characters accumulate in a buffer that is drained through the
// fuzzy lookup whenever a match occurs and again at end of input.
func (s *Segmenter) Segment(ctx context.Context, sentence string) (string, error) {
	var sb strings.Builder
	var unmatched strings.Builder

	remaining := sentence
	for remaining != "" {
		matches, err := s.LongestMatch(remaining)
		if err != nil {
			return "", err
		}
		if len(matches) > 0 {
			drained, err := s.drainUnmatched(ctx, unmatched.String())
			if err != nil {
				return "", err
			}
			sb.WriteString(drained)
			unmatched.Reset()

			for _, ref := range matches {
				sb.WriteString(s.formatMatch(ref))
			}
			remaining = remaining[len(s.gloss(matches[0])):]
		} else {
			_, size := utf8.DecodeRuneInString(remaining)
			unmatched.WriteString(remaining[:size])
			remaining = remaining[size:]
		}
	}

	drained, err := s.drainUnmatched(ctx, unmatched.String())
	if err != nil {
		return "", err
	}
	sb.WriteString(drained)

	return sb.String(), nil
}

// FindSimilar resolves token to its nearest lexicon entry by embedding
// distance. ok is false when the lexicon has no embedded glosses.
func (s *Segmenter) FindSimilar(ctx context.Context, token string) (Ref, bool, error) {
	if s.index == nil || s.index.Size() == 0 {
		return Ref{}, false, nil
	}

	vec, err := s.emb.Embed(ctx, token)
	if err != nil {
		return Ref{}, false, fmt.Errorf("embedding token %q: %w", token, err)
	}

	positions := s.index.Search(vec, 1)
	if len(positions) == 0 {
		return Ref{}, false, nil
	}
	return s.refs[positions[0]], true, nil
}

// drainUnmatched tokenizes buffered text and emits one fuzzy evidence record
// per token that resolves to a lexicon entry.
func (s *Segmenter) drainUnmatched(ctx context.Context, buffered string) (string, error) {
	if buffered == "" {
		return "", nil
	}

	var sb strings.Builder
	for _, token := range s.tokenize(buffered) {
		if strings.TrimSpace(token) == "" {
			continue
		}
		ref, ok, err := s.FindSimilar(ctx, token)
		if err != nil {
			return "", err
		}
		if !ok {
			continue
		}
		entry := s.entries[ref.Entry]
		fmt.Fprintf(&sb, "[*zh]: %s\n[zh]: %s\n[amis]: %s\n\n",
			token, strings.Join(entry.Glosses, "/"), canonicalForm(entry))
	}
	return sb.String(), nil
}

func (s *Segmenter) formatMatch(ref Ref) string {
	entry := s.entries[ref.Entry]
	return fmt.Sprintf("[zh]: %s\n[amis]: %s\n\n",
		strings.Join(entry.Glosses, "/"), canonicalForm(entry))
}

func (s *Segmenter) gloss(ref Ref) string {
	return s.entries[ref.Entry].Glosses[ref.Gloss]
}

func canonicalForm(e Entry) string {
	if len(e.Forms) > 0 {
		return e.Forms[0]
	}
	return e.Key
}

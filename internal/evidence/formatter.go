// Package evidence assembles the textual evidence block that grounds a
// translation prompt: retrieved parallel sentences followed by lexicon
// matches for the input's sub-phrases.
package evidence

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/valpere/amistran/internal/corpus"
)

// Retriever supplies the k nearest parallel examples for a query sentence.
type Retriever interface {
	TopK(ctx context.Context, query string, k int) ([]corpus.Pair, error)
}

// Segmenter decomposes Chinese text into lexicon evidence lines.
type Segmenter interface {
	Segment(ctx context.Context, sentence string) (string, error)
}

// Formatter renders retriever and segmenter output into prompt evidence.
type Formatter struct {
	retr Retriever
	seg  Segmenter
}

func New(retr Retriever, seg Segmenter) *Formatter {
	return &Formatter{retr: retr, seg: seg}
}

var latinRunRe = regexp.MustCompile(`[a-zA-Z]+`)

// FormatExamples builds the evidence block for sentence: the k nearest
// parallel examples, then (when includeLexicon is set) the lexicon matches of
// the Chinese-script portion with Latin-letter runs appended as identity
// pairs. Deterministic given deterministic retrieval and embedding.
func (f *Formatter) FormatExamples(ctx context.Context, sentence string, k int, includeLexicon bool) (string, error) {
	var sb strings.Builder

	pairs, err := f.retr.TopK(ctx, sentence, k)
	if err != nil {
		return "", err
	}
	for _, p := range pairs {
		WritePair(&sb, p)
	}

	if includeLexicon {
		block, err := f.lexiconBlock(ctx, sentence)
		if err != nil {
			return "", err
		}
		sb.WriteString(block)
	}

	return sb.String(), nil
}

// lexiconBlock strips punctuation, segments the Chinese-script remainder, and
// passes Latin runs through untranslated (they are treated as proper nouns).
func (f *Formatter) lexiconBlock(ctx context.Context, sentence string) (string, error) {
	cleaned := stripPunctuation(sentence)

	segmented, err := f.seg.Segment(ctx, latinRunRe.ReplaceAllString(cleaned, ""))
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(segmented)
	for _, run := range latinRunRe.FindAllString(cleaned, -1) {
		WritePair(&sb, corpus.Pair{Zh: run, Amis: run})
	}
	return sb.String(), nil
}

// WritePair renders one parallel example as a two-line record.
func WritePair(sb *strings.Builder, p corpus.Pair) {
	fmt.Fprintf(sb, "[zh]: %s\n[amis]: %s\n\n", p.Zh, p.Amis)
}

// stripPunctuation replaces the common Chinese separators 「，。！」 with
// spaces and removes ASCII punctuation, mirroring the cleanup applied before
// lexicon lookup.
func stripPunctuation(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch {
		case r == '，' || r == '。' || r == '！':
			sb.WriteRune(' ')
		case r < unicode.MaxASCII && (unicode.IsPunct(r) || unicode.IsSymbol(r)):
			// dropped
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// Package bleu scores a candidate translation against a single reference with
// sentence-level BLEU: modified n-gram precision combined by a weighted
// geometric mean and scaled by a brevity penalty.
package bleu

import (
	"math"
	"strings"
)

// Weight vectors for the four conventional BLEU variants. BLEU-3 uses the
// truncated 0.33 weights rather than exact thirds to keep scores comparable
// with previously published results.
var (
	Weights1 = [4]float64{1, 0, 0, 0}
	Weights2 = [4]float64{0.5, 0.5, 0, 0}
	Weights3 = [4]float64{0.33, 0.33, 0.33, 0}
	Weights4 = [4]float64{0.25, 0.25, 0.25, 0.25}
)

// Sentence scores candidate against reference, both given as token slices.
// Only n-gram orders with a positive weight contribute; if any contributing
// precision is zero the score is zero (no smoothing).
func Sentence(reference, candidate []string, weights [4]float64) float64 {
	if len(candidate) == 0 {
		return 0
	}

	var logSum float64
	for n := 1; n <= len(weights); n++ {
		w := weights[n-1]
		if w == 0 {
			continue
		}
		p := modifiedPrecision(reference, candidate, n)
		if p == 0 {
			return 0
		}
		logSum += w * math.Log(p)
	}

	return brevityPenalty(len(reference), len(candidate)) * math.Exp(logSum)
}

// Score computes BLEU-1 through BLEU-4 for whitespace-tokenized strings.
func Score(reference, candidate string) [4]float64 {
	ref := strings.Fields(reference)
	cand := strings.Fields(candidate)
	return [4]float64{
		Sentence(ref, cand, Weights1),
		Sentence(ref, cand, Weights2),
		Sentence(ref, cand, Weights3),
		Sentence(ref, cand, Weights4),
	}
}

// modifiedPrecision is the fraction of candidate n-grams that also occur in
// the reference, with each n-gram's credit clipped at its reference count.
func modifiedPrecision(reference, candidate []string, n int) float64 {
	candCounts := ngramCounts(candidate, n)
	if len(candCounts) == 0 {
		return 0
	}
	refCounts := ngramCounts(reference, n)

	var clipped, total int
	for gram, count := range candCounts {
		total += count
		if max := refCounts[gram]; count > max {
			clipped += max
		} else {
			clipped += count
		}
	}
	return float64(clipped) / float64(total)
}

func ngramCounts(tokens []string, n int) map[string]int {
	if len(tokens) < n {
		return nil
	}
	counts := make(map[string]int, len(tokens)-n+1)
	for i := 0; i+n <= len(tokens); i++ {
		counts[strings.Join(tokens[i:i+n], "\x1f")]++
	}
	return counts
}

// brevityPenalty penalizes candidates shorter than the reference; longer
// candidates already pay through precision.
func brevityPenalty(refLen, candLen int) float64 {
	if candLen >= refLen {
		return 1
	}
	return math.Exp(1 - float64(refLen)/float64(candLen))
}

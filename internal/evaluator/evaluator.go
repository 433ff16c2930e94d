// Package evaluator runs batch translation benchmarks: it splits the corpus
// into a test set and a retrieval datastore, scores each translation with
// BLEU-1..4, and writes the results to a versioned output directory.
package evaluator

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/valpere/amistran/internal/bleu"
	"github.com/valpere/amistran/internal/translator"
)

// Translator is the translation entry point the evaluator drives.
type Translator interface {
	Translate(ctx context.Context, sentence string, mode translator.Mode) (string, error)
}

// Result is the per-example evaluation record.
type Result struct {
	InputSentence string  `json:"input_sentence"`
	GroundTruth   string  `json:"ground_truth"`
	Translation   string  `json:"translation"`
	BLEU1         float64 `json:"BLEU1"`
	BLEU2         float64 `json:"BLEU2"`
	BLEU3         float64 `json:"BLEU3"`
	BLEU4         float64 `json:"BLEU4"`
}

// Aggregate is the trailing record carrying the averaged scores, rounded to
// four decimals.
type Aggregate struct {
	AvgBLEU1 float64 `json:"avg_BLEU1"`
	AvgBLEU2 float64 `json:"avg_BLEU2"`
	AvgBLEU3 float64 `json:"avg_BLEU3"`
	AvgBLEU4 float64 `json:"avg_BLEU4"`
}

// NewOutputDir creates and returns the next free versioned directory
// <base>/<language>_v<N>, starting at v1.
func NewOutputDir(base, language string) (string, error) {
	if err := os.MkdirAll(base, 0o755); err != nil {
		return "", fmt.Errorf("creating result directory: %w", err)
	}
	for version := 1; ; version++ {
		dir := filepath.Join(base, fmt.Sprintf("%s_v%d", language, version))
		if _, err := os.Stat(dir); err == nil {
			continue
		} else if !os.IsNotExist(err) {
			return "", fmt.Errorf("probing result directory: %w", err)
		}
		if err := os.Mkdir(dir, 0o755); err != nil {
			return "", fmt.Errorf("creating result directory: %w", err)
		}
		return dir, nil
	}
}

// wordRe matches the word tokens counted when filtering test candidates.
var wordRe = regexp.MustCompile(`\w+`)

// minTestTokens is the minimum Amis-side word count for a test example.
// Shorter references cannot form a 4-gram, which forces BLEU-4 to zero
// regardless of translation quality.
const minTestTokens = 4

// SampleSplit draws n distinct test pairs from the Chinese→Amis mapping,
// without replacement and restricted to pairs whose Amis side has at least
// four word tokens. The remaining pairs form the retrieval datastore. A fixed
// seed gives a fixed split.
func SampleSplit(zhToAmis map[string]string, n int, seed int64) (test, datastore map[string]string, err error) {
	eligible := make([]string, 0, len(zhToAmis))
	for zh, amis := range zhToAmis {
		if len(wordRe.FindAllString(amis, -1)) >= minTestTokens {
			eligible = append(eligible, zh)
		}
	}
	if len(eligible) < n {
		return nil, nil, fmt.Errorf("test set needs %d pairs with >= %d word tokens, corpus has %d", n, minTestTokens, len(eligible))
	}
	sort.Strings(eligible)

	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(eligible), func(i, j int) {
		eligible[i], eligible[j] = eligible[j], eligible[i]
	})

	test = make(map[string]string, n)
	for _, zh := range eligible[:n] {
		test[zh] = zhToAmis[zh]
	}
	datastore = make(map[string]string, len(zhToAmis)-n)
	for zh, amis := range zhToAmis {
		if _, ok := test[zh]; !ok {
			datastore[zh] = amis
		}
	}
	return test, datastore, nil
}

// WriteSplit persists the split next to the evaluation results so a run can
// be reproduced and re-scored later.
func WriteSplit(dir string, test, datastore map[string]string) error {
	if err := writeJSON(filepath.Join(dir, "test_data.json"), test); err != nil {
		return err
	}
	return writeJSON(filepath.Join(dir, "test_datastore.json"), datastore)
}

// Run translates every test pair with the given mode, scores it, and writes
// <mode>_evaluation_result.json into dir: the per-example records followed by
// one aggregate record. Test sentences are processed in sorted order.
func Run(ctx context.Context, tr Translator, mode translator.Mode, test map[string]string, dir string) (*Aggregate, error) {
	if len(test) == 0 {
		return nil, fmt.Errorf("empty test set")
	}

	sentences := make([]string, 0, len(test))
	for zh := range test {
		sentences = append(sentences, zh)
	}
	sort.Strings(sentences)

	results := make([]Result, 0, len(sentences))
	var sums [4]float64
	for _, zh := range sentences {
		translation, err := tr.Translate(ctx, zh, mode)
		if err != nil {
			return nil, fmt.Errorf("translating %q: %w", zh, err)
		}
		scores := bleu.Score(test[zh], translation)
		results = append(results, Result{
			InputSentence: zh,
			GroundTruth:   test[zh],
			Translation:   translation,
			BLEU1:         scores[0],
			BLEU2:         scores[1],
			BLEU3:         scores[2],
			BLEU4:         scores[3],
		})
		for i, s := range scores {
			sums[i] += s
		}
	}

	n := float64(len(results))
	agg := &Aggregate{
		AvgBLEU1: round4(sums[0] / n),
		AvgBLEU2: round4(sums[1] / n),
		AvgBLEU3: round4(sums[2] / n),
		AvgBLEU4: round4(sums[3] / n),
	}

	records := make([]interface{}, 0, len(results)+1)
	for _, r := range results {
		records = append(records, r)
	}
	records = append(records, agg)

	path := filepath.Join(dir, fmt.Sprintf("%s_evaluation_result.json", mode))
	if err := writeJSON(path, records); err != nil {
		return nil, err
	}
	return agg, nil
}

func round4(x float64) float64 {
	return math.Round(x*10000) / 10000
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

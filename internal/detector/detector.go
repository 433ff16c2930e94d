// Package detector identifies the script and language of input text. Amis is
// not covered by the underlying language models, so detection is only used on
// the Chinese source side.
package detector

import (
	"unicode"

	lingua "github.com/pemistahl/lingua-go"
)

// Detector wraps a lingua language detector restricted to the languages that
// plausibly show up as input: Chinese plus the common lookalikes users paste
// by mistake.
type Detector struct {
	detector lingua.LanguageDetector
}

func New() *Detector {
	detector := lingua.NewLanguageDetectorBuilder().
		FromLanguages(
			lingua.Chinese,
			lingua.Japanese,
			lingua.Korean,
			lingua.English,
		).
		Build()

	return &Detector{detector: detector}
}

func (d *Detector) Detect(text string) (lingua.Language, bool) {
	if text == "" {
		return lingua.Unknown, false
	}
	return d.detector.DetectLanguageOf(text)
}

// IsChinese reports whether text is detected as Chinese.
func (d *Detector) IsChinese(text string) bool {
	lang, ok := d.Detect(text)
	return ok && lang == lingua.Chinese
}

// ContainsHan reports whether text carries at least one Han-script rune.
// Sentences mixing Chinese with Latin proper nouns still count.
func ContainsHan(text string) bool {
	for _, r := range text {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

// HanRatio returns the share of Han runes among the letters of text, 0 when
// text has no letters.
func HanRatio(text string) float64 {
	var han, letters int
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if unicode.Is(unicode.Han, r) {
			han++
		}
	}
	if letters == 0 {
		return 0
	}
	return float64(han) / float64(letters)
}

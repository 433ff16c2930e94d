// Package validator checks that input text is plausible Chinese before it is
// sent through the translation pipeline.
package validator

import (
	"fmt"
	"strings"

	"github.com/valpere/amistran/internal/detector"
)

// minDetectionLength is the minimum rune count required to attempt language
// detection. Shorter texts produce unreliable results and are accepted.
const minDetectionLength = 6

// Validator checks translation input. The underlying language detector is
// expensive to build; reuse the instance.
type Validator struct {
	det *detector.Detector
}

// New creates a Validator backed by the lingua-go language detector.
func New() *Validator {
	return &Validator{det: detector.New()}
}

// CheckSource returns nil when text looks like Chinese input. Empty input is
// an error; input with no Han characters yields an error the caller may
// downgrade to a warning, since pure Latin sentences still pass through the
// pipeline as untranslated identity pairs.
func (v *Validator) CheckSource(text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return fmt.Errorf("input sentence is empty")
	}

	if detector.ContainsHan(trimmed) {
		return nil
	}

	if len([]rune(trimmed)) < minDetectionLength {
		return nil
	}

	if lang, ok := v.det.Detect(trimmed); ok {
		return fmt.Errorf("input contains no Chinese characters (looks like %s)", lang)
	}
	return fmt.Errorf("input contains no Chinese characters")
}

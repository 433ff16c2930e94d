package validator

import (
	"strings"
	"testing"
)

func TestCheckSource_EmptyInput(t *testing.T) {
	v := New()

	if err := v.CheckSource(""); err == nil {
		t.Error("expected error for empty input")
	}
	if err := v.CheckSource("   "); err == nil {
		t.Error("expected error for whitespace-only input")
	}
}

func TestCheckSource_ChineseInput(t *testing.T) {
	v := New()

	if err := v.CheckSource("你明天要去哪裡？"); err != nil {
		t.Errorf("unexpected error for Chinese input: %v", err)
	}
}

func TestCheckSource_MixedScriptInput(t *testing.T) {
	v := New()

	// Latin proper nouns embedded in Chinese are expected input.
	if err := v.CheckSource("我和 Panay 一起去花蓮"); err != nil {
		t.Errorf("unexpected error for mixed-script input: %v", err)
	}
}

func TestCheckSource_ShortLatinInput(t *testing.T) {
	v := New()

	// Too short for reliable detection; accepted as-is.
	if err := v.CheckSource("ok"); err != nil {
		t.Errorf("unexpected error for short input: %v", err)
	}
}

func TestCheckSource_NonChineseInput(t *testing.T) {
	v := New()

	err := v.CheckSource("This sentence is clearly written in English.")
	if err == nil {
		t.Fatal("expected error for English input")
	}
	if !strings.Contains(err.Error(), "no Chinese characters") {
		t.Errorf("error should explain the problem: %v", err)
	}
}

// Package postprocess removes common LLM artifacts from generated
// translations before the text is used downstream.
package postprocess

import (
	"regexp"
	"strings"
)

// Clean strips artifacts from raw model output and returns the trimmed
// result:
//  1. Thinking / reasoning block removal
//  2. Leading role-label removal ("Assistant:", "[amis]:", …)
//  3. Instruction echo removal
//  4. Quote wrapping removal
func Clean(text string) string {
	text = removeThinkingBlocks(text)
	text = removeRoleLabels(text)
	text = removeInstructionEchoes(text)
	text = removeQuoteWrapping(text)
	return strings.TrimSpace(text)
}

// thinkingBlockRe matches complete <thinking>…</thinking> style blocks. Each
// tag variant is listed explicitly because Go's RE2 engine does not support
// backreferences.
var thinkingBlockRe = regexp.MustCompile(
	`(?is)<thinking>.*?</thinking>|<think>.*?</think>|<reasoning>.*?</reasoning>`,
)

// truncatedThinkingRe matches an opened thinking tag whose closing tag is
// missing (the model was cut off mid-thought).
var truncatedThinkingRe = regexp.MustCompile(
	`(?is)(?:<thinking>|<think>|<reasoning>).*$`,
)

func removeThinkingBlocks(text string) string {
	text = thinkingBlockRe.ReplaceAllString(text, "")
	text = truncatedThinkingRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// roleLabelRe matches a leading conversational role label or the evidence
// tag some models copy from the prompt into their answer.
var roleLabelRe = regexp.MustCompile(`(?i)^(?:assistant|answer|translation|\[amis\])\s*[:：]\s*`)

func removeRoleLabels(text string) string {
	text = strings.TrimSpace(text)
	for {
		stripped := roleLabelRe.ReplaceAllString(text, "")
		if stripped == text {
			return text
		}
		text = strings.TrimSpace(stripped)
	}
}

// echoPatterns match introductory phrases that models sometimes prepend even
// when instructed not to. Anchored to the start of the string and requiring a
// colon to avoid eating legitimate content.
var echoPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^here(?:'s| is)(?: the)? (?:amis )?translation\s*[:：]`),
	regexp.MustCompile(`(?i)^the (?:amis )?translation (?:is|would be)\s*[:：]?`),
}

func removeInstructionEchoes(text string) string {
	for _, re := range echoPatterns {
		if loc := re.FindStringIndex(text); loc != nil && loc[0] == 0 {
			text = strings.TrimSpace(text[loc[1]:])
		}
	}
	return text
}

// removeQuoteWrapping strips a matching pair of outer quotes when the entire
// text is wrapped in them. Supported pairs: "…"  '…'  「…」  "…"
func removeQuoteWrapping(text string) string {
	runes := []rune(text)
	n := len(runes)
	if n < 2 {
		return text
	}
	first, last := runes[0], runes[n-1]
	if (first == '"' && last == '"') ||
		(first == '\'' && last == '\'') ||
		(first == '「' && last == '」') ||
		(first == '“' && last == '”') {
		return strings.TrimSpace(string(runes[1 : n-1]))
	}
	return text
}

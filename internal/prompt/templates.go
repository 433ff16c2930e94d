// Package prompt loads and renders the translation prompt templates.
//
// Three template files exist, one per translation mode: a plain-text prompt
// for RPC, a JSON conversation prefix for COT, and a JSON object of named
// turn templates for LFM. Placeholders use {name} syntax.
package prompt

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/valpere/amistran/internal/llm"
)

// Templates resolves template files by path. Files are read on each use, so
// a missing file fails the call that needed it, surfaced with the path.
type Templates struct {
	rpcPath string
	cotPath string
	lfmPath string
}

func New(rpcPath, cotPath, lfmPath string) *Templates {
	return &Templates{rpcPath: rpcPath, cotPath: cotPath, lfmPath: lfmPath}
}

// RPC renders the single-string prompt with the input sentence and its
// evidence block.
func (t *Templates) RPC(sentence, examples string) (string, error) {
	raw, err := os.ReadFile(t.rpcPath)
	if err != nil {
		return "", fmt.Errorf("prompt template %s: %w", t.rpcPath, err)
	}
	return Render(string(raw), map[string]string{
		"sentence": sentence,
		"examples": examples,
	}), nil
}

// COT returns the fixed reasoning-chain conversation with the rendered RPC
// prompt appended as the final user turn.
func (t *Templates) COT(sentence, examples string) ([]llm.Message, error) {
	raw, err := os.ReadFile(t.cotPath)
	if err != nil {
		return nil, fmt.Errorf("prompt template %s: %w", t.cotPath, err)
	}

	var messages []llm.Message
	if err := json.Unmarshal(raw, &messages); err != nil {
		return nil, fmt.Errorf("prompt template %s: %w", t.cotPath, err)
	}

	final, err := t.RPC(sentence, examples)
	if err != nil {
		return nil, err
	}
	return append(messages, llm.Message{Role: llm.RoleUser, Content: final}), nil
}

// LFMSet holds the named turn templates of the learn-from-mistakes mode:
// System embeds {hints}, Final embeds {examples}/{chinese}/{llm_answer}, and
// InContext embeds {chinese}/{llm_answer} for the demonstration turns.
type LFMSet struct {
	System    string `json:"system"`
	Final     string `json:"LFM"`
	InContext string `json:"COTLFM"`
}

// LFM loads the named LFM turn templates.
func (t *Templates) LFM() (*LFMSet, error) {
	raw, err := os.ReadFile(t.lfmPath)
	if err != nil {
		return nil, fmt.Errorf("prompt template %s: %w", t.lfmPath, err)
	}

	var set LFMSet
	if err := json.Unmarshal(raw, &set); err != nil {
		return nil, fmt.Errorf("prompt template %s: %w", t.lfmPath, err)
	}
	if set.System == "" || set.Final == "" || set.InContext == "" {
		return nil, fmt.Errorf("prompt template %s: missing named templates", t.lfmPath)
	}
	return &set, nil
}

// Render substitutes each {name} placeholder with its value. Unknown
// placeholders are left in place so a template typo is visible in the prompt
// rather than silently dropped.
func Render(template string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for name, value := range vars {
		pairs = append(pairs, "{"+name+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

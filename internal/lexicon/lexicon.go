// Package lexicon loads the phrase dictionary and segments Chinese input into
// known sub-phrases by greedy longest match, with an embedding-based fuzzy
// fallback for text no dictionary phrase covers.
package lexicon

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Entry is one dictionary record. Forms are the Amis surface realizations
// (the first is canonical); Glosses are the Chinese phrases matched against
// input text, in file order.
type Entry struct {
	Key     string
	Forms   []string
	Glosses []string
}

// Ref addresses a single gloss inside the entry list.
type Ref struct {
	Entry int
	Gloss int
}

// Load reads the lexicon JSON object at path. Each key maps to a two-element
// array: the Amis surface forms, then the Chinese glosses. Entry order in the
// file is preserved, which is why the object is decoded token by token
// instead of into a map.
func Load(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading lexicon %s: %w", path, err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("parsing lexicon %s: %w", path, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("parsing lexicon %s: top-level value is not an object", path)
	}

	var entries []Entry
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("parsing lexicon %s: %w", path, err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("parsing lexicon %s: non-string key", path)
		}

		var value [][]string
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("parsing lexicon %s: entry %q: %w", path, key, err)
		}
		if len(value) < 2 {
			return nil, fmt.Errorf("parsing lexicon %s: entry %q needs surface forms and glosses", path, key)
		}

		entries = append(entries, Entry{
			Key:     key,
			Forms:   value[0],
			Glosses: value[1],
		})
	}

	return entries, nil
}

// parenRe matches parenthetical annotations (variant markers and usage notes)
// that must not influence the embedding of a gloss.
var parenRe = regexp.MustCompile(`\(.*?\)`)

// FlattenGlosses returns every gloss of every entry in order, prepared for
// embedding, along with the parallel Ref list that resolves an index position
// back to its entry. A gloss that becomes empty after annotation stripping is
// embedded in its raw form.
func FlattenGlosses(entries []Entry) ([]string, []Ref) {
	var texts []string
	var refs []Ref
	for i, e := range entries {
		for j, gloss := range e.Glosses {
			cleaned := strings.TrimSpace(parenRe.ReplaceAllString(gloss, ""))
			if cleaned == "" {
				cleaned = gloss
			}
			texts = append(texts, cleaned)
			refs = append(refs, Ref{Entry: i, Gloss: j})
		}
	}
	return texts, refs
}

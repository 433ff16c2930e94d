// Package corpus loads the parallel sentence corpus.
//
// The storage file maps Amis sentence → Chinese sentence. In memory the
// lookup direction is Chinese → Amis, so the mapping is inverted on load; the
// original direction is kept for ground-truth lookups.
package corpus

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Pair is one parallel example.
type Pair struct {
	Zh   string `json:"zh"`
	Amis string `json:"amis"`
}

// Corpus holds both directions of the sentence-pair mapping.
type Corpus struct {
	ZhToAmis map[string]string
	AmisToZh map[string]string

	// Duplicates lists Chinese sentences that appeared more than once during
	// inversion. The first occurrence in sorted Amis order wins in ZhToAmis;
	// callers should surface these to the user rather than lose data silently.
	Duplicates []string
}

// Load reads the Amis→Chinese JSON object at path and inverts it.
func Load(path string) (*Corpus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading corpus %s: %w", path, err)
	}

	amisToZh := make(map[string]string)
	if err := json.Unmarshal(data, &amisToZh); err != nil {
		return nil, fmt.Errorf("parsing corpus %s: %w", path, err)
	}

	// Sorted iteration keeps the surviving translation deterministic when a
	// Chinese sentence has several Amis renderings.
	amisKeys := make([]string, 0, len(amisToZh))
	for amis := range amisToZh {
		amisKeys = append(amisKeys, amis)
	}
	sort.Strings(amisKeys)

	zhToAmis := make(map[string]string, len(amisToZh))
	var duplicates []string
	for _, amis := range amisKeys {
		zh := amisToZh[amis]
		if _, seen := zhToAmis[zh]; seen {
			duplicates = append(duplicates, zh)
			continue
		}
		zhToAmis[zh] = amis
	}
	sort.Strings(duplicates)

	return &Corpus{
		ZhToAmis:   zhToAmis,
		AmisToZh:   amisToZh,
		Duplicates: duplicates,
	}, nil
}

// Sentences returns the Chinese sentences in sorted order.
func (c *Corpus) Sentences() []string {
	keys := make([]string, 0, len(c.ZhToAmis))
	for zh := range c.ZhToAmis {
		keys = append(keys, zh)
	}
	sort.Strings(keys)
	return keys
}

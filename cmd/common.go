/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/valpere/amistran/internal/corpus"
	"github.com/valpere/amistran/internal/embedding"
	"github.com/valpere/amistran/internal/evidence"
	"github.com/valpere/amistran/internal/lexicon"
	"github.com/valpere/amistran/internal/llm"
	"github.com/valpere/amistran/internal/prompt"
	"github.com/valpere/amistran/internal/retriever"
	"github.com/valpere/amistran/internal/translator"
)

// buildClient constructs the chat client from configuration and returns it
// along with the resolved model name used for cache keys.
func buildClient() (llm.Client, string, error) {
	opts := llm.Options{
		Model:     viper.GetString("model"),
		MaxTokens: viper.GetInt("max-tokens"),
	}

	switch provider := viper.GetString("provider"); provider {
	case "ollama":
		c := llm.NewOllamaClient(viper.GetString("ollama-url"), opts)
		return c, c.Model(), nil
	case "openrouter":
		c := llm.NewOpenRouterClient(viper.GetString("openrouter-key"), viper.GetString("openrouter-url"), opts)
		return c, c.Model(), nil
	default:
		return nil, "", fmt.Errorf("unknown provider: %s (use ollama or openrouter)", provider)
	}
}

func buildEmbedder() *embedding.OllamaEmbedder {
	return embedding.NewOllamaEmbedder(viper.GetString("ollama-url"), viper.GetString("embed-model"))
}

func buildTemplates() *prompt.Templates {
	return prompt.New(
		viper.GetString("rpc-prompt"),
		viper.GetString("cot-prompt"),
		viper.GetString("lfm-prompt"),
	)
}

func sessionConfig() translator.Config {
	return translator.Config{
		KnnK:           viper.GetInt("knn-k"),
		IncludeLexicon: viper.GetBool("lexicon-evidence"),
		LFMNum:         viper.GetInt("lfm-num"),
		LFMICTNum:      viper.GetInt("lfm-ict-num"),
		Seed:           viper.GetInt64("seed"),
	}
}

// loadCorpus reads and inverts the parallel corpus, reporting duplicate
// Chinese sources on stderr instead of dropping them silently.
func loadCorpus() (*corpus.Corpus, error) {
	corp, err := corpus.Load(viper.GetString("sentences"))
	if err != nil {
		return nil, err
	}
	if n := len(corp.Duplicates); n > 0 {
		fmt.Fprintf(os.Stderr, "Warning: %d Chinese sentences appear more than once in the corpus; first translation kept\n", n)
	}
	return corp, nil
}

// buildSegmenter assembles the lexicon longest-match segmenter with its
// similarity index over the flattened gloss list.
func buildSegmenter(ctx context.Context, emb embedding.Embedder) (*lexicon.Segmenter, error) {
	entries, err := lexicon.Load(viper.GetString("lexicon"))
	if err != nil {
		return nil, err
	}

	glosses, refs := lexicon.FlattenGlosses(entries)
	vectors, err := embedding.LoadVectorList(ctx, viper.GetString("lexicon-embeddings"), glosses, emb)
	if err != nil {
		return nil, err
	}

	return lexicon.NewSegmenter(entries, emb, embedding.NewIndex(vectors), refs)
}

// assembleSession wires the full translation pipeline over the given corpus
// and sentence embedding map.
func assembleSession(ctx context.Context, client llm.Client, corp *corpus.Corpus, vectors map[string][]float32, emb embedding.Embedder) (*translator.Session, error) {
	seg, err := buildSegmenter(ctx, emb)
	if err != nil {
		return nil, err
	}

	retr := retriever.New(corp, vectors, emb)
	ev := evidence.New(retr, seg)
	return translator.NewSession(ev, retr, buildTemplates(), client, sessionConfig()), nil
}

// buildSession loads everything from the configured data files: corpus,
// cached sentence embeddings, lexicon. Single-sentence commands use this;
// batch evaluation builds its own datastore-restricted session.
func buildSession(ctx context.Context, client llm.Client) (*translator.Session, error) {
	corp, err := loadCorpus()
	if err != nil {
		return nil, err
	}

	emb := buildEmbedder()
	vectors, err := embedding.LoadSentenceCache(ctx, viper.GetString("sentence-embeddings"), corp.Sentences(), emb)
	if err != nil {
		return nil, err
	}

	return assembleSession(ctx, client, corp, vectors, emb)
}

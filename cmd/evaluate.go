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
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/valpere/amistran/internal/corpus"
	"github.com/valpere/amistran/internal/evaluator"
	"github.com/valpere/amistran/internal/translator"
)

var (
	evalMode   string
	evalNum    int
	evalLang   string
	resultsDir string
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Run a batch translation benchmark",
	Long: `Sample a test set from the corpus, translate it, and score the results
with BLEU-1..4.

The sampled test pairs are held out of the retrieval datastore, so the
model never sees the exact sentence it is asked to translate. Results
are written to a fresh versioned directory <results>/<language>_v<N>.

--mode ALL runs RPC, COT, and LFM over the same split.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var modes []translator.Mode
		if evalMode == "ALL" {
			modes = []translator.Mode{translator.ModeRPC, translator.ModeCOT, translator.ModeLFM}
		} else {
			mode, err := translator.ParseMode(evalMode)
			if err != nil {
				return err
			}
			modes = []translator.Mode{mode}
		}

		ctx := context.Background()

		corp, err := loadCorpus()
		if err != nil {
			return err
		}

		test, datastore, err := evaluator.SampleSplit(corp.ZhToAmis, evalNum, viper.GetInt64("seed"))
		if err != nil {
			return err
		}

		dir, err := evaluator.NewOutputDir(resultsDir, evalLang)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Evaluation output: %s\n", dir)

		if err := evaluator.WriteSplit(dir, test, datastore); err != nil {
			return err
		}

		// The retrieval pool is the datastore only; its embeddings are
		// computed fresh rather than read from the full-corpus cache.
		keys := make([]string, 0, len(datastore))
		for zh := range datastore {
			keys = append(keys, zh)
		}
		sort.Strings(keys)

		emb := buildEmbedder()
		fmt.Fprintf(os.Stderr, "Embedding %d datastore sentences...\n", len(keys))
		vectors, err := emb.EmbedBatch(ctx, keys)
		if err != nil {
			return fmt.Errorf("embedding datastore: %w", err)
		}

		client, _, err := buildClient()
		if err != nil {
			return err
		}

		dsCorp := &corpus.Corpus{ZhToAmis: datastore}

		for _, mode := range modes {
			// A fresh session per mode keeps LFM's in-context examples from
			// leaking between runs.
			session, err := assembleSession(ctx, client, dsCorp, vectors, emb)
			if err != nil {
				return err
			}

			fmt.Fprintf(os.Stderr, "Evaluating mode %s over %d sentences...\n", mode, len(test))
			agg, err := evaluator.Run(ctx, session, mode, test, dir)
			if err != nil {
				return fmt.Errorf("evaluating mode %s: %w", mode, err)
			}

			fmt.Printf("Mode %s:\n", mode)
			fmt.Printf("  avg_BLEU1: %v\n", agg.AvgBLEU1)
			fmt.Printf("  avg_BLEU2: %v\n", agg.AvgBLEU2)
			fmt.Printf("  avg_BLEU3: %v\n", agg.AvgBLEU3)
			fmt.Printf("  avg_BLEU4: %v\n", agg.AvgBLEU4)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().StringVarP(&evalMode, "mode", "m", "ALL", "Translation mode: RPC, COT, LFM, or ALL")
	evaluateCmd.Flags().IntVarP(&evalNum, "test-num", "n", 20, "Number of test sentences to sample")
	evaluateCmd.Flags().StringVar(&evalLang, "language", "amis", "Target language label for the output directory")
	evaluateCmd.Flags().StringVar(&resultsDir, "results", "./results", "Base directory for evaluation results")
}

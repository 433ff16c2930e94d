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
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/valpere/amistran/internal"
	"github.com/valpere/amistran/internal/store"
	"github.com/valpere/amistran/internal/translator"
	"github.com/valpere/amistran/internal/validator"
)

var (
	translateMode  string
	dbPath         string
	noCache        bool
	fuzzyThreshold float64
	skipValidation bool
	jsonOutput     bool
)

var translateCmd = &cobra.Command{
	Use:   "translate <sentence>",
	Short: "Translate a Chinese sentence into Amis",
	Long: `Translate a single Chinese sentence into Amis.

Modes:
  RPC   one retrieval-augmented prompt, one completion
  COT   reasoning-chain conversation before the prompt
  LFM   shows the model its mistakes on similar sentences first

Results are cached in a local translation memory keyed by sentence,
mode, and model; use --no-cache to always ask the model.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sentence := args[0]
		if strings.TrimSpace(sentence) == "" {
			return fmt.Errorf("input sentence is empty")
		}

		mode, err := translator.ParseMode(translateMode)
		if err != nil {
			return err
		}

		ctx := context.Background()

		if !skipValidation {
			if err := validator.New().CheckSource(sentence); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
			}
		}

		client, model, err := buildClient()
		if err != nil {
			return err
		}

		printResult := func(output string) error {
			if jsonOutput {
				rec := internal.TranslationRecord{
					ID:        uuid.NewString(),
					Sentence:  sentence,
					Mode:      string(mode),
					Model:     model,
					Output:    output,
					Timestamp: time.Now(),
				}
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(rec)
			}
			fmt.Println(output)
			return nil
		}

		var db *store.Store
		if !noCache && dbPath != "" {
			db, err = store.New(dbPath)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer db.Close()

			if cached, found, cacheErr := db.GetCached(ctx, sentence, string(mode), model); cacheErr == nil && found {
				fmt.Fprintln(os.Stderr, "Using cached translation")
				return printResult(cached)
			}
			if cached, found, cacheErr := db.FuzzyGetCached(ctx, sentence, string(mode), model, fuzzyThreshold); cacheErr == nil && found {
				fmt.Fprintln(os.Stderr, "Using fuzzy-matched cached translation")
				return printResult(cached)
			}
		}

		session, err := buildSession(ctx, client)
		if err != nil {
			return err
		}

		result, err := session.Translate(ctx, sentence, mode)
		if err != nil {
			return err
		}

		if db != nil {
			if err := db.Save(ctx, sentence, string(mode), model, result); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to save to translation memory: %v\n", err)
			}
		}

		return printResult(result)
	},
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().StringVarP(&translateMode, "mode", "m", "RPC", "Translation mode: RPC, COT, or LFM")
	translateCmd.Flags().StringVar(&dbPath, "db", "./data/amistran.db", "Database path for translation memory")
	translateCmd.Flags().BoolVar(&noCache, "no-cache", false, "Disable translation memory cache")
	translateCmd.Flags().Float64Var(&fuzzyThreshold, "fuzzy-cache", 0, "Similarity threshold (0-1) for fuzzy cache hits, 0 disables")
	translateCmd.Flags().BoolVar(&skipValidation, "no-validate", false, "Skip input language validation")
	translateCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the translation as a JSON record")
}

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

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/valpere/amistran/internal/embedding"
	"github.com/valpere/amistran/internal/evidence"
	"github.com/valpere/amistran/internal/retriever"
)

var segmentCmd = &cobra.Command{
	Use:   "segment <sentence>",
	Short: "Show the evidence block for a sentence",
	Long: `Print the evidence block that would be embedded in a translation prompt
for the given sentence: the nearest corpus examples followed by the
lexicon matches of its sub-phrases. Useful for inspecting retrieval and
segmentation without calling the generative model.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		corp, err := loadCorpus()
		if err != nil {
			return err
		}

		emb := buildEmbedder()
		vectors, err := embedding.LoadSentenceCache(ctx, viper.GetString("sentence-embeddings"), corp.Sentences(), emb)
		if err != nil {
			return err
		}

		seg, err := buildSegmenter(ctx, emb)
		if err != nil {
			return err
		}

		ev := evidence.New(retriever.New(corp, vectors, emb), seg)
		block, err := ev.FormatExamples(ctx, args[0], viper.GetInt("knn-k"), viper.GetBool("lexicon-evidence"))
		if err != nil {
			return err
		}

		fmt.Print(block)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(segmentCmd)
}

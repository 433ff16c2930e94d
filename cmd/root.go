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
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var version = "0.1.0"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "amistran",
	Short: "Chinese to Amis translator",
	Long: `A retrieval-augmented Chinese→Amis translator. Translations are grounded
in a parallel sentence corpus and an Amis lexicon: the nearest corpus
examples and the lexicon matches for the input are assembled into the
prompt of a generative model.

Translation modes: RPC (single prompt), COT (reasoning chain),
LFM (learn from mistakes).

Use "amistran translate --help" for translation options.`,
	Version: version,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default amistran.yaml in . or $HOME/.amistran)")

	pf := rootCmd.PersistentFlags()
	pf.String("sentences", "data/sentences.json", "Parallel corpus JSON (Amis sentence → Chinese sentence)")
	pf.String("lexicon", "data/lexicon.json", "Amis lexicon JSON")
	pf.String("sentence-embeddings", "data/embeddings/sentences.json", "Sentence embedding cache file")
	pf.String("lexicon-embeddings", "data/embeddings/lexicon.json", "Lexicon embedding cache file")
	pf.String("rpc-prompt", "prompts/rpc.txt", "RPC prompt template")
	pf.String("cot-prompt", "prompts/cot.json", "COT conversation template")
	pf.String("lfm-prompt", "prompts/lfm.json", "LFM turn templates")

	pf.String("provider", "ollama", "LLM provider: ollama or openrouter")
	pf.String("model", "", "Chat model name (provider default if empty)")
	pf.String("ollama-url", "http://localhost:11434", "Ollama base URL")
	pf.String("openrouter-key", "", "OpenRouter API key")
	pf.String("openrouter-url", "", "OpenRouter base URL (default if empty)")
	pf.String("embed-model", "", "Embedding model name (default if empty)")
	pf.Int("max-tokens", 512, "Generation token limit")

	pf.Int("knn-k", 3, "Number of retrieved corpus examples per prompt")
	pf.Bool("lexicon-evidence", true, "Include lexicon matches in the evidence block")
	pf.Int("lfm-num", 2, "Neighbour hints per learn-from-mistakes call")
	pf.Int("lfm-ict-num", 2, "In-context examples per learn-from-mistakes session")
	pf.Int64("seed", 0, "Sampling seed for in-context examples and test splits")

	pf.VisitAll(func(f *pflag.Flag) {
		if f.Name != "config" {
			viper.BindPFlag(f.Name, f)
		}
	})
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(fmt.Sprintf("%s/.amistran", home))
		}
		viper.AddConfigPath(".")
		viper.SetConfigName("amistran")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("AMISTRAN")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

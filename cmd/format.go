/*
Copyright © 2025 Mykola Lutsiv

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

	"github.com/spf13/cobra"

	"github.com/mlutsiv/draftforge/internal/formatter"
	"github.com/mlutsiv/draftforge/internal/refine"
	"github.com/mlutsiv/draftforge/internal/store"
)

var (
	formatInput  string
	formatOutput string

	formatPersona  string
	formatProvider string

	formatOllamaURL       string
	formatOllamaModel     string
	formatOpenrouterKey   string
	formatOpenrouterModel string

	formatMaxRetries int
	formatThreshold  float64

	formatDBPath  string
	formatNoStore bool
	formatVerbose bool
)

var formatCmd = &cobra.Command{
	Use:   "format",
	Short: "Run only the formatting loop on an already refined draft",
	Long: `Skip the refinement graph (introduction, conclusion, summary, titles)
and run only the validator-gated formatting loop. Useful for drafts that
already carry their editorial framing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if formatInput == formatOutput {
			return fmt.Errorf("input file and output file cannot be the same")
		}

		raw, err := os.ReadFile(formatInput)
		if err != nil {
			return fmt.Errorf("failed to read input file: %w", err)
		}

		log, err := buildLogger(formatVerbose)
		if err != nil {
			return fmt.Errorf("failed to build logger: %w", err)
		}
		defer log.Sync()

		completer, err := buildProvider(formatProvider, formatOllamaURL, formatOllamaModel, formatOpenrouterKey, formatOpenrouterModel)
		if err != nil {
			return err
		}

		guidance, err := personaRegistry().Guidance(formatPersona)
		if err != nil {
			return err
		}

		loop := formatter.NewLoop(completer, formatter.Config{
			MaxRetries: formatMaxRetries,
			Threshold:  formatThreshold,
			Weights:    rubricWeights(),
		}, log)

		ctx := context.Background()
		pipe := refine.NewPipeline(completer, loop, guidance, log)
		st := pipe.Format(ctx, string(raw))

		if !formatNoStore && formatDBPath != "" {
			db, err := store.New(formatDBPath)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Failed to open database, run not persisted: %v\n", err)
			} else {
				defer db.Close()
				if err := db.SaveRun(ctx, st, formatPersona, completer.Name()); err != nil {
					fmt.Fprintf(os.Stderr, "Failed to persist run: %v\n", err)
				}
			}
		}

		if st.Error != "" {
			return fmt.Errorf("formatting failed: %s", st.Error)
		}

		if err := writeOutput(formatOutput, st.FormattedDraft); err != nil {
			return err
		}

		fmt.Printf("Run %s: %s (score %.2f, %d attempt(s))\n",
			st.RunID, st.FormattingState, st.FormattingScore, st.FormattingAttempts)
		if len(st.FormattingMissing) > 0 {
			fmt.Printf("Unmet checks: %v\n", st.FormattingMissing)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(formatCmd)

	formatCmd.Flags().StringVarP(&formatInput, "input", "i", "", "Input markdown draft (required)")
	formatCmd.Flags().StringVarP(&formatOutput, "output", "o", "", "Output file for the formatted post (required)")
	formatCmd.Flags().StringVar(&formatPersona, "persona", "", "Writing persona (default built-in)")

	formatCmd.Flags().StringVar(&formatProvider, "provider", "ollama", "LLM provider: ollama or openrouter")
	formatCmd.Flags().StringVar(&formatOllamaURL, "ollama-url", "http://localhost:11434", "Ollama base URL")
	formatCmd.Flags().StringVar(&formatOllamaModel, "ollama-model", "", "Ollama model (default used if empty)")
	formatCmd.Flags().StringVar(&formatOpenrouterKey, "openrouter-key", "", "OpenRouter API key")
	formatCmd.Flags().StringVar(&formatOpenrouterModel, "openrouter-model", "", "OpenRouter model (default used if empty)")

	formatCmd.Flags().IntVar(&formatMaxRetries, "max-retries", formatter.DefaultMaxRetries, "Total formatting attempts including the first (1 = no retries)")
	formatCmd.Flags().Float64Var(&formatThreshold, "threshold", formatter.DefaultThreshold, "Minimum validation score to accept a formatted draft")

	formatCmd.Flags().StringVar(&formatDBPath, "db", "./data/draftforge.db", "Database path for run history")
	formatCmd.Flags().BoolVar(&formatNoStore, "no-store", false, "Do not persist the run")
	formatCmd.Flags().BoolVarP(&formatVerbose, "verbose", "v", false, "Verbose logging")

	formatCmd.MarkFlagRequired("input")
	formatCmd.MarkFlagRequired("output")
}

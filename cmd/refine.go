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
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mlutsiv/draftforge/internal/formatter"
	"github.com/mlutsiv/draftforge/internal/markdown"
	"github.com/mlutsiv/draftforge/internal/refine"
	"github.com/mlutsiv/draftforge/internal/store"
)

var (
	inputFile  string
	outputFile string

	personaName  string
	providerName string

	ollamaURL       string
	ollamaModel     string
	openrouterKey   string
	openrouterModel string

	maxRetries int
	threshold  float64

	dbPath      string
	noStore     bool
	htmlPreview bool
	verbose     bool
)

var refineCmd = &cobra.Command{
	Use:   "refine",
	Short: "Run the full refinement pipeline on a draft",
	Long: `Run the full pipeline: generate introduction, conclusion, summary, and
title options, assemble the refined draft, apply a clarity pass, then
format the result under rubric validation.

The formatted draft is written to the output file. Title options and the
attempt history are printed and, unless --no-store is set, persisted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if inputFile == outputFile {
			return fmt.Errorf("input file and output file cannot be the same")
		}

		raw, err := os.ReadFile(inputFile)
		if err != nil {
			return fmt.Errorf("failed to read input file: %w", err)
		}

		log, err := buildLogger(verbose)
		if err != nil {
			return fmt.Errorf("failed to build logger: %w", err)
		}
		defer log.Sync()

		completer, err := buildProvider(providerName, ollamaURL, ollamaModel, openrouterKey, openrouterModel)
		if err != nil {
			return err
		}

		guidance, err := personaRegistry().Guidance(personaName)
		if err != nil {
			return err
		}

		loop := formatter.NewLoop(completer, formatter.Config{
			MaxRetries: maxRetries,
			Threshold:  threshold,
			Weights:    rubricWeights(),
		}, log)

		ctx := context.Background()
		pipe := refine.NewPipeline(completer, loop, guidance, log)
		st := pipe.Run(ctx, string(raw))

		if !noStore && dbPath != "" {
			db, err := store.New(dbPath)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Failed to open database, run not persisted: %v\n", err)
			} else {
				defer db.Close()
				if err := db.SaveRun(ctx, st, personaName, completer.Name()); err != nil {
					fmt.Fprintf(os.Stderr, "Failed to persist run: %v\n", err)
				}
			}
		}

		if st.Error != "" {
			return fmt.Errorf("pipeline failed: %s", st.Error)
		}

		if err := writeOutput(outputFile, st.FormattedDraft); err != nil {
			return err
		}
		if htmlPreview {
			preview := outputFile + ".html"
			if err := writeOutput(preview, markdown.ToHTML([]byte(st.FormattedDraft))); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "HTML preview: %s\n", preview)
		}

		printRunReport(st)
		return nil
	},
}

func writeOutput(path, content string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

func printRunReport(st refine.State) {
	fmt.Printf("Run %s: %s (score %.2f, %d attempt(s))\n",
		st.RunID, st.FormattingState, st.FormattingScore, st.FormattingAttempts)
	if len(st.FormattingMissing) > 0 {
		fmt.Printf("Unmet checks: %v\n", st.FormattingMissing)
	}
	if st.Summary != "" {
		fmt.Printf("\nSummary: %s\n", st.Summary)
	}
	if len(st.TitleOptions) > 0 {
		fmt.Println("\nTitle options:")
		for i, opt := range st.TitleOptions {
			fmt.Printf("  %d. %s\n", i+1, opt.Title)
			if opt.Subtitle != "" {
				fmt.Printf("     %s\n", opt.Subtitle)
			}
		}
	}
}

func init() {
	rootCmd.AddCommand(refineCmd)

	refineCmd.Flags().StringVarP(&inputFile, "input", "i", "", "Input markdown draft (required)")
	refineCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file for the formatted post (required)")
	refineCmd.Flags().StringVar(&personaName, "persona", "", "Writing persona (default built-in)")

	refineCmd.Flags().StringVar(&providerName, "provider", "ollama", "LLM provider: ollama or openrouter")
	refineCmd.Flags().StringVar(&ollamaURL, "ollama-url", "http://localhost:11434", "Ollama base URL")
	refineCmd.Flags().StringVar(&ollamaModel, "ollama-model", "", "Ollama model (default used if empty)")
	refineCmd.Flags().StringVar(&openrouterKey, "openrouter-key", "", "OpenRouter API key")
	refineCmd.Flags().StringVar(&openrouterModel, "openrouter-model", "", "OpenRouter model (default used if empty)")

	refineCmd.Flags().IntVar(&maxRetries, "max-retries", formatter.DefaultMaxRetries, "Total formatting attempts including the first (1 = no retries)")
	refineCmd.Flags().Float64Var(&threshold, "threshold", formatter.DefaultThreshold, "Minimum validation score to accept a formatted draft")

	refineCmd.Flags().StringVar(&dbPath, "db", "./data/draftforge.db", "Database path for run history")
	refineCmd.Flags().BoolVar(&noStore, "no-store", false, "Do not persist the run")
	refineCmd.Flags().BoolVar(&htmlPreview, "html", false, "Also write an HTML preview next to the output file")
	refineCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")

	refineCmd.MarkFlagRequired("input")
	refineCmd.MarkFlagRequired("output")
}

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
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mlutsiv/draftforge/internal/store"
)

var runsDBPath string

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Manage stored pipeline runs",
	Long:  `List, inspect, and delete persisted pipeline runs and their attempt histories.`,
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := store.New(runsDBPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		runs, err := db.ListRuns(context.Background())
		if err != nil {
			return fmt.Errorf("failed to list runs: %w", err)
		}

		if len(runs) == 0 {
			fmt.Println("No stored runs.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCREATED\tPERSONA\tPROVIDER\tSTATE\tSCORE\tATTEMPTS\tERROR")
		for _, r := range runs {
			errMsg := r.Error
			if len(errMsg) > 40 {
				errMsg = errMsg[:37] + "..."
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%.2f\t%d\t%s\n",
				r.ID, r.CreatedAt.Format("2006-01-02 15:04"),
				r.Persona, r.Provider, r.State, r.Score, r.Attempts, errMsg)
		}
		return w.Flush()
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one run with its attempt history and title options",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := store.New(runsDBPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		st, err := db.GetRun(context.Background(), args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Run:      %s\n", st.RunID)
		fmt.Printf("State:    %s\n", st.FormattingState)
		fmt.Printf("Score:    %.2f\n", st.FormattingScore)
		fmt.Printf("Attempts: %d\n", st.FormattingAttempts)
		if st.Error != "" {
			fmt.Printf("Error:    %s\n", st.Error)
		}

		if len(st.FormattingHistory) > 0 {
			fmt.Println("\nAttempt history:")
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "  ATTEMPT\tSCORE\tMISSING")
			for _, rec := range st.FormattingHistory {
				fmt.Fprintf(w, "  %d\t%.2f\t%s\n",
					rec.Attempt, rec.Score, strings.Join(rec.Missing, ", "))
			}
			w.Flush()
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
		return nil
	},
}

var runsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate run statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := store.New(runsDBPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		stats, err := db.Stats(context.Background())
		if err != nil {
			return fmt.Errorf("failed to get stats: %w", err)
		}

		fmt.Printf("Total runs:     %d\n", stats.TotalRuns)
		fmt.Printf("Accepted:       %d\n", stats.AcceptedRuns)
		fmt.Printf("Exhausted:      %d\n", stats.ExhaustedRuns)
		fmt.Printf("Failed:         %d\n", stats.FailedRuns)
		fmt.Printf("Total attempts: %d\n", stats.TotalAttempts)
		fmt.Printf("Average score:  %.2f\n", stats.AverageScore)
		return nil
	},
}

var runsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a stored run by ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := store.New(runsDBPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		if err := db.DeleteRun(context.Background(), args[0]); err != nil {
			return fmt.Errorf("failed to delete run: %w", err)
		}
		fmt.Printf("Deleted run: %s\n", args[0])
		return nil
	},
}

var runsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all stored runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := store.New(runsDBPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		n, err := db.Clear(context.Background())
		if err != nil {
			return fmt.Errorf("failed to clear runs: %w", err)
		}
		fmt.Printf("Cleared %d run(s).\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)

	runsCmd.PersistentFlags().StringVar(&runsDBPath, "db", "./data/draftforge.db", "Database path")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsStatsCmd)
	runsCmd.AddCommand(runsDeleteCmd)
	runsCmd.AddCommand(runsClearCmd)
}

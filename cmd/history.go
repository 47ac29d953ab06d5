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
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/valpere/potrans/internal/store"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded translation runs",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openHistory()
		if err != nil {
			return err
		}
		defer db.Close()

		runs, err := db.ListRuns(cmd.Context(), historyLimit)
		if err != nil {
			return fmt.Errorf("failed to list runs: %w", err)
		}
		if len(runs) == 0 {
			fmt.Println("No runs recorded.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTARTED\tPROVIDER\tMODEL\tLANG\tCATALOGS\tFILLED\tUNFILLED\tHITS\tCOST")
		for _, r := range runs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\t%.4f\n",
				r.ID, r.Started.Format("2006-01-02 15:04"), r.Provider, r.Model, r.Language,
				r.Catalogs, r.Filled, r.Unfilled, r.Hits, r.Cost)
		}
		return w.Flush()
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show the catalogs of one run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openHistory()
		if err != nil {
			return err
		}
		defer db.Close()

		cats, err := db.RunCatalogs(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to load run: %w", err)
		}
		if len(cats) == 0 {
			return fmt.Errorf("no catalogs recorded for run %s", args[0])
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CATALOG\tPENDING\tUNIQUE\tHITS\tFILLED\tUNFILLED\tLEARNED\tCOST\tDURATION")
		for _, c := range cats {
			fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\t%d\t%.4f\t%s\n",
				c.Path, c.Pending, c.Unique, c.CacheHits, c.Filled, c.Unfilled, c.Learned, c.Cost, c.Duration)
		}
		return w.Flush()
	},
}

func openHistory() (*store.Store, error) {
	if cfg.Memory.DBPath == "" {
		return nil, fmt.Errorf("run history requires memory.db_path")
	}
	if _, err := os.Stat(cfg.Memory.DBPath); err != nil {
		return nil, fmt.Errorf("no run history at %s: %w", cfg.Memory.DBPath, err)
	}
	db, err := store.New(cfg.Memory.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyListCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of runs to show")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
}

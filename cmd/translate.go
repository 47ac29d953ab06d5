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
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	dryRun   bool
	noReport bool
	quiet    bool
)

var translateCmd = &cobra.Command{
	Use:   "translate <file.po>",
	Short: "Translate the pending entries of one catalog",
	Long: `Translate every entry of a PO catalog whose msgstr is empty.

The catalog is copied to <file>.backup and rewritten in place. Entries that
already carry a translation are never touched.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("catalog not found: %w", err)
		}

		ctx := cmd.Context()
		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		run, err := translateCatalogs(ctx, s, []string{path}, runOptions{dryRun: dryRun, noReport: noReport, quiet: quiet})
		if err != nil {
			return err
		}
		if len(run.Failures) > 0 {
			return errors.New(run.Failures[0].Error)
		}
		return nil
	},
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Translate without writing catalogs or run history")
	cmd.Flags().BoolVar(&noReport, "no-report", false, "Do not write a report file")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Hide progress bars")
}

func init() {
	rootCmd.AddCommand(translateCmd)
	addRunFlags(translateCmd)
}

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

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/valpere/potrans/internal/catalog"
	"github.com/valpere/potrans/internal/report"
	"github.com/valpere/potrans/internal/verify"
)

var analyzeVerify bool

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file.po|dir>...",
	Short: "Count pending entries and estimate translation cost",
	Long: `Summarise PO catalogs: entries, entries with a source, translated and
pending entries, and source characters. The token and cost estimate uses the
configured price per 1K tokens.

With --verify every catalog is also loaded through the gettext runtime and
translations that do not read back unchanged are listed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var files []string
		for _, arg := range args {
			info, err := os.Stat(arg)
			if err != nil {
				return fmt.Errorf("catalog not found: %w", err)
			}
			if !info.IsDir() {
				files = append(files, arg)
				continue
			}
			found, err := catalog.FindFiles(arg)
			if err != nil {
				return err
			}
			files = append(files, found...)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(w, "CATALOG\tENTRIES\tWITH SOURCE\tTRANSLATED\tPENDING\tCHARS\t")

		var total catalog.Summary
		var issues int
		for _, path := range files {
			c, err := catalog.ParseFile(path)
			if err != nil {
				logger.Warn().Err(err).Str("file", path).Msg("skipping unreadable catalog")
				continue
			}
			s := c.Summarize()
			fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%s\t\n", path, s.Entries, s.WithSource, s.Translated, s.Pending, humanize.Comma(int64(s.SourceChars)))

			total.Entries += s.Entries
			total.WithSource += s.WithSource
			total.Translated += s.Translated
			total.Pending += s.Pending
			total.SourceChars += s.SourceChars

			if analyzeVerify {
				res, err := verify.Catalog(c)
				if err != nil {
					return err
				}
				for _, is := range res.Issues {
					issues++
					fmt.Fprintf(os.Stderr, "%s %s %s\n", yellow("verify:"), path, is)
				}
			}
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%s\t\n", "TOTAL", total.Entries, total.WithSource, total.Translated, total.Pending, humanize.Comma(int64(total.SourceChars)))
		if err := w.Flush(); err != nil {
			return err
		}

		tokens, cost := report.Estimate(total.SourceChars, cfg.Pipeline.PricePer1K)
		fmt.Printf("\nEstimated tokens: %s\n", humanize.Comma(int64(tokens)))
		fmt.Printf("Estimated cost:   %.4f (at %g per 1K tokens)\n", cost, cfg.Pipeline.PricePer1K)

		if analyzeVerify {
			if issues > 0 {
				return fmt.Errorf("%d translations failed verification", issues)
			}
			fmt.Println(green("All translations verified"))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().BoolVar(&analyzeVerify, "verify", false, "Check translations against the gettext runtime")
}

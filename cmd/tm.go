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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/valpere/potrans/internal/memory"
)

var (
	tmListFilter   string
	tmExportFilter string
	tmFormat       string
	tmOutput       string
	tmYes          bool
)

var tmCmd = &cobra.Command{
	Use:   "tm",
	Short: "Manage the translation memory",
	Long: `List, search, edit, export and import the translation memory.

Built-in entries are read-only; every change applies to the learned overlay
and is saved to the configured backend.`,
}

var tmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List translation memory entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := memory.ParseFilter(tmListFilter)
		if err != nil {
			return err
		}
		return withMemory(cmd, false, func(mem *memory.Store) error {
			return printEntries(os.Stdout, mem.List(f))
		})
	},
}

var tmSearchCmd = &cobra.Command{
	Use:   "search <text>",
	Short: "Find entries whose source or translation contains text",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMemory(cmd, false, func(mem *memory.Store) error {
			return printEntries(os.Stdout, mem.Search(args[0]))
		})
	},
}

var tmAddCmd = &cobra.Command{
	Use:   "add <source> <translation>",
	Short: "Add or replace a learned entry",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMemory(cmd, true, func(mem *memory.Store) error {
			if err := mem.Put(args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("Saved: %s → %s\n", args[0], green(args[1]))
			return nil
		})
	},
}

var tmDeleteCmd = &cobra.Command{
	Use:   "delete <source>",
	Short: "Delete a learned entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMemory(cmd, true, func(mem *memory.Store) error {
			if err := mem.Delete(args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted: %s\n", args[0])
			return nil
		})
	},
}

var tmExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export entries as a JSON or YAML map",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := memory.ParseFilter(tmExportFilter)
		if err != nil {
			return err
		}
		return withMemory(cmd, false, func(mem *memory.Store) error {
			var w io.Writer = os.Stdout
			if tmOutput != "" {
				file, err := os.Create(tmOutput)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer file.Close()
				w = file
			}
			return encodeMap(w, mem.Export(f), formatFor(tmOutput))
		})
	},
}

var tmImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a JSON or YAML map into the learned overlay",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read input file: %w", err)
		}
		m, err := decodeMap(data, formatFor(args[0]))
		if err != nil {
			return err
		}
		return withMemory(cmd, true, func(mem *memory.Store) error {
			imported, skipped := mem.Import(m)
			fmt.Printf("Imported %d entries, skipped %d\n", imported, skipped)
			return nil
		})
	},
}

var tmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show translation memory statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMemory(cmd, false, func(mem *memory.Store) error {
			st := mem.Stats()
			fmt.Printf("Total entries:   %d\n", st.Total)
			fmt.Printf("Built-in:        %d\n", st.Builtin)
			fmt.Printf("Learned:         %d\n", st.Learned)
			if st.LastUpdated != "" {
				fmt.Printf("Last updated:    %s\n", st.LastUpdated)
			}
			return nil
		})
	},
}

var tmClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every learned entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !tmYes {
			return errors.New("refusing to clear the learned overlay without --yes")
		}
		return withMemory(cmd, true, func(mem *memory.Store) error {
			n := mem.ClearLearned()
			fmt.Printf("Cleared %d learned entries.\n", n)
			return nil
		})
	},
}

// withMemory opens the configured memory, runs fn and saves when write is set.
func withMemory(cmd *cobra.Command, write bool, fn func(mem *memory.Store) error) error {
	ctx := cmd.Context()
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := fn(s.mem); err != nil {
		return err
	}
	if write {
		if err := s.mem.Save(ctx); err != nil {
			return err
		}
	}
	return nil
}

func printEntries(out io.Writer, entries []memory.Entry) error {
	if len(entries) == 0 {
		fmt.Fprintln(out, "No entries.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SOURCE\tTRANSLATION\tKIND")
	for _, e := range entries {
		kind := "learned"
		if e.Builtin {
			kind = "builtin"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", e.Source, e.Translation, kind)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "\n%d entries\n", len(entries))
	return nil
}

// formatFor picks the encoding from --format, then the file extension.
func formatFor(path string) string {
	if tmFormat != "" {
		return strings.ToLower(tmFormat)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	}
	return "json"
}

func encodeMap(w io.Writer, m map[string]string, format string) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(m); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(m)
	}
	return fmt.Errorf("unknown format %q (want json or yaml)", format)
}

func decodeMap(data []byte, format string) (map[string]string, error) {
	m := make(map[string]string)
	var err error
	switch format {
	case "yaml":
		err = yaml.Unmarshal(data, &m)
	case "json":
		err = json.Unmarshal(data, &m)
	default:
		return nil, fmt.Errorf("unknown format %q (want json or yaml)", format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", format, err)
	}
	return m, nil
}

func init() {
	rootCmd.AddCommand(tmCmd)

	tmListCmd.Flags().StringVar(&tmListFilter, "filter", "all", "Entries to list (all, builtin, learned)")
	tmExportCmd.Flags().StringVar(&tmExportFilter, "filter", "learned", "Entries to export (all, builtin, learned)")
	tmExportCmd.Flags().StringVarP(&tmOutput, "output", "o", "", "Output file (default stdout)")
	tmExportCmd.Flags().StringVar(&tmFormat, "format", "", "json or yaml (default from file extension)")
	tmImportCmd.Flags().StringVar(&tmFormat, "format", "", "json or yaml (default from file extension)")
	tmClearCmd.Flags().BoolVar(&tmYes, "yes", false, "Confirm clearing the learned overlay")

	tmCmd.AddCommand(tmListCmd)
	tmCmd.AddCommand(tmSearchCmd)
	tmCmd.AddCommand(tmAddCmd)
	tmCmd.AddCommand(tmDeleteCmd)
	tmCmd.AddCommand(tmExportCmd)
	tmCmd.AddCommand(tmImportCmd)
	tmCmd.AddCommand(tmStatsCmd)
	tmCmd.AddCommand(tmClearCmd)
}

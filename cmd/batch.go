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
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/valpere/potrans/internal/catalog"
)

var (
	batchLang string
	batchList bool
)

var batchCmd = &cobra.Command{
	Use:   "batch [dir]",
	Short: "Translate every catalog of a language directory",
	Long: `Translate all PO catalogs below <dir>/<lang>, where <dir> defaults to
"localization" and <lang> is a language folder such as zh-Hans.

When --lang is omitted and <dir> holds a single language folder, that folder
is used. The target language defaults to the folder name when it is a valid
language tag.

Catalogs are processed pipeline.concurrency at a time; a catalog that fails
is reported and the others continue.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		base := "localization"
		if len(args) == 1 {
			base = args[0]
		}

		langs, err := catalog.FindLanguageDirs(base)
		if err != nil {
			return err
		}

		if batchList {
			for _, l := range langs {
				files, _ := catalog.FindFiles(filepath.Join(base, l))
				fmt.Printf("  %s (%d catalogs)\n", cyan(l), len(files))
			}
			return nil
		}

		lang, err := selectLanguage(langs, batchLang)
		if err != nil {
			return err
		}
		if !cmd.Flags().Changed("target") {
			if _, err := language.Parse(lang); err == nil {
				cfg.Translator.TargetLang = lang
			}
		}

		files, err := catalog.FindFiles(filepath.Join(base, lang))
		if err != nil {
			return err
		}
		fmt.Printf("Translating %d catalogs in %s to %s\n", len(files), cyan(lang), cfg.Translator.TargetLang)

		ctx := cmd.Context()
		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		_, err = translateCatalogs(ctx, s, files, runOptions{dryRun: dryRun, noReport: noReport, quiet: quiet})
		return err
	},
}

func selectLanguage(langs []string, want string) (string, error) {
	if want != "" {
		if !slices.Contains(langs, want) {
			return "", fmt.Errorf("language directory %q not found (have %s)", want, strings.Join(langs, ", "))
		}
		return want, nil
	}
	if len(langs) == 1 {
		return langs[0], nil
	}
	return "", fmt.Errorf("several language directories found, choose one with --lang: %s", strings.Join(langs, ", "))
}

func init() {
	rootCmd.AddCommand(batchCmd)
	addRunFlags(batchCmd)

	batchCmd.Flags().StringVarP(&batchLang, "lang", "l", "", "Language directory to translate, e.g. zh-Hans")
	batchCmd.Flags().BoolVar(&batchList, "list", false, "List language directories and exit")
}

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
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/valpere/potrans/internal/config"
)

var version = "0.1.0"

var (
	cfgFile   string
	logLevel  string
	logFormat string

	// Overrides applied on top of the loaded configuration.
	providerFlag string
	modelFlag    string
	targetFlag   string
	sourceFlag   string
	backendFlag  string

	cfg    *config.Config
	logger zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "potrans",
	Short: "Batch translator for gettext PO catalogs",
	Long: `potrans fills the untranslated entries of gettext PO catalogs using an LLM
or machine translation backend.

Repeated source strings are translated once. Short UI terms are answered from
a translation memory (a built-in vocabulary plus a learned overlay that grows
as you translate) and never reach the backend.

Use "potrans translate" for a single catalog and "potrans batch" for a
directory of language folders.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := newLogger(logLevel, logFormat)
		if err != nil {
			return err
		}
		logger = l

		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
		applyOverrides(cmd)
		return nil
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "%s %v\n", red("Error:"), err)
		os.Exit(1)
	}
}

func newLogger(level, format string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	switch format {
	case "json":
		return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger(), nil
	case "", "console":
		w := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
		return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
	}
	return zerolog.Logger{}, fmt.Errorf("invalid log format %q (want console or json)", format)
}

func applyOverrides(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("provider") {
		cfg.Translator.Provider = providerFlag
	}
	if flags.Changed("model") {
		cfg.Translator.Model = modelFlag
	}
	if flags.Changed("target") {
		cfg.Translator.TargetLang = targetFlag
	}
	if flags.Changed("source") {
		cfg.Translator.SourceLang = sourceFlag
	}
	if flags.Changed("memory-backend") {
		cfg.Memory.Backend = backendFlag
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "Config file (default ./potrans.yaml when present)")
	pf.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	pf.StringVar(&logFormat, "log-format", "console", "Log format (console or json)")

	pf.StringVar(&providerFlag, "provider", "", "Translation provider (openai, moonshot, openrouter, deepseek, ollama, anthropic, google)")
	pf.StringVar(&modelFlag, "model", "", "Model name")
	pf.StringVarP(&targetFlag, "target", "t", "", "Target language tag, e.g. zh-Hans")
	pf.StringVarP(&sourceFlag, "source", "s", "", "Source language tag")
	pf.StringVar(&backendFlag, "memory-backend", "", "Translation memory backend (json or sqlite)")
}

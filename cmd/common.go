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
	"path/filepath"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/valpere/potrans/internal/memory"
	"github.com/valpere/potrans/internal/pipeline"
	"github.com/valpere/potrans/internal/report"
	"github.com/valpere/potrans/internal/store"
	"github.com/valpere/potrans/internal/translator"
	"github.com/valpere/potrans/internal/validator"
)

var (
	cyan   = color.New(color.Bold, color.FgCyan).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.Bold, color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
)

// session holds what every command that touches the memory needs. db is nil
// when no database path is configured.
type session struct {
	mem *memory.Store
	db  *store.Store
}

func (s *session) Close() {
	if s.db != nil {
		s.db.Close()
	}
}

func openSession(ctx context.Context) (*session, error) {
	s := &session{}

	if cfg.Memory.DBPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Memory.DBPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		db, err := store.New(cfg.Memory.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		s.db = db
	}

	var backend memory.Backend
	switch cfg.Memory.Backend {
	case "sqlite":
		if s.db == nil {
			return nil, fmt.Errorf("sqlite memory backend requires memory.db_path")
		}
		backend = s.db
	default:
		backend = memory.NewFileBackend(cfg.Memory.Path)
	}

	s.mem = memory.New(ctx, backend, logger)
	return s, nil
}

// progress keeps one bar per catalog.
type progress struct {
	mu   sync.Mutex
	bars map[string]*progressbar.ProgressBar
}

func newProgress() *progress {
	return &progress{bars: make(map[string]*progressbar.ProgressBar)}
}

func (p *progress) update(path string, done, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	bar, ok := p.bars[path]
	if !ok {
		bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetDescription(fmt.Sprintf("[cyan]%s[reset]", filepath.Base(path))),
			progressbar.OptionOnCompletion(func() { fmt.Fprintln(os.Stderr) }),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}))
		p.bars[path] = bar
	}
	_ = bar.Set(done)
}

type runOptions struct {
	dryRun   bool
	noReport bool
	quiet    bool
}

// translateCatalogs runs the pipeline over paths and writes the report.
func translateCatalogs(ctx context.Context, s *session, paths []string, opts runOptions) (*report.Run, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	tr, err := translator.New(cfg.Translator)
	if err != nil {
		return nil, err
	}
	if err := tr.IsAvailable(ctx); err != nil {
		return nil, fmt.Errorf("%s is not available: %w", tr.Name(), err)
	}
	model := cfg.Translator.Model
	if r, ok := tr.(translator.Resolved); ok {
		model = r.Model()
		logger.Debug().Str("provider", tr.Name()).Str("base_url", r.BaseURL()).Str("model", model).Msg("translator ready")
	}

	popts := pipeline.Options{
		BatchSize:        cfg.Pipeline.BatchSize,
		HistoryLimit:     cfg.Pipeline.HistoryLimit,
		ChunkTimeout:     cfg.Pipeline.ChunkTimeout,
		MaxLearnedLength: cfg.Pipeline.MaxLearnedLength,
		Pricing:          pipeline.Pricing{PerThousandTokens: cfg.Pipeline.PricePer1K},
	}
	if cfg.Pipeline.LanguageCheck {
		popts.Checker = validator.New(cfg.Translator.SourceLang, cfg.Translator.TargetLang)
	}
	if !opts.quiet {
		popts.OnProgress = newProgress().update
	}
	p := pipeline.New(tr, s.mem, popts, logger.With().Str("provider", tr.Name()).Logger())

	run := &report.Run{
		Started:  time.Now(),
		Provider: tr.Name(),
		Model:    model,
		Language: cfg.Translator.TargetLang,
	}

	rcfg := pipeline.RunnerConfig{
		Concurrency: cfg.Pipeline.Concurrency,
		Backup:      cfg.Pipeline.Backup,
		DryRun:      opts.dryRun,
	}
	if s.db != nil && !opts.dryRun {
		id, err := s.db.StartRun(ctx, store.RunInfo{
			Provider: run.Provider,
			Model:    run.Model,
			Language: run.Language,
			Started:  run.Started,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("run history disabled")
		} else {
			run.ID = id
			rcfg.RunID = id
			rcfg.Recorder = s.db
		}
	}

	runner := pipeline.NewRunner(p, s.mem, rcfg, logger)
	run.Catalogs, run.Failures = runner.TranslateFiles(ctx, paths)
	run.Finished = time.Now()
	run.Memory = s.mem.Stats()

	if run.ID != "" {
		if err := s.db.FinishRun(ctx, run.ID, run.Finished); err != nil {
			logger.Warn().Err(err).Msg("failed to close run history")
		}
	}

	if !opts.noReport {
		format, err := reportFormat()
		if err != nil {
			return run, err
		}
		path, err := report.WriteFile(cfg.Report.Dir, run, format)
		if err != nil {
			logger.Warn().Err(err).Msg("report not written")
		} else {
			fmt.Printf("Report: %s\n", path)
		}
	}

	printSummary(run)
	if t := p.Totals(); t.Chunks > 0 {
		fmt.Printf("  Requests:      %d (avg %s)\n", t.Chunks, t.AverageLatency().Round(time.Millisecond))
	}
	return run, nil
}

func reportFormat() (report.Format, error) {
	return report.ParseFormat(cfg.Report.Format)
}

func printSummary(run *report.Run) {
	t := run.Totals()

	fmt.Println()
	fmt.Println(cyan("Translation summary"))
	fmt.Printf("  Catalogs:      %d (%d failed)\n", t.Files, len(run.Failures))
	fmt.Printf("  Entries:       %s pending of %s\n", humanize.Comma(int64(t.Pending)), humanize.Comma(int64(t.Entries)))
	fmt.Printf("  Unique:        %s (%s duplicates)\n", humanize.Comma(int64(t.Unique)), humanize.Comma(int64(t.Duplicates)))
	fmt.Printf("  Memory hits:   %d (hit rate %.1f%%, %d learned)\n", t.CacheHits, run.Memory.HitRate, t.Learned)
	fmt.Printf("  Filled:        %s\n", green(humanize.Comma(int64(t.Filled))))
	if t.Unfilled > 0 {
		fmt.Printf("  Unfilled:      %s\n", yellow(humanize.Comma(int64(t.Unfilled))))
	}
	fmt.Printf("  Tokens:        %s in, %s out\n", humanize.Comma(int64(t.InputTokens)), humanize.Comma(int64(t.OutputTokens)))
	fmt.Printf("  Cost:          %.4f\n", t.Cost)
	fmt.Printf("  Duration:      %s\n", run.Finished.Sub(run.Started).Round(time.Second))

	for _, f := range run.Failures {
		fmt.Printf("  %s %s: %s\n", red("failed"), f.Path, f.Error)
	}
}

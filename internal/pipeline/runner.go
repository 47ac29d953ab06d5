package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/valpere/potrans/internal/catalog"
	"github.com/valpere/potrans/internal/memory"
	"github.com/valpere/potrans/internal/report"
)

// Recorder stores finished catalog reports under a run id.
type Recorder interface {
	RecordCatalog(ctx context.Context, runID string, c *report.Catalog) error
}

type RunnerConfig struct {
	// Concurrency is the number of catalogs translated at once.
	Concurrency int
	// Backup copies each catalog to <file>.backup before it is rewritten.
	Backup bool
	// DryRun translates without writing catalogs.
	DryRun   bool
	RunID    string
	Recorder Recorder
}

// Runner drives a Pipeline over a list of catalog files.
type Runner struct {
	pipeline *Pipeline
	memory   *memory.Store
	config   RunnerConfig
	logger   zerolog.Logger

	// saveMu serialises memory saves; backends write a single file.
	saveMu sync.Mutex
}

func NewRunner(p *Pipeline, mem *memory.Store, config RunnerConfig, logger zerolog.Logger) *Runner {
	if config.Concurrency < 1 {
		config.Concurrency = 1
	}
	return &Runner{
		pipeline: p,
		memory:   mem,
		config:   config,
		logger:   logger,
	}
}

// TranslateFiles translates every file and returns the reports of those that
// completed, in input order. A file that cannot be read or written is
// reported as a failure and the others continue.
func (r *Runner) TranslateFiles(ctx context.Context, paths []string) ([]*report.Catalog, []report.Failure) {
	reports := make([]*report.Catalog, len(paths))
	errs := make([]error, len(paths))

	var g errgroup.Group
	g.SetLimit(r.config.Concurrency)
	for i, path := range paths {
		g.Go(func() error {
			reports[i], errs[i] = r.translateFile(ctx, path)
			return nil
		})
	}
	_ = g.Wait()

	var done []*report.Catalog
	var failures []report.Failure
	for i, path := range paths {
		if errs[i] != nil {
			r.logger.Error().Err(errs[i]).Str("file", path).Msg("catalog failed")
			failures = append(failures, report.Failure{Path: path, Error: errs[i].Error()})
			continue
		}
		done = append(done, reports[i])
	}
	return done, failures
}

func (r *Runner) translateFile(ctx context.Context, path string) (*report.Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c, err := catalog.ParseFile(path)
	if err != nil {
		return nil, err
	}

	rep := r.pipeline.TranslateCatalog(ctx, path, c)

	if rep.Filled > 0 && !r.config.DryRun {
		if r.config.Backup {
			if _, err := catalog.Backup(path); err != nil {
				return nil, fmt.Errorf("backup %s: %w", path, err)
			}
		}
		if err := c.WriteFile(path); err != nil {
			return nil, fmt.Errorf("write %s: %w", path, err)
		}
	}

	if rep.Learned > 0 {
		r.saveMu.Lock()
		err := r.memory.Save(ctx)
		r.saveMu.Unlock()
		if err != nil {
			r.logger.Warn().Err(err).Str("file", path).Msg("translation memory not saved, continuing in memory")
		}
	}

	if r.config.Recorder != nil && r.config.RunID != "" {
		if err := r.config.Recorder.RecordCatalog(ctx, r.config.RunID, rep); err != nil {
			r.logger.Warn().Err(err).Str("file", path).Msg("run history not recorded")
		}
	}
	return rep, nil
}

// Package pipeline translates the pending entries of PO catalogs. Sources
// are deduplicated, answered from the translation memory where possible and
// sent to the translator in ordered chunks; results fan back out to every
// entry sharing a source.
package pipeline

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/valpere/potrans/internal/catalog"
	"github.com/valpere/potrans/internal/chunker"
	"github.com/valpere/potrans/internal/eligibility"
	"github.com/valpere/potrans/internal/memory"
	"github.com/valpere/potrans/internal/placeholder"
	"github.com/valpere/potrans/internal/report"
	"github.com/valpere/potrans/internal/translator"
)

const (
	DefaultHistoryLimit     = 10
	DefaultMaxLearnedLength = 50
	DefaultPricePer1K       = 0.012
)

// Pricing converts token usage into money for backends that do not price
// their own requests.
type Pricing struct {
	PerThousandTokens float64
}

func (p Pricing) Cost(u translator.Usage) float64 {
	return float64(u.InputTokens+u.OutputTokens) / 1000 * p.PerThousandTokens
}

// Checker inspects a finished translation. Errors are logged, never fatal.
type Checker interface {
	Check(translation string) error
}

type Options struct {
	// BatchSize is the number of unique sources per chunk.
	BatchSize int
	// HistoryLimit bounds the exchanges replayed to the translator. When the
	// history grows past it the older half is dropped. Zero disables
	// history.
	HistoryLimit int
	// ChunkTimeout bounds one translator call. Zero means no limit beyond
	// the caller's context.
	ChunkTimeout time.Duration
	// MaxLearnedLength is the longest result, in characters, that is stored
	// back into the memory.
	MaxLearnedLength int
	Pricing          Pricing
	Checker          Checker
	// OnProgress is called after each chunk with the number of unique
	// sources resolved so far.
	OnProgress func(path string, done, total int)
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		BatchSize:        chunker.DefaultSize,
		HistoryLimit:     DefaultHistoryLimit,
		MaxLearnedLength: DefaultMaxLearnedLength,
		Pricing:          Pricing{PerThousandTokens: DefaultPricePer1K},
	}
}

// Totals is the usage accumulated over every catalog a Pipeline handled.
type Totals struct {
	Chunks       int
	InputTokens  int
	OutputTokens int
	Cost         float64
	// Latency is the summed backend time of successful chunks.
	Latency time.Duration
}

// AverageLatency is the mean backend time per successful chunk.
func (t Totals) AverageLatency() time.Duration {
	if t.Chunks == 0 {
		return 0
	}
	return t.Latency / time.Duration(t.Chunks)
}

type Pipeline struct {
	translator translator.ChunkTranslator
	memory     *memory.Store
	opts       Options
	logger     zerolog.Logger

	mu     sync.Mutex
	totals Totals
}

func New(t translator.ChunkTranslator, mem *memory.Store, opts Options, logger zerolog.Logger) *Pipeline {
	if opts.BatchSize <= 0 {
		opts.BatchSize = chunker.DefaultSize
	}
	if opts.MaxLearnedLength <= 0 {
		opts.MaxLearnedLength = DefaultMaxLearnedLength
	}
	return &Pipeline{
		translator: t,
		memory:     mem,
		opts:       opts,
		logger:     logger,
	}
}

// Totals returns the running usage. Safe for concurrent use.
func (p *Pipeline) Totals() Totals {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.totals
}

func (p *Pipeline) addUsage(u translator.Usage, cost float64, latency time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.totals.Chunks++
	p.totals.Latency += latency
	p.totals.InputTokens += u.InputTokens
	p.totals.OutputTokens += u.OutputTokens
	p.totals.Cost += cost
}

// TranslateCatalog fills the pending entries of c in place and reports what
// happened. Translator failures leave the affected entries untranslated;
// the returned report is never nil.
func (p *Pipeline) TranslateCatalog(ctx context.Context, path string, c *catalog.Catalog) *report.Catalog {
	start := time.Now()
	log := p.logger.With().Str("file", path).Logger()

	pending := c.Pending()
	sources := unique(pending)

	rep := &report.Catalog{
		Path:       path,
		Total:      len(c.Entries),
		Pending:    len(pending),
		Unique:     len(sources),
		Duplicates: len(pending) - len(sources),
	}

	results := make(map[string]string, len(sources))
	cached := make(map[string]bool)
	var history []translator.Exchange
	done := 0

	for i, chunk := range chunker.Split(sources, p.opts.BatchSize) {
		misses, hits := p.memory.PreprocessBatch(chunk)
		rep.CacheHits += len(hits)
		for idx, tr := range hits {
			results[chunk[idx]] = tr
			cached[chunk[idx]] = true
		}

		if len(misses) > 0 {
			translated, exchange := p.translateChunk(ctx, rep, log.With().Int("chunk", i+1).Logger(), misses, history)
			for j, src := range misses {
				tr := repair(src, translated[j])
				if tr == "" {
					continue
				}
				results[src] = tr
				p.inspect(log, src, tr)
				if p.learnable(src, tr) && p.memory.Add(src, tr) {
					rep.Learned++
				}
			}
			if exchange != nil {
				history = p.appendHistory(history, *exchange)
			}
		}

		done += len(chunk)
		if p.opts.OnProgress != nil {
			p.opts.OnProgress(path, done, len(sources))
		}
	}

	for _, src := range sources {
		tr := results[src]
		if tr == "" {
			rep.Failed++
		} else {
			rep.Succeeded++
		}
		rep.Pairs = append(rep.Pairs, report.Pair{Source: src, Translation: tr, Cached: cached[src]})
	}
	for _, e := range pending {
		if tr := results[e.Source]; tr != "" {
			e.Translation = tr
			rep.Filled++
		} else {
			rep.Unfilled++
		}
	}

	rep.Duration = time.Since(start)
	log.Info().
		Int("pending", rep.Pending).
		Int("unique", rep.Unique).
		Int("cache_hits", rep.CacheHits).
		Int("filled", rep.Filled).
		Int("unfilled", rep.Unfilled).
		Dur("duration", rep.Duration).
		Msg("catalog translated")
	return rep
}

// translateChunk calls the translator once and always returns exactly one
// result per text; failures become empty strings.
func (p *Pipeline) translateChunk(ctx context.Context, rep *report.Catalog, log zerolog.Logger, texts []string, history []translator.Exchange) ([]string, *translator.Exchange) {
	out := make([]string, len(texts))
	rep.Chunks++

	cctx := ctx
	if p.opts.ChunkTimeout > 0 {
		var cancel context.CancelFunc
		cctx, cancel = context.WithTimeout(ctx, p.opts.ChunkTimeout)
		defer cancel()
	}

	res, err := p.translator.TranslateChunk(cctx, translator.ChunkRequest{Texts: texts, History: history})
	if err != nil {
		log.Warn().Err(err).Int("texts", len(texts)).Msg("chunk translation failed")
		return out, nil
	}

	cost := res.Cost
	if !res.CostKnown {
		cost = p.opts.Pricing.Cost(res.Usage)
	}
	rep.InputTokens += res.Usage.InputTokens
	rep.OutputTokens += res.Usage.OutputTokens
	rep.Cost += cost
	p.addUsage(res.Usage, cost, res.Latency)
	log.Debug().
		Int("texts", len(texts)).
		Int("input_tokens", res.Usage.InputTokens).
		Int("output_tokens", res.Usage.OutputTokens).
		Dur("latency", res.Latency).
		Msg("chunk translated")

	if len(res.Translations) != len(texts) {
		log.Warn().
			Int("expected", len(texts)).
			Int("got", len(res.Translations)).
			Msg("translation count mismatch, aligning by position")
	}
	copy(out, res.Translations)
	for i := range out {
		out[i] = strings.TrimSpace(out[i])
	}
	return out, res.Exchange
}

func (p *Pipeline) inspect(log zerolog.Logger, src, tr string) {
	if missing := placeholder.Missing(src, tr); len(missing) > 0 || placeholder.Mismatch(src, tr) {
		log.Warn().
			Str("source", src).
			Str("translation", tr).
			Strs("missing", missing).
			Msg("placeholder mismatch")
	}
	if p.opts.Checker != nil {
		if err := p.opts.Checker.Check(tr); err != nil {
			log.Warn().Err(err).Str("source", src).Msg("translation language check failed")
		}
	}
}

func (p *Pipeline) learnable(src, tr string) bool {
	return utf8.RuneCountInString(tr) <= p.opts.MaxLearnedLength && eligibility.IsCacheable(src)
}

func (p *Pipeline) appendHistory(history []translator.Exchange, ex translator.Exchange) []translator.Exchange {
	limit := p.opts.HistoryLimit
	if limit <= 0 {
		return nil
	}
	history = append(history, ex)
	if len(history) > limit {
		keep := limit / 2
		if keep < 1 {
			keep = 1
		}
		history = append([]translator.Exchange(nil), history[len(history)-keep:]...)
	}
	return history
}

// unique returns the distinct sources of entries in first-appearance order.
func unique(entries []*catalog.Entry) []string {
	seen := make(map[string]struct{}, len(entries))
	var out []string
	for _, e := range entries {
		if _, ok := seen[e.Source]; ok {
			continue
		}
		seen[e.Source] = struct{}{}
		out = append(out, e.Source)
	}
	return out
}

// repair restores a trailing escaped newline the model dropped.
func repair(src, tr string) string {
	if tr != "" && strings.HasSuffix(src, `\n`) && !strings.HasSuffix(tr, `\n`) {
		return tr + `\n`
	}
	return tr
}

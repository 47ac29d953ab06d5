// Package report holds the outcome of translating catalogs and renders it
// as text, Markdown or HTML.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/valpere/potrans/internal/memory"
)

// Pair is a unique source and its result. Translation is empty when the
// source could not be translated.
type Pair struct {
	Source      string `json:"source"`
	Translation string `json:"translation"`
	Cached      bool   `json:"cached"`
}

// Catalog is the outcome of translating one catalog. It is built by the
// pipeline and not modified once returned.
type Catalog struct {
	Path string `json:"path"`

	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Unique     int `json:"unique"`
	Duplicates int `json:"duplicates"`

	// Succeeded and Failed count unique sources.
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	// Filled and Unfilled count entries, duplicates included.
	Filled   int `json:"filled"`
	Unfilled int `json:"unfilled"`

	CacheHits int `json:"cache_hits"`
	Learned   int `json:"learned"`
	Chunks    int `json:"chunks"`

	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	Cost         float64 `json:"cost"`

	Duration time.Duration `json:"duration"`
	Pairs    []Pair        `json:"pairs,omitempty"`
}

// Failure records a catalog that could not be processed.
type Failure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// Run is the outcome of one invocation over one or more catalogs.
type Run struct {
	ID       string
	Started  time.Time
	Finished time.Time

	Provider string
	Model    string
	Language string

	Catalogs []*Catalog
	Failures []Failure

	// Memory is the translation memory state after the run.
	Memory memory.Stats
}

// Totals aggregates the per-catalog counts of a run.
type Totals struct {
	Files        int
	Entries      int
	Pending      int
	Unique       int
	Duplicates   int
	Succeeded    int
	Failed       int
	Filled       int
	Unfilled     int
	CacheHits    int
	Learned      int
	InputTokens  int
	OutputTokens int
	Cost         float64
}

// Totals sums the completed catalogs.
func (r *Run) Totals() Totals {
	var t Totals
	for _, c := range r.Catalogs {
		t.Files++
		t.Entries += c.Total
		t.Pending += c.Pending
		t.Unique += c.Unique
		t.Duplicates += c.Duplicates
		t.Succeeded += c.Succeeded
		t.Failed += c.Failed
		t.Filled += c.Filled
		t.Unfilled += c.Unfilled
		t.CacheHits += c.CacheHits
		t.Learned += c.Learned
		t.InputTokens += c.InputTokens
		t.OutputTokens += c.OutputTokens
		t.Cost += c.Cost
	}
	return t
}

// Format selects a renderer.
type Format string

const (
	Text     Format = "text"
	Markdown Format = "markdown"
	HTML     Format = "html"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case "", Text:
		return Text, nil
	case Markdown, "md":
		return Markdown, nil
	case HTML:
		return HTML, nil
	}
	return "", fmt.Errorf("unknown report format %q (want text, markdown or html)", s)
}

func (f Format) ext() string {
	switch f {
	case Markdown:
		return ".md"
	case HTML:
		return ".html"
	}
	return ".txt"
}

// FileName returns the report file name for a run started at t.
func FileName(t time.Time, f Format) string {
	return "translation_report_" + t.Format("20060102_150405") + f.ext()
}

// Render returns the run report in format f.
func Render(r *Run, f Format) string {
	switch f {
	case Markdown:
		return renderMarkdown(r)
	case HTML:
		return renderHTML(r)
	}
	return renderText(r)
}

// WriteFile renders r into dir and returns the path written.
func WriteFile(dir string, r *Run, f Format) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating report dir: %w", err)
	}
	path := filepath.Join(dir, FileName(r.Started, f))
	if err := os.WriteFile(path, []byte(Render(r, f)), 0o644); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}
	return path, nil
}

// Estimate approximates the tokens and cost of translating chars source
// characters: half a token per character for the prompt, and as much again
// for the answer.
func Estimate(chars int, pricePer1K float64) (tokens int, cost float64) {
	tokens = int(float64(chars) * 0.5 * 2)
	return tokens, float64(tokens) / 1000 * pricePer1K
}

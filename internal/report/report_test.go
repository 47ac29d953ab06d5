package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valpere/potrans/internal/memory"
)

func sampleRun() *Run {
	start := time.Date(2026, 3, 4, 5, 6, 7, 0, time.Local)
	return &Run{
		ID:       "run-1",
		Started:  start,
		Finished: start.Add(90 * time.Second),
		Provider: "openai",
		Model:    "moonshot-v1-auto",
		Language: "zh-Hans",
		Catalogs: []*Catalog{
			{
				Path: "zh-Hans/Game.po", Total: 10, Pending: 5, Unique: 4, Duplicates: 1,
				Succeeded: 3, Failed: 1, Filled: 4, Unfilled: 1, CacheHits: 1, Learned: 2,
				InputTokens: 100, OutputTokens: 50, Cost: 0.0018,
				Pairs: []Pair{
					{Source: "XTools|Random", Translation: "XTools|随机", Cached: true},
					{Source: "Broken", Translation: ""},
				},
			},
			{Path: "zh-Hans/Editor.po", Total: 3, Pending: 2, Unique: 2, Succeeded: 2, Filled: 2, Cost: 0.001},
		},
		Failures: []Failure{{Path: "zh-Hans/Bad.po", Error: "line 3: unexpected content"}},
		Memory:   memory.Stats{Hits: 1, Misses: 5, HitRate: 16.7, Builtin: 60, Learned: 2},
	}
}

func TestTotals(t *testing.T) {
	tot := sampleRun().Totals()
	assert.Equal(t, 2, tot.Files)
	assert.Equal(t, 13, tot.Entries)
	assert.Equal(t, 7, tot.Pending)
	assert.Equal(t, 5, tot.Succeeded)
	assert.Equal(t, 6, tot.Filled)
	assert.InDelta(t, 0.0028, tot.Cost, 1e-9)
}

func TestRenderText(t *testing.T) {
	out := Render(sampleRun(), Text)
	assert.Contains(t, out, "Files:            2 (1 failed)")
	assert.Contains(t, out, "Memory queries:   1 hits / 5 misses (16.7%)")
	assert.Contains(t, out, "Cost:             0.0028")
	assert.Contains(t, out, "zh-Hans/Bad.po: line 3: unexpected content")
	assert.Contains(t, out, "-> XTools|随机 [memory]")
	assert.Contains(t, out, "-> (failed)")
}

func TestRenderMarkdown(t *testing.T) {
	out := Render(sampleRun(), Markdown)
	assert.True(t, strings.HasPrefix(out, "# Translation report"))
	assert.Contains(t, out, "| Memory hit rate | 16.7% |")
	assert.Contains(t, out, `| XTools\|Random | XTools\|随机 | yes |`)
	assert.Contains(t, out, "| Broken | *(failed)* |  |")
}

func TestRenderHTML(t *testing.T) {
	out := Render(sampleRun(), HTML)
	assert.Contains(t, out, "<!DOCTYPE html>")
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "zh-Hans/Game.po")
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, Text, f)
	f, err = ParseFormat("md")
	require.NoError(t, err)
	assert.Equal(t, Markdown, f)
	_, err = ParseFormat("pdf")
	assert.Error(t, err)
}

func TestWriteFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "log")
	path, err := WriteFile(dir, sampleRun(), Text)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "translation_report_20260304_050607.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Translation report")
}

func TestEstimate(t *testing.T) {
	tokens, cost := Estimate(1500, 0.012)
	assert.Equal(t, 1500, tokens)
	assert.InDelta(t, 0.018, cost, 1e-12)

	tokens, cost = Estimate(0, 0.012)
	assert.Zero(t, tokens)
	assert.Zero(t, cost)
}

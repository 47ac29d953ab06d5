package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valpere/potrans/internal/catalog"
	"github.com/valpere/potrans/internal/memory"
	"github.com/valpere/potrans/internal/report"
)

type recorder struct {
	mu   sync.Mutex
	runs map[string][]string
}

func (r *recorder) RecordCatalog(_ context.Context, runID string, c *report.Catalog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.runs == nil {
		r.runs = make(map[string][]string)
	}
	r.runs[runID] = append(r.runs[runID], c.Path)
	return nil
}

func writePO(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunner_TranslateFiles(t *testing.T) {
	dir := t.TempDir()
	good := writePO(t, dir, "good.po", entries("Open", "Close"))
	other := writePO(t, dir, "other.po", entries("Open"))
	missing := filepath.Join(dir, "missing.po")

	mem := memory.NewWithVocabulary(context.Background(), nil,
		memory.NewFileBackend(filepath.Join(dir, "tm.json")), zerolog.Nop())
	rec := &recorder{}
	p := New(&scripted{}, mem, DefaultOptions(), zerolog.Nop())
	r := NewRunner(p, mem, RunnerConfig{Concurrency: 2, Backup: true, RunID: "run-1", Recorder: rec}, zerolog.Nop())

	reports, failures := r.TranslateFiles(context.Background(), []string{good, missing, other})

	require.Len(t, reports, 2)
	assert.Equal(t, good, reports[0].Path)
	assert.Equal(t, other, reports[1].Path)
	require.Len(t, failures, 1)
	assert.Equal(t, missing, failures[0].Path)
	assert.NotEmpty(t, failures[0].Error)

	c, err := catalog.ParseFile(good)
	require.NoError(t, err)
	assert.Equal(t, "Open-zh", c.Entries[0].Translation)
	assert.Equal(t, "Close-zh", c.Entries[1].Translation)

	backup, err := os.ReadFile(good + catalog.BackupSuffix)
	require.NoError(t, err)
	assert.Equal(t, entries("Open", "Close"), string(backup))

	_, err = os.Stat(filepath.Join(dir, "tm.json"))
	assert.NoError(t, err, "learned entries are saved")

	assert.ElementsMatch(t, []string{good, other}, rec.runs["run-1"])
}

func TestRunner_DryRun(t *testing.T) {
	dir := t.TempDir()
	path := writePO(t, dir, "a.po", entries("Open"))

	mem := emptyMemory()
	p := New(&scripted{}, mem, DefaultOptions(), zerolog.Nop())
	r := NewRunner(p, mem, RunnerConfig{DryRun: true, Backup: true}, zerolog.Nop())

	reports, failures := r.TranslateFiles(context.Background(), []string{path})
	require.Empty(t, failures)
	require.Len(t, reports, 1)
	assert.Equal(t, 1, reports[0].Filled)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, entries("Open"), string(data))
	assert.NoFileExists(t, path+catalog.BackupSuffix)
}

func TestRunner_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	path := writePO(t, dir, "a.po", entries("Open"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mem := emptyMemory()
	tr := &scripted{}
	r := NewRunner(New(tr, mem, DefaultOptions(), zerolog.Nop()), mem, RunnerConfig{}, zerolog.Nop())
	reports, failures := r.TranslateFiles(ctx, []string{path})

	assert.Empty(t, reports)
	require.Len(t, failures, 1)
	assert.Empty(t, tr.calls())
}

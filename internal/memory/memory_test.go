package memory

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T, backend Backend) *Store {
	t.Helper()
	return New(context.Background(), backend, zerolog.Nop())
}

func TestLookup_Builtin(t *testing.T) {
	s := newStore(t, nil)

	v, ok := s.Lookup("XTools|Random")
	require.True(t, ok)
	assert.Equal(t, "XTools|随机", v)

	hits, misses := s.Counters()
	assert.Equal(t, 1, hits)
	assert.Equal(t, 0, misses)
}

func TestLookup_CaseInsensitive(t *testing.T) {
	s := newStore(t, nil)

	v, ok := s.Lookup("ascending")
	require.True(t, ok)
	assert.Equal(t, "升序", v)

	v, ok = s.Lookup("STATIC MESH")
	require.True(t, ok)
	assert.Equal(t, "静态网格体", v)
}

func TestLookup_TieBreak(t *testing.T) {
	s := NewWithVocabulary(context.Background(), map[string]string{"save": "builtin"}, nil, zerolog.Nop())
	require.NoError(t, s.Put("SAVE", "learned upper"))
	require.NoError(t, s.Put("Save", "learned title"))

	v, ok := s.Lookup("sAvE")
	require.True(t, ok)
	assert.Equal(t, "builtin", v, "built-in key wins among case-insensitive matches")

	s2 := NewWithVocabulary(context.Background(), nil, nil, zerolog.Nop())
	require.NoError(t, s2.Put("Save", "title"))
	require.NoError(t, s2.Put("SAVE", "upper"))
	v, _ = s2.Lookup("save")
	assert.Equal(t, "upper", v, "smallest key wins among learned matches")
}

func TestLookup_Idempotent(t *testing.T) {
	s := newStore(t, nil)

	v1, ok1 := s.Lookup("Nothing Like This")
	h1, m1 := s.Counters()
	v2, ok2 := s.Lookup("Nothing Like This")
	h2, m2 := s.Counters()

	assert.Equal(t, v1, v2)
	assert.Equal(t, ok1, ok2)
	assert.Equal(t, 0, h2-h1)
	assert.Equal(t, 1, m1)
	assert.Equal(t, m1+1, m2)

	s.Lookup("Ascending")
	h3, _ := s.Counters()
	s.Lookup("Ascending")
	h4, _ := s.Counters()
	assert.Equal(t, 1, h4-h3)
}

func TestAdd(t *testing.T) {
	s := newStore(t, nil)
	before := s.Stats()

	assert.False(t, s.Add("Ascending", "上升"), "built-in key is never overwritten")
	v, _ := s.Lookup("Ascending")
	assert.Equal(t, "升序", v)
	assert.Equal(t, before.Learned, s.Stats().Learned)

	assert.False(t, s.Add("", "x"))
	assert.False(t, s.Add("x", ""))

	assert.True(t, s.Add("Open Level", "打开关卡"))
	assert.False(t, s.Add("Open Level", "开启关卡"), "first write wins")
	v, _ = s.Lookup("Open Level")
	assert.Equal(t, "打开关卡", v)
	assert.Equal(t, before.Learned+1, s.Stats().Learned)
}

func TestPreprocessBatch(t *testing.T) {
	s := newStore(t, nil)
	texts := []string{"Ascending", "Open Level", "XTools|Random", "Close Level", "descending"}

	remaining, cached := s.PreprocessBatch(texts)

	assert.Equal(t, len(texts), len(remaining)+len(cached))
	assert.Equal(t, []string{"Open Level", "Close Level"}, remaining)
	assert.Equal(t, map[int]string{0: "升序", 2: "XTools|随机", 4: "降序"}, cached)

	hits, misses := s.Counters()
	assert.Equal(t, 3, hits)
	assert.Equal(t, 2, misses)
}

func TestPreprocessBatch_Empty(t *testing.T) {
	s := newStore(t, nil)
	remaining, cached := s.PreprocessBatch(nil)
	assert.Empty(t, remaining)
	assert.Empty(t, cached)
}

func TestManagement(t *testing.T) {
	s := newStore(t, nil)

	assert.True(t, errors.Is(s.Put("Ascending", "x"), ErrBuiltin))
	assert.True(t, errors.Is(s.Put("", "x"), ErrEmpty))
	require.NoError(t, s.Put("Open Level", "打开关卡"))
	require.NoError(t, s.Put("Open Level", "开启关卡"))
	v, _ := s.Lookup("Open Level")
	assert.Equal(t, "开启关卡", v)

	assert.True(t, errors.Is(s.Delete("Ascending"), ErrBuiltin))
	assert.True(t, errors.Is(s.Delete("Missing"), ErrNotFound))
	require.NoError(t, s.Delete("Open Level"))
	_, ok := s.Lookup("open level")
	assert.False(t, ok, "folded index is updated on delete")

	s.Add("A1", "a")
	s.Add("B1", "b")
	assert.Equal(t, 2, s.ClearLearned())
	assert.Equal(t, 0, s.Stats().Learned)
	assert.Equal(t, len(builtinPhrases), s.Stats().Total)
}

func TestListSearchExport(t *testing.T) {
	s := newStore(t, nil)
	s.Add("Open Level", "打开关卡")

	learned := s.List(LearnedOnly)
	require.Len(t, learned, 1)
	assert.Equal(t, Entry{Source: "Open Level", Translation: "打开关卡"}, learned[0])

	builtin := s.List(BuiltinOnly)
	assert.Len(t, builtin, len(builtinPhrases))
	for i := 1; i < len(builtin); i++ {
		assert.Less(t, builtin[i-1].Source, builtin[i].Source)
	}

	found := s.Search("level")
	require.Len(t, found, 1)
	found = s.Search("升序")
	require.Len(t, found, 1)
	assert.Equal(t, "Ascending", found[0].Source)
	assert.True(t, found[0].Builtin)

	assert.Equal(t, map[string]string{"Open Level": "打开关卡"}, s.Export(LearnedOnly))
	assert.Len(t, s.Export(All), len(builtinPhrases)+1)
}

func TestImport(t *testing.T) {
	s := newStore(t, nil)
	imported, skipped := s.Import(map[string]string{
		"Ascending":  "x",
		"Open Level": "打开关卡",
		"Empty":      "",
	})
	assert.Equal(t, 1, imported)
	assert.Equal(t, 2, skipped)
	v, _ := s.Lookup("Ascending")
	assert.Equal(t, "升序", v)
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter("learned")
	require.NoError(t, err)
	assert.Equal(t, LearnedOnly, f)
	f, err = ParseFilter("")
	require.NoError(t, err)
	assert.Equal(t, All, f)
	_, err = ParseFilter("bogus")
	assert.Error(t, err)
}

func TestHitRate(t *testing.T) {
	assert.Equal(t, 0.0, HitRate(0, 0))
	assert.Equal(t, 33.3, HitRate(1, 2))
	assert.Equal(t, 66.7, HitRate(2, 1))
	assert.Equal(t, 100.0, HitRate(5, 0))
}

func TestFileBackend_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "tm.json")
	s := newStore(t, NewFileBackend(path))
	s.Add("Open Level", "打开关卡")
	s.Lookup("Ascending")
	require.NoError(t, s.Save(context.Background()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Contains(t, doc, "learned")
	assert.Contains(t, doc, "last_updated")
	assert.Contains(t, doc, "stats")

	var learned map[string]string
	require.NoError(t, json.Unmarshal(doc["learned"], &learned))
	assert.Equal(t, map[string]string{"Open Level": "打开关卡"}, learned, "built-ins are not persisted")

	reloaded := newStore(t, NewFileBackend(path))
	v, ok := reloaded.Lookup("Open Level")
	require.True(t, ok)
	assert.Equal(t, "打开关卡", v)
	assert.NotEmpty(t, reloaded.Stats().LastUpdated)
}

func TestFileBackend_MissingAndCorrupt(t *testing.T) {
	dir := t.TempDir()

	s := newStore(t, NewFileBackend(filepath.Join(dir, "missing.json")))
	assert.Equal(t, 0, s.Stats().Learned)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o644))
	s = newStore(t, NewFileBackend(bad))
	assert.Equal(t, 0, s.Stats().Learned)
	assert.Equal(t, len(builtinPhrases), s.Stats().Total)
}

func TestFileBackend_LoadSkipsBuiltinKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tm.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"learned":{"Ascending":"上升","Open Level":"打开关卡"}}`), 0o644))

	s := newStore(t, NewFileBackend(path))
	v, _ := s.Lookup("Ascending")
	assert.Equal(t, "升序", v)
	assert.Equal(t, 1, s.Stats().Learned)
}

type failingBackend struct{}

func (failingBackend) Load(context.Context) (*Document, error) { return nil, errors.New("disk gone") }
func (failingBackend) Save(context.Context, *Document) error   { return errors.New("disk gone") }

func TestStore_BackendFailures(t *testing.T) {
	s := newStore(t, failingBackend{})
	assert.True(t, s.Add("Open Level", "打开关卡"), "store keeps working in memory")
	assert.Error(t, s.Save(context.Background()))
}

func TestStore_Concurrent(t *testing.T) {
	s := newStore(t, nil)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Lookup("Ascending")
				s.Add("Open Level", "打开关卡")
				s.PreprocessBatch([]string{"Open Level", "Nope"})
			}
		}()
	}
	wg.Wait()

	hits, misses := s.Counters()
	assert.Equal(t, 8*100*2, hits)
	assert.Equal(t, 8*100, misses)
}

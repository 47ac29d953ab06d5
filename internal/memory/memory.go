// Package memory implements the translation memory: a fixed built-in
// vocabulary merged with a learned overlay that is loaded from and saved to a
// Backend.
package memory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var (
	// ErrBuiltin is returned when a management operation targets a built-in key.
	ErrBuiltin = errors.New("entry is part of the built-in vocabulary")
	// ErrNotFound is returned when a learned entry does not exist.
	ErrNotFound = errors.New("entry not found")
	// ErrEmpty is returned when a source or translation is empty.
	ErrEmpty = errors.New("source and translation must not be empty")
)

// TimeLayout is the format of Document.LastUpdated.
const TimeLayout = "2006-01-02 15:04:05"

// Entry is one source → translation pair with its provenance.
type Entry struct {
	Source      string `json:"source" yaml:"source"`
	Translation string `json:"translation" yaml:"translation"`
	Builtin     bool   `json:"builtin" yaml:"builtin"`
}

// Filter selects entries by provenance.
type Filter int

const (
	All Filter = iota
	BuiltinOnly
	LearnedOnly
)

// ParseFilter maps "all", "builtin" and "learned" to a Filter.
func ParseFilter(s string) (Filter, error) {
	switch strings.ToLower(s) {
	case "", "all":
		return All, nil
	case "builtin", "built-in":
		return BuiltinOnly, nil
	case "learned":
		return LearnedOnly, nil
	}
	return All, fmt.Errorf("unknown filter %q (want all, builtin or learned)", s)
}

func (f Filter) match(builtin bool) bool {
	switch f {
	case BuiltinOnly:
		return builtin
	case LearnedOnly:
		return !builtin
	}
	return true
}

// Stats summarises the store and its lookup counters.
type Stats struct {
	Total       int     `json:"total_entries"`
	Builtin     int     `json:"builtin_entries"`
	Learned     int     `json:"learned_entries"`
	Hits        int     `json:"cache_hits"`
	Misses      int     `json:"cache_misses"`
	HitRate     float64 `json:"hit_rate"`
	LastUpdated string  `json:"last_updated,omitempty"`
}

// Store is safe for concurrent use.
type Store struct {
	mu sync.Mutex

	entries map[string]string
	builtin map[string]struct{}
	// folded maps a case-folded key to every stored key with that folding.
	folded map[string][]string

	hits, misses int
	lastUpdated  time.Time

	backend Backend
	logger  zerolog.Logger
}

// New returns a store seeded with the built-in vocabulary and merges the
// learned overlay from backend. A nil backend gives an in-memory store.
// Load failures are logged and leave the overlay empty.
func New(ctx context.Context, backend Backend, logger zerolog.Logger) *Store {
	return NewWithVocabulary(ctx, builtinPhrases, backend, logger)
}

// NewWithVocabulary is New with a caller-supplied built-in vocabulary.
func NewWithVocabulary(ctx context.Context, vocabulary map[string]string, backend Backend, logger zerolog.Logger) *Store {
	s := &Store{
		entries: make(map[string]string, len(vocabulary)),
		builtin: make(map[string]struct{}, len(vocabulary)),
		folded:  make(map[string][]string, len(vocabulary)),
		backend: backend,
		logger:  logger,
	}
	for k, v := range vocabulary {
		s.builtin[k] = struct{}{}
		s.insert(k, v)
	}

	if backend == nil {
		return s
	}

	doc, err := backend.Load(ctx)
	switch {
	case err != nil:
		logger.Warn().Err(err).Msg("could not load translation memory, starting with an empty learned set")
	case doc == nil:
		logger.Debug().Msg("no saved translation memory")
	default:
		loaded := 0
		for k, v := range doc.Learned {
			k = normalize(k)
			if k == "" || v == "" || s.isBuiltin(k) {
				continue
			}
			if _, ok := s.entries[k]; ok {
				continue
			}
			s.insert(k, v)
			loaded++
		}
		if t, err := time.ParseInLocation(TimeLayout, doc.LastUpdated, time.Local); err == nil {
			s.lastUpdated = t
		}
		logger.Debug().Int("learned", loaded).Msg("translation memory loaded")
	}
	return s
}

func normalize(s string) string {
	return norm.NFC.String(s)
}

func fold(s string) string {
	return cases.Fold().String(s)
}

func (s *Store) isBuiltin(key string) bool {
	_, ok := s.builtin[key]
	return ok
}

// insert must be called with mu held (or before the store is shared).
func (s *Store) insert(key, value string) {
	if _, exists := s.entries[key]; !exists {
		f := fold(key)
		s.folded[f] = append(s.folded[f], key)
	}
	s.entries[key] = value
}

func (s *Store) remove(key string) {
	delete(s.entries, key)
	f := fold(key)
	keys := s.folded[f]
	for i, k := range keys {
		if k == key {
			keys = append(keys[:i], keys[i+1:]...)
			break
		}
	}
	if len(keys) == 0 {
		delete(s.folded, f)
	} else {
		s.folded[f] = keys
	}
}

func (s *Store) lookupLocked(text string) (string, bool) {
	key := normalize(text)
	if v, ok := s.entries[key]; ok {
		return v, true
	}

	candidates := s.folded[fold(key)]
	if len(candidates) == 0 {
		return "", false
	}
	// Built-in keys win, then the lexicographically smallest key.
	best := ""
	bestBuiltin := false
	for _, k := range candidates {
		b := s.isBuiltin(k)
		switch {
		case best == "":
		case b && !bestBuiltin:
		case b == bestBuiltin && k < best:
		default:
			continue
		}
		best, bestBuiltin = k, b
	}
	return s.entries[best], true
}

// Lookup returns the translation for text. It tries an exact match first and
// falls back to a case-insensitive match. Every call counts a hit or a miss.
func (s *Store) Lookup(text string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.lookupLocked(text)
	if ok {
		s.hits++
	} else {
		s.misses++
	}
	return v, ok
}

// Add records a learned translation. It does nothing when either value is
// empty, when source is a built-in key, or when source is already known.
// It reports whether the entry was added.
func (s *Store) Add(source, translation string) bool {
	if source == "" || translation == "" {
		return false
	}
	key := normalize(source)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isBuiltin(key) {
		return false
	}
	if _, ok := s.entries[key]; ok {
		return false
	}
	s.insert(key, translation)
	s.lastUpdated = time.Now()
	return true
}

// PreprocessBatch splits texts into cache hits and misses. remaining holds
// the misses in input order; cached maps an input index to its translation.
func (s *Store) PreprocessBatch(texts []string) (remaining []string, cached map[int]string) {
	cached = make(map[int]string)

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, t := range texts {
		if v, ok := s.lookupLocked(t); ok {
			s.hits++
			cached[i] = v
			continue
		}
		s.misses++
		remaining = append(remaining, t)
	}
	return remaining, cached
}

// Put sets a learned translation, replacing an existing learned value.
func (s *Store) Put(source, translation string) error {
	if source == "" || translation == "" {
		return ErrEmpty
	}
	key := normalize(source)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isBuiltin(key) {
		return fmt.Errorf("%q: %w", source, ErrBuiltin)
	}
	s.insert(key, translation)
	s.lastUpdated = time.Now()
	return nil
}

// Delete removes a learned entry.
func (s *Store) Delete(source string) error {
	key := normalize(source)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isBuiltin(key) {
		return fmt.Errorf("%q: %w", source, ErrBuiltin)
	}
	if _, ok := s.entries[key]; !ok {
		return fmt.Errorf("%q: %w", source, ErrNotFound)
	}
	s.remove(key)
	s.lastUpdated = time.Now()
	return nil
}

// ClearLearned removes every learned entry and returns how many were removed.
func (s *Store) ClearLearned() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for k := range s.entries {
		if s.isBuiltin(k) {
			continue
		}
		s.remove(k)
		n++
	}
	if n > 0 {
		s.lastUpdated = time.Now()
	}
	return n
}

// List returns the entries matching f, sorted by source.
func (s *Store) List(f Filter) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Entry
	for k, v := range s.entries {
		b := s.isBuiltin(k)
		if f.match(b) {
			out = append(out, Entry{Source: k, Translation: v, Builtin: b})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Source < out[j].Source })
	return out
}

// Search returns the entries whose source or translation contains query,
// ignoring case, sorted by source.
func (s *Store) Search(query string) []Entry {
	q := fold(query)
	var out []Entry
	for _, e := range s.List(All) {
		if strings.Contains(fold(e.Source), q) || strings.Contains(fold(e.Translation), q) {
			out = append(out, e)
		}
	}
	return out
}

// Export returns the entries matching f as a source → translation map.
func (s *Store) Export(f Filter) map[string]string {
	out := make(map[string]string)
	for _, e := range s.List(f) {
		out[e.Source] = e.Translation
	}
	return out
}

// Import adds learned entries from m, overwriting learned values. Built-in
// keys and empty values are skipped.
func (s *Store) Import(m map[string]string) (imported, skipped int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, v := range m {
		key := normalize(k)
		if key == "" || v == "" || s.isBuiltin(key) {
			skipped++
			continue
		}
		s.insert(key, v)
		imported++
	}
	if imported > 0 {
		s.lastUpdated = time.Now()
	}
	return imported, skipped
}

// Counters returns the current hit and miss counts.
func (s *Store) Counters() (hits, misses int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits, s.misses
}

// Stats returns entry counts and the lookup hit rate as a percentage
// rounded to one decimal.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statsLocked()
}

func (s *Store) statsLocked() Stats {
	st := Stats{
		Total:   len(s.entries),
		Builtin: len(s.builtin),
		Learned: len(s.entries) - len(s.builtin),
		Hits:    s.hits,
		Misses:  s.misses,
		HitRate: HitRate(s.hits, s.misses),
	}
	if !s.lastUpdated.IsZero() {
		st.LastUpdated = s.lastUpdated.Format(TimeLayout)
	}
	return st
}

// HitRate returns hits/(hits+misses) as a percentage rounded to one decimal.
func HitRate(hits, misses int) float64 {
	if hits+misses == 0 {
		return 0
	}
	return math.Round(float64(hits)/float64(hits+misses)*1000) / 10
}

// Save writes the learned overlay to the backend. It is a no-op for an
// in-memory store.
func (s *Store) Save(ctx context.Context) error {
	if s.backend == nil {
		return nil
	}

	s.mu.Lock()
	learned := make(map[string]string, len(s.entries)-len(s.builtin))
	for k, v := range s.entries {
		if !s.isBuiltin(k) {
			learned[k] = v
		}
	}
	now := time.Now()
	s.lastUpdated = now
	doc := &Document{
		Learned:     learned,
		LastUpdated: now.Format(TimeLayout),
		Stats:       s.statsLocked(),
	}
	s.mu.Unlock()

	if err := s.backend.Save(ctx, doc); err != nil {
		return fmt.Errorf("saving translation memory: %w", err)
	}
	return nil
}

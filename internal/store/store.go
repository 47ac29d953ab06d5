// Package store keeps the learned translation memory and the run history in
// a SQLite database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
	_ "modernc.org/sqlite"

	"github.com/valpere/potrans/internal/memory"
	"github.com/valpere/potrans/internal/report"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer; catalogs may record concurrently.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS learned_memory (
		source_text TEXT PRIMARY KEY,
		translation TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	-- memory_meta holds a single row describing the last save
	CREATE TABLE IF NOT EXISTS memory_meta (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		last_updated TEXT NOT NULL,
		total_entries INTEGER NOT NULL,
		builtin_entries INTEGER NOT NULL,
		learned_entries INTEGER NOT NULL,
		cache_hits INTEGER NOT NULL,
		cache_misses INTEGER NOT NULL,
		hit_rate REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		provider TEXT NOT NULL,
		model TEXT NOT NULL,
		language TEXT NOT NULL,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS run_catalogs (
		run_id TEXT NOT NULL,
		path TEXT NOT NULL,
		total INTEGER NOT NULL,
		pending INTEGER NOT NULL,
		unique_sources INTEGER NOT NULL,
		duplicates INTEGER NOT NULL,
		succeeded INTEGER NOT NULL,
		failed INTEGER NOT NULL,
		filled INTEGER NOT NULL,
		unfilled INTEGER NOT NULL,
		cache_hits INTEGER NOT NULL,
		learned INTEGER NOT NULL,
		input_tokens INTEGER NOT NULL,
		output_tokens INTEGER NOT NULL,
		cost REAL NOT NULL,
		duration_ms INTEGER NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (run_id, path),
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

// normalizeText matches the memory's key form. Padding is significant.
func normalizeText(text string) string {
	return norm.NFC.String(text)
}

// Load implements memory.Backend. It returns nil when nothing was saved.
func (s *Store) Load(ctx context.Context) (*memory.Document, error) {
	doc := &memory.Document{Learned: make(map[string]string)}

	err := s.db.QueryRowContext(ctx,
		`SELECT last_updated, total_entries, builtin_entries, learned_entries, cache_hits, cache_misses, hit_rate FROM memory_meta WHERE id = 1`).
		Scan(&doc.LastUpdated, &doc.Stats.Total, &doc.Stats.Builtin, &doc.Stats.Learned, &doc.Stats.Hits, &doc.Stats.Misses, &doc.Stats.HitRate)
	saved := true
	if errors.Is(err, sql.ErrNoRows) {
		saved = false
	} else if err != nil {
		return nil, err
	}
	doc.Stats.LastUpdated = doc.LastUpdated

	rows, err := s.db.QueryContext(ctx, `SELECT source_text, translation FROM learned_memory`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var src, tr string
		if err := rows.Scan(&src, &tr); err != nil {
			return nil, err
		}
		doc.Learned[src] = tr
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if !saved && len(doc.Learned) == 0 {
		return nil, nil
	}
	return doc, nil
}

// Save implements memory.Backend. The learned table is replaced as a whole.
func (s *Store) Save(ctx context.Context, doc *memory.Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM learned_memory`); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO learned_memory (source_text, translation, updated_at) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for src, tr := range doc.Learned {
		if _, err := stmt.ExecContext(ctx, normalizeText(src), tr, now); err != nil {
			return fmt.Errorf("saving %q: %w", src, err)
		}
	}

	st := doc.Stats
	_, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO memory_meta (id, last_updated, total_entries, builtin_entries, learned_entries, cache_hits, cache_misses, hit_rate) VALUES (1, ?, ?, ?, ?, ?, ?, ?)`,
		doc.LastUpdated, st.Total, st.Builtin, st.Learned, st.Hits, st.Misses, st.HitRate)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// RunInfo describes a run when it starts.
type RunInfo struct {
	Provider string
	Model    string
	Language string
	Started  time.Time
}

// StartRun registers a run and returns its id.
func (s *Store) StartRun(ctx context.Context, info RunInfo) (string, error) {
	id := uuid.New().String()
	if info.Started.IsZero() {
		info.Started = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, provider, model, language, started_at) VALUES (?, ?, ?, ?, ?)`,
		id, info.Provider, info.Model, info.Language, info.Started)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) FinishRun(ctx context.Context, runID string, finished time.Time) error {
	_, err := s.db.ExecContext(ctx, `UPDATE runs SET finished_at = ? WHERE id = ?`, finished, runID)
	return err
}

// RecordCatalog stores the report of one catalog. Recording the same path
// twice within a run replaces the earlier row.
func (s *Store) RecordCatalog(ctx context.Context, runID string, c *report.Catalog) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO run_catalogs (run_id, path, total, pending, unique_sources, duplicates, succeeded, failed, filled, unfilled, cache_hits, learned, input_tokens, output_tokens, cost, duration_ms) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, c.Path, c.Total, c.Pending, c.Unique, c.Duplicates, c.Succeeded, c.Failed, c.Filled, c.Unfilled,
		c.CacheHits, c.Learned, c.InputTokens, c.OutputTokens, c.Cost, c.Duration.Milliseconds())
	return err
}

// RunSummary is a row of the run history.
type RunSummary struct {
	ID       string
	Provider string
	Model    string
	Language string
	Started  time.Time
	Finished sql.NullTime
	Catalogs int
	Filled   int
	Unfilled int
	Hits     int
	Cost     float64
}

// ListRuns returns the most recent runs first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			r.id, r.provider, r.model, r.language, r.started_at, r.finished_at,
			COUNT(c.path),
			COALESCE(SUM(c.filled), 0),
			COALESCE(SUM(c.unfilled), 0),
			COALESCE(SUM(c.cache_hits), 0),
			COALESCE(SUM(c.cost), 0)
		FROM runs r
		LEFT JOIN run_catalogs c ON c.run_id = r.id
		GROUP BY r.id
		ORDER BY r.started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.ID, &r.Provider, &r.Model, &r.Language, &r.Started, &r.Finished,
			&r.Catalogs, &r.Filled, &r.Unfilled, &r.Hits, &r.Cost); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// RunCatalogs returns the catalog reports recorded for runID, by path.
func (s *Store) RunCatalogs(ctx context.Context, runID string) ([]*report.Catalog, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT path, total, pending, unique_sources, duplicates, succeeded, failed, filled, unfilled, cache_hits, learned, input_tokens, output_tokens, cost, duration_ms FROM run_catalogs WHERE run_id = ? ORDER BY path`,
		runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*report.Catalog
	for rows.Next() {
		var c report.Catalog
		var ms int64
		if err := rows.Scan(&c.Path, &c.Total, &c.Pending, &c.Unique, &c.Duplicates, &c.Succeeded, &c.Failed,
			&c.Filled, &c.Unfilled, &c.CacheHits, &c.Learned, &c.InputTokens, &c.OutputTokens, &c.Cost, &ms); err != nil {
			return nil, err
		}
		c.Duration = time.Duration(ms) * time.Millisecond
		results = append(results, &c)
	}
	return results, rows.Err()
}

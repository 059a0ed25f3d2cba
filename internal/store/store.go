// Package store keeps the state of one editing session in an in-memory
// SQLite database: the translation memory, the glossary and the job log.
// Nothing outlives the process.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
	_ "modernc.org/sqlite"

	"github.com/valpere/uxtran/internal"
	"github.com/valpere/uxtran/internal/prompt"
)

type Store struct {
	db *sql.DB
}

// NewSession opens an empty session store.
func NewSession() (*Store, error) {
	return open(":memory:")
}

func open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// every connection to :memory: is a separate database
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
	CREATE TABLE IF NOT EXISTS memory (
		mode TEXT NOT NULL,
		target_lang TEXT NOT NULL,
		source_text TEXT NOT NULL,
		result_text TEXT NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		usage_count INTEGER DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		last_used TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (mode, target_lang, source_text)
	);

	CREATE TABLE IF NOT EXISTS glossary (
		id TEXT PRIMARY KEY,
		source_lang TEXT NOT NULL,
		target_lang TEXT NOT NULL,
		source_term TEXT NOT NULL,
		target_term TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(source_lang, target_lang, source_term)
	);

	CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY,
		mode TEXT NOT NULL,
		target_lang TEXT NOT NULL DEFAULT '',
		items INTEGER NOT NULL,
		chunks INTEGER NOT NULL,
		degraded INTEGER NOT NULL,
		cancelled BOOLEAN NOT NULL DEFAULT FALSE,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_glossary_lookup ON glossary(source_lang, target_lang);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

// normalizeText trims whitespace and applies Unicode NFC normalization
// for consistent memory key comparison.
func normalizeText(text string) string {
	return norm.NFC.String(strings.TrimSpace(text))
}

// --- translation memory ---

// Lookup returns a remembered result for text under mode.
func (s *Store) Lookup(ctx context.Context, mode internal.Mode, text string) (string, string, bool, error) {
	key := normalizeText(text)
	var result, reason string

	err := s.db.QueryRowContext(ctx,
		`SELECT result_text, reason FROM memory WHERE mode = ? AND target_lang = ? AND source_text = ?`,
		string(mode.Kind), mode.TargetLang, key).Scan(&result, &reason)
	if err == sql.ErrNoRows {
		return "", "", false, nil
	}
	if err != nil {
		return "", "", false, err
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE memory SET usage_count = usage_count + 1, last_used = ? WHERE mode = ? AND target_lang = ? AND source_text = ?`,
		time.Now(), string(mode.Kind), mode.TargetLang, key)

	return result, reason, true, err
}

// Remember stores a result for text under mode, replacing an older one.
func (s *Store) Remember(ctx context.Context, mode internal.Mode, text, result, reason string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO memory (mode, target_lang, source_text, result_text, reason, usage_count, created_at, last_used) VALUES (?, ?, ?, ?, ?, 0, ?, ?)`,
		string(mode.Kind), mode.TargetLang, normalizeText(text), result, reason, time.Now(), time.Now())
	return err
}

// MemoryStats summarises translation memory usage.
type MemoryStats struct {
	Entries    int `json:"entries"`
	TotalUsage int `json:"total_usage"`
}

func (s *Store) MemoryStats(ctx context.Context) (*MemoryStats, error) {
	stats := &MemoryStats{}
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(usage_count), 0) FROM memory`).Scan(&stats.Entries, &stats.TotalUsage)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// ClearMemory removes all memory entries.
func (s *Store) ClearMemory(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM memory`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// --- glossary ---

// GlossaryEntry represents a row in the glossary table.
type GlossaryEntry struct {
	ID         string    `json:"id" yaml:"id"`
	SourceLang string    `json:"source_lang" yaml:"source_lang"`
	TargetLang string    `json:"target_lang" yaml:"target_lang"`
	SourceTerm string    `json:"source_term" yaml:"source_term"`
	TargetTerm string    `json:"target_term" yaml:"target_term"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at"`
}

// AddGlossaryTerm inserts or replaces a glossary entry and returns its id.
func (s *Store) AddGlossaryTerm(ctx context.Context, sourceLang, targetLang, sourceTerm, targetTerm string) (string, error) {
	sourceTerm = normalizeText(sourceTerm)
	targetTerm = strings.TrimSpace(targetTerm)
	if sourceTerm == "" || targetTerm == "" {
		return "", fmt.Errorf("glossary terms must not be empty")
	}

	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO glossary (id, source_lang, target_lang, source_term, target_term, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, strings.ToLower(sourceLang), strings.ToLower(targetLang), sourceTerm, targetTerm, time.Now())
	if err != nil {
		return "", err
	}
	return id, nil
}

// Terms returns the glossary terms for a language pair, ready to embed in a
// translate instruction. An empty sourceLang matches terms of any source
// language, and terms stored without a source language match every source.
func (s *Store) Terms(ctx context.Context, sourceLang, targetLang string) ([]prompt.Term, error) {
	query := `SELECT source_term, target_term FROM glossary WHERE target_lang = ?`
	args := []interface{}{strings.ToLower(targetLang)}
	if sourceLang != "" {
		query += ` AND (source_lang = ? OR source_lang = '')`
		args = append(args, strings.ToLower(sourceLang))
	}
	query += ` ORDER BY source_term`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var terms []prompt.Term
	for rows.Next() {
		var t prompt.Term
		if err := rows.Scan(&t.Source, &t.Target); err != nil {
			return nil, err
		}
		terms = append(terms, t)
	}
	return terms, rows.Err()
}

// ListGlossaryTerms returns all glossary entries, optionally filtered by language
// pair (pass empty strings to return everything).
func (s *Store) ListGlossaryTerms(ctx context.Context, sourceLang, targetLang string) ([]GlossaryEntry, error) {
	query := `SELECT id, source_lang, target_lang, source_term, target_term, created_at FROM glossary`
	var args []interface{}

	switch {
	case sourceLang != "" && targetLang != "":
		query += ` WHERE source_lang = ? AND target_lang = ?`
		args = append(args, strings.ToLower(sourceLang), strings.ToLower(targetLang))
	case sourceLang != "":
		query += ` WHERE source_lang = ?`
		args = append(args, strings.ToLower(sourceLang))
	case targetLang != "":
		query += ` WHERE target_lang = ?`
		args = append(args, strings.ToLower(targetLang))
	}
	query += ` ORDER BY source_lang, target_lang, source_term`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []GlossaryEntry
	for rows.Next() {
		var e GlossaryEntry
		if err := rows.Scan(&e.ID, &e.SourceLang, &e.TargetLang, &e.SourceTerm, &e.TargetTerm, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteGlossaryTerm removes a glossary entry by ID.
func (s *Store) DeleteGlossaryTerm(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM glossary WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("glossary term not found: %s", id)
	}
	return nil
}

// --- job log ---

// Job is one finished pipeline run.
type Job struct {
	ID         string    `json:"id"`
	Mode       string    `json:"mode"`
	TargetLang string    `json:"target_lang,omitempty"`
	Items      int       `json:"items"`
	Chunks     int       `json:"chunks"`
	Degraded   int       `json:"degraded"`
	Cancelled  bool      `json:"cancelled"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

func (s *Store) RecordJob(ctx context.Context, j Job) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs (id, mode, target_lang, items, chunks, degraded, cancelled, started_at, finished_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.ID, j.Mode, j.TargetLang, j.Items, j.Chunks, j.Degraded, j.Cancelled, j.StartedAt, j.FinishedAt)
	return err
}

// ListJobs returns the session's jobs, newest first.
func (s *Store) ListJobs(ctx context.Context) ([]Job, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, mode, target_lang, items, chunks, degraded, cancelled, started_at, finished_at FROM jobs ORDER BY started_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var j Job
		if err := rows.Scan(&j.ID, &j.Mode, &j.TargetLang, &j.Items, &j.Chunks, &j.Degraded, &j.Cancelled, &j.StartedAt, &j.FinishedAt); err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

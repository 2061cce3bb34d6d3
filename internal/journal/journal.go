// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package journal keeps a SQLite history of conversions and mail operations.
package journal

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"
)

// Entry is one recorded operation.
type Entry struct {
	ID        string    `db:"id" json:"id" yaml:"id"`
	Operation string    `db:"operation" json:"operation" yaml:"operation"`
	Source    string    `db:"source" json:"source,omitempty" yaml:"source,omitempty"`
	Target    string    `db:"target" json:"target,omitempty" yaml:"target,omitempty"`
	Status    string    `db:"status" json:"status" yaml:"status"`
	OK        bool      `db:"ok" json:"ok" yaml:"ok"`
	CreatedAt time.Time `db:"created_at" json:"created_at" yaml:"created_at"`
}

// Recorder records entries. The nop recorder is used when the journal is
// disabled or cannot be opened.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

type nopRecorder struct{}

func (nopRecorder) Record(context.Context, Entry) error { return nil }

// Nop returns a Recorder that discards entries.
func Nop() Recorder { return nopRecorder{} }

var migrations = []struct {
	version int
	sql     string
}{
	{
		version: 1,
		sql: `
		CREATE TABLE IF NOT EXISTS entries (
			id TEXT PRIMARY KEY,
			operation TEXT NOT NULL,
			source TEXT NOT NULL DEFAULT '',
			target TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			ok INTEGER NOT NULL,
			created_at TIMESTAMP NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_entries_created ON entries(created_at);
		CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL);
		INSERT INTO schema_version (version) VALUES (1);`,
	},
}

// Store is a journal backed by a SQLite database.
type Store struct {
	db *sqlx.DB
}

// Open opens (or creates) the journal database at path and applies any
// pending schema migrations.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating journal directory: %w", err)
	}

	db, err := sqlx.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	current := 0

	var tableCount int
	err := s.db.Get(&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'")
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}
	if tableCount > 0 {
		if err := s.db.Get(&current, "SELECT COALESCE(MAX(version), 0) FROM schema_version"); err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}
	return nil
}

// Record inserts e. A missing ID or timestamp is filled in.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	e.CreatedAt = e.CreatedAt.UTC()

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO entries (id, operation, source, target, status, ok, created_at)
		VALUES (:id, :operation, :source, :target, :status, :ok, :created_at)`, e)
	if err != nil {
		return fmt.Errorf("recording %s: %w", e.Operation, err)
	}
	return nil
}

// List returns up to limit entries, newest first. A limit of zero or less
// returns every entry.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	query := "SELECT id, operation, source, target, status, ok, created_at FROM entries ORDER BY created_at DESC, rowid DESC"
	var args []interface{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var entries []Entry
	if err := s.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("listing journal: %w", err)
	}
	return entries, nil
}

// Export writes entries to w as a YAML list.
func Export(w io.Writer, entries []Entry) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("encoding journal: %w", err)
	}
	return enc.Close()
}

// Package store implements the versioned-table engine on SQLite.
// It manages branches, commits, per-branch table state, and the single
// current-branch cursor.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultBranch is the branch created on a fresh repository.
const DefaultBranch = "main"

// Engine-level failures surfaced to callers unchanged.
var (
	ErrBranchNotFound = errors.New("branch not found")
	ErrBranchExists   = errors.New("branch already exists")
	ErrTableNotFound  = errors.New("table not found")
	ErrTableExists    = errors.New("table already exists")
	ErrNothingStaged  = errors.New("nothing staged for commit")
)

// Store represents the SQLite database store
type Store struct {
	db *sql.DB
}

// New creates a new store connection
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Initialize creates the database schema and the default branch.
func (s *Store) Initialize() error {
	schema := `
	-- Branches (named lines of table history)
	CREATE TABLE IF NOT EXISTS branches (
		name TEXT PRIMARY KEY,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Commits
	CREATE TABLE IF NOT EXISTS commits (
		hash TEXT PRIMARY KEY,
		branch TEXT NOT NULL,
		parent_hash TEXT,
		author TEXT NOT NULL,
		message TEXT NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (branch) REFERENCES branches(name)
	);

	-- Table definitions, per branch
	CREATE TABLE IF NOT EXISTS table_defs (
		branch TEXT NOT NULL,
		table_name TEXT NOT NULL,
		primary_keys JSON NOT NULL,
		PRIMARY KEY (branch, table_name)
	);

	-- Row state, per branch and table
	CREATE TABLE IF NOT EXISTS table_rows (
		branch TEXT NOT NULL,
		table_name TEXT NOT NULL,
		row_key TEXT NOT NULL,
		seq INTEGER NOT NULL,
		row_json JSON NOT NULL,
		PRIMARY KEY (branch, table_name, row_key)
	);

	-- Staging area (tables added but not yet committed)
	CREATE TABLE IF NOT EXISTS staged_tables (
		branch TEXT NOT NULL,
		table_name TEXT NOT NULL,
		staged_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (branch, table_name)
	);

	-- Config (current branch cursor, etc.)
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT
	);

	-- Indexes
	CREATE INDEX IF NOT EXISTS idx_commits_branch ON commits(branch);
	CREATE INDEX IF NOT EXISTS idx_table_rows_seq ON table_rows(branch, table_name, seq);
	`

	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	// Fresh repository starts on the default branch
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM branches").Scan(&count); err != nil {
		return err
	}
	if count == 0 {
		if _, err := s.db.Exec("INSERT INTO branches (name) VALUES (?)", DefaultBranch); err != nil {
			return fmt.Errorf("failed to create default branch: %w", err)
		}
		if err := s.SetCurrentBranch(DefaultBranch); err != nil {
			return err
		}
	}

	return nil
}

// DB returns the underlying database connection for advanced queries
func (s *Store) DB() *sql.DB {
	return s.db
}

// GetValue gets a value from the key-value store
func (s *Store) GetValue(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// SetValue sets a value in the key-value store
func (s *Store) SetValue(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = ?",
		key, value, value,
	)
	return err
}

// parseTimestamp parses a timestamp string from SQLite in various formats
func parseTimestamp(s string) time.Time {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05.999999999+07:00",
		"2006-01-02 15:04:05.999999-07:00",
		"2006-01-02 15:04:05.999999+07:00",
		"2006-01-02 15:04:05-07:00",
		"2006-01-02 15:04:05+07:00",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05Z",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

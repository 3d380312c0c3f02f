// Package history keeps a durable audit trail of remediation attempts in
// SQLite. It is purely diagnostic: nothing in the remediation path depends on
// it, and write failures are logged by callers rather than propagated.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

const schema = `
CREATE TABLE IF NOT EXISTS remediation_attempts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    attempt_id TEXT NOT NULL,
    problem_key TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    source TEXT NOT NULL CHECK(source IN ('memory', 'ai', 'none')),
    command TEXT NOT NULL DEFAULT '',
    is_major INTEGER NOT NULL DEFAULT 0,
    success INTEGER NOT NULL DEFAULT 0,
    output_sample TEXT NOT NULL DEFAULT '',
    started_at DATETIME NOT NULL,
    completed_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_attempts_key ON remediation_attempts(problem_key);
CREATE INDEX IF NOT EXISTS idx_attempts_started ON remediation_attempts(started_at);
`

// Source identifies which branch of the engine produced the command.
type Source string

const (
	// SourceMemory is a cached fix from a prior success.
	SourceMemory Source = "memory"
	// SourceAI is a fresh suggestion from the provider chain.
	SourceAI Source = "ai"
	// SourceNone means no command ran (providers unavailable).
	SourceNone Source = "none"
)

// Attempt is one remediation attempt record.
type Attempt struct {
	ID           int64
	AttemptID    string
	ProblemKey   string
	Description  string
	Source       Source
	Command      string
	IsMajor      bool
	Success      bool
	OutputSample string
	StartedAt    time.Time
	CompletedAt  time.Time
}

// Store is the SQLite-backed attempt log.
type Store struct {
	db *sql.DB
}

// Open creates or opens the history database at path and ensures the schema
// exists.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", "file:"+path+"?_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping history database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores one attempt.
func (s *Store) Record(ctx context.Context, a *Attempt) error {
	const q = `
		INSERT INTO remediation_attempts
			(attempt_id, problem_key, description, source, command, is_major,
			 success, output_sample, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	res, err := s.db.ExecContext(ctx, q,
		a.AttemptID, a.ProblemKey, a.Description, string(a.Source), a.Command,
		a.IsMajor, a.Success, a.OutputSample, a.StartedAt.UTC(), a.CompletedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to record attempt: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		a.ID = id
	}
	return nil
}

// ForKey returns all attempts for one problem key, oldest first.
func (s *Store) ForKey(ctx context.Context, key string) ([]*Attempt, error) {
	const q = `
		SELECT id, attempt_id, problem_key, description, source, command,
		       is_major, success, output_sample, started_at, completed_at
		FROM remediation_attempts
		WHERE problem_key = ?
		ORDER BY started_at ASC
	`
	return s.query(ctx, q, key)
}

// Recent returns the last n attempts, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]*Attempt, error) {
	const q = `
		SELECT id, attempt_id, problem_key, description, source, command,
		       is_major, success, output_sample, started_at, completed_at
		FROM remediation_attempts
		ORDER BY started_at DESC
		LIMIT ?
	`
	return s.query(ctx, q, n)
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]*Attempt, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query attempts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var attempts []*Attempt
	for rows.Next() {
		a := &Attempt{}
		var source string
		if err := rows.Scan(&a.ID, &a.AttemptID, &a.ProblemKey, &a.Description,
			&source, &a.Command, &a.IsMajor, &a.Success, &a.OutputSample,
			&a.StartedAt, &a.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan attempt: %w", err)
		}
		a.Source = Source(source)
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attempt rows: %w", err)
	}
	return attempts, nil
}

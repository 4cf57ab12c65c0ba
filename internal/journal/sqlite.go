package journal

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore initializes the SQLite database and creates necessary tables.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	query := `
	CREATE TABLE IF NOT EXISTS sync_attempts (
		id TEXT PRIMARY KEY,
		repo_path TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL,
		stage TEXT NOT NULL,
		success INTEGER NOT NULL,
		commit_hash TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT ''
	);
	`
	if _, err := db.Exec(query); err != nil {
		return nil, fmt.Errorf("failed to create sync_attempts table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) RecordAttempt(ctx context.Context, record *AttemptRecord) error {
	query := `
	INSERT INTO sync_attempts (id, repo_path, started_at, finished_at, stage, success, commit_hash, error)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		record.ID,
		record.RepoPath,
		record.StartedAt,
		record.FinishedAt,
		record.Stage,
		record.Success,
		record.CommitHash,
		record.Error,
	)
	return err
}

func (s *SQLiteStore) ListAttempts(ctx context.Context, limit int) ([]*AttemptRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
	SELECT id, repo_path, started_at, finished_at, stage, success, commit_hash, error
	FROM sync_attempts ORDER BY started_at DESC LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*AttemptRecord
	for rows.Next() {
		var record AttemptRecord
		if err := rows.Scan(
			&record.ID,
			&record.RepoPath,
			&record.StartedAt,
			&record.FinishedAt,
			&record.Stage,
			&record.Success,
			&record.CommitHash,
			&record.Error,
		); err != nil {
			return nil, err
		}
		records = append(records, &record)
	}
	return records, rows.Err()
}

func (s *SQLiteStore) Summarize(ctx context.Context) (*Summary, error) {
	query := `
	SELECT COUNT(*), COALESCE(SUM(success), 0) FROM sync_attempts
	`
	var summary Summary
	if err := s.db.QueryRowContext(ctx, query).Scan(&summary.Total, &summary.Successes); err != nil {
		return nil, err
	}
	summary.Failures = summary.Total - summary.Successes
	return &summary, nil
}

func (s *SQLiteStore) Close() {
	s.db.Close()
}

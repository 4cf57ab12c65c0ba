package journal

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	store := &PostgresStore{pool: pool}
	if err := store.migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS sync_attempts (
		id TEXT PRIMARY KEY,
		repo_path TEXT NOT NULL,
		started_at TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ NOT NULL,
		stage TEXT NOT NULL,
		success BOOLEAN NOT NULL,
		commit_hash TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT ''
	);
	`
	_, err := s.pool.Exec(ctx, query)
	return err
}

func (s *PostgresStore) RecordAttempt(ctx context.Context, record *AttemptRecord) error {
	query := `
	INSERT INTO sync_attempts (id, repo_path, started_at, finished_at, stage, success, commit_hash, error)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.pool.Exec(
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

func (s *PostgresStore) ListAttempts(ctx context.Context, limit int) ([]*AttemptRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
	SELECT id, repo_path, started_at, finished_at, stage, success, commit_hash, error
	FROM sync_attempts ORDER BY started_at DESC LIMIT $1
	`
	rows, err := s.pool.Query(ctx, query, limit)
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

func (s *PostgresStore) Summarize(ctx context.Context) (*Summary, error) {
	query := `
	SELECT COUNT(*), COALESCE(SUM(CASE WHEN success THEN 1 ELSE 0 END), 0) FROM sync_attempts
	`
	var summary Summary
	if err := s.pool.QueryRow(ctx, query).Scan(&summary.Total, &summary.Successes); err != nil {
		return nil, err
	}
	summary.Failures = summary.Total - summary.Successes
	return &summary, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

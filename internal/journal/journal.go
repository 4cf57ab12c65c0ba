// Package journal persists an audit trail of sync attempts. The daemon only
// ever writes to it; sync behavior never depends on journal contents, so a
// missing or disabled journal changes nothing about synchronization.
package journal

import (
	"context"
	"time"
)

// AttemptRecord is one completed sync attempt.
type AttemptRecord struct {
	ID         string
	RepoPath   string
	StartedAt  time.Time
	FinishedAt time.Time
	// Stage is the last pipeline stage reached (branch, fetch, status,
	// commit, rebase, push) or "done" on success.
	Stage      string
	Success    bool
	CommitHash string
	Error      string
}

// Summary aggregates the journal for reporting.
type Summary struct {
	Total     int
	Successes int
	Failures  int
}

// Store defines the interface for attempt persistence.
type Store interface {
	RecordAttempt(ctx context.Context, record *AttemptRecord) error
	ListAttempts(ctx context.Context, limit int) ([]*AttemptRecord, error)
	Summarize(ctx context.Context) (*Summary, error)
	Close()
}

// Discard is a Store that keeps nothing, used when the journal is disabled.
type Discard struct{}

func (Discard) RecordAttempt(context.Context, *AttemptRecord) error { return nil }

func (Discard) ListAttempts(context.Context, int) ([]*AttemptRecord, error) {
	return nil, nil
}

func (Discard) Summarize(context.Context) (*Summary, error) { return &Summary{}, nil }

func (Discard) Close() {}

package daemon

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Pipeline stage names, in execution order. Stage identifies how far an
// attempt got before failing; StageDone means the full pipeline ran.
const (
	StageValidate = "validate"
	StageBranch   = "branch"
	StageFetch    = "fetch"
	StageStatus   = "status"
	StageCommit   = "commit"
	StageRebase   = "rebase"
	StagePush     = "push"
	StageDone     = "done"
)

const commitTimestampLayout = "2006-01-02 15:04:05"

// SyncAttemptResult is the outcome of one sync transaction.
type SyncAttemptResult struct {
	StartedAt     time.Time
	FinishedAt    time.Time
	Stage         string
	Success       bool
	CommitCreated bool
	CommitHash    string
	Err           error
}

// SyncOnce runs the sync transaction as an ordered pipeline with
// short-circuit on failure: branch query, fetch (bounded by the fetch
// timeout), status, stage-and-commit when dirty, rebase pull, push. A failed
// rebase is aborted before returning so the working copy is never left
// mid-rebase across cycles.
func (d *Daemon) SyncOnce(ctx context.Context, repo string) *SyncAttemptResult {
	result := &SyncAttemptResult{StartedAt: time.Now()}
	fail := func(stage string, err error) *SyncAttemptResult {
		result.Stage = stage
		result.Err = err
		result.FinishedAt = time.Now()
		d.logger.Error("sync stage failed", "stage", stage, "error", err.Error())
		return result
	}

	branch, err := d.backend.CurrentBranch(ctx, repo)
	if err != nil {
		return fail(StageBranch, fmt.Errorf("cannot determine current branch: %w", err))
	}
	d.logger.Debug("current branch resolved", "branch", branch)

	fetchCtx := ctx
	if d.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, d.cfg.FetchTimeout)
		defer cancel()
	}
	if err := d.backend.Fetch(fetchCtx, repo); err != nil {
		return fail(StageFetch, fmt.Errorf("fetch failed: %w", err))
	}

	status, err := d.backend.Status(ctx, repo)
	if err != nil {
		return fail(StageStatus, fmt.Errorf("status failed: %w", err))
	}

	if strings.TrimSpace(status) != "" {
		if err := d.backend.StageAll(ctx, repo); err != nil {
			return fail(StageCommit, fmt.Errorf("staging failed: %w", err))
		}
		message := fmt.Sprintf("Auto-sync: %s", time.Now().Format(commitTimestampLayout))
		hash, err := d.backend.Commit(ctx, repo, message)
		if err != nil {
			return fail(StageCommit, fmt.Errorf("commit failed: %w", err))
		}
		result.CommitCreated = true
		result.CommitHash = hash
		d.logger.Info("local changes committed", "commit", hash)
	} else {
		d.logger.Debug("working copy clean, nothing to commit")
	}

	if err := d.backend.PullRebase(ctx, repo, defaultRemote, branch); err != nil {
		if abortErr := d.backend.AbortRebase(ctx, repo); abortErr != nil {
			// No rebase state to abort is the common case here (the pull
			// failed before replaying anything); anything else is worth a
			// warning because the clean-at-cycle-end invariant depends on it.
			d.logger.Warn("rebase abort reported an error", "error", abortErr.Error())
		}
		return fail(StageRebase, fmt.Errorf("rebase pull failed: %w", err))
	}

	if err := d.backend.Push(ctx, repo, defaultRemote, branch); err != nil {
		return fail(StagePush, fmt.Errorf("push failed: %w", err))
	}

	result.Stage = StageDone
	result.Success = true
	result.FinishedAt = time.Now()
	return result
}

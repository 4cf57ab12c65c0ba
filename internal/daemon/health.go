package daemon

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	git "github.com/go-git/go-git/v5"
)

// HealthReport is a point-in-time snapshot of working-copy cleanliness.
// Recomputed every cycle, never persisted.
type HealthReport struct {
	CheckedAt          time.Time
	UncommittedChanges bool
	UntrackedFiles     []string
	MergeInProgress    bool
	RebaseInProgress   bool
	IntegrityOK        bool
	Issues             []string
}

// Clean reports whether nothing advisory or hazardous was found.
func (r *HealthReport) Clean() bool {
	return len(r.Issues) == 0
}

// ValidateRepository confirms the path exists, contains git metadata, the git
// binary is reachable, the working copy reports a status, and at least one
// remote is configured. Fails closed: any unmet condition logs a reason and
// returns false; it never panics and never returns an error.
func (d *Daemon) ValidateRepository(ctx context.Context, path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		d.logger.Warn("repository path not accessible", "path", path, "error", err.Error())
		return false
	}
	if !info.IsDir() {
		d.logger.Warn("repository path is not a directory", "path", path)
		return false
	}

	repo, err := git.PlainOpen(path)
	if err != nil {
		d.logger.Warn("path does not contain a git repository", "path", path, "error", err.Error())
		return false
	}
	remotes, err := repo.Remotes()
	if err != nil {
		d.logger.Warn("failed to read remote configuration", "path", path, "error", err.Error())
		return false
	}
	if len(remotes) == 0 {
		d.logger.Warn("repository has no configured remote", "path", path)
		return false
	}

	if _, err := d.backend.Version(ctx); err != nil {
		d.logger.Warn("git binary not reachable", "error", err.Error())
		return false
	}
	if _, err := d.backend.Status(ctx, path); err != nil {
		d.logger.Warn("working copy does not report a status", "path", path, "error", err.Error())
		return false
	}
	return true
}

// CheckHealth inspects the working copy without mutating it. Probe failures
// are folded into the issue list rather than propagated; a non-empty issue
// list is advisory unless error recovery is enabled.
func (d *Daemon) CheckHealth(ctx context.Context, repo string) *HealthReport {
	report := &HealthReport{CheckedAt: time.Now(), IntegrityOK: true}

	status, err := d.backend.Status(ctx, repo)
	switch {
	case err != nil:
		report.Issues = append(report.Issues, fmt.Sprintf("status check failed: %v", err))
	case hasTrackedChanges(status):
		report.UncommittedChanges = true
		report.Issues = append(report.Issues, "uncommitted changes present")
	}

	untracked, err := d.backend.UntrackedFiles(ctx, repo)
	if err != nil {
		report.Issues = append(report.Issues, fmt.Sprintf("untracked listing failed: %v", err))
	} else if len(untracked) > 0 {
		report.UntrackedFiles = untracked
		report.Issues = append(report.Issues, fmt.Sprintf("%d untracked file(s) present", len(untracked)))
	}

	if merging, err := d.backend.MergeInProgress(ctx, repo); err != nil {
		report.Issues = append(report.Issues, fmt.Sprintf("merge state check failed: %v", err))
	} else if merging {
		report.MergeInProgress = true
		report.Issues = append(report.Issues, "merge in progress")
	}

	if rebasing, err := d.backend.RebaseInProgress(ctx, repo); err != nil {
		report.Issues = append(report.Issues, fmt.Sprintf("rebase state check failed: %v", err))
	} else if rebasing {
		report.RebaseInProgress = true
		report.Issues = append(report.Issues, "rebase in progress")
	}

	if err := d.backend.Fsck(ctx, repo); err != nil {
		report.IntegrityOK = false
		report.Issues = append(report.Issues, fmt.Sprintf("integrity check failed: %v", err))
	}

	return report
}

// AttemptRecovery aborts an in-progress merge or stale rebase found by the
// health check. This is the only destructive auto-recovery action; untracked
// files are never cleaned automatically, so unsynced operator work cannot be
// destroyed by the daemon.
func (d *Daemon) AttemptRecovery(ctx context.Context, repo string, report *HealthReport) {
	if report.MergeInProgress {
		if err := d.backend.AbortMerge(ctx, repo); err != nil {
			d.logger.Error("failed to abort in-progress merge", "error", err.Error())
		} else {
			d.logger.Info("aborted in-progress merge")
		}
	}
	if report.RebaseInProgress {
		if err := d.backend.AbortRebase(ctx, repo); err != nil {
			d.logger.Error("failed to abort in-progress rebase", "error", err.Error())
		} else {
			d.logger.Info("aborted in-progress rebase")
		}
	}
}

// hasTrackedChanges reports whether porcelain status output contains changes
// to tracked files. Untracked entries ("?? path") are counted separately.
func hasTrackedChanges(status string) bool {
	for _, line := range strings.Split(status, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if !strings.HasPrefix(line, "??") {
			return true
		}
	}
	return false
}

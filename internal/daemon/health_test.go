package daemon

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckHealthCleanRepo(t *testing.T) {
	backend := newFakeBackend()
	d := testDaemon(backend, testConfig(t.TempDir()))

	report := d.CheckHealth(context.Background(), d.cfg.RepoPath)

	assert.True(t, report.Clean())
	assert.True(t, report.IntegrityOK)
	assert.False(t, report.UncommittedChanges)
	assert.False(t, report.MergeInProgress)
	assert.False(t, report.RebaseInProgress)
}

func TestCheckHealthReportsIssues(t *testing.T) {
	backend := newFakeBackend()
	backend.statusQueue = []string{" M dirty.txt\n?? new.txt\n"}
	backend.untracked = []string{"new.txt"}
	backend.mergeInProgress = true
	backend.fsckErr = assert.AnError
	d := testDaemon(backend, testConfig(t.TempDir()))

	report := d.CheckHealth(context.Background(), d.cfg.RepoPath)

	assert.True(t, report.UncommittedChanges)
	assert.Equal(t, []string{"new.txt"}, report.UntrackedFiles)
	assert.True(t, report.MergeInProgress)
	assert.False(t, report.IntegrityOK)
	assert.False(t, report.Clean())
	assert.Len(t, report.Issues, 4)
}

func TestAttemptRecoveryAbortsMerge(t *testing.T) {
	// Scenario: merge in progress with error recovery enabled. The merge is
	// aborted and a re-evaluated health report comes back clean.
	backend := newFakeBackend()
	backend.mergeInProgress = true
	cfg := testConfig(t.TempDir())
	cfg.ErrorRecovery = true
	d := testDaemon(backend, cfg)

	report := d.CheckHealth(context.Background(), cfg.RepoPath)
	require.True(t, report.MergeInProgress)

	d.AttemptRecovery(context.Background(), cfg.RepoPath, report)
	assert.Equal(t, 1, backend.callCount("AbortMerge"))

	after := d.CheckHealth(context.Background(), cfg.RepoPath)
	assert.False(t, after.MergeInProgress)
	assert.True(t, after.Clean())
}

func TestAttemptRecoveryAbortsStaleRebase(t *testing.T) {
	backend := newFakeBackend()
	backend.rebaseInProgress = true
	cfg := testConfig(t.TempDir())
	cfg.ErrorRecovery = true
	d := testDaemon(backend, cfg)

	report := d.CheckHealth(context.Background(), cfg.RepoPath)
	require.True(t, report.RebaseInProgress)

	d.AttemptRecovery(context.Background(), cfg.RepoPath, report)
	assert.Equal(t, 1, backend.callCount("AbortRebase"))
	assert.False(t, backend.rebaseInProgress)
}

func TestAttemptRecoveryNeverCleansUntracked(t *testing.T) {
	// Untracked files are unsynced operator work; recovery must leave them
	// alone even when error recovery is enabled.
	backend := newFakeBackend()
	backend.untracked = []string{"scratch.txt", "notes.md"}
	cfg := testConfig(t.TempDir())
	cfg.ErrorRecovery = true
	d := testDaemon(backend, cfg)

	report := d.CheckHealth(context.Background(), cfg.RepoPath)
	before := len(backend.calls)
	d.AttemptRecovery(context.Background(), cfg.RepoPath, report)

	assert.Equal(t, before, len(backend.calls), "recovery must take no action for untracked files")
	assert.Equal(t, []string{"scratch.txt", "notes.md"}, report.UntrackedFiles)
}

func TestHasTrackedChanges(t *testing.T) {
	tests := []struct {
		name   string
		status string
		want   bool
	}{
		{name: "empty status", status: "", want: false},
		{name: "only untracked entries", status: "?? a.txt\n?? b/\n", want: false},
		{name: "modified file", status: " M a.txt\n", want: true},
		{name: "staged and untracked mixed", status: "A  new.go\n?? scratch\n", want: true},
		{name: "deleted file", status: " D gone.txt\n", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, hasTrackedChanges(tt.status))
		})
	}
}

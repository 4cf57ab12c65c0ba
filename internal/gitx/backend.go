// Package gitx wraps the git command-line tool behind a narrow interface so
// the sync daemon can be tested against a fake backend.
package gitx

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors checked with errors.Is().
var (
	// ErrNotRepository is returned when the path does not contain git metadata.
	ErrNotRepository = errors.New("not a git repository")

	// ErrDetachedHead is returned when the current branch cannot be determined.
	ErrDetachedHead = errors.New("detached HEAD, no current branch")

	// ErrNoRemote is returned when the repository has no configured remote.
	ErrNoRemote = errors.New("no remote configured")
)

// Backend is the set of version-control operations the daemon drives.
// Every mutating operation maps to one git command; a non-zero exit is an
// error. The interface deliberately has no clean/prune-untracked operation.
type Backend interface {
	// Version reports the git binary version, proving the binary is reachable.
	Version(ctx context.Context) (string, error)

	// CurrentBranch returns the checked-out branch name.
	// Returns ErrDetachedHead when HEAD is not on a branch.
	CurrentBranch(ctx context.Context, repo string) (string, error)

	// Fetch fetches all remotes with pruning.
	Fetch(ctx context.Context, repo string) error

	// Status returns porcelain status output. Empty means clean.
	Status(ctx context.Context, repo string) (string, error)

	// StageAll stages every change in the working copy.
	StageAll(ctx context.Context, repo string) error

	// Commit records staged changes with the given message and returns the
	// new commit hash.
	Commit(ctx context.Context, repo, message string) (string, error)

	// PullRebase integrates the remote branch by rebasing local commits on
	// top of it.
	PullRebase(ctx context.Context, repo, remote, branch string) error

	// AbortRebase resets an in-progress rebase.
	AbortRebase(ctx context.Context, repo string) error

	// AbortMerge resets an in-progress merge.
	AbortMerge(ctx context.Context, repo string) error

	// Push pushes the branch to the remote.
	Push(ctx context.Context, repo, remote, branch string) error

	// Fsck runs an integrity check over the object database.
	Fsck(ctx context.Context, repo string) error

	// UntrackedFiles lists untracked paths in the working copy.
	UntrackedFiles(ctx context.Context, repo string) ([]string, error)

	// RemoteURL returns the fetch URL of the named remote.
	RemoteURL(ctx context.Context, repo, remote string) (string, error)

	// LsRemote lists refs on the remote, exercising the network path.
	LsRemote(ctx context.Context, repo, remote string) error

	// MergeInProgress reports whether a merge is underway.
	MergeInProgress(ctx context.Context, repo string) (bool, error)

	// RebaseInProgress reports whether a rebase is underway.
	RebaseInProgress(ctx context.Context, repo string) (bool, error)
}

// CommandError describes a git command that exited non-zero.
type CommandError struct {
	Args     []string
	ExitCode int
	Output   string
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("git %s: exit %d", strings.Join(e.Args, " "), e.ExitCode)
	if trimmed := strings.TrimSpace(e.Output); trimmed != "" {
		msg += ": " + firstLine(trimmed)
	}
	return msg
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}

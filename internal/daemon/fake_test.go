package daemon

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/gitsyncd/gitsyncd/internal/config"
	"github.com/gitsyncd/gitsyncd/internal/journal"
)

// fakeBackend is a scripted VCS backend. Each method records its name so
// tests can assert pipeline ordering and short-circuit behavior.
type fakeBackend struct {
	branch    string
	branchErr error

	fetchErr error

	// statusQueue is consumed one entry per Status call; the last entry
	// repeats once the queue is drained. Empty string means clean.
	statusQueue []string
	statusErr   error

	stageErr  error
	commitErr error

	pullErr error
	pushErr error
	fsckErr error

	untracked []string

	mergeInProgress  bool
	rebaseInProgress bool

	remoteURL   string
	lsRemoteErr error

	versionErr error

	calls          []string
	commits        int
	commitMessages []string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{branch: "main", remoteURL: "https://example.com/repo.git"}
}

func (f *fakeBackend) called(name string) { f.calls = append(f.calls, name) }

func (f *fakeBackend) callCount(name string) int {
	n := 0
	for _, call := range f.calls {
		if call == name {
			n++
		}
	}
	return n
}

func (f *fakeBackend) Version(context.Context) (string, error) {
	f.called("Version")
	return "git version 2.47.0", f.versionErr
}

func (f *fakeBackend) CurrentBranch(context.Context, string) (string, error) {
	f.called("CurrentBranch")
	if f.branchErr != nil {
		return "", f.branchErr
	}
	return f.branch, nil
}

func (f *fakeBackend) Fetch(context.Context, string) error {
	f.called("Fetch")
	return f.fetchErr
}

func (f *fakeBackend) Status(context.Context, string) (string, error) {
	f.called("Status")
	if f.statusErr != nil {
		return "", f.statusErr
	}
	if len(f.statusQueue) == 0 {
		return "", nil
	}
	status := f.statusQueue[0]
	if len(f.statusQueue) > 1 {
		f.statusQueue = f.statusQueue[1:]
	}
	return status, nil
}

func (f *fakeBackend) StageAll(context.Context, string) error {
	f.called("StageAll")
	return f.stageErr
}

func (f *fakeBackend) Commit(_ context.Context, _ string, message string) (string, error) {
	f.called("Commit")
	if f.commitErr != nil {
		return "", f.commitErr
	}
	f.commits++
	f.commitMessages = append(f.commitMessages, message)
	// A commit empties the dirty state.
	f.statusQueue = []string{""}
	return fmt.Sprintf("commit%04d", f.commits), nil
}

func (f *fakeBackend) PullRebase(context.Context, string, string, string) error {
	f.called("PullRebase")
	return f.pullErr
}

func (f *fakeBackend) AbortRebase(context.Context, string) error {
	f.called("AbortRebase")
	f.rebaseInProgress = false
	return nil
}

func (f *fakeBackend) AbortMerge(context.Context, string) error {
	f.called("AbortMerge")
	f.mergeInProgress = false
	return nil
}

func (f *fakeBackend) Push(context.Context, string, string, string) error {
	f.called("Push")
	return f.pushErr
}

func (f *fakeBackend) Fsck(context.Context, string) error {
	f.called("Fsck")
	return f.fsckErr
}

func (f *fakeBackend) UntrackedFiles(context.Context, string) ([]string, error) {
	f.called("UntrackedFiles")
	return f.untracked, nil
}

func (f *fakeBackend) RemoteURL(context.Context, string, string) (string, error) {
	f.called("RemoteURL")
	return f.remoteURL, nil
}

func (f *fakeBackend) LsRemote(context.Context, string, string) error {
	f.called("LsRemote")
	return f.lsRemoteErr
}

func (f *fakeBackend) MergeInProgress(context.Context, string) (bool, error) {
	f.called("MergeInProgress")
	return f.mergeInProgress, nil
}

func (f *fakeBackend) RebaseInProgress(context.Context, string) (bool, error) {
	f.called("RebaseInProgress")
	return f.rebaseInProgress, nil
}

func testConfig(repo string) config.Config {
	cfg := config.Defaults()
	cfg.RepoPath = repo
	cfg.Interval = time.Minute
	cfg.JournalDriver = config.JournalNone
	return cfg
}

func testDaemon(backend *fakeBackend, cfg config.Config) *Daemon {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(cfg, backend, journal.Discard{}, logger)
}

package gitx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// CLI drives the git binary with exec. It is stateless; the repository path
// is passed per call so one CLI instance can serve validation probes against
// arbitrary paths.
type CLI struct {
	// Git is the binary to invoke, "git" by default.
	Git    string
	Logger *slog.Logger
}

// NewCLI returns a backend backed by the git executable on PATH.
func NewCLI(logger *slog.Logger) *CLI {
	return &CLI{Git: "git", Logger: logger}
}

var _ Backend = (*CLI)(nil)

func (c *CLI) Version(ctx context.Context) (string, error) {
	out, err := c.run(ctx, "", "version")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (c *CLI) CurrentBranch(ctx context.Context, repo string) (string, error) {
	out, err := c.run(ctx, repo, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	branch := strings.TrimSpace(out)
	if branch == "" || branch == "HEAD" {
		return "", ErrDetachedHead
	}
	return branch, nil
}

func (c *CLI) Fetch(ctx context.Context, repo string) error {
	_, err := c.run(ctx, repo, "fetch", "--all", "--prune")
	return err
}

func (c *CLI) Status(ctx context.Context, repo string) (string, error) {
	return c.run(ctx, repo, "status", "--porcelain")
}

func (c *CLI) StageAll(ctx context.Context, repo string) error {
	_, err := c.run(ctx, repo, "add", "-A")
	return err
}

func (c *CLI) Commit(ctx context.Context, repo, message string) (string, error) {
	if _, err := c.run(ctx, repo, "commit", "-m", message); err != nil {
		return "", err
	}
	out, err := c.run(ctx, repo, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (c *CLI) PullRebase(ctx context.Context, repo, remote, branch string) error {
	_, err := c.run(ctx, repo, "pull", "--rebase", remote, branch)
	return err
}

func (c *CLI) AbortRebase(ctx context.Context, repo string) error {
	_, err := c.run(ctx, repo, "rebase", "--abort")
	return err
}

func (c *CLI) AbortMerge(ctx context.Context, repo string) error {
	_, err := c.run(ctx, repo, "merge", "--abort")
	return err
}

func (c *CLI) Push(ctx context.Context, repo, remote, branch string) error {
	_, err := c.run(ctx, repo, "push", remote, branch)
	return err
}

func (c *CLI) Fsck(ctx context.Context, repo string) error {
	_, err := c.run(ctx, repo, "fsck", "--no-progress")
	return err
}

func (c *CLI) UntrackedFiles(ctx context.Context, repo string) ([]string, error) {
	out, err := c.run(ctx, repo, "ls-files", "--others", "--exclude-standard")
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

func (c *CLI) RemoteURL(ctx context.Context, repo, remote string) (string, error) {
	out, err := c.run(ctx, repo, "remote", "get-url", remote)
	if err != nil {
		return "", err
	}
	url := strings.TrimSpace(out)
	if url == "" {
		return "", ErrNoRemote
	}
	return url, nil
}

func (c *CLI) LsRemote(ctx context.Context, repo, remote string) error {
	_, err := c.run(ctx, repo, "ls-remote", "--heads", remote)
	return err
}

func (c *CLI) MergeInProgress(ctx context.Context, repo string) (bool, error) {
	return c.markerExists(ctx, repo, "MERGE_HEAD")
}

func (c *CLI) RebaseInProgress(ctx context.Context, repo string) (bool, error) {
	for _, marker := range []string{"rebase-merge", "rebase-apply"} {
		found, err := c.markerExists(ctx, repo, marker)
		if err != nil {
			return false, err
		}
		if found {
			return true, nil
		}
	}
	return false, nil
}

// markerExists checks for a state file inside the resolved git dir. Worktrees
// and submodules keep their metadata elsewhere, so the dir is asked from git
// rather than assumed to be <repo>/.git.
func (c *CLI) markerExists(ctx context.Context, repo, name string) (bool, error) {
	out, err := c.run(ctx, repo, "rev-parse", "--git-dir")
	if err != nil {
		return false, err
	}
	gitDir := strings.TrimSpace(out)
	if !filepath.IsAbs(gitDir) {
		gitDir = filepath.Join(repo, gitDir)
	}
	if _, statErr := os.Stat(filepath.Join(gitDir, name)); statErr != nil {
		if os.IsNotExist(statErr) {
			return false, nil
		}
		return false, statErr
	}
	return true, nil
}

func (c *CLI) run(ctx context.Context, repo string, args ...string) (string, error) {
	start := time.Now()
	command := exec.CommandContext(ctx, c.gitBinary(), args...)
	if repo != "" {
		command.Dir = repo
	}
	// Never block a headless daemon on a credential prompt.
	command.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")

	var output bytes.Buffer
	command.Stdout = &output
	command.Stderr = &output

	err := command.Run()
	if c.Logger != nil {
		c.Logger.Debug("git command finished",
			"args", strings.Join(args, " "),
			"dir", repo,
			"elapsed_ms", time.Since(start).Milliseconds(),
			"err", err != nil,
		)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return output.String(), fmt.Errorf("git %s: %w", args[0], ctxErr)
		}
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		// Exit 128 with this message is git's signature for a missing repository.
		if exitCode == 128 && strings.Contains(output.String(), "not a git repository") {
			return output.String(), ErrNotRepository
		}
		return output.String(), &CommandError{
			Args:     args,
			ExitCode: exitCode,
			Output:   output.String(),
		}
	}
	return output.String(), nil
}

func (c *CLI) gitBinary() string {
	if c.Git != "" {
		return c.Git
	}
	return "git"
}

func splitLines(out string) []string {
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}

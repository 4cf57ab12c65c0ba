package gitx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommandErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *CommandError
		want string
	}{
		{
			name: "with output",
			err: &CommandError{
				Args:     []string{"push", "origin", "main"},
				ExitCode: 1,
				Output:   "fatal: unable to access remote\nsome detail",
			},
			want: "git push origin main: exit 1: fatal: unable to access remote",
		},
		{
			name: "without output",
			err: &CommandError{
				Args:     []string{"fetch", "--all", "--prune"},
				ExitCode: 128,
			},
			want: "git fetch --all --prune: exit 128",
		},
		{
			name: "whitespace-only output",
			err: &CommandError{
				Args:     []string{"status", "--porcelain"},
				ExitCode: 2,
				Output:   "   \n  ",
			},
			want: "git status --porcelain: exit 2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestSplitLines(t *testing.T) {
	assert.Nil(t, splitLines(""))
	assert.Nil(t, splitLines("\n  \n"))
	assert.Equal(t, []string{"a.txt", "b/c.txt"}, splitLines("a.txt\nb/c.txt\n"))
	assert.Equal(t, []string{"one"}, splitLines("  one  \n"))
}

func TestGitBinaryDefault(t *testing.T) {
	cli := &CLI{}
	assert.Equal(t, "git", cli.gitBinary())

	cli.Git = "/usr/local/bin/git"
	assert.Equal(t, "/usr/local/bin/git", cli.gitBinary())
}

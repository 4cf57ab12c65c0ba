package logging

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var linePattern = regexp.MustCompile(`^\[\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\] \[(DEBUG|INFO|SUCCESS|WARNING|ERROR)\] `)

func TestConsoleLineFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, closeLog, err := New(&buf, Options{Level: slog.LevelDebug})
	require.NoError(t, err)
	defer closeLog()

	logger.Info("sync cycle completed", "cycle", 3)

	line := strings.TrimRight(buf.String(), "\n")
	assert.Regexp(t, linePattern, line)
	assert.Contains(t, line, "[INFO] sync cycle completed")
	assert.Contains(t, line, "cycle=3")
}

func TestLevelNames(t *testing.T) {
	tests := []struct {
		level slog.Level
		want  string
	}{
		{slog.LevelDebug, "[DEBUG]"},
		{slog.LevelInfo, "[INFO]"},
		{LevelSuccess, "[SUCCESS]"},
		{slog.LevelWarn, "[WARNING]"},
		{slog.LevelError, "[ERROR]"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			var buf bytes.Buffer
			logger, closeLog, err := New(&buf, Options{Level: slog.LevelDebug})
			require.NoError(t, err)
			defer closeLog()

			logger.Log(context.Background(), tt.level, "message")
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger, closeLog, err := New(&buf, Options{Level: slog.LevelInfo})
	require.NoError(t, err)
	defer closeLog()

	logger.Debug("hidden")
	logger.Info("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
}

func TestMirrorFileReceivesUncoloredCopy(t *testing.T) {
	mirror := filepath.Join(t.TempDir(), "sync_monitor.log")
	var buf bytes.Buffer
	logger, closeLog, err := New(&buf, Options{
		Level:      slog.LevelInfo,
		Color:      true,
		MirrorPath: mirror,
	})
	require.NoError(t, err)

	logger.Error("push failed", "stage", "push")
	require.NoError(t, closeLog())

	assert.Contains(t, buf.String(), "\x1b[31m", "console output should be colored")

	data, err := os.ReadFile(mirror)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "\x1b[", "mirror file must be plain text")
	assert.Contains(t, string(data), "[ERROR] push failed stage=push")
}

func TestWithAttrsAndQuoting(t *testing.T) {
	var buf bytes.Buffer
	logger, closeLog, err := New(&buf, Options{Level: slog.LevelInfo})
	require.NoError(t, err)
	defer closeLog()

	logger.With("repo", "/srv/repo").Info("validated", "detail", "two words")

	line := buf.String()
	assert.Contains(t, line, "repo=/srv/repo")
	assert.Contains(t, line, `detail="two words"`)
}

// Package logging provides the daemon's slog handler. Console lines follow
// the operator contract "[timestamp] [LEVEL] message key=value" with
// level-based ANSI color, optionally mirrored uncolored to a log file.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// LevelSuccess marks completed sync cycles. It sorts between INFO and WARN so
// success lines survive any level filter that shows warnings.
const LevelSuccess = slog.Level(2)

const timestampLayout = "2006-01-02 15:04:05"

// ANSI color per level.
const (
	colorReset  = "\x1b[0m"
	colorCyan   = "\x1b[36m"
	colorGreen  = "\x1b[32m"
	colorYellow = "\x1b[33m"
	colorRed    = "\x1b[31m"
)

// Options configures New.
type Options struct {
	// Level is the minimum level emitted. Debug when detailed logging is on,
	// Info otherwise.
	Level slog.Level
	// Color enables ANSI colors on the console writer.
	Color bool
	// MirrorPath, when non-empty, receives an uncolored copy of every line.
	MirrorPath string
}

// New builds a logger writing to console, plus a mirror file when configured.
// The returned closer flushes and closes the mirror file.
func New(console io.Writer, opts Options) (*slog.Logger, func() error, error) {
	handler := &consoleHandler{
		console: console,
		level:   opts.Level,
		color:   opts.Color,
	}

	closer := func() error { return nil }
	if opts.MirrorPath != "" {
		file, err := os.OpenFile(opts.MirrorPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		handler.mirror = file
		closer = file.Close
	}

	return slog.New(handler), closer, nil
}

type consoleHandler struct {
	console io.Writer
	mirror  io.Writer
	level   slog.Level
	color   bool

	attrs  []slog.Attr
	groups []string

	mu sync.Mutex
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	var b strings.Builder
	b.WriteString("[")
	b.WriteString(record.Time.Format(timestampLayout))
	b.WriteString("] [")
	b.WriteString(levelName(record.Level))
	b.WriteString("] ")
	b.WriteString(record.Message)

	appendAttr := func(attr slog.Attr) {
		if attr.Equal(slog.Attr{}) {
			return
		}
		key := attr.Key
		if len(h.groups) > 0 {
			key = strings.Join(h.groups, ".") + "." + key
		}
		b.WriteString(" ")
		b.WriteString(key)
		b.WriteString("=")
		b.WriteString(attrValue(attr.Value))
	}
	for _, attr := range h.attrs {
		appendAttr(attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		appendAttr(attr)
		return true
	})

	line := b.String()

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.color {
		fmt.Fprintln(h.console, levelColor(record.Level)+line+colorReset)
	} else {
		fmt.Fprintln(h.console, line)
	}
	if h.mirror != nil {
		fmt.Fprintln(h.mirror, line)
	}
	return nil
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := h.clone()
	clone.attrs = append(clone.attrs, attrs...)
	return clone
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := h.clone()
	clone.groups = append(clone.groups, name)
	return clone
}

func (h *consoleHandler) clone() *consoleHandler {
	return &consoleHandler{
		console: h.console,
		mirror:  h.mirror,
		level:   h.level,
		color:   h.color,
		attrs:   append([]slog.Attr{}, h.attrs...),
		groups:  append([]string{}, h.groups...),
	}
}

func levelName(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARNING"
	case level >= LevelSuccess:
		return "SUCCESS"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}

func levelColor(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return colorRed
	case level >= slog.LevelWarn:
		return colorYellow
	case level >= LevelSuccess:
		return colorGreen
	default:
		return colorCyan
	}
}

func attrValue(value slog.Value) string {
	resolved := value.Resolve()
	if resolved.Kind() == slog.KindTime {
		return resolved.Time().Format(time.RFC3339)
	}
	text := resolved.String()
	if strings.ContainsAny(text, " \t") {
		return fmt.Sprintf("%q", text)
	}
	return text
}

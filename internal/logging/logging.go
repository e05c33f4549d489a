package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	charm "github.com/charmbracelet/log"
)

type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

const timestampLayout = "2006-01-02 15:04:05"

// Logger appends one `[timestamp] [LEVEL] message` line per event to a
// durable file and mirrors it to an interactive stream. The file is opened
// append-only and never rotated or truncated here; rotation belongs to an
// external collaborator.
type Logger struct {
	mu      *sync.Mutex
	file    io.Writer
	closer  io.Closer
	console *charm.Logger
	fields  []any
	now     func() time.Time
}

type Options struct {
	// FilePath is the durable sink. Empty means file logging is disabled
	// (tests, dry runs).
	FilePath string
	// Console receives the mirrored human-readable stream; nil means stderr.
	Console io.Writer
	// Quiet suppresses the interactive mirror entirely.
	Quiet bool
}

func New(opts Options) (*Logger, error) {
	l := &Logger{mu: &sync.Mutex{}, now: time.Now}

	if opts.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(opts.FilePath), 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(opts.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		l.file = f
		l.closer = f
	}

	if !opts.Quiet {
		out := opts.Console
		if out == nil {
			out = os.Stderr
		}
		l.console = charm.NewWithOptions(out, charm.Options{
			ReportTimestamp: true,
			TimeFormat:      timestampLayout,
		})
	}
	return l, nil
}

// With returns a logger that appends the given key/value pairs to every
// subsequent line. Used to stamp a run ID on everything a single Execute
// emits.
func (l *Logger) With(kv ...any) *Logger {
	// The file handle and its mutex stay shared; only the root logger may
	// Close.
	return &Logger{
		mu:      l.mu,
		file:    l.file,
		console: l.console,
		fields:  append(append([]any{}, l.fields...), kv...),
		now:     l.now,
	}
}

func (l *Logger) Debug(msg string, kv ...any) { l.log(LevelDebug, msg, kv) }
func (l *Logger) Info(msg string, kv ...any)  { l.log(LevelInfo, msg, kv) }
func (l *Logger) Warn(msg string, kv ...any)  { l.log(LevelWarn, msg, kv) }
func (l *Logger) Error(msg string, kv ...any) { l.log(LevelError, msg, kv) }

func (l *Logger) log(level Level, msg string, kv []any) {
	kv = append(append([]any{}, l.fields...), kv...)

	if l.file != nil {
		line := fmt.Sprintf("[%s] [%s] %s", l.now().Format(timestampLayout), level, formatMessage(msg, kv))
		l.mu.Lock()
		fmt.Fprintln(l.file, line)
		l.mu.Unlock()
	}

	if l.console != nil {
		switch level {
		case LevelDebug:
			l.console.Debug(msg, kv...)
		case LevelWarn:
			l.console.Warn(msg, kv...)
		case LevelError:
			l.console.Error(msg, kv...)
		default:
			l.console.Info(msg, kv...)
		}
	}
}

func formatMessage(msg string, kv []any) string {
	if len(kv) == 0 {
		return msg
	}
	var b strings.Builder
	b.WriteString(msg)
	for i := 0; i < len(kv); i += 2 {
		key := fmt.Sprint(kv[i])
		var val any = "(missing)"
		if i+1 < len(kv) {
			val = kv[i+1]
		}
		fmt.Fprintf(&b, " %s=%v", key, val)
	}
	return b.String()
}

func (l *Logger) Close() error {
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}

// Package logging provides log management utilities
package logging

import (
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Logger manages the log file, level, and provides rotation
type Logger struct {
	file     *os.File
	path     string
	levelVar *slog.LevelVar
}

// NewSlogLogger creates a slog.Logger writing to stdout and, when logPath is
// set, appending to that file. Initial level is INFO; use SetLevel() once the
// config is loaded. Standard log output (telegram-bot-api) goes to the same
// destinations.
func NewSlogLogger(logPath string) (*slog.Logger, *Logger, error) {
	var out io.Writer = os.Stdout
	l := &Logger{levelVar: new(slog.LevelVar)}

	if logPath != "" {
		if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
			return nil, nil, err
		}
		file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, err
		}
		l.file = file
		l.path = logPath
		out = io.MultiWriter(os.Stdout, file)
	}

	log.SetOutput(out)
	log.SetFlags(log.Ldate | log.Ltime)

	l.levelVar.Set(slog.LevelInfo)
	return slog.New(newHandler(out, l.levelVar)), l, nil
}

func newHandler(w io.Writer, level slog.Leveler) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: true,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == "error" {
				a.Key = "err"
			}
			return a
		},
	})
}

// SetLevel changes the log level dynamically.
// Valid levels: debug, info, warn, error (case-insensitive).
// Invalid or empty values default to info with a warning.
func (l *Logger) SetLevel(level string) {
	parsedLevel, valid := parseLevel(level)
	if !valid && level != "" {
		slog.Warn("Unknown log_level, using info", "value", level)
	}
	l.levelVar.Set(parsedLevel)
}

// Level returns the current level.
func (l *Logger) Level() slog.Level {
	return l.levelVar.Level()
}

func parseLevel(level string) (slog.Level, bool) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// Close closes the log file
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

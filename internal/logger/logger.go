package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"geocatalog/internal/config"
)

// FileName is the log file written inside the configured log directory.
const FileName = "geocatalog.log"

// Logger is a zerolog.Logger that also owns the log file it writes to.
type Logger struct {
	zerolog.Logger
	file *os.File
}

// New creates a Logger writing to stdout and to LogDirectory/geocatalog.log.
// The log directory is created if it does not exist.
func New(cfg *config.Config) (*Logger, error) {
	if err := os.MkdirAll(cfg.LogDirectory, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	path := filepath.Join(cfg.LogDirectory, FileName)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	var stdout io.Writer = os.Stdout
	if cfg.LogFormat == "console" {
		stdout = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}
	}

	zl := newZerolog(zerolog.MultiLevelWriter(stdout, file), cfg.LogLevel)
	zerolog.DefaultContextLogger = &zl

	return &Logger{Logger: zl, file: file}, nil
}

// NewWriter builds a Logger on an arbitrary writer. Used by tools and tests.
func NewWriter(w io.Writer, level string) *Logger {
	return &Logger{Logger: newZerolog(w, level)}
}

// Nop returns a Logger that discards everything.
func Nop() *Logger {
	return &Logger{Logger: zerolog.Nop()}
}

// Close closes the underlying log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

func newZerolog(w io.Writer, level string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	return zerolog.New(w).Level(ParseLevel(level)).With().Timestamp().Logger()
}

// ParseLevel converts a level name to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

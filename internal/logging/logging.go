// Package logging builds the process slog.Logger on top of charmbracelet/log,
// optionally writing to a size-rotated file.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the logger.
type Options struct {
	Level  string
	Format string
	// Path enables a rotating log file; empty logs to Output.
	Path       string
	MaxSizeMB  int
	MaxBackups int
	// Output defaults to stderr so stdout stays clean for stdio transports.
	Output io.Writer
}

// New returns a slog.Logger and a closer for the underlying file, if any.
func New(opts Options) (*slog.Logger, io.Closer, error) {
	writer := opts.Output
	if writer == nil {
		writer = os.Stderr
	}

	var closer io.Closer = nopCloser{}
	if opts.Path != "" {
		if dir := filepath.Dir(opts.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, err
			}
		}
		file := &lumberjack.Logger{
			Filename:   opts.Path,
			MaxSize:    opts.MaxSizeMB, // megabytes
			MaxBackups: opts.MaxBackups,
			MaxAge:     28, // days
			Compress:   true,
		}
		writer = file
		closer = file
	}

	handler := log.NewWithOptions(writer, log.Options{
		ReportTimestamp: true,
		Level:           ParseLevel(opts.Level),
		Formatter:       formatter(opts.Format),
		Prefix:          "accord",
	})
	return slog.New(handler), closer, nil
}

// ParseLevel maps a configured level name to a log level, defaulting to info.
func ParseLevel(level string) log.Level {
	switch strings.ToLower(level) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

func formatter(format string) log.Formatter {
	switch strings.ToLower(format) {
	case "json":
		return log.JSONFormatter
	case "logfmt":
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

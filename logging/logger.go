package logging

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options configures SetupLogger
type Options struct {
	Env            string // dev, staging, prod or test
	Level          string // overrides the environment default for the console
	Verbose        bool   // keeps info logs on the console in the test environment
	LogDir         string // empty disables file logging
	RetentionWeeks int
	MaxFileSize    int64
	Console        io.Writer // defaults to os.Stderr
}

// parseLogLevel maps a level name to slog, unknown names give info
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// GetConsoleLogLevel returns the console level for an environment. The test
// environment ignores LOG_LEVEL and stays quiet unless verbose.
func GetConsoleLogLevel(env, logLevel string, verbose bool) slog.Level {
	if env == "test" {
		if verbose {
			return slog.LevelInfo
		}
		return slog.LevelError
	}

	if logLevel != "" {
		return parseLogLevel(logLevel)
	}

	switch env {
	case "prod", "staging":
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// GetFileLogLevel returns the file level, files always keep debug output
func GetFileLogLevel() slog.Level {
	return slog.LevelDebug
}

// SetupLogger builds a logger writing text to the console and, when LogDir
// is set, JSON to a weekly rotating file. The returned closer releases the file.
func SetupLogger(opts Options) (*slog.Logger, io.Closer) {
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	consoleHandler := slog.NewTextHandler(console, &slog.HandlerOptions{
		Level: GetConsoleLogLevel(opts.Env, opts.Level, opts.Verbose),
	})

	if opts.LogDir == "" {
		return slog.New(consoleHandler), nopCloser{}
	}

	rotating, err := NewRotatingLogger(opts.LogDir, "drugmap", opts.RetentionWeeks, opts.MaxFileSize)
	if err != nil {
		// If we can't open the log file, just log to console
		logger := slog.New(consoleHandler)
		logger.Error("Failed to initialize rotating logger", "error", err)
		return logger, nopCloser{}
	}

	fileHandler := slog.NewJSONHandler(rotating, &slog.HandlerOptions{
		Level: GetFileLogLevel(),
	})

	return slog.New(&multiHandler{handlers: []slog.Handler{consoleHandler, fileHandler}}), rotating
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// multiHandler implements slog.Handler to write to multiple handlers
type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range m.handlers {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newHandlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		newHandlers[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: newHandlers}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	newHandlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		newHandlers[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: newHandlers}
}

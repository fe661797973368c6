// Package logging sets up slog for the converter: text on the console, JSON
// in weekly rotating files, and package-level helpers usable before setup.
package logging

import (
	"io"
	"log/slog"
	"os"
)

type LoggingService struct {
	Logger *slog.Logger
	closer io.Closer
}

var DefaultLoggingService *LoggingService

// InitLogger initializes the global logger instance and makes it the slog default
func InitLogger(opts Options) {
	logger, closer := SetupLogger(opts)
	DefaultLoggingService = &LoggingService{
		Logger: logger,
		closer: closer,
	}
	slog.SetDefault(logger)
}

// Close releases the log file of the global logger, if any
func Close() error {
	if DefaultLoggingService == nil || DefaultLoggingService.closer == nil {
		return nil
	}
	return DefaultLoggingService.closer.Close()
}

// logger returns the global logger, or a stderr fallback if not initialized
func logger() *slog.Logger {
	if DefaultLoggingService == nil || DefaultLoggingService.Logger == nil {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}
	return DefaultLoggingService.Logger
}

// Package-level functions for direct access

func Info(msg string, args ...any) {
	logger().Info(msg, args...)
}

func Error(msg string, args ...any) {
	logger().Error(msg, args...)
}

func Warn(msg string, args ...any) {
	logger().Warn(msg, args...)
}

func Debug(msg string, args ...any) {
	logger().Debug(msg, args...)
}

// With returns the global logger carrying the given attributes
func With(args ...any) *slog.Logger {
	return logger().With(args...)
}

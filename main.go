package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/giygas/drugbank-mapping/config"
	"github.com/giygas/drugbank-mapping/converter"
	"github.com/giygas/drugbank-mapping/data"
	"github.com/giygas/drugbank-mapping/logging"
	"github.com/giygas/drugbank-mapping/metrics"
	"github.com/giygas/drugbank-mapping/scheduler"
	"github.com/giygas/drugbank-mapping/server"
	"github.com/giygas/drugbank-mapping/source"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logging.InitLogger(logging.Options{
		Env:            cfg.Env.String(),
		Level:          cfg.LogLevel,
		LogDir:         cfg.LogDir,
		RetentionWeeks: cfg.LogRetentionWeeks,
		MaxFileSize:    cfg.MaxLogFileSize,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	var code int
	switch cfg.Mode {
	case config.ModeServe:
		code = serve(ctx, cfg)
	default:
		code = convert(ctx, cfg, os.Stderr)
	}

	stop()
	if err := logging.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to close log file: %v\n", err)
	}
	os.Exit(code)
}

func newConverter(cfg *config.Config) *converter.Converter {
	c := converter.New(converter.Options{
		InputFile:     cfg.InputFile,
		OutputFile:    cfg.OutputFile,
		Format:        cfg.OutputFormat,
		Schema:        cfg.Schema,
		ProductPolicy: cfg.ProductPolicy,
		ErrorPolicy:   cfg.ErrorPolicy,
	})
	if cfg.InputURL != "" {
		c.WithFetcher(source.NewDownloader(cfg.InputURL, cfg.InputFile))
	}
	return c
}

// convert runs a single conversion and returns the process exit code. Any
// halting error is reported on stderr as one "Error: ..." line.
func convert(ctx context.Context, cfg *config.Config, stderr io.Writer) int {
	result, err := newConverter(cfg).Run(ctx)

	if cfg.MetricsFile != "" {
		if mErr := metrics.WriteTextfile(cfg.MetricsFile); mErr != nil {
			logging.Warn("Failed to write metrics", "error", mErr)
		}
	}

	if err != nil {
		logging.Error("Conversion failed", "run_id", result.RunID, "error", err)
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// serve keeps the mapping fresh in memory and answers lookups until ctx is done
func serve(ctx context.Context, cfg *config.Config) int {
	container := data.NewDataContainer()

	sched := scheduler.NewScheduler(container, newConverter(cfg), cfg.RefreshAt)
	if err := sched.Start(); err != nil {
		logging.Error("Failed to start scheduler", "error", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer sched.Stop()

	srv := server.NewServer(cfg, container)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		logging.Error("Server failed to start", "error", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return 1
	}
	return 0
}

// Package converter runs one complete DrugBank to brand/generic mapping
// conversion: read the input document, flatten it, write the output.
package converter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/giygas/drugbank-mapping/drugbank"
	"github.com/giygas/drugbank-mapping/export"
	"github.com/giygas/drugbank-mapping/logging"
	"github.com/giygas/drugbank-mapping/mapping"
	"github.com/giygas/drugbank-mapping/metrics"
	"github.com/google/uuid"
)

// ErrInputAccess marks an input document that could not be opened or parsed
var ErrInputAccess = errors.New("input access failed")

// InputError names the input file that could not be read
type InputError struct {
	Path string
	Err  error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("could not read in data from file %s: %v", e.Path, e.Err)
}

func (e *InputError) Unwrap() []error {
	return []error{ErrInputAccess, e.Err}
}

// Options describes one conversion
type Options struct {
	InputFile     string
	OutputFile    string
	Format        export.Format
	Schema        drugbank.Schema
	ProductPolicy drugbank.ProductPolicy
	ErrorPolicy   mapping.ErrorPolicy
}

// Result summarises a conversion run
type Result struct {
	RunID    string
	Stats    mapping.Stats
	Duration time.Duration
}

// Fetcher refreshes the input file before a conversion
type Fetcher interface {
	Fetch(ctx context.Context) error
}

// Converter runs conversions with fixed options
type Converter struct {
	opts    Options
	fetcher Fetcher
}

// New creates a converter
func New(opts Options) *Converter {
	return &Converter{opts: opts}
}

// WithFetcher makes every run refresh the input file first
func (c *Converter) WithFetcher(f Fetcher) *Converter {
	c.fetcher = f
	return c
}

// Run converts the input file into the output file. The input is parsed
// completely before the output is touched, so an Input-Access error leaves
// any previous output in place. Rows also go to every extra sink.
func (c *Converter) Run(ctx context.Context, extra ...mapping.Sink) (Result, error) {
	result := Result{RunID: uuid.NewString()}
	log := logging.With("run_id", result.RunID)
	start := time.Now()

	log.Info("Starting conversion", "input", c.opts.InputFile, "output", c.opts.OutputFile, "format", c.opts.Format)

	if c.fetcher != nil {
		if err := c.fetcher.Fetch(ctx); err != nil {
			return result, &InputError{Path: c.opts.InputFile, Err: err}
		}
	}

	doc, err := readDocument(c.opts.InputFile)
	if err != nil {
		return result, err
	}

	sink, err := export.Open(c.opts.Format, c.opts.OutputFile)
	if err != nil {
		return result, fmt.Errorf("failed to open output: %w", err)
	}
	if len(extra) > 0 {
		sink = mapping.Tee(append([]mapping.Sink{sink}, extra...)...)
	}

	if err := sink.WriteHeader(mapping.Header); err != nil {
		_ = sink.Close()
		return result, fmt.Errorf("failed to write header to %s: %w", c.opts.OutputFile, err)
	}

	extractor := drugbank.NewExtractor(c.opts.Schema, c.opts.ProductPolicy)
	stats, flattenErr := mapping.NewFlattener(extractor, c.opts.ErrorPolicy).Flatten(ctx, doc, sink)
	closeErr := sink.Close()

	result.Stats = stats
	result.Duration = time.Since(start)

	if flattenErr != nil {
		log.Error("Conversion halted", "error", flattenErr, "records", stats.Records, "rows", stats.Rows)
		return result, flattenErr
	}
	if closeErr != nil {
		return result, fmt.Errorf("failed to finalize output %s: %w", c.opts.OutputFile, closeErr)
	}

	metrics.ConversionDuration.Observe(result.Duration.Seconds())
	metrics.LastSuccess.SetToCurrentTime()

	if stats.Skipped > 0 {
		log.Warn("Conversion skipped drug records", "skipped", stats.Skipped, "errors", stats.Err())
	}
	log.Info("Conversion completed",
		"duration", result.Duration.String(),
		"records", stats.Records,
		"rows", stats.Rows,
		"skipped", stats.Skipped,
	)

	return result, nil
}

func readDocument(path string) (*drugbank.Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &InputError{Path: path, Err: err}
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("Failed to close input file", "error", err)
		}
	}()

	doc, err := drugbank.Parse(file)
	if err != nil {
		return nil, &InputError{Path: path, Err: err}
	}
	return doc, nil
}

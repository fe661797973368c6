// Package mapping flattens condensed drug records into brand/generic rows.
package mapping

import (
	"context"
	"errors"
	"fmt"

	"github.com/giygas/drugbank-mapping/drugbank"
	"github.com/giygas/drugbank-mapping/logging"
	"github.com/giygas/drugbank-mapping/metrics"
)

// Header is the fixed column order of every output destination
var Header = []string{"brand_name", "generic_name"}

// Row pairs one brand name with the generic name it maps to
type Row struct {
	BrandName   string `json:"brand_name"`
	GenericName string `json:"generic_name"`
}

// Values returns the row in Header order
func (r Row) Values() []string {
	return []string{r.BrandName, r.GenericName}
}

// Sink receives rows as soon as they are produced
type Sink interface {
	WriteHeader(columns []string) error
	WriteRow(row Row) error
	Close() error
}

// RecordExtractor condenses one drug record
type RecordExtractor interface {
	Extract(record *drugbank.Element) (drugbank.Mapping, error)
}

// ErrorPolicy decides what a failed record does to the rest of the run
type ErrorPolicy string

const (
	// ErrorHalt stops at the first record that fails extraction
	ErrorHalt ErrorPolicy = "halt"
	// ErrorContinue logs the failed record, skips it and keeps going
	ErrorContinue ErrorPolicy = "continue"
)

// ParseErrorPolicy converts a configuration value into an ErrorPolicy
func ParseErrorPolicy(s string) (ErrorPolicy, error) {
	switch p := ErrorPolicy(s); p {
	case ErrorHalt, ErrorContinue:
		return p, nil
	}
	return "", fmt.Errorf("error policy must be one of [halt continue], got: %s", s)
}

// Stats summarises one flatten pass
type Stats struct {
	Records  int     // records extracted successfully
	Rows     int     // rows written to the sink
	Skipped  int     // records skipped under ErrorContinue
	Failures []error // extraction failures of skipped records
}

// Err joins every skipped record failure, or returns nil
func (s Stats) Err() error {
	return errors.Join(s.Failures...)
}

// Flattener expands every record of a document into rows
type Flattener struct {
	extractor RecordExtractor
	policy    ErrorPolicy
}

// NewFlattener creates a flattener; an empty policy means ErrorHalt
func NewFlattener(extractor RecordExtractor, policy ErrorPolicy) *Flattener {
	if policy == "" {
		policy = ErrorHalt
	}
	return &Flattener{extractor: extractor, policy: policy}
}

// Flatten writes one row per (brand, generic) pair of every record, in
// document order. Under ErrorHalt the first extraction error is returned and
// the rows of earlier records stay written.
func (f *Flattener) Flatten(ctx context.Context, doc *drugbank.Document, sink Sink) (Stats, error) {
	var stats Stats

	for i, record := range doc.Records() {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		m, err := f.extractor.Extract(record)
		if err != nil {
			metrics.ExtractionErrors.WithLabelValues(failedField(err)).Inc()
			err = fmt.Errorf("record %d: %w", i+1, err)

			if f.policy == ErrorHalt {
				return stats, err
			}

			logging.Warn("Skipping drug record", "error", err)
			stats.Skipped++
			stats.Failures = append(stats.Failures, err)
			continue
		}

		stats.Records++
		metrics.RecordsProcessed.Inc()

		for _, brand := range m.Brands() {
			if err := sink.WriteRow(Row{BrandName: brand, GenericName: m.GenericName}); err != nil {
				return stats, fmt.Errorf("failed to write row for %s: %w", m.GenericName, err)
			}
			stats.Rows++
			metrics.RowsWritten.Inc()
		}
	}

	return stats, nil
}

func failedField(err error) string {
	var extractionErr *drugbank.ExtractionError
	if errors.As(err, &extractionErr) {
		return extractionErr.Field
	}
	return "unknown"
}

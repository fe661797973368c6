// Package metrics provides Prometheus metrics for conversion runs and for the
// lookup HTTP server.
//
// Conversion metrics:
//   - drugmap_records_processed_total: drug records extracted successfully
//   - drugmap_rows_written_total: brand/generic rows written to the output
//   - drugmap_extraction_errors_total: failed records by field
//   - drugmap_conversion_duration_seconds: wall time of a full run
//   - drugmap_last_success_timestamp_seconds: unix time of the last good run
//
// All metrics are registered with the Prometheus default registry during
// package initialization.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	RecordsProcessed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "drugmap_records_processed_total",
			Help: "Drug records extracted successfully",
		},
	)

	RowsWritten = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "drugmap_rows_written_total",
			Help: "Brand/generic rows written to the output",
		},
	)

	ExtractionErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drugmap_extraction_errors_total",
			Help: "Drug records that failed field extraction",
		},
		[]string{"field"},
	)

	ConversionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "drugmap_conversion_duration_seconds",
			Help:    "Duration of a complete conversion run",
			Buckets: []float64{.1, .5, 1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	LastSuccess = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "drugmap_last_success_timestamp_seconds",
			Help: "Unix time of the last successful conversion",
		},
	)

	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)
)

func init() {
	prometheus.MustRegister(RecordsProcessed)
	prometheus.MustRegister(RowsWritten)
	prometheus.MustRegister(ExtractionErrors)
	prometheus.MustRegister(ConversionDuration)
	prometheus.MustRegister(LastSuccess)
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
}

// WriteTextfile dumps the default registry in the node exporter textfile
// format, for one-shot runs that are never scraped
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("failed to write metrics textfile %s: %w", path, err)
	}
	return nil
}

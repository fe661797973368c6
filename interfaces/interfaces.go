// Package interfaces defines the abstractions shared by the lookup service
// so the scheduler, handlers and health checks can be tested in isolation.
package interfaces

import (
	"context"
	"net/http"
	"time"

	"github.com/giygas/drugbank-mapping/converter"
	"github.com/giygas/drugbank-mapping/mapping"
)

// DataQualityReport summarises oddities found in a freshly converted mapping
type DataQualityReport struct {
	AmbiguousBrands      int      // brands mapped to more than one generic
	AmbiguousBrandsList  []string // first 10 ambiguous brands
	SkippedRecords       int
	SelfNamedBrands      int // rows whose brand equals the generic name
}

// Summary describes the mapping currently served
type Summary struct {
	Rows     int
	Brands   int
	Generics int
	Records  int
	Skipped  int
}

// DataStore defines the contract for the in-memory brand/generic mapping.
// Reads are lock free and updates swap the whole index atomically.
type DataStore interface {
	GenericsForBrand(brand string) ([]string, bool)
	BrandsForGeneric(generic string) ([]string, bool)
	GetRows() []mapping.Row
	GetSummary() Summary
	GetLastUpdated() time.Time
	IsUpdating() bool
	GetServerStartTime() time.Time

	UpdateData(rows []mapping.Row, stats mapping.Stats)
	BeginUpdate() bool
	EndUpdate()
}

// Converter produces the mapping, forwarding every row to the extra sinks
type Converter interface {
	Run(ctx context.Context, extra ...mapping.Sink) (converter.Result, error)
}

// Scheduler defines the contract for scheduled mapping refreshes
type Scheduler interface {
	Start() error
	Stop()
}

// HTTPHandler defines the lookup endpoints
type HTTPHandler interface {
	FindBrand(w http.ResponseWriter, r *http.Request)
	FindGeneric(w http.ResponseWriter, r *http.Request)
	ServePagedMappings(w http.ResponseWriter, r *http.Request)
	HealthCheck(w http.ResponseWriter, r *http.Request)
}

// HealthChecker reports service health from the state of the data store
type HealthChecker interface {
	HealthCheck() (status string, details map[string]any, httpStatus int)
	CalculateNextUpdate() time.Time
}

// DataValidator validates lookup input and reports on mapping quality
type DataValidator interface {
	ValidateName(input string) error
	ValidatePage(input string) (int, error)
	ReportDataQuality(rows []mapping.Row, stats mapping.Stats) *DataQualityReport
}

// Package data provides the thread-safe in-memory brand/generic mapping served
// by the lookup API. The whole index is swapped atomically after each refresh.
package data

import (
	"sort"
	"sync/atomic"
	"time"

	"github.com/giygas/drugbank-mapping/interfaces"
	"github.com/giygas/drugbank-mapping/logging"
	"github.com/giygas/drugbank-mapping/mapping"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Compile-time check to ensure DataContainer implements DataStore
var _ interfaces.DataStore = (*DataContainer)(nil)

// Index is an immutable view of one converted mapping
type Index struct {
	rows     []mapping.Row
	brands   map[string][]string // brand -> generics
	generics map[string][]string // generic -> brands
	stats    mapping.Stats
}

// NewIndex builds lookup maps from flattened rows. Both directions list
// their values sorted and without duplicates.
func NewIndex(rows []mapping.Row, stats mapping.Stats) *Index {
	idx := &Index{
		rows:     rows,
		brands:   make(map[string][]string),
		generics: make(map[string][]string),
		stats:    stats,
	}

	seen := make(map[mapping.Row]struct{}, len(rows))
	for _, row := range rows {
		if _, dup := seen[row]; dup {
			continue
		}
		seen[row] = struct{}{}
		idx.brands[row.BrandName] = append(idx.brands[row.BrandName], row.GenericName)
		idx.generics[row.GenericName] = append(idx.generics[row.GenericName], row.BrandName)
	}
	for _, v := range idx.brands {
		sort.Strings(v)
	}
	for _, v := range idx.generics {
		sort.Strings(v)
	}

	return idx
}

// DataContainer holds the current index with atomic pointers for zero-downtime updates
type DataContainer struct {
	index           atomic.Pointer[Index]
	lastUpdated     atomic.Value // time.Time
	updating        atomic.Bool
	serverStartTime atomic.Value // time.Time
}

// NewDataContainer creates a new DataContainer with an empty index
func NewDataContainer() *DataContainer {
	dc := &DataContainer{}
	dc.index.Store(NewIndex(nil, mapping.Stats{}))
	dc.lastUpdated.Store(time.Time{})
	dc.serverStartTime.Store(time.Time{})
	return dc
}

func (dc *DataContainer) current() *Index {
	if idx := dc.index.Load(); idx != nil {
		return idx
	}
	logging.Warn("Mapping index is empty or invalid")
	return NewIndex(nil, mapping.Stats{})
}

// normalize folds a lookup key the same way extracted names are folded
func normalize(name string) string {
	return cases.Lower(language.Und).String(name)
}

// GenericsForBrand returns the generic names a brand maps to
func (dc *DataContainer) GenericsForBrand(brand string) ([]string, bool) {
	generics, ok := dc.current().brands[normalize(brand)]
	return generics, ok
}

// BrandsForGeneric returns the brand names of a generic drug
func (dc *DataContainer) BrandsForGeneric(generic string) ([]string, bool) {
	brands, ok := dc.current().generics[normalize(generic)]
	return brands, ok
}

// GetRows returns the rows in output order
func (dc *DataContainer) GetRows() []mapping.Row {
	return dc.current().rows
}

// GetSummary returns counts for the current index
func (dc *DataContainer) GetSummary() interfaces.Summary {
	idx := dc.current()
	return interfaces.Summary{
		Rows:     len(idx.rows),
		Brands:   len(idx.brands),
		Generics: len(idx.generics),
		Records:  idx.stats.Records,
		Skipped:  idx.stats.Skipped,
	}
}

// GetLastUpdated returns the timestamp of the last data update
func (dc *DataContainer) GetLastUpdated() time.Time {
	if v := dc.lastUpdated.Load(); v != nil {
		if lastUpdated, ok := v.(time.Time); ok {
			return lastUpdated
		}
	}

	logging.Warn("Could not get the last updated value")
	return time.Time{}
}

// IsUpdating returns true if a data update is currently in progress
func (dc *DataContainer) IsUpdating() bool {
	return dc.updating.Load()
}

// SetServerStartTime sets the server start time
func (dc *DataContainer) SetServerStartTime(startTime time.Time) {
	dc.serverStartTime.Store(startTime)
}

// GetServerStartTime returns the server start time
func (dc *DataContainer) GetServerStartTime() time.Time {
	if v := dc.serverStartTime.Load(); v != nil {
		if startTime, ok := v.(time.Time); ok {
			return startTime
		}
	}
	return time.Time{}
}

// UpdateData builds a new index from the rows and swaps it in
func (dc *DataContainer) UpdateData(rows []mapping.Row, stats mapping.Stats) {
	dc.index.Store(NewIndex(rows, stats))
	dc.lastUpdated.Store(time.Now())
}

// BeginUpdate marks the start of a data update operation
// Returns true if update can proceed, false if another update is in progress
func (dc *DataContainer) BeginUpdate() bool {
	return dc.updating.CompareAndSwap(false, true)
}

// EndUpdate marks the end of a data update operation
func (dc *DataContainer) EndUpdate() {
	dc.updating.Store(false)
}

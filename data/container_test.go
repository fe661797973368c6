package data

import (
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/giygas/drugbank-mapping/mapping"
)

func sampleRows() []mapping.Row {
	return []mapping.Row{
		{BrandName: "bayer", GenericName: "aspirin"},
		{BrandName: "advil", GenericName: "ibuprofen"},
		{BrandName: "motrin", GenericName: "ibuprofen"},
		{BrandName: "nurofen", GenericName: "ibuprofen"},
		{BrandName: "nurofen", GenericName: "ibuprofen lysine"},
	}
}

func TestNewDataContainer(t *testing.T) {
	dc := NewDataContainer()

	if dc.IsUpdating() {
		t.Error("NewDataContainer should not be updating")
	}
	if !dc.GetLastUpdated().IsZero() {
		t.Error("NewDataContainer should have zero lastUpdated time")
	}
	if len(dc.GetRows()) != 0 {
		t.Error("NewDataContainer should have no rows")
	}
	if _, ok := dc.GenericsForBrand("advil"); ok {
		t.Error("Empty container should not find any brand")
	}
}

func TestUpdateData(t *testing.T) {
	dc := NewDataContainer()
	dc.UpdateData(sampleRows(), mapping.Stats{Records: 3, Rows: 5, Skipped: 1})

	if dc.GetLastUpdated().IsZero() {
		t.Error("LastUpdated should be set after UpdateData")
	}

	summary := dc.GetSummary()
	if summary.Rows != 5 || summary.Brands != 4 || summary.Generics != 3 {
		t.Errorf("Unexpected summary %+v", summary)
	}
	if summary.Records != 3 || summary.Skipped != 1 {
		t.Errorf("Summary should carry conversion stats, got %+v", summary)
	}
}

func TestLookups(t *testing.T) {
	dc := NewDataContainer()
	dc.UpdateData(sampleRows(), mapping.Stats{})

	tests := []struct {
		name     string
		lookup   func(string) ([]string, bool)
		key      string
		expected []string
		found    bool
	}{
		{"brand", dc.GenericsForBrand, "advil", []string{"ibuprofen"}, true},
		{"brand is case insensitive", dc.GenericsForBrand, "ADVIL", []string{"ibuprofen"}, true},
		{"brand with two generics", dc.GenericsForBrand, "nurofen", []string{"ibuprofen", "ibuprofen lysine"}, true},
		{"generic brands sorted", dc.BrandsForGeneric, "Ibuprofen", []string{"advil", "motrin", "nurofen"}, true},
		{"unknown brand", dc.GenericsForBrand, "tylenol", nil, false},
		{"unknown generic", dc.BrandsForGeneric, "paracetamol", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.lookup(tt.key)
			if ok != tt.found {
				t.Fatalf("lookup(%q) found = %v, want %v", tt.key, ok, tt.found)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("lookup(%q) = %v, want %v", tt.key, got, tt.expected)
			}
		})
	}
}

func TestNewIndexIgnoresDuplicateRows(t *testing.T) {
	rows := []mapping.Row{
		{BrandName: "advil", GenericName: "ibuprofen"},
		{BrandName: "advil", GenericName: "ibuprofen"},
	}
	idx := NewIndex(rows, mapping.Stats{})

	if got := idx.brands["advil"]; len(got) != 1 {
		t.Errorf("Expected a single generic for advil, got %v", got)
	}
	// Rows are kept as converted
	if len(idx.rows) != 2 {
		t.Errorf("Expected 2 rows, got %d", len(idx.rows))
	}
}

func TestBeginUpdateEndUpdate(t *testing.T) {
	dc := NewDataContainer()

	if !dc.BeginUpdate() {
		t.Error("BeginUpdate should return true first time")
	}
	if !dc.IsUpdating() {
		t.Error("Should be updating after BeginUpdate")
	}
	if dc.BeginUpdate() {
		t.Error("BeginUpdate should return false when already updating")
	}

	dc.EndUpdate()
	if dc.IsUpdating() {
		t.Error("Should not be updating after EndUpdate")
	}
	if !dc.BeginUpdate() {
		t.Error("BeginUpdate should return true after EndUpdate")
	}
	dc.EndUpdate()
}

func TestServerStartTime(t *testing.T) {
	dc := NewDataContainer()
	if !dc.GetServerStartTime().IsZero() {
		t.Error("Server start time should initially be zero")
	}

	now := time.Now()
	dc.SetServerStartTime(now)
	if !dc.GetServerStartTime().Equal(now) {
		t.Errorf("Expected %v, got %v", now, dc.GetServerStartTime())
	}
}

func TestConcurrentAccess(t *testing.T) {
	dc := NewDataContainer()
	dc.UpdateData(sampleRows(), mapping.Stats{})

	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if _, ok := dc.GenericsForBrand("advil"); !ok {
					t.Errorf("Reader %d: advil disappeared during an update", id)
					return
				}
				if len(dc.GetRows()) == 0 {
					t.Errorf("Reader %d: expected rows", id)
					return
				}
			}
		}(i)
	}

	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				if dc.BeginUpdate() {
					dc.UpdateData(sampleRows(), mapping.Stats{})
					dc.EndUpdate()
				}
				time.Sleep(100 * time.Microsecond)
			}
		}()
	}

	wg.Wait()
}

func BenchmarkGenericsForBrand(b *testing.B) {
	dc := NewDataContainer()
	dc.UpdateData(sampleRows(), mapping.Stats{})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		dc.GenericsForBrand("Motrin")
	}
}

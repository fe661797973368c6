package export

import (
	"fmt"

	"github.com/giygas/drugbank-mapping/logging"
	"github.com/giygas/drugbank-mapping/mapping"
	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet holding the mapping in xlsx output
const SheetName = "drug_mapping"

// XLSXSink streams rows into a single worksheet. The workbook is only
// written to disk on Close.
type XLSXSink struct {
	path   string
	file   *excelize.File
	stream *excelize.StreamWriter
	row    int
}

// CreateXLSX prepares a new workbook that will replace path on Close
func CreateXLSX(path string) (*XLSXSink, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to name worksheet: %w", err)
	}

	stream, err := f.NewStreamWriter(SheetName)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to open worksheet stream: %w", err)
	}

	return &XLSXSink{path: path, file: f, stream: stream}, nil
}

func (x *XLSXSink) WriteHeader(columns []string) error {
	return x.setRow(columns)
}

func (x *XLSXSink) WriteRow(row mapping.Row) error {
	return x.setRow(row.Values())
}

func (x *XLSXSink) setRow(values []string) error {
	x.row++
	cell, err := excelize.CoordinatesToCellName(1, x.row)
	if err != nil {
		return err
	}

	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return x.stream.SetRow(cell, cells)
}

func (x *XLSXSink) Close() error {
	defer func() {
		if err := x.file.Close(); err != nil {
			logging.Warn("Failed to release workbook", "error", err)
		}
	}()

	if err := x.stream.Flush(); err != nil {
		return fmt.Errorf("failed to flush worksheet: %w", err)
	}
	if err := x.file.SaveAs(x.path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", x.path, err)
	}
	return nil
}

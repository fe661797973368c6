// Package export writes brand/generic rows to the supported output formats.
// Every destination is created from scratch, existing content is discarded.
package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/giygas/drugbank-mapping/mapping"
)

// Format is an output file format
type Format string

const (
	FormatCSV    Format = "csv"
	FormatTSV    Format = "tsv"
	FormatXLSX   Format = "xlsx"
	FormatSQLite Format = "sqlite"
)

// Formats lists every supported format
var Formats = []Format{FormatCSV, FormatTSV, FormatXLSX, FormatSQLite}

// ParseFormat converts a configuration value into a Format
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("output format must be one of: %v, got: %s", Formats, s)
}

// Open creates the destination at path for the given format
func Open(format Format, path string) (mapping.Sink, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}

	switch format {
	case FormatCSV:
		return CreateDelimited(path, ',')
	case FormatTSV:
		return CreateDelimited(path, '\t')
	case FormatXLSX:
		return CreateXLSX(path)
	case FormatSQLite:
		return CreateSQLite(path)
	}
	return nil, fmt.Errorf("unsupported output format: %s", format)
}

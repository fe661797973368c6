package export

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/giygas/drugbank-mapping/mapping"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var testRows = []mapping.Row{
	{BrandName: "advil", GenericName: "ibuprofen"},
	{BrandName: "motrin", GenericName: "ibuprofen"},
	{BrandName: "bayer", GenericName: "aspirin"},
}

func writeAll(t *testing.T, sink mapping.Sink) {
	t.Helper()
	require.NoError(t, sink.WriteHeader(mapping.Header))
	for _, row := range testRows {
		require.NoError(t, sink.WriteRow(row))
	}
	require.NoError(t, sink.Close())
}

func TestParseFormat(t *testing.T) {
	for _, f := range Formats {
		got, err := ParseFormat(string(f))
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}

	_, err := ParseFormat("json")
	assert.ErrorContains(t, err, "output format must be one of")
}

func TestDelimited_OverwritesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drugMapping.csv")
	require.NoError(t, os.WriteFile(path, []byte("stale,content\nfrom,before\nand,more\nlines,here\n"), 0o644))

	sink, err := Open(FormatCSV, path)
	require.NoError(t, err)
	writeAll(t, sink)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "brand_name,generic_name\nadvil,ibuprofen\nmotrin,ibuprofen\nbayer,aspirin\n", string(content))
}

func TestDelimited_QuotesAndTabs(t *testing.T) {
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "out.csv")
	sink, err := Open(FormatCSV, csvPath)
	require.NoError(t, err)
	require.NoError(t, sink.WriteHeader(mapping.Header))
	require.NoError(t, sink.WriteRow(mapping.Row{BrandName: "tylenol, extra strength", GenericName: "acetaminophen"}))
	require.NoError(t, sink.Close())

	content, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "\"tylenol, extra strength\",acetaminophen\n")

	tsvPath := filepath.Join(dir, "out.tsv")
	sink, err = Open(FormatTSV, tsvPath)
	require.NoError(t, err)
	writeAll(t, sink)

	content, err = os.ReadFile(tsvPath)
	require.NoError(t, err)
	assert.Equal(t, "brand_name\tgeneric_name\nadvil\tibuprofen\nmotrin\tibuprofen\nbayer\taspirin\n", string(content))
}

func TestOpen_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "nested", "drugMapping.csv")

	sink, err := Open(FormatCSV, path)
	require.NoError(t, err)
	require.NoError(t, sink.Close())
	assert.FileExists(t, path)
}

func TestXLSX_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drugMapping.xlsx")

	sink, err := Open(FormatXLSX, path)
	require.NoError(t, err)
	writeAll(t, sink)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"brand_name", "generic_name"},
		{"advil", "ibuprofen"},
		{"motrin", "ibuprofen"},
		{"bayer", "aspirin"},
	}, rows)
}

func TestSQLite_RoundTripAndOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drugMapping.db")

	// a first run leaves rows behind, the second must replace them
	for run := 0; run < 2; run++ {
		sink, err := Open(FormatSQLite, path)
		require.NoError(t, err)
		writeAll(t, sink)
	}

	conn, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer conn.Close()

	var count int
	require.NoError(t, conn.QueryRow("SELECT COUNT(*) FROM "+TableName).Scan(&count))
	assert.Equal(t, len(testRows), count)

	var generic string
	require.NoError(t, conn.QueryRow("SELECT generic_name FROM "+TableName+" WHERE brand_name = ?", "motrin").Scan(&generic))
	assert.Equal(t, "ibuprofen", generic)
}

func TestSQLite_RejectsBadHeader(t *testing.T) {
	sink, err := CreateSQLite(filepath.Join(t.TempDir(), "bad.db"))
	require.NoError(t, err)
	defer sink.Close()

	assert.Error(t, sink.WriteHeader([]string{"brand name", "generic_name"}))
	assert.ErrorContains(t, sink.WriteRow(testRows[0]), "header must be written")
}

package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/giygas/drugbank-mapping/mapping"
)

// DelimitedSink writes character separated rows, flushed after every row
type DelimitedSink struct {
	out    io.WriteCloser
	writer *csv.Writer
}

// CreateDelimited truncates or creates path and writes rows separated by comma
func CreateDelimited(path string, comma rune) (*DelimitedSink, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file %s: %w", path, err)
	}
	return NewDelimited(file, comma), nil
}

// NewDelimited wraps an already open destination
func NewDelimited(out io.WriteCloser, comma rune) *DelimitedSink {
	writer := csv.NewWriter(out)
	writer.Comma = comma
	return &DelimitedSink{out: out, writer: writer}
}

func (d *DelimitedSink) WriteHeader(columns []string) error {
	return d.write(columns)
}

func (d *DelimitedSink) WriteRow(row mapping.Row) error {
	return d.write(row.Values())
}

func (d *DelimitedSink) write(record []string) error {
	if err := d.writer.Write(record); err != nil {
		return err
	}
	d.writer.Flush()
	return d.writer.Error()
}

func (d *DelimitedSink) Close() error {
	d.writer.Flush()
	flushErr := d.writer.Error()
	if err := d.out.Close(); err != nil {
		return err
	}
	return flushErr
}

package mapping

import "errors"

// MemorySink keeps every row in memory
type MemorySink struct {
	Columns []string
	Rows    []Row
	closed  bool
}

func (m *MemorySink) WriteHeader(columns []string) error {
	m.Columns = append([]string(nil), columns...)
	return nil
}

func (m *MemorySink) WriteRow(row Row) error {
	if m.closed {
		return errors.New("write to closed sink")
	}
	m.Rows = append(m.Rows, row)
	return nil
}

func (m *MemorySink) Close() error {
	m.closed = true
	return nil
}

// Tee returns a sink that forwards everything to each of sinks in order
func Tee(sinks ...Sink) Sink {
	return teeSink(sinks)
}

type teeSink []Sink

func (t teeSink) WriteHeader(columns []string) error {
	for _, s := range t {
		if err := s.WriteHeader(columns); err != nil {
			return err
		}
	}
	return nil
}

func (t teeSink) WriteRow(row Row) error {
	for _, s := range t {
		if err := s.WriteRow(row); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every sink even if one of them fails
func (t teeSink) Close() error {
	var errs []error
	for _, s := range t {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}

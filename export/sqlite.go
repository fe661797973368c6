package export

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/giygas/drugbank-mapping/mapping"
	_ "modernc.org/sqlite"
)

// TableName is the table holding the mapping in sqlite output
const TableName = "drug_mapping"

var columnRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// SQLiteSink inserts rows inside one transaction committed on Close
type SQLiteSink struct {
	conn *sql.DB
	tx   *sql.Tx
	stmt *sql.Stmt
}

// CreateSQLite replaces path with a fresh database
func CreateSQLite(path string) (*SQLiteSink, error) {
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to remove previous database %s: %w", p, err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	// one writer; the schema statements and the insert transaction share it
	conn.SetMaxOpenConns(1)
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}

	return &SQLiteSink{conn: conn}, nil
}

// WriteHeader creates the table with one TEXT column per header entry
func (s *SQLiteSink) WriteHeader(columns []string) error {
	if len(columns) == 0 {
		return errors.New("sqlite table needs at least one column")
	}
	for _, c := range columns {
		if !columnRegex.MatchString(c) {
			return fmt.Errorf("invalid column name %q", c)
		}
	}

	defs := make([]string, len(columns))
	marks := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = c + " TEXT NOT NULL"
		marks[i] = "?"
	}

	schema := fmt.Sprintf("CREATE TABLE %s (%s)", TableName, strings.Join(defs, ", "))
	if _, err := s.conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	if _, err := s.conn.Exec(fmt.Sprintf("CREATE INDEX idx_%s_%s ON %s(%s)", TableName, columns[0], TableName, columns[0])); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	stmt, err := tx.Prepare(fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		TableName, strings.Join(columns, ", "), strings.Join(marks, ", ")))
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to prepare insert: %w", err)
	}

	s.tx, s.stmt = tx, stmt
	return nil
}

func (s *SQLiteSink) WriteRow(row mapping.Row) error {
	if s.stmt == nil {
		return errors.New("header must be written before rows")
	}
	values := row.Values()
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	if _, err := s.stmt.Exec(args...); err != nil {
		return fmt.Errorf("failed to insert row: %w", err)
	}
	return nil
}

// Close commits the rows written so far
func (s *SQLiteSink) Close() error {
	var errs []error
	if s.stmt != nil {
		errs = append(errs, s.stmt.Close())
	}
	if s.tx != nil {
		if err := s.tx.Commit(); err != nil {
			errs = append(errs, fmt.Errorf("failed to commit rows: %w", err))
		}
	}
	errs = append(errs, s.conn.Close())
	return errors.Join(errs...)
}

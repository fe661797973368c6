package drugbank

import (
	"errors"
	"fmt"
)

// ErrFieldExtraction marks a record whose required field could not be read
var ErrFieldExtraction = errors.New("field extraction failed")

// Field names reported by ExtractionError
const (
	FieldGenericName = "generic_name"
	FieldBrandName   = "brand_name"
)

// ExtractionError describes which field of which record could not be read
type ExtractionError struct {
	Field  string
	Record string // DrugBank id of the record when it has one
	Err    error
}

func (e *ExtractionError) Error() string {
	msg := fmt.Sprintf("could not retrieve %s data of drug", e.Field)
	if e.Record != "" {
		msg += " " + e.Record
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the sentinel and the underlying cause to errors.Is
func (e *ExtractionError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrFieldExtraction}
	}
	return []error{ErrFieldExtraction, e.Err}
}

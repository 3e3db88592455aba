package actions

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind classifies why a table, or the whole run, failed.
type ErrorKind string

const (
	CatalogError     ErrorKind = "CatalogError"     // metadata could not be read; fatal to the run unless scoped to one table.
	TypeMappingError ErrorKind = "TypeMappingError" // a source type has no target mapping.
	ExportError      ErrorKind = "ExportError"      // the source failed mid-stream; nothing was staged.
	StagingError     ErrorKind = "StagingError"     // the object store write failed.
	LoadError        ErrorKind = "LoadError"        // the warehouse rejected DDL or COPY; the live table was preserved.
)

// Error lets a kind be matched with errors.Is, e.g. errors.Is(err, LoadError).
func (k ErrorKind) Error() string {
	return string(k)
}

// TableError is the failure of a single table. Table is empty for run level failures.
type TableError struct {
	Kind  ErrorKind
	Table string
	Err   error
}

func newTableError(kind ErrorKind, table string, err error) *TableError {
	return &TableError{Kind: kind, Table: table, Err: err}
}

func (e *TableError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%v for table %v: %v", e.Kind, e.Table, e.Err)
}

func (e *TableError) Unwrap() error {
	return e.Err
}

// Is matches the error's kind as well as anything it wraps.
func (e *TableError) Is(target error) bool {
	k, ok := target.(ErrorKind)
	return ok && k == e.Kind
}

// KindOf returns the kind of the first TableError in err's chain, or empty string.
func KindOf(err error) ErrorKind {
	var te *TableError
	if errors.As(err, &te) {
		return te.Kind
	}
	return ""
}

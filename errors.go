package sockdb

import (
	"errors"
	"fmt"
)

// Error taxonomy for the whole engine. Every failure is recoverable and
// returned to the caller; the core never panics and never exits the process.
var (
	// ErrTableNotFound: the statement names a table the database does not have.
	ErrTableNotFound = errors.New("table not found")

	// ErrTableAlreadyExists: CREATE TABLE with a name already taken
	// (case-insensitive).
	ErrTableAlreadyExists = errors.New("table already exists")

	// ErrColumnNotFound: an identifier does not resolve against the bound
	// table. Wrapped by ColumnNotFoundError which carries the names.
	ErrColumnNotFound = errors.New("column not found")

	// ErrInvalidQuery: type or shape mismatch during evaluation, or a
	// malformed statement shape.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrInvalidOperation: a recognized but disallowed action, e.g. updating
	// a primary key or applying IS TRUE to a non-boolean operand.
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrUnsupported: a recognized construct the engine does not implement,
	// e.g. non-literal INSERT values or UPDATE without a WHERE clause.
	ErrUnsupported = errors.New("unsupported")

	// ErrEvaluation: the expression cannot be evaluated in this context,
	// e.g. an identifier with no table bound.
	ErrEvaluation = errors.New("evaluation error")
)

// ColumnNotFoundError names both the missing column and the table it was
// looked up in. errors.Is(err, ErrColumnNotFound) holds for it.
type ColumnNotFoundError struct {
	Column string
	Table  string
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("column %q not found in table %q", e.Column, e.Table)
}

func (e *ColumnNotFoundError) Unwrap() error { return ErrColumnNotFound }

package tabular

import "fmt"

// MissingInputError means a report was not supplied at all.
type MissingInputError struct {
	Field string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("missing input %q", e.Field)
}

// MissingColumnError names a required column absent from a table header.
type MissingColumnError struct {
	Table  string
	Column string
}

func (e *MissingColumnError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("missing required column %q", e.Column)
	}
	return fmt.Sprintf("%s: missing required column %q", e.Table, e.Column)
}

// MalformedInputError wraps content that could not be parsed as a table.
// Line is 1-based and zero when unknown.
type MalformedInputError struct {
	Table string
	Line  int
	Err   error
}

func (e *MalformedInputError) Error() string {
	prefix := "malformed input"
	if e.Table != "" {
		prefix = e.Table + ": " + prefix
	}
	if e.Line > 0 {
		return fmt.Sprintf("%s at line %d: %v", prefix, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: %v", prefix, e.Err)
}

func (e *MalformedInputError) Unwrap() error { return e.Err }

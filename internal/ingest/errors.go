package ingest

import "fmt"

// StructuralError marks a payload that cannot be read as tabular data at all
// (bad CSV structure, missing required columns). It aborts the whole import;
// nothing is written.
type StructuralError struct {
	Reason string
	Err    error
}

func (e *StructuralError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *StructuralError) Unwrap() error { return e.Err }

// RowError records one unusable row. The batch skips the row, keeps the
// error, and continues; sibling rows are never affected.
type RowError struct {
	Line  int    `json:"ligne"`
	Field string `json:"champ,omitempty"`
	Msg   string `json:"erreur"`
}

func (e *RowError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("line %d: field %s: %s", e.Line, e.Field, e.Msg)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// FieldError reports one uncoercible field value. Optional and non-key fields
// recover locally to their default or absent form; key fields escalate to a
// RowError.
type FieldError struct {
	Field string
	Value string
	Msg   string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %s: %s (value %q)", e.Field, e.Msg, e.Value)
}

// rowError converts a key-field coercion failure into the row-level error
// reported to the caller.
func rowError(line int, fe *FieldError) *RowError {
	return &RowError{Line: line, Field: fe.Field, Msg: fmt.Sprintf("%s (value %q)", fe.Msg, fe.Value)}
}

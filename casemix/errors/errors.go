package errors

import (
	"fmt"
	"strings"
)

// ShapeMismatchError is returned when a loaded table does not have the expected dimensions,
// which usually means a stale or corrupted input file.
type ShapeMismatchError struct {
	Table        string
	ExpectedRows int
	ExpectedCols int
	Rows         int
	Cols         int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("table %s has shape %dx%d, expected %dx%d",
		e.Table, e.Rows, e.Cols, e.ExpectedRows, e.ExpectedCols)
}

// NormalizationError is returned when a categorical field does not map to a known token.
type NormalizationError struct {
	// Source is the table the descriptor came from.
	Source string
	// Field is the dimension that failed, e.g. "episode_state" or "field_count".
	Field string
	// Value is the offending token.
	Value string
	// Descriptor is the full value being parsed.
	Descriptor string
	// Records is the number of rows carrying Descriptor.
	Records int
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("cannot normalize %s %s '%s' in descriptor '%s' (%d records)",
		e.Source, e.Field, e.Value, e.Descriptor, e.Records)
}

// IntegrityError is returned when a key that must be unique appears more than once.
type IntegrityError struct {
	Table string
	// Keys holds each duplicated key rendered as text.
	Keys []string
	// Records is the number of rows involved in the duplicates.
	Records int
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("table %s has %d duplicated keys across %d records: %s",
		e.Table, len(e.Keys), e.Records, strings.Join(e.Keys, "; "))
}

// UnmatchedKeyError is returned when billing records have no case-mix weight.
type UnmatchedKeyError struct {
	Keys    []string
	Records int
}

func (e *UnmatchedKeyError) Error() string {
	return fmt.Sprintf("%d billing records have no case-mix weight for %d keys: %s",
		e.Records, len(e.Keys), strings.Join(e.Keys, "; "))
}

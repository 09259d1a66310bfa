package loader

import (
	ers "github.com/CMSgov/casemix-app/casemix/errors"
)

// Shape is the expected (rows, columns) of a loaded table, not counting the header.
// A zero dimension is not checked.
type Shape struct {
	Rows int
	Cols int
}

func (s Shape) check(table string, rows, cols int) error {
	if (s.Rows != 0 && s.Rows != rows) || (s.Cols != 0 && s.Cols != cols) {
		return &ers.ShapeMismatchError{
			Table:        table,
			ExpectedRows: s.Rows,
			ExpectedCols: s.Cols,
			Rows:         rows,
			Cols:         cols,
		}
	}
	return nil
}

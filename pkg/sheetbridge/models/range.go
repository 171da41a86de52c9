package models

// Range is a rectangular cell block with 0-based inclusive bounds.
// It is used for merged regions in both the table and the snapshot.
type Range struct {
	// StartRow is the first row (0-based).
	StartRow int `json:"startRow"`
	// StartColumn is the first column (0-based).
	StartColumn int `json:"startColumn"`
	// EndRow is the last row (0-based, inclusive).
	EndRow int `json:"endRow"`
	// EndColumn is the last column (0-based, inclusive).
	EndColumn int `json:"endColumn"`
}

// Rows returns the number of rows the range spans.
func (r Range) Rows() int {
	return r.EndRow - r.StartRow + 1
}

// Columns returns the number of columns the range spans.
func (r Range) Columns() int {
	return r.EndColumn - r.StartColumn + 1
}

// Contains reports whether (row, col) lies inside the range.
func (r Range) Contains(row, col int) bool {
	return row >= r.StartRow && row <= r.EndRow && col >= r.StartColumn && col <= r.EndColumn
}

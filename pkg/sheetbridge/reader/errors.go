package reader

import "fmt"

// ParseError indicates a binary payload that could not be read.
type ParseError struct {
	// Format is "xlsx" or "xls".
	Format string
	// Sheet is the sheet being read, if the failure is sheet-specific.
	Sheet string
	// Err is the underlying cause.
	Err error
}

func (e *ParseError) Error() string {
	if e.Sheet != "" {
		return fmt.Sprintf("parse %s sheet %q: %v", e.Format, e.Sheet, e.Err)
	}
	return fmt.Sprintf("parse %s: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func newParseError(format, sheet string, err error) *ParseError {
	return &ParseError{Format: format, Sheet: sheet, Err: err}
}

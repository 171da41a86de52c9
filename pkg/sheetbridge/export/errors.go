package export

import "fmt"

// ExternalResourceError reports that an asset the writer depends on, such
// as the PDF font, could not be fetched or used.
type ExternalResourceError struct {
	// Resource names the asset, e.g. the font URL or path.
	Resource string
	// Err is the underlying cause.
	Err error
}

func (e *ExternalResourceError) Error() string {
	return fmt.Sprintf("external resource %q unavailable: %v", e.Resource, e.Err)
}

func (e *ExternalResourceError) Unwrap() error {
	return e.Err
}

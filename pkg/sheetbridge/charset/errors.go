package charset

import (
	"errors"
	"fmt"

	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge/models"
)

// ErrUnknownEncoding is returned by ParseEncoding for unsupported names.
var ErrUnknownEncoding = errors.New("unknown encoding")

// ConfigurationError reports that the legacy-encoding transcoder could not
// be loaded, or does not provide the requested encoding.
type ConfigurationError struct {
	// Capability names the missing piece, e.g. "legacy transcoder".
	Capability string
	// Encoding is the encoding the caller asked for.
	Encoding models.Encoding
	// Err is the underlying load error, if any.
	Err error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s unavailable for encoding %s: %v", e.Capability, e.Encoding, e.Err)
	}
	return fmt.Sprintf("%s unavailable for encoding %s", e.Capability, e.Encoding)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Package sheetbridge opens spreadsheet and delimited-text files as workbook
// snapshots and saves snapshots back as xlsx, csv or pdf.
package sheetbridge

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge/charset"
	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge/export"
	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge/models"
	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge/security"
	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge/validate"
)

// SaveFormat is an output file family.
type SaveFormat string

const (
	SaveXLSX SaveFormat = "xlsx"
	SaveCSV  SaveFormat = "csv"
	SavePDF  SaveFormat = "pdf"
)

// ParseSaveFormat parses a save format name (case-insensitive, leading dot
// allowed).
func ParseSaveFormat(name string) (SaveFormat, error) {
	switch f := SaveFormat(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "."))); f {
	case SaveXLSX, SaveCSV, SavePDF:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSaveFormat, name)
	}
}

// DefaultSaveFormat returns the format offered when saving a document read
// from src: delimited text stays delimited text, everything else becomes xlsx.
func DefaultSaveFormat(src validate.Format) SaveFormat {
	if src == validate.FormatCSV {
		return SaveCSV
	}
	return SaveXLSX
}

// Options configures opening files.
type Options struct {
	// Encoding overrides detection for delimited text. Empty means detect.
	Encoding models.Encoding
	// MaxFileSize is the size ceiling in bytes. Zero means validate.MaxFileSize.
	MaxFileSize int64
	// Codec decodes text. Nil means the process-wide codec.
	Codec *charset.Codec
	// Logger receives debug output. Nil means slog.Default().
	Logger *slog.Logger
}

// DefaultOptions returns default open options.
func DefaultOptions() Options {
	return Options{MaxFileSize: validate.MaxFileSize}
}

func (o Options) validator() validate.Validator {
	return validate.Validator{MaxSize: o.MaxFileSize}
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// SaveOptions configures saving.
type SaveOptions struct {
	// SheetID selects the sheet for csv. Empty means the first sheet.
	SheetID string
	// Encoding is the csv output encoding. Empty means utf-8.
	Encoding models.Encoding
	// Fonts supplies the pdf font. Nil means the core Latin font.
	Fonts *export.FontCache
	// Codec encodes csv text. Nil means the process-wide codec.
	Codec *charset.Codec
	// Logger receives warnings. Nil means slog.Default().
	Logger *slog.Logger
	// OnScan receives the csv injection scan result.
	OnScan func(security.Result)
}

func (o SaveOptions) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

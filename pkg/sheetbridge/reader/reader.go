// Package reader parses uploaded bytes into a table of cells.
//
// Delimited text is decoded and split into records of literal strings.
// Spreadsheet packages are read with excelize and legacy binary workbooks
// with a BIFF8 record parser over the OLE2 container.
package reader

import (
	"bytes"
	"log/slog"

	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge/charset"
	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge/models"
	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge/validate"
)

// Result is the output of a successful read.
type Result struct {
	// Format is the input family.
	Format validate.Format
	// Table holds the parsed sheets.
	Table *models.Table
	// Encoding is set for delimited text only.
	Encoding *models.DetectedEncoding
}

// Reader reads raw files. The zero value is not usable; use New.
type Reader struct {
	codec  *charset.Codec
	logger *slog.Logger
}

// New returns a reader using the process-wide codec.
func New(logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{codec: charset.Default(), logger: logger}
}

// WithCodec returns a copy of r that decodes text with codec.
func (r *Reader) WithCodec(codec *charset.Codec) *Reader {
	cp := *r
	cp.codec = codec
	return &cp
}

// Read parses raw with a default reader.
func Read(raw models.RawBytes, explicit models.Encoding) (*Result, error) {
	return New(nil).Read(raw, explicit)
}

// Read parses raw according to its extension. explicit overrides encoding
// detection for delimited text; pass "" to detect. On failure no partial
// table is returned.
func (r *Reader) Read(raw models.RawBytes, explicit models.Encoding) (*Result, error) {
	format, err := validate.FormatOf(raw.Name)
	if err != nil {
		return nil, err
	}

	switch format {
	case validate.FormatCSV:
		table, enc, err := r.readCSV(raw.Data, explicit)
		if err != nil {
			return nil, err
		}
		r.logger.Debug("read delimited text",
			"file", raw.Name,
			"encoding", enc.Encoding,
			"confidence", enc.Confidence,
			"rows", len(table.Sheets[0].Cells),
		)
		return &Result{Format: format, Table: table, Encoding: &enc}, nil

	case validate.FormatXLSX:
		table, err := readXLSX(bytes.NewReader(raw.Data))
		if err != nil {
			return nil, err
		}
		r.logger.Debug("read spreadsheet package", "file", raw.Name, "sheets", len(table.Sheets))
		return &Result{Format: format, Table: table}, nil

	default:
		table, err := readXLS(raw.Data)
		if err != nil {
			return nil, err
		}
		r.logger.Debug("read legacy workbook", "file", raw.Name, "sheets", len(table.Sheets))
		return &Result{Format: format, Table: table}, nil
	}
}

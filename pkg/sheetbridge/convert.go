package sheetbridge

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge/export"
	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge/models"
	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge/reader"
	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge/snapshot"
	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge/validate"
)

// OpenResult is a file converted to a workbook snapshot.
type OpenResult struct {
	// Snapshot is the imported workbook.
	Snapshot *models.WorkbookSnapshot
	// Format is the input file family.
	Format validate.Format
	// Encoding is the detected or forced encoding of delimited text.
	Encoding *models.DetectedEncoding
}

// Open validates raw, reads it and imports it as a workbook snapshot.
// Nothing is returned unless every step succeeds.
func Open(raw models.RawBytes, opts Options) (*OpenResult, error) {
	if err := opts.validator().ValidateFile(raw.Name, raw.Data); err != nil {
		return nil, err
	}

	rd := reader.New(opts.logger())
	if opts.Codec != nil {
		rd = rd.WithCodec(opts.Codec)
	}
	res, err := rd.Read(raw, opts.Encoding)
	if err != nil {
		return nil, err
	}

	return &OpenResult{
		Snapshot: snapshot.Import(res.Table),
		Format:   res.Format,
		Encoding: res.Encoding,
	}, nil
}

// OpenFile opens the file at path. The size ceiling is checked before the
// file is read.
func OpenFile(path string, opts Options) (*OpenResult, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}
	if err != nil {
		return nil, err
	}
	if err := validate.ValidateExtension(path); err != nil {
		return nil, err
	}
	if err := opts.validator().ValidateSize(info.Size()); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Open(models.RawBytes{Name: filepath.Base(path), Data: data}, opts)
}

// Save converts wb to format. Each format is written by its own export
// function.
func Save(wb *models.WorkbookSnapshot, format SaveFormat, opts SaveOptions) (*models.ExportBlob, error) {
	switch format {
	case SaveXLSX:
		return export.XLSX(wb)
	case SaveCSV:
		return export.CSV(wb, export.CSVOptions{
			SheetID:  opts.SheetID,
			Encoding: opts.Encoding,
			Codec:    opts.Codec,
			Logger:   opts.logger(),
			OnScan:   opts.OnScan,
		})
	case SavePDF:
		return export.PDF(wb, export.PDFOptions{Fonts: opts.Fonts, Logger: opts.logger()})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSaveFormat, format)
	}
}

// Package validate checks an uploaded file's extension, size and signature
// before any parser sees it.
package validate

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Format is a supported input file family.
type Format string

const (
	// FormatXLSX is the modern spreadsheet package (OOXML zip).
	FormatXLSX Format = "xlsx"
	// FormatXLS is the legacy binary spreadsheet (OLE2 compound file).
	FormatXLS Format = "xls"
	// FormatCSV is delimited text.
	FormatCSV Format = "csv"
)

// MaxFileSize is the default size ceiling, 50 MiB. A file of exactly this
// size is accepted.
const MaxFileSize int64 = 50 * 1024 * 1024

var (
	// ErrRejectedFormat indicates an unsupported file extension.
	ErrRejectedFormat = errors.New("unsupported file format")
	// ErrTooLarge indicates the file exceeds the size ceiling.
	ErrTooLarge = errors.New("file too large")
	// ErrFormatMismatch indicates the leading bytes disagree with the extension.
	ErrFormatMismatch = errors.New("file content does not match its extension")
)

// signatures holds the leading bytes expected for binary formats.
// Delimited text has no signature.
var signatures = map[Format][]byte{
	FormatXLSX: {0x50, 0x4B, 0x03, 0x04}, // PK zip local header
	FormatXLS:  {0xD0, 0xCF, 0x11, 0xE0}, // OLE2 compound document
}

// Validator runs the checks against a configurable size ceiling.
type Validator struct {
	// MaxSize is the largest accepted byte length. Zero means MaxFileSize.
	MaxSize int64
}

// Default is the validator with the standard 50 MiB ceiling.
var Default = Validator{MaxSize: MaxFileSize}

// FormatOf returns the format implied by the extension of name
// (case-insensitive).
func FormatOf(name string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".xlsx":
		return FormatXLSX, nil
	case ".xls":
		return FormatXLS, nil
	case ".csv":
		return FormatCSV, nil
	}
	if ext == "" {
		return "", fmt.Errorf("%w: %q has no extension", ErrRejectedFormat, name)
	}
	return "", fmt.Errorf("%w: %s", ErrRejectedFormat, ext)
}

// ValidateExtension checks that name ends in .xlsx, .xls or .csv.
func ValidateExtension(name string) error {
	_, err := FormatOf(name)
	return err
}

// ValidateSize checks size against the default ceiling.
func ValidateSize(size int64) error {
	return Default.ValidateSize(size)
}

// ValidateMagicBytes checks the signature of data against ext with the
// default validator.
func ValidateMagicBytes(data []byte, ext string) error {
	return Default.ValidateMagicBytes(data, ext)
}

// ValidateFile runs all checks with the default validator.
func ValidateFile(name string, data []byte) error {
	return Default.ValidateFile(name, data)
}

func (v Validator) maxSize() int64 {
	if v.MaxSize <= 0 {
		return MaxFileSize
	}
	return v.MaxSize
}

// ValidateSize checks size against the ceiling.
func (v Validator) ValidateSize(size int64) error {
	if limit := v.maxSize(); size > limit {
		return fmt.Errorf("%w: %d bytes exceeds the %d byte limit", ErrTooLarge, size, limit)
	}
	return nil
}

// ValidateMagicBytes checks that data starts with the signature for ext.
// ext may be given with or without the leading dot. Formats without a
// signature always pass.
func (v Validator) ValidateMagicBytes(data []byte, ext string) error {
	format := Format(strings.TrimPrefix(strings.ToLower(ext), "."))
	magic, ok := signatures[format]
	if !ok {
		return nil
	}
	if !bytes.HasPrefix(data, magic) {
		return fmt.Errorf("%w: expected %s signature % X", ErrFormatMismatch, format, magic)
	}
	return nil
}

// ValidateFile runs extension, size and, for binary formats, signature
// checks in that order, stopping at the first failure.
func (v Validator) ValidateFile(name string, data []byte) error {
	format, err := FormatOf(name)
	if err != nil {
		return err
	}
	if err := v.ValidateSize(int64(len(data))); err != nil {
		return err
	}
	if format == FormatCSV {
		return nil
	}
	return v.ValidateMagicBytes(data, string(format))
}

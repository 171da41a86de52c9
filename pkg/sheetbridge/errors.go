package sheetbridge

import (
	"errors"
	"fmt"

	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge/charset"
	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge/export"
	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge/output"
	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge/reader"
	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge/validate"
)

// Validation failures.
var (
	ErrRejectedFormat = validate.ErrRejectedFormat
	ErrTooLarge       = validate.ErrTooLarge
	ErrFormatMismatch = validate.ErrFormatMismatch
)

// ErrFileNotFound indicates the input file does not exist.
var ErrFileNotFound = errors.New("file not found")

// ErrBusy is returned when an editor operation overlaps another one.
var ErrBusy = errors.New("another operation is in progress")

// ErrNoDocument is returned when there is no document to save or update.
var ErrNoDocument = errors.New("no document is open")

// ErrUnknownSaveFormat indicates a save format other than xlsx, csv or pdf.
var ErrUnknownSaveFormat = errors.New("unknown save format")

// ErrUnknownEncoding indicates an encoding name that is not supported.
var ErrUnknownEncoding = charset.ErrUnknownEncoding

type (
	// ParseError indicates a binary payload that could not be read.
	ParseError = reader.ParseError
	// ConfigurationError indicates the legacy transcoder is unavailable.
	ConfigurationError = charset.ConfigurationError
	// ExternalResourceError indicates a fetched asset is unavailable.
	ExternalResourceError = export.ExternalResourceError
)

// UserMessage is the human-readable form of an error.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Reference code
}

func (m UserMessage) String() string {
	if m.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", m.Message, m.Code, m.Action)
}

var defaultMessage = UserMessage{
	Message: "The operation failed",
	Action:  "Please try again",
	Code:    "GEN001",
}

type errorRule struct {
	match func(error) bool
	msg   UserMessage
}

func is(target error) func(error) bool {
	return func(err error) bool { return errors.Is(err, target) }
}

func as[T error]() func(error) bool {
	return func(err error) bool {
		var target T
		return errors.As(err, &target)
	}
}

var errorRules = []errorRule{
	{is(ErrRejectedFormat), UserMessage{
		Message: "This file format is not supported",
		Action:  "Open an .xlsx, .xls or .csv file",
		Code:    "FILE001",
	}},
	{is(ErrTooLarge), UserMessage{
		Message: "The file exceeds the 50MB size limit",
		Action:  "Split the file into smaller files",
		Code:    "FILE002",
	}},
	{is(ErrFormatMismatch), UserMessage{
		Message: "The file content does not match its extension",
		Action:  "Check that the file was saved in the format its name says",
		Code:    "FILE003",
	}},
	{as[*ParseError](), UserMessage{
		Message: "The file could not be read",
		Action:  "The file may be damaged or password protected",
		Code:    "FILE004",
	}},
	{is(ErrFileNotFound), UserMessage{
		Message: "The file does not exist",
		Action:  "Check the file path",
		Code:    "FILE005",
	}},
	{as[*ConfigurationError](), UserMessage{
		Message: "Japanese text encoding support is unavailable",
		Action:  "Save as UTF-8 instead",
		Code:    "CFG001",
	}},
	{as[*ExternalResourceError](), UserMessage{
		Message: "The PDF font could not be loaded",
		Action:  "Check the font setting and network connection",
		Code:    "EXT001",
	}},
	{is(ErrBusy), UserMessage{
		Message: "Another file operation is still running",
		Action:  "Wait for it to finish",
		Code:    "APP001",
	}},
	{is(ErrNoDocument), UserMessage{
		Message: "There is no data to save",
		Action:  "Open or create a file first",
		Code:    "APP002",
	}},
	{is(ErrUnknownSaveFormat), UserMessage{
		Message: "Unknown save format",
		Action:  "Choose xlsx, csv or pdf",
		Code:    "APP003",
	}},
	{is(ErrUnknownEncoding), UserMessage{
		Message: "Unknown text encoding",
		Action:  "Choose utf-8, shift_jis or euc-jp",
		Code:    "APP004",
	}},
	{is(output.ErrEmptySnapshot), UserMessage{
		Message: "The workbook data is empty",
		Action:  "Send a workbook with at least one sheet",
		Code:    "APP005",
	}},
}

// Message maps an error to the message shown to the user. Unrecognized
// errors map to a generic message; nil maps to the zero UserMessage.
func Message(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}
	for _, r := range errorRules {
		if r.match(err) {
			return r.msg
		}
	}
	return defaultMessage
}

// IsUserFacing reports whether err maps to a specific message rather than
// the generic fallback.
func IsUserFacing(err error) bool {
	return err != nil && Message(err).Code != defaultMessage.Code
}

package sheetbridge

import (
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge/models"
	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge/output"
	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge/snapshot"
	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge/validate"
)

// UntitledName is the base file name of a document that has none.
const UntitledName = "Untitled"

// Document is the state of the open file.
type Document struct {
	// ID is unique per open or new action.
	ID string
	// FileName is the name the file was opened under, "" for a new document.
	FileName string
	// Format is the source format, "" for a new document.
	Format validate.Format
	// Encoding is set for delimited text.
	Encoding *models.DetectedEncoding
	// Snapshot is the last snapshot recorded from the engine.
	Snapshot *models.WorkbookSnapshot
	// Dirty reports unsaved edits.
	Dirty bool
}

// SaveResult is a saved document.
type SaveResult struct {
	Blob     *models.ExportBlob
	FileName string
}

// Editor tracks the open document across open, edit and save actions.
// Overlapping actions fail with ErrBusy instead of waiting.
type Editor struct {
	opts   Options
	logger *slog.Logger

	busy atomic.Bool
	mu   sync.RWMutex
	doc  *Document
}

// NewEditor returns an editor with no open document.
func NewEditor(opts Options) *Editor {
	return &Editor{opts: opts, logger: opts.logger()}
}

func (e *Editor) begin() error {
	if !e.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	return nil
}

func (e *Editor) end() {
	e.busy.Store(false)
}

// Open replaces the current document with raw. On failure the current
// document is left untouched.
func (e *Editor) Open(raw models.RawBytes) (Document, error) {
	if err := e.begin(); err != nil {
		return Document{}, err
	}
	defer e.end()

	res, err := Open(raw, e.opts)
	if err != nil {
		e.logger.Warn("open failed", "file", raw.Name, "error", err)
		return Document{}, err
	}
	return e.replace(raw.Name, res), nil
}

// OpenFile replaces the current document with the file at path.
func (e *Editor) OpenFile(path string) (Document, error) {
	if err := e.begin(); err != nil {
		return Document{}, err
	}
	defer e.end()

	res, err := OpenFile(path, e.opts)
	if err != nil {
		e.logger.Warn("open failed", "file", path, "error", err)
		return Document{}, err
	}
	return e.replace(filepath.Base(path), res), nil
}

func (e *Editor) replace(name string, res *OpenResult) Document {
	doc := &Document{
		ID:       uuid.NewString(),
		FileName: name,
		Format:   res.Format,
		Encoding: res.Encoding,
		Snapshot: res.Snapshot,
	}
	e.mu.Lock()
	e.doc = doc
	e.mu.Unlock()

	e.logger.Info("document opened", "id", doc.ID, "file", name, "format", doc.Format)
	return *doc
}

// New replaces the current document with an empty workbook.
func (e *Editor) New() (Document, error) {
	if err := e.begin(); err != nil {
		return Document{}, err
	}
	defer e.end()

	doc := &Document{ID: uuid.NewString(), Snapshot: snapshot.NewEmpty()}
	e.mu.Lock()
	e.doc = doc
	e.mu.Unlock()
	e.logger.Info("document created", "id", doc.ID)
	return *doc, nil
}

// Update records the engine's current snapshot and marks the document dirty.
func (e *Editor) Update(wb *models.WorkbookSnapshot) error {
	if wb == nil {
		return output.ErrEmptySnapshot
	}
	if err := e.begin(); err != nil {
		return err
	}
	defer e.end()

	cp, err := snapshot.Clone(wb)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.doc == nil {
		return ErrNoDocument
	}
	e.doc.Snapshot = cp
	e.doc.Dirty = true
	return nil
}

// Document returns a copy of the current document.
func (e *Editor) Document() (Document, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.doc == nil {
		return Document{}, false
	}
	return *e.doc, true
}

// Snapshot returns a deep copy of the current snapshot.
func (e *Editor) Snapshot() (*models.WorkbookSnapshot, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.doc == nil || e.doc.Snapshot == nil {
		return nil, ErrNoDocument
	}
	return snapshot.Clone(e.doc.Snapshot)
}

// Save exports the current snapshot. Saving as xlsx or csv clears the dirty
// flag; pdf is a print and leaves it set.
func (e *Editor) Save(format SaveFormat, opts SaveOptions) (*SaveResult, error) {
	if err := e.begin(); err != nil {
		return nil, err
	}
	defer e.end()

	wb, err := e.Snapshot()
	if err != nil {
		return nil, err
	}
	doc, _ := e.Document()

	blob, err := Save(wb, format, opts)
	if err != nil {
		e.logger.Warn("save failed", "id", doc.ID, "format", format, "error", err)
		return nil, err
	}

	if format != SavePDF {
		e.mu.Lock()
		if e.doc != nil && e.doc.ID == doc.ID {
			e.doc.Dirty = false
		}
		e.mu.Unlock()
	}
	name := DefaultFileName(doc.FileName, format)
	e.logger.Info("document saved", "id", doc.ID, "file", name, "bytes", len(blob.Data))
	return &SaveResult{Blob: blob, FileName: name}, nil
}

// Close discards the current document.
func (e *Editor) Close() error {
	if err := e.begin(); err != nil {
		return err
	}
	defer e.end()

	e.mu.Lock()
	e.doc = nil
	e.mu.Unlock()
	return nil
}

// Notice returns the informational note shown after opening doc, or "" when
// there is nothing to say.
func Notice(doc Document) string {
	if doc.Encoding == nil {
		return ""
	}
	switch doc.Encoding.Encoding {
	case models.EncodingShiftJIS:
		return "Loaded as Shift_JIS"
	case models.EncodingEUCJP:
		return "Loaded as EUC-JP"
	default:
		return ""
	}
}

// DefaultFileName derives the save name from the name a document was opened
// under: a known spreadsheet extension is replaced by the format's.
func DefaultFileName(name string, format SaveFormat) string {
	base := strings.TrimSpace(filepath.Base(name))
	if base == "." || base == string(filepath.Separator) {
		base = ""
	}
	switch strings.ToLower(filepath.Ext(base)) {
	case ".xlsx", ".xls", ".csv", ".pdf":
		base = base[:len(base)-len(filepath.Ext(base))]
	}
	if strings.TrimSpace(base) == "" {
		base = UntitledName
	}
	return base + "." + string(format)
}

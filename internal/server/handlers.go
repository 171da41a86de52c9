package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/ukaji3/sheetbridge-go/internal/logging"
	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge"
	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge/charset"
	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge/models"
	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge/output"
	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge/security"
	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge/validate"
)

// Response headers.
const (
	headerDetectedEncoding   = "X-Detected-Encoding"
	headerEncodingConfidence = "X-Encoding-Confidence"
	headerSourceFormat       = "X-Source-Format"
	headerInjectionFindings  = "X-Injection-Findings"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, map[string]string{"status": "ok"})
}

// handleOpen reads a raw file body named by ?name= and returns its
// workbook snapshot.
func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if err := validate.ValidateExtension(name); err != nil {
		s.respondError(w, r, err)
		return
	}
	enc, err := encodingParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	data, err := readBody(w, r, s.maxFileSize())
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	res, err := sheetbridge.Open(models.RawBytes{Name: name, Data: data}, sheetbridge.Options{
		Encoding:    enc,
		MaxFileSize: s.maxFileSize(),
		Logger:      logging.FromContext(r.Context()),
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	body, err := output.ToJSON(res.Snapshot, false)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	w.Header().Set(headerSourceFormat, string(res.Format))
	if res.Encoding != nil {
		w.Header().Set(headerDetectedEncoding, string(res.Encoding.Encoding))
		w.Header().Set(headerEncodingConfidence, string(res.Encoding.Confidence))
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}

// handleSave converts a snapshot body to the format named in the path and
// returns it as an attachment.
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	format, err := sheetbridge.ParseSaveFormat(chi.URLParam(r, "format"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	enc, err := encodingParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if enc == "" {
		enc = s.csvEncoding()
	}
	wb, err := s.readSnapshot(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	findings := 0
	blob, err := sheetbridge.Save(wb, format, sheetbridge.SaveOptions{
		SheetID:  r.URL.Query().Get("sheet"),
		Encoding: enc,
		Fonts:    s.fonts,
		Logger:   logging.FromContext(r.Context()),
		OnScan:   func(res security.Result) { findings = len(res.Flagged) },
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	name := sheetbridge.DefaultFileName(wb.Name, format)
	w.Header().Set("Content-Type", blob.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Header().Set("Content-Length", strconv.Itoa(len(blob.Data)))
	if format == sheetbridge.SaveCSV {
		w.Header().Set(headerInjectionFindings, strconv.Itoa(findings))
	}
	w.Write(blob.Data)
}

// handleScan reports cells in every sheet that would be read as formulas
// once exported as delimited text.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	wb, err := s.readSnapshot(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, r, sheetbridge.ScanWorkbook(wb))
}

func (s *Server) readSnapshot(w http.ResponseWriter, r *http.Request) (*models.WorkbookSnapshot, error) {
	data, err := readBody(w, r, s.maxFileSize()*snapshotSizeFactor)
	if err != nil {
		return nil, err
	}
	wb, err := output.FromJSON(data)
	if err != nil && !errors.Is(err, output.ErrEmptySnapshot) {
		return nil, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return wb, err
}

// readBody reads the request body, failing with ErrTooLarge past limit.
func readBody(w http.ResponseWriter, r *http.Request, limit int64) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return nil, fmt.Errorf("%w: body exceeds the %d byte limit", sheetbridge.ErrTooLarge, tooLarge.Limit)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return data, nil
}

// encodingParam parses ?encoding=. Empty means detect on open and the
// configured default on save.
func encodingParam(r *http.Request) (models.Encoding, error) {
	name := r.URL.Query().Get("encoding")
	if name == "" {
		return "", nil
	}
	return charset.ParseEncoding(name)
}

// writeJSON encodes v as JSON and writes it to w.
func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Error("json encode error", "error", err)
	}
}

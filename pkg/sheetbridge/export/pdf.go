package export

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-pdf/fpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge/models"
	"golang.org/x/text/encoding/charmap"
)

// Page geometry in millimetres, font sizes in points.
const (
	pageMargin      = 10.0
	headingBaseline = pageMargin + 5
	tableTop        = pageMargin + 10
	placeholderLine = pageMargin + 15
	cellPadding     = 1.5
	lineSpacing     = 1.2

	headingSize     = 14.0
	bodySize        = 8.0
	placeholderSize = 10.0

	coreFontFamily = "Helvetica"
	utf8FontFamily = "SheetFont"

	emptySheetText    = "(empty sheet)"
	emptyWorkbookText = "(empty workbook)"
	fallbackTitle     = "Sheet"
)

// PDFOptions configures the paginated-document writer.
type PDFOptions struct {
	// Fonts supplies a TrueType font for non-Latin text. Nil means the core
	// Helvetica font with cp1252 translation.
	Fonts *FontCache
	// Logger receives debug output and unrenderable-text warnings. Nil means
	// slog.Default().
	Logger *slog.Logger
}

// PDF renders each sheet as a grid table on A4 landscape pages. Every sheet
// starts on a new page under a heading with its name.
func PDF(wb *models.WorkbookSnapshot, opts PDFOptions) (*models.ExportBlob, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(false, pageMargin)
	pdf.SetCellMargin(0)
	pdf.SetLineWidth(0.1)
	pdf.SetDrawColor(160, 160, 160)

	w := &pdfWriter{pdf: pdf, logger: logger}
	if err := w.setupFont(opts.Fonts); err != nil {
		return nil, err
	}

	var sheets []*models.SheetSnapshot
	if wb != nil {
		sheets = wb.OrderedSheets()
		if wb.Name != "" {
			pdf.SetTitle(wb.Name, true)
		}
	}
	for _, s := range sheets {
		w.drawSheet(s)
	}
	if len(sheets) == 0 {
		pdf.AddPage()
		pdf.SetFont(w.family, "", placeholderSize)
		pdf.Text(pageMargin, headingBaseline, w.tr(emptyWorkbookText))
	}

	var raw bytes.Buffer
	if err := pdf.Output(&raw); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}

	var out bytes.Buffer
	if err := api.Optimize(bytes.NewReader(raw.Bytes()), &out, model.NewDefaultConfiguration()); err != nil {
		return nil, fmt.Errorf("optimize pdf: %w", err)
	}
	logger.Debug("pdf rendered", "sheets", len(sheets), "pages", pdf.PageCount(), "bytes", out.Len())
	return &models.ExportBlob{Data: out.Bytes(), ContentType: models.ContentTypePDF}, nil
}

type pdfWriter struct {
	pdf    *fpdf.Fpdf
	logger *slog.Logger
	family string
	// tr converts text to the current font's encoding.
	tr func(string) string
	// bytewise is set for single-byte core fonts.
	bytewise bool
}

func (w *pdfWriter) setupFont(fonts *FontCache) error {
	if fonts == nil {
		w.family = coreFontFamily
		w.tr = w.pdf.UnicodeTranslatorFromDescriptor("")
		w.bytewise = true
		return w.pdf.Error()
	}

	data, err := fonts.Load()
	if err != nil {
		return err
	}
	if err := registerFont(w.pdf, utf8FontFamily, data); err != nil {
		return &ExternalResourceError{Resource: fonts.Source(), Err: err}
	}
	w.family = utf8FontFamily
	w.tr = func(s string) string { return s }
	return nil
}

var errNotTrueType = errors.New("not a TrueType font")

// registerFont adds a UTF-8 TrueType font and selects it once to confirm
// the document accepted it.
func registerFont(pdf *fpdf.Fpdf, family string, data []byte) (err error) {
	if len(data) < 4 || !isTrueType(data[:4]) {
		return errNotTrueType
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed font: %v", r)
		}
	}()
	pdf.AddUTF8FontFromBytes(family, "", data)
	pdf.SetFont(family, "", bodySize)
	if pdf.Err() {
		return pdf.Error()
	}
	return nil
}

func isTrueType(magic []byte) bool {
	return bytes.Equal(magic, []byte{0x00, 0x01, 0x00, 0x00}) || string(magic) == "true"
}

func (w *pdfWriter) drawSheet(s *models.SheetSnapshot) {
	pdf := w.pdf
	pdf.AddPage()

	title := s.Name
	if title == "" {
		title = fallbackTitle
	}
	w.warnUnmapped(title, s)
	pdf.SetFont(w.family, "", headingSize)
	pdf.Text(pageMargin, headingBaseline, w.tr(title))

	if !s.Populated() {
		pdf.SetFont(w.family, "", placeholderSize)
		pdf.Text(pageMargin, placeholderLine, w.tr(emptySheetText))
		return
	}

	pageW, pageH := pdf.GetPageSize()
	layout := layoutTable(s, pageW-2*pageMargin)

	pdf.SetFont(w.family, "", bodySize)
	_, lineH := pdf.GetFontSize()
	lineH *= lineSpacing
	bottom := pageH - pageMargin

	heights := w.rowHeights(layout, lineH, bottom-tableTop)
	y := tableTop
	for i, row := range layout.Rows {
		if y+heights[i] > bottom && y > pageMargin {
			pdf.AddPage()
			pdf.SetFont(w.family, "", bodySize)
			y = pageMargin
			w.continueMerges(layout, heights, i, y, bottom)
		}
		for _, cell := range row {
			h := 0.0
			for k := i; k < i+cell.RowSpan && k < len(heights); k++ {
				h += heights[k]
			}
			w.drawCell(layout, cell, y, min(h, bottom-y), lineH)
		}
		y += heights[i]
	}
}

// warnUnmapped logs how many characters of a sheet the core font cannot
// show. The cp1252 translator draws them as ".".
func (w *pdfWriter) warnUnmapped(title string, s *models.SheetSnapshot) {
	if !w.bytewise {
		return
	}
	n := unmappedRunes(title)
	for _, cols := range s.CellData {
		for _, cell := range cols {
			n += unmappedRunes(CellText(cell.V))
		}
	}
	if n > 0 {
		w.logger.Warn("pdf core font cannot render characters outside cp1252",
			"sheet", title,
			"count", n)
	}
}

func unmappedRunes(s string) int {
	n := 0
	for _, r := range s {
		if _, ok := charmap.Windows1252.EncodeRune(r); !ok {
			n++
		}
	}
	return n
}

// rowHeights sizes each row to its tallest unmerged cell, capped at limit.
func (w *pdfWriter) rowHeights(layout tableLayout, lineH, limit float64) []float64 {
	heights := make([]float64, len(layout.Rows))
	for i, row := range layout.Rows {
		h := lineH + 2*cellPadding
		for _, cell := range row {
			if cell.RowSpan != 1 || cell.Text == "" {
				continue
			}
			width := span(layout.Widths, cell.Col, cell.ColSpan) - 2*cellPadding
			lines := wrapText(w.tr(cell.Text), width, w.pdf.GetStringWidth, w.bytewise)
			h = max(h, float64(len(lines))*lineH+2*cellPadding)
		}
		heights[i] = min(h, limit)
	}
	return heights
}

// continueMerges draws the remainder of merged cells that started above
// row on an earlier page.
func (w *pdfWriter) continueMerges(layout tableLayout, heights []float64, row int, y, bottom float64) {
	for _, prev := range layout.Rows[:row] {
		for _, cell := range prev {
			end := cell.Row + cell.RowSpan
			if end <= row {
				continue
			}
			h := 0.0
			for k := row; k < end && k < len(heights); k++ {
				h += heights[k]
			}
			x := pageMargin + span(layout.Widths, 0, cell.Col)
			w.pdf.Rect(x, y, span(layout.Widths, cell.Col, cell.ColSpan), min(h, bottom-y), "D")
		}
	}
}

func (w *pdfWriter) drawCell(layout tableLayout, cell spanCell, y, h, lineH float64) {
	pdf := w.pdf
	x := pageMargin + span(layout.Widths, 0, cell.Col)
	cw := span(layout.Widths, cell.Col, cell.ColSpan)
	pdf.Rect(x, y, cw, h, "D")
	if cell.Text == "" {
		return
	}

	lines := wrapText(w.tr(cell.Text), cw-2*cellPadding, pdf.GetStringWidth, w.bytewise)
	pdf.ClipRect(x, y, cw, h, false)
	for n, line := range lines {
		ly := y + cellPadding + float64(n)*lineH
		if ly >= y+h {
			break
		}
		pdf.SetXY(x+cellPadding, ly)
		pdf.CellFormat(cw-2*cellPadding, lineH, line, "", 0, "L", false, 0, "")
	}
	pdf.ClipEnd()
}

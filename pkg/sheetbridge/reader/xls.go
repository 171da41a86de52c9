package reader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/richardlehane/mscfb"
	"github.com/richardlehane/msoleps"
	"github.com/shakinm/xlsReader/xls"
	"github.com/shakinm/xlsReader/xls/record"
	"github.com/shakinm/xlsReader/xls/structure"
	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge/models"
	"golang.org/x/text/encoding/charmap"
)

const formatXLS = "xls"

// maxColumns bounds COLINFO spans, which may cover the whole sheet width.
const maxColumns = 256

// workbookGlobals holds what the sheet record pass needs from the globals.
type workbookGlobals struct {
	sheets   []boundSheet
	date1904 bool
}

type boundSheet struct {
	name   string
	offset int
	kind   byte
}

// readXLS reads a BIFF8 workbook. Cell values come from xlsReader; the
// formulas, merges, size hints and date system it drops come from a pass
// over the remaining sheet records.
func readXLS(data []byte) (*models.Table, error) {
	stream, title, err := workbookStream(data)
	if err != nil {
		return nil, newParseError(formatXLS, "", err)
	}
	globals, err := readGlobals(stream)
	if err != nil {
		return nil, newParseError(formatXLS, "", err)
	}

	table, err := decodeWorkbook(data, stream, globals)
	if err != nil {
		return nil, err
	}
	table.Title = title
	return table, nil
}

// workbookStream returns the Workbook stream and the summary title of a
// compound document.
func workbookStream(data []byte) ([]byte, string, error) {
	doc, err := mscfb.New(bytes.NewReader(data))
	if err != nil {
		return nil, "", err
	}

	var stream []byte
	var title string
	for entry, err := doc.Next(); err == nil; entry, err = doc.Next() {
		switch {
		case entry.Name == "Workbook":
			if stream, err = io.ReadAll(entry); err != nil {
				return nil, "", err
			}
		case msoleps.IsMSOLEPS(entry.Initial) && entry.Name == "SummaryInformation":
			title = summaryTitle(entry)
		}
	}
	if stream == nil {
		return nil, "", errors.New("no Workbook stream")
	}
	return stream, title, nil
}

// summaryTitle returns the Title property of a summary information
// stream, or "" when it is absent or unreadable.
func summaryTitle(r io.Reader) string {
	props := msoleps.New()
	if err := props.Reset(r); err != nil {
		return ""
	}
	for _, p := range props.Property {
		if p.Name == "Title" {
			return p.String()
		}
	}
	return ""
}

// decodeWorkbook builds the table from xlsReader's cell grid and overlays
// each worksheet's remaining records. xlsReader indexes its input without
// bounds checks, so a panic while decoding is reported as a ParseError.
func decodeWorkbook(data, stream []byte, g *workbookGlobals) (table *models.Table, err error) {
	current := ""
	defer func() {
		if r := recover(); r != nil {
			table, err = nil, newParseError(formatXLS, current, fmt.Errorf("malformed workbook: %v", r))
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, newParseError(formatXLS, "", err)
	}
	sheets := wb.GetSheets()
	if len(sheets) != len(g.sheets) {
		return nil, newParseError(formatXLS, "", fmt.Errorf("workbook lists %d sheets, decoded %d", len(g.sheets), len(sheets)))
	}

	book := &xlsBook{wb: &wb, date1904: g.date1904}
	table = &models.Table{}
	for i := range sheets {
		bs := g.sheets[i]
		if bs.kind != boundSheetWorksheet {
			continue
		}
		current = bs.name

		sheet := models.NewTableSheet(latin1(sheets[i].GetName()))
		for r, row := range sheets[i].GetRows() {
			for c, cd := range row.GetCols() {
				if cell, ok := book.cell(cd); ok {
					sheet.SetCell(r, c, cell)
				}
			}
		}
		if err := readSheetRecords(stream, bs, book, &sheet); err != nil {
			return nil, newParseError(formatXLS, bs.name, err)
		}
		table.Sheets = append(table.Sheets, sheet)
	}
	return table, nil
}

// xlsBook resolves number formats against the decoded workbook.
type xlsBook struct {
	wb       *xls.Workbook
	date1904 bool
}

func (b *xlsBook) isDate(xf int) bool {
	x := b.wb.GetXFbyIndex(xf)
	id := x.GetFormatIndex()
	f := b.wb.GetFormatByIndex(id)
	return isDateFormat(id, f.String())
}

func (b *xlsBook) number(xf int, v float64, formula string) models.TableCell {
	cell := models.TableCell{Value: v, Kind: models.KindNumber, Formula: formula}
	if b.isDate(xf) {
		cell.Value = formatSerial(v, b.date1904)
		cell.Kind = models.KindDate
	}
	return cell
}

// cell adapts an xlsReader cell record. Blanks report false.
func (b *xlsBook) cell(data structure.CellData) (models.TableCell, bool) {
	switch c := data.(type) {
	case *record.LabelSSt, *record.LabelBIFF8, *record.LabelBIFF5:
		return models.TableCell{Value: latin1(c.GetString()), Kind: models.KindString}, true
	case *record.Number, *record.Rk:
		return b.number(c.GetXFIndex(), c.GetFloat64(), ""), true
	case *record.BoolErr:
		if strings.HasPrefix(c.GetString(), "#") {
			return models.TableCell{Value: errorText(byte(c.GetInt64())), Kind: models.KindError}, true
		}
		return models.TableCell{Value: c.GetInt64() != 0, Kind: models.KindBoolean}, true
	}
	return models.TableCell{}, false
}

// latin1 repairs compressed BIFF strings, which xlsReader returns as raw
// single-byte text.
func latin1(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	out, err := charmap.ISO8859_1.NewDecoder().String(s)
	if err != nil {
		return s
	}
	return out
}

func readGlobals(stream []byte) (*workbookGlobals, error) {
	rs := newRecordStream(stream, 0)
	dt, err := rs.readBOF()
	if err != nil {
		return nil, err
	}
	if dt != substreamBook {
		return nil, fmt.Errorf("unexpected substream type 0x%04X", dt)
	}

	g := &workbookGlobals{}
	for {
		rec, ok, err := rs.next()
		if err != nil {
			return nil, err
		}
		if !ok || rec.op == recEOF {
			return g, nil
		}

		switch rec.op {
		case recBoundSheet:
			if len(rec.data) < 8 {
				return nil, errTruncated
			}
			name, _, err := unicodeString(rec.data, 6, 1)
			if err != nil {
				return nil, err
			}
			g.sheets = append(g.sheets, boundSheet{name: name, offset: u32(rec.data, 0), kind: rec.data[5]})

		case recDateMode:
			if len(rec.data) >= 2 {
				g.date1904 = u16(rec.data, 0) == 1
			}
		}
	}
}

// sheetReader overlays one worksheet substream onto its decoded cells.
type sheetReader struct {
	book  *xlsBook
	sheet *models.TableSheet
}

func readSheetRecords(stream []byte, bs boundSheet, book *xlsBook, sheet *models.TableSheet) error {
	if bs.offset < 0 || bs.offset >= len(stream) {
		return fmt.Errorf("sheet offset %d out of range", bs.offset)
	}
	rs := newRecordStream(stream, bs.offset)
	if _, err := rs.readBOF(); err != nil {
		return err
	}

	sr := &sheetReader{book: book, sheet: sheet}

	// A formula with a string result is followed by a STRING record.
	var pending *models.TableCell
	var pendingRow, pendingCol int

	depth := 0
	for {
		rec, ok, err := rs.next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		switch rec.op {
		case recBOF:
			// Embedded chart substream.
			depth++
			continue
		case recEOF:
			if depth == 0 {
				if pending != nil {
					sheet.SetCell(pendingRow, pendingCol, *pending)
				}
				return nil
			}
			depth--
			continue
		}
		if depth > 0 {
			continue
		}

		if pending != nil {
			switch rec.op {
			case recShrFmla, recArray, recTable:
				continue
			case recString:
				s, _, err := unicodeString(rec.data, 0, 2)
				if err != nil {
					return err
				}
				pending.Value = s
				sheet.SetCell(pendingRow, pendingCol, *pending)
				pending = nil
				continue
			}
			sheet.SetCell(pendingRow, pendingCol, *pending)
			pending = nil
		}

		if err := sr.handle(rec, &pending, &pendingRow, &pendingCol); err != nil {
			return err
		}
	}
}

func (sr *sheetReader) handle(rec record, pending **models.TableCell, pendingRow, pendingCol *int) error {
	data := rec.data
	switch rec.op {
	case recFormula:
		if len(data) < 22 {
			return errTruncated
		}
		row, col, xf := u16(data, 0), u16(data, 2), u16(data, 4)
		size := u16(data, 20)
		formula := ""
		if 22+size <= len(data) {
			if text, err := decompileFormula(data[22 : 22+size]); err == nil {
				formula = text
			}
		}

		result := data[6:14]
		if result[6] != 0xFF || result[7] != 0xFF {
			sr.sheet.SetCell(row, col, sr.book.number(xf, f64(data, 6), formula))
			return nil
		}
		switch result[0] {
		case 0:
			*pending = &models.TableCell{Value: "", Kind: models.KindString, Formula: formula}
			*pendingRow, *pendingCol = row, col
		case 1:
			sr.sheet.SetCell(row, col, models.TableCell{Value: result[2] != 0, Kind: models.KindBoolean, Formula: formula})
		case 2:
			sr.sheet.SetCell(row, col, models.TableCell{Value: errorText(result[2]), Kind: models.KindError, Formula: formula})
		default:
			sr.sheet.SetCell(row, col, models.TableCell{Value: "", Kind: models.KindString, Formula: formula})
		}

	case recMergedCells:
		if len(data) < 2 {
			return errTruncated
		}
		n := u16(data, 0)
		for i := 0; i < n; i++ {
			off := 2 + 8*i
			if off+8 > len(data) {
				return errTruncated
			}
			sr.sheet.Merges = append(sr.sheet.Merges, models.Range{
				StartRow:    u16(data, off),
				EndRow:      u16(data, off+2),
				StartColumn: u16(data, off+4),
				EndColumn:   u16(data, off+6),
			})
		}

	case recColInfo:
		if len(data) < 10 {
			return errTruncated
		}
		first, last := u16(data, 0), min(u16(data, 2), maxColumns-1)
		width := float64(u16(data, 4)) / 256
		for c := first; c <= last; c++ {
			sr.sheet.Columns[c] = models.ColumnHint{WidthChars: width}
		}

	case recRow:
		if len(data) < 16 {
			return errTruncated
		}
		// Only rows flagged as having a custom height carry a hint.
		if u32(data, 12)&0x40 != 0 {
			twips := u16(data, 6) & 0x7FFF
			sr.sheet.Rows[u16(data, 0)] = models.RowHint{HeightPt: float64(twips) / 20}
		}
	}
	return nil
}

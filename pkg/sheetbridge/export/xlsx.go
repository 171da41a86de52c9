// Package export turns a workbook snapshot into a downloadable file. The
// xlsx, csv and pdf writers are independent functions over the same
// read-only snapshot.
package export

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"
	"unicode/utf16"

	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge/models"
	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge/units"
	"github.com/xuri/excelize/v2"
)

const (
	defaultSheetName  = "Sheet1"
	fallbackSheetName = "Sheet"
	invalidNameChars  = ":\\/?*[]"
)

// XLSX writes one worksheet per snapshot sheet, in sheet order. Sheet
// identifiers without an entry in the sheet map are skipped.
func XLSX(wb *models.WorkbookSnapshot) (*models.ExportBlob, error) {
	f := excelize.NewFile()
	defer f.Close()

	var sheets []*models.SheetSnapshot
	if wb != nil {
		sheets = wb.OrderedSheets()
	}

	names := newSheetNamer()
	for i, s := range sheets {
		name := names.next(s.Name)
		if i == 0 {
			if err := f.SetSheetName(defaultSheetName, name); err != nil {
				return nil, fmt.Errorf("rename sheet %q: %w", name, err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("add sheet %q: %w", name, err)
		}
		if err := writeXLSXSheet(f, name, s); err != nil {
			return nil, err
		}
	}

	if wb != nil && wb.Name != "" {
		if err := f.SetDocProps(&excelize.DocProperties{Title: wb.Name}); err != nil {
			return nil, fmt.Errorf("set document title: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return &models.ExportBlob{Data: buf.Bytes(), ContentType: models.ContentTypeXLSX}, nil
}

// writeXLSXSheet streams one sheet. Rows go out in ascending order, and
// each formula cell carries its last value as a correctly typed cached
// result.
func writeXLSXSheet(f *excelize.File, name string, s *models.SheetSnapshot) error {
	sw, err := f.NewStreamWriter(name)
	if err != nil {
		return fmt.Errorf("sheet %q: %w", name, err)
	}

	for _, c := range slices.Sorted(maps.Keys(s.ColumnData)) {
		info := s.ColumnData[c]
		if info.W <= 0 {
			continue
		}
		width := math.Min(units.PixelsToChars(info.W), excelize.MaxColumnWidth)
		if err := sw.SetColWidth(c+1, c+1, width); err != nil {
			return fmt.Errorf("sheet %q column %d width: %w", name, c+1, err)
		}
	}

	rows := make(map[int]bool, len(s.CellData))
	for r := range s.CellData {
		rows[r] = true
	}
	for r, info := range s.RowData {
		if info.H > 0 && r+1 <= excelize.TotalRows {
			rows[r] = true
		}
	}
	for _, r := range slices.Sorted(maps.Keys(rows)) {
		first, values := xlsxRowValues(s.CellData[r])
		axis, err := excelize.CoordinatesToCellName(first+1, r+1)
		if err != nil {
			return fmt.Errorf("sheet %q: %w", name, err)
		}
		var opts []excelize.RowOpts
		if info := s.RowData[r]; info.H > 0 {
			opts = append(opts, excelize.RowOpts{Height: math.Min(units.PixelsToPoints(info.H), excelize.MaxRowHeight)})
		}
		if err := sw.SetRow(axis, values, opts...); err != nil {
			return fmt.Errorf("sheet %q row %d: %w", name, r+1, err)
		}
	}

	for _, m := range s.MergeData {
		tl, err := excelize.CoordinatesToCellName(m.StartColumn+1, m.StartRow+1)
		if err != nil {
			return fmt.Errorf("sheet %q merge: %w", name, err)
		}
		br, err := excelize.CoordinatesToCellName(m.EndColumn+1, m.EndRow+1)
		if err != nil {
			return fmt.Errorf("sheet %q merge: %w", name, err)
		}
		if err := sw.MergeCell(tl, br); err != nil {
			return fmt.Errorf("sheet %q merge %s:%s: %w", name, tl, br, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("sheet %q: %w", name, err)
	}
	return nil
}

// xlsxRowValues lays out a row's cells from its first populated column.
// Gaps and empty cells stay nil so the stream writer skips them.
func xlsxRowValues(cols map[int]models.Cell) (int, []any) {
	if len(cols) == 0 {
		return 0, nil
	}
	keys := slices.Sorted(maps.Keys(cols))
	first := keys[0]
	values := make([]any, keys[len(keys)-1]-first+1)
	for _, c := range keys {
		values[c-first] = xlsxCellValue(cols[c])
	}
	return first, values
}

// xlsxCellValue maps a snapshot cell to a stream value. A formula is
// written without its leading "=".
func xlsxCellValue(cell models.Cell) any {
	formula := strings.TrimPrefix(cell.F, "=")
	if formula == "" {
		return cell.V
	}
	return excelize.Cell{Formula: formula, Value: cell.V}
}

// sheetNamer produces worksheet names the package format accepts, unique
// without regard to case.
type sheetNamer struct {
	used map[string]bool
}

func newSheetNamer() *sheetNamer {
	return &sheetNamer{used: make(map[string]bool)}
}

func (n *sheetNamer) next(name string) string {
	base := sanitizeSheetName(name)
	candidate := base
	for i := 2; n.used[strings.ToLower(candidate)]; i++ {
		suffix := fmt.Sprintf(" (%d)", i)
		candidate = truncateUTF16(base, excelize.MaxSheetNameLength-len(suffix)) + suffix
	}
	n.used[strings.ToLower(candidate)] = true
	return candidate
}

func sanitizeSheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(invalidNameChars, r) {
			return '_'
		}
		return r
	}, name)
	name = truncateUTF16(strings.TrimSpace(name), excelize.MaxSheetNameLength)
	name = strings.Trim(name, "'")
	if name == "" {
		return fallbackSheetName
	}
	return name
}

// truncateUTF16 cuts s to at most limit UTF-16 code units without splitting
// a surrogate pair.
func truncateUTF16(s string, limit int) string {
	count := 0
	for i, r := range s {
		n := utf16.RuneLen(r)
		if n < 0 {
			n = 1
		}
		if count+n > limit {
			return s[:i]
		}
		count += n
	}
	return s
}

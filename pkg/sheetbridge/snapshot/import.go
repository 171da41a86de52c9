// Package snapshot converts parsed tables into the declarative workbook
// snapshot consumed by the spreadsheet engine.
package snapshot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge/models"
	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge/units"
)

// Sizing floors and engine defaults applied to every imported sheet.
const (
	MinRowCount    = 1000
	MinColumnCount = 26

	DefaultColumnWidth = 73
	DefaultRowHeight   = 19

	rowHeaderWidth     = 46
	columnHeaderHeight = 20
)

// Workbook-level bookkeeping.
const (
	WorkbookID    = "workbook-01"
	DefaultName   = "Workbook"
	DefaultSheet  = "Sheet1"
	AppVersion    = "0.1.0"
	Locale        = "enUS"
	sheetIDPrefix = "sheet-"
)

// SheetID returns the positional identifier of the n-th sheet.
func SheetID(n int) string {
	return sheetIDPrefix + strconv.Itoa(n)
}

// Import builds a snapshot from table. Native type tags other than string,
// number and boolean are stored as strings. A table with no sheets yields
// one empty default sheet.
func Import(table *models.Table) *models.WorkbookSnapshot {
	wb := &models.WorkbookSnapshot{
		ID:         WorkbookID,
		Name:       DefaultName,
		AppVersion: AppVersion,
		Locale:     Locale,
		Styles:     map[string]any{},
		Sheets:     make(map[string]*models.SheetSnapshot),
	}
	if table != nil {
		if title := strings.TrimSpace(table.Title); title != "" {
			wb.Name = title
		}
		for i := range table.Sheets {
			sheet := importSheet(SheetID(len(wb.SheetOrder)), &table.Sheets[i])
			wb.SheetOrder = append(wb.SheetOrder, sheet.ID)
			wb.Sheets[sheet.ID] = sheet
		}
	}

	if len(wb.SheetOrder) == 0 {
		sheet := newSheet(SheetID(0), DefaultSheet)
		wb.SheetOrder = append(wb.SheetOrder, sheet.ID)
		wb.Sheets[sheet.ID] = sheet
	}
	return wb
}

func newSheet(id, name string) *models.SheetSnapshot {
	return &models.SheetSnapshot{
		ID:                 id,
		Name:               name,
		RowCount:           MinRowCount,
		ColumnCount:        MinColumnCount,
		CellData:           make(map[int]map[int]models.Cell),
		RowData:            make(map[int]models.RowInfo),
		ColumnData:         make(map[int]models.ColumnInfo),
		MergeData:          []models.Range{},
		Hidden:             models.False,
		ZoomRatio:          1,
		DefaultColumnWidth: DefaultColumnWidth,
		DefaultRowHeight:   DefaultRowHeight,
		ShowGridlines:      models.True,
		RightToLeft:        models.False,
		Freeze:             models.Freeze{StartRow: -1, StartColumn: -1},
		RowHeader:          models.RowHeader{Width: rowHeaderWidth},
		ColumnHeader:       models.ColumnHeader{Height: columnHeaderHeight},
	}
}

func importSheet(id string, src *models.TableSheet) *models.SheetSnapshot {
	name := src.Name
	if strings.TrimSpace(name) == "" {
		name = DefaultSheet
	}
	sheet := newSheet(id, name)

	// Extent of data and merges, as 0-based maxima.
	maxRow, maxCol := -1, -1
	sheet.MergeData = append(sheet.MergeData, src.Merges...)
	for _, m := range src.Merges {
		maxRow = max(maxRow, m.EndRow)
		maxCol = max(maxCol, m.EndColumn)
	}

	for r, cols := range src.Cells {
		for c, cell := range cols {
			if coveredByMerge(src.Merges, r, c) {
				continue
			}
			row, ok := sheet.CellData[r]
			if !ok {
				row = make(map[int]models.Cell)
				sheet.CellData[r] = row
			}
			row[c] = convertCell(cell)
			maxRow = max(maxRow, r)
			maxCol = max(maxCol, c)
		}
	}

	sheet.RowCount = max(MinRowCount, maxRow+1)
	sheet.ColumnCount = max(MinColumnCount, maxCol+1)

	for c, hint := range src.Columns {
		switch {
		case hint.WidthPx > 0:
			sheet.ColumnData[c] = models.ColumnInfo{W: hint.WidthPx}
		case hint.WidthChars > 0:
			sheet.ColumnData[c] = models.ColumnInfo{W: units.CharsToPixels(hint.WidthChars)}
		}
	}
	for r, hint := range src.Rows {
		switch {
		case hint.HeightPx > 0:
			sheet.RowData[r] = models.RowInfo{H: hint.HeightPx}
		case hint.HeightPt > 0:
			sheet.RowData[r] = models.RowInfo{H: units.PointsToPixels(hint.HeightPt)}
		}
	}
	return sheet
}

// coveredByMerge reports whether (row, col) is a non-anchor cell of a merge.
func coveredByMerge(merges []models.Range, row, col int) bool {
	for _, m := range merges {
		if m.Contains(row, col) && (row != m.StartRow || col != m.StartColumn) {
			return true
		}
	}
	return false
}

// convertCell maps a source cell onto the engine's three value types.
func convertCell(src models.TableCell) models.Cell {
	var cell models.Cell
	switch src.Kind {
	case models.KindNumber:
		if v, ok := src.Value.(float64); ok {
			cell = models.Cell{V: v, T: models.CellTypeNumber}
			break
		}
		cell = stringCell(src.Value)
	case models.KindBoolean:
		if v, ok := src.Value.(bool); ok {
			cell = models.Cell{V: v, T: models.CellTypeBoolean}
			break
		}
		cell = stringCell(src.Value)
	default:
		cell = stringCell(src.Value)
	}

	if f := strings.TrimPrefix(src.Formula, "="); f != "" {
		cell.F = "=" + f
		if src.Kind == models.KindUnknown && cell.V == "" {
			cell.V = nil
		}
	}
	return cell
}

func stringCell(v any) models.Cell {
	switch v := v.(type) {
	case nil:
		return models.Cell{V: "", T: models.CellTypeString}
	case string:
		return models.Cell{V: v, T: models.CellTypeString}
	case float64:
		return models.Cell{V: strconv.FormatFloat(v, 'f', -1, 64), T: models.CellTypeString}
	default:
		return models.Cell{V: fmt.Sprint(v), T: models.CellTypeString}
	}
}

package reader

import (
	"io"
	"strconv"
	"strings"

	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge/models"
	"github.com/xuri/excelize/v2"
)

const formatXLSX = "xlsx"

// lastColumnName is the rightmost addressable column. Asking excelize for
// its width yields the width an untouched column has.
const lastColumnName = "XFD"

// readXLSX reads every sheet of an Office Open XML workbook.
func readXLSX(r io.Reader) (*models.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, newParseError(formatXLSX, "", err)
	}
	defer f.Close()

	table := &models.Table{}
	if props, err := f.GetDocProps(); err == nil && props != nil {
		table.Title = props.Title
	}

	for _, name := range f.GetSheetList() {
		sheet, err := readXLSXSheet(f, name)
		if err != nil {
			return nil, newParseError(formatXLSX, name, err)
		}
		table.Sheets = append(table.Sheets, sheet)
	}
	return table, nil
}

func readXLSXSheet(f *excelize.File, name string) (models.TableSheet, error) {
	sheet := models.NewTableSheet(name)

	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return sheet, err
	}

	maxRow, maxCol := -1, -1
	for rowIdx, row := range rows {
		for colIdx, raw := range row {
			axis, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+1)
			if err != nil {
				return sheet, err
			}
			formula, err := f.GetCellFormula(name, axis)
			if err != nil {
				return sheet, err
			}
			if raw == "" && formula == "" {
				continue
			}

			cell, err := xlsxCell(f, name, axis, raw)
			if err != nil {
				return sheet, err
			}
			cell.Formula = strings.TrimPrefix(formula, "=")
			sheet.SetCell(rowIdx, colIdx, cell)

			maxRow = max(maxRow, rowIdx)
			maxCol = max(maxCol, colIdx)
		}
	}

	mergeCells, err := f.GetMergeCells(name)
	if err != nil {
		return sheet, err
	}
	for _, mc := range mergeCells {
		rng, ok := parseRange(mc.GetStartAxis() + ":" + mc.GetEndAxis())
		if !ok {
			continue
		}
		sheet.Merges = append(sheet.Merges, rng)
		maxRow = max(maxRow, rng.EndRow)
		maxCol = max(maxCol, rng.EndColumn)
	}

	if err := readXLSXHints(f, name, &sheet, maxRow, maxCol); err != nil {
		return sheet, err
	}
	return sheet, nil
}

// xlsxCell classifies one populated cell. Date-formatted serials stay
// numbers; only cells stored with the ISO date type report a date.
func xlsxCell(f *excelize.File, sheet, axis, raw string) (models.TableCell, error) {
	typ, err := f.GetCellType(sheet, axis)
	if err != nil {
		return models.TableCell{}, err
	}

	switch typ {
	case excelize.CellTypeBool:
		return models.TableCell{
			Value: raw == "1" || strings.EqualFold(raw, "true"),
			Kind:  models.KindBoolean,
		}, nil
	case excelize.CellTypeError:
		return models.TableCell{Value: raw, Kind: models.KindError}, nil
	case excelize.CellTypeDate:
		formatted, err := f.GetCellValue(sheet, axis)
		if err != nil {
			return models.TableCell{}, err
		}
		return models.TableCell{Value: formatted, Kind: models.KindDate}, nil
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			return models.TableCell{Value: v, Kind: models.KindNumber}, nil
		}
		if raw == "" {
			return models.TableCell{Value: "", Kind: models.KindUnknown}, nil
		}
		return models.TableCell{Value: raw, Kind: models.KindString}, nil
	default:
		return models.TableCell{Value: raw, Kind: models.KindString}, nil
	}
}

// readXLSXHints records widths and heights that differ from the sheet
// default, within the used extent.
func readXLSXHints(f *excelize.File, name string, sheet *models.TableSheet, maxRow, maxCol int) error {
	defaultWidth, err := f.GetColWidth(name, lastColumnName)
	if err != nil {
		return err
	}
	for col := 0; col <= maxCol; col++ {
		colName, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return err
		}
		width, err := f.GetColWidth(name, colName)
		if err != nil {
			return err
		}
		if width != defaultWidth {
			sheet.Columns[col] = models.ColumnHint{WidthChars: width}
		}
	}

	defaultHeight, err := f.GetRowHeight(name, excelize.TotalRows)
	if err != nil {
		return err
	}
	for row := 0; row <= maxRow; row++ {
		height, err := f.GetRowHeight(name, row+1)
		if err != nil {
			return err
		}
		if height != defaultHeight {
			sheet.Rows[row] = models.RowHint{HeightPt: height}
		}
	}
	return nil
}

// parseRange parses a reference like $A$1:$D$10 into a 0-based range.
// A single cell reference yields a one-cell range.
func parseRange(ref string) (models.Range, bool) {
	ref = strings.ReplaceAll(ref, "$", "")

	parts := strings.Split(ref, ":")
	if len(parts) == 1 {
		parts = append(parts, parts[0])
	}
	if len(parts) != 2 {
		return models.Range{}, false
	}

	startCol, startRow, err := excelize.CellNameToCoordinates(parts[0])
	if err != nil {
		return models.Range{}, false
	}
	endCol, endRow, err := excelize.CellNameToCoordinates(parts[1])
	if err != nil {
		return models.Range{}, false
	}

	return models.Range{
		StartRow:    min(startRow, endRow) - 1,
		StartColumn: min(startCol, endCol) - 1,
		EndRow:      max(startRow, endRow) - 1,
		EndColumn:   max(startCol, endCol) - 1,
	}, true
}

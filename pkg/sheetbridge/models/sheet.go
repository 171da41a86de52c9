package models

// BooleanNumber is the engine's 0/1 flag encoding.
type BooleanNumber int

const (
	False BooleanNumber = 0
	True  BooleanNumber = 1
)

// Freeze is the frozen-pane state of a sheet.
type Freeze struct {
	XSplit      int `json:"xSplit"`
	YSplit      int `json:"ySplit"`
	StartRow    int `json:"startRow"`
	StartColumn int `json:"startColumn"`
}

// RowHeader describes the row header gutter.
type RowHeader struct {
	Width int `json:"width"`
}

// ColumnHeader describes the column header gutter.
type ColumnHeader struct {
	Height int `json:"height"`
}

// SheetSnapshot is the declarative state of one sheet.
type SheetSnapshot struct {
	// ID is the stable sheet identifier referenced by SheetOrder.
	ID string `json:"id"`
	// Name is the display name. Never empty after import.
	Name string `json:"name"`
	// RowCount is the number of rows the engine allocates.
	RowCount int `json:"rowCount"`
	// ColumnCount is the number of columns the engine allocates.
	ColumnCount int `json:"columnCount"`
	// CellData maps row to column to cell. Sparse.
	CellData map[int]map[int]Cell `json:"cellData"`
	// RowData maps row to height. Sparse.
	RowData map[int]RowInfo `json:"rowData"`
	// ColumnData maps column to width. Sparse.
	ColumnData map[int]ColumnInfo `json:"columnData"`
	// MergeData lists merged regions.
	MergeData []Range `json:"mergeData"`

	// Engine bookkeeping, populated with safe defaults on import.
	TabColor           string        `json:"tabColor"`
	Hidden             BooleanNumber `json:"hidden"`
	ZoomRatio          float64       `json:"zoomRatio"`
	ScrollTop          float64       `json:"scrollTop"`
	ScrollLeft         float64       `json:"scrollLeft"`
	DefaultColumnWidth float64       `json:"defaultColumnWidth"`
	DefaultRowHeight   float64       `json:"defaultRowHeight"`
	ShowGridlines      BooleanNumber `json:"showGridlines"`
	RightToLeft        BooleanNumber `json:"rightToLeft"`
	Freeze             Freeze        `json:"freeze"`
	RowHeader          RowHeader     `json:"rowHeader"`
	ColumnHeader       ColumnHeader  `json:"columnHeader"`
}

// Cell returns the cell at (row, col) and whether it is populated.
func (s *SheetSnapshot) Cell(row, col int) (Cell, bool) {
	r, ok := s.CellData[row]
	if !ok {
		return Cell{}, false
	}
	c, ok := r[col]
	return c, ok
}

// Extent returns the largest populated row and column, or (0, 0) when the
// sheet has no cells.
func (s *SheetSnapshot) Extent() (maxRow, maxCol int) {
	for r, cols := range s.CellData {
		if len(cols) == 0 {
			continue
		}
		if r > maxRow {
			maxRow = r
		}
		for c := range cols {
			if c > maxCol {
				maxCol = c
			}
		}
	}
	return maxRow, maxCol
}

// Populated reports whether the sheet holds at least one cell.
func (s *SheetSnapshot) Populated() bool {
	for _, cols := range s.CellData {
		if len(cols) > 0 {
			return true
		}
	}
	return false
}

package models

// NativeKind is the per-cell type tag reported by the source codec.
// The snapshot import adapter folds it into string, number or boolean.
type NativeKind string

const (
	KindString  NativeKind = "s"
	KindNumber  NativeKind = "n"
	KindBoolean NativeKind = "b"
	KindDate    NativeKind = "d"
	KindError   NativeKind = "e"
	KindUnknown NativeKind = "z"
)

// Table is the intermediate table-of-cells produced by the readers.
// It is transient: the import adapter consumes it immediately.
type Table struct {
	// Title is the workbook title from document properties, if any.
	Title string
	// Sheets are the source sheets in workbook order.
	Sheets []TableSheet
}

// TableSheet is one source sheet.
type TableSheet struct {
	// Name is the sheet name as stored in the source (may be empty).
	Name string
	// Cells maps 0-based row to 0-based column to cell.
	Cells map[int]map[int]TableCell
	// Columns holds native width hints keyed by 0-based column.
	Columns map[int]ColumnHint
	// Rows holds native height hints keyed by 0-based row.
	Rows map[int]RowHint
	// Merges lists merged regions. They never overlap.
	Merges []Range
}

// TableCell is a populated source cell.
type TableCell struct {
	// Value is a string, float64 or bool.
	Value any
	// Kind is the source codec's type tag.
	Kind NativeKind
	// Formula is the formula text without a leading "=", or "".
	Formula string
}

// ColumnHint is a native column width. At most one field is meaningful;
// WidthPx wins when both are set.
type ColumnHint struct {
	WidthPx    float64
	WidthChars float64
}

// RowHint is a native row height. HeightPx wins when both are set.
type RowHint struct {
	HeightPx float64
	HeightPt float64
}

// NewTableSheet returns a sheet with its maps allocated.
func NewTableSheet(name string) TableSheet {
	return TableSheet{
		Name:    name,
		Cells:   make(map[int]map[int]TableCell),
		Columns: make(map[int]ColumnHint),
		Rows:    make(map[int]RowHint),
	}
}

// SetCell stores a cell at (row, col), allocating the row map on demand.
func (s *TableSheet) SetCell(row, col int, cell TableCell) {
	r, ok := s.Cells[row]
	if !ok {
		r = make(map[int]TableCell)
		s.Cells[row] = r
	}
	r[col] = cell
}

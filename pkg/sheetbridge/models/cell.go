package models

// CellValueType is the snapshot's cell type tag.
type CellValueType int

const (
	CellTypeString  CellValueType = 1
	CellTypeNumber  CellValueType = 2
	CellTypeBoolean CellValueType = 3
)

// Cell is one populated snapshot cell.
type Cell struct {
	// V is the value: string, float64 or bool. Nil for a formula without a cached result.
	V any `json:"v,omitempty"`
	// T is the value type.
	T CellValueType `json:"t,omitempty"`
	// F is the formula text with a leading "=", or "".
	F string `json:"f,omitempty"`
}

// RowInfo carries a row height in device pixels.
type RowInfo struct {
	H float64 `json:"h,omitempty"`
}

// ColumnInfo carries a column width in device pixels.
type ColumnInfo struct {
	W float64 `json:"w,omitempty"`
}

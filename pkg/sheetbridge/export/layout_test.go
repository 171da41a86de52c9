package export

import (
	"reflect"
	"testing"

	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge/models"
)

func TestLayoutTable(t *testing.T) {
	sheet := &models.SheetSnapshot{
		CellData: map[int]map[int]models.Cell{
			0: {0: {V: "Merged"}, 2: {V: 3.0}},
			2: {1: {V: "tail"}},
		},
		ColumnData: map[int]models.ColumnInfo{0: {W: 160}},
		MergeData: []models.Range{
			{StartRow: 0, StartColumn: 0, EndRow: 1, EndColumn: 1},
			{StartRow: 2, StartColumn: 2, EndRow: 9, EndColumn: 9},
			{StartRow: 5, StartColumn: 0, EndRow: 6, EndColumn: 0},
		},
	}

	got := layoutTable(sheet, 320)

	want := [][]spanCell{
		{{Row: 0, Col: 0, RowSpan: 2, ColSpan: 2, Text: "Merged"}, {Row: 0, Col: 2, RowSpan: 1, ColSpan: 1, Text: "3"}},
		{{Row: 1, Col: 2, RowSpan: 1, ColSpan: 1}},
		{{Row: 2, Col: 0, RowSpan: 1, ColSpan: 1}, {Row: 2, Col: 1, RowSpan: 1, ColSpan: 1, Text: "tail"}, {Row: 2, Col: 2, RowSpan: 1, ColSpan: 1}},
	}
	if !reflect.DeepEqual(got.Rows, want) {
		t.Errorf("Rows = %+v\nwant %+v", got.Rows, want)
	}
	if wantW := []float64{160, 80, 80}; !reflect.DeepEqual(got.Widths, wantW) {
		t.Errorf("Widths = %v, want %v", got.Widths, wantW)
	}
}

func TestLayoutTableEmpty(t *testing.T) {
	for _, s := range []*models.SheetSnapshot{nil, {}, {CellData: map[int]map[int]models.Cell{4: {}}}} {
		if got := layoutTable(s, 100); got.Rows != nil || got.Widths != nil {
			t.Errorf("layoutTable = %+v, want empty", got)
		}
	}
}

func TestColumnWidths(t *testing.T) {
	sheet := &models.SheetSnapshot{ColumnData: map[int]models.ColumnInfo{1: {W: 240}, 2: {W: -5}}}
	got := columnWidths(sheet, 3, 200)
	want := []float64{40, 120, 40}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("columnWidths = %v, want %v", got, want)
	}
	if total := span(got, 0, 3); total != 200 {
		t.Errorf("total width = %v, want 200", total)
	}
	if got := span(got, 1, 5); got != 160 {
		t.Errorf("span past end = %v, want 160", got)
	}
}

func TestWrapText(t *testing.T) {
	measure := func(s string) float64 { return float64(len([]rune(s))) }
	tests := []struct {
		name     string
		text     string
		width    float64
		bytewise bool
		want     []string
	}{
		{"fits", "short", 10, false, []string{"short"}},
		{"empty", "", 10, false, []string{""}},
		{"break at space", "hello world", 5, false, []string{"hello", "world"}},
		{"break inside word", "abcdefghij", 5, false, []string{"abcde", "fghij"}},
		{"newlines", "a\r\nb\rc\nd", 5, false, []string{"a", "b", "c", "d"}},
		{"multibyte runes", "日本語テキスト", 3, false, []string{"日本語", "テキス", "ト"}},
		{"single byte encoded", "ab\xe9cd", 3, true, []string{"ab\xe9", "cd"}},
		{"narrower than one char", "abc", 0.5, false, []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := measure
			if tt.bytewise {
				m = func(s string) float64 { return float64(len(s)) }
			}
			if got := wrapText(tt.text, tt.width, m, tt.bytewise); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("wrapText(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

package export

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge/models"
	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge/snapshot"
	"github.com/xuri/excelize/v2"
)

func openXLSX(t *testing.T, blob *models.ExportBlob) *excelize.File {
	t.Helper()
	if blob.ContentType != models.ContentTypeXLSX {
		t.Fatalf("ContentType = %q", blob.ContentType)
	}
	f, err := excelize.OpenReader(bytes.NewReader(blob.Data))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestXLSXRoundTrip(t *testing.T) {
	src := models.NewTableSheet("Sheet1")
	src.SetCell(0, 0, models.TableCell{Value: "Name", Kind: models.KindString})
	src.SetCell(0, 1, models.TableCell{Value: 42.0, Kind: models.KindNumber})
	src.SetCell(1, 0, models.TableCell{Value: "Row2", Kind: models.KindString})

	blob, err := XLSX(snapshot.Import(&models.Table{Sheets: []models.TableSheet{src}}))
	if err != nil {
		t.Fatalf("XLSX: %v", err)
	}
	f := openXLSX(t, blob)

	tests := []struct {
		cell string
		want string
	}{
		{"A1", "Name"},
		{"B1", "42"},
		{"A2", "Row2"},
		{"B2", ""},
	}
	for _, tt := range tests {
		got, err := f.GetCellValue("Sheet1", tt.cell)
		if err != nil {
			t.Fatalf("GetCellValue(%s): %v", tt.cell, err)
		}
		if got != tt.want {
			t.Errorf("%s = %q, want %q", tt.cell, got, tt.want)
		}
	}
	if typ, _ := f.GetCellType("Sheet1", "B1"); typ != excelize.CellTypeNumber && typ != excelize.CellTypeUnset {
		t.Errorf("B1 type = %v, want number", typ)
	}
}

func TestXLSXMergeRoundTrip(t *testing.T) {
	src := models.NewTableSheet("Merged")
	src.SetCell(0, 0, models.TableCell{Value: "Top", Kind: models.KindString})
	src.Merges = []models.Range{{StartRow: 0, StartColumn: 0, EndRow: 1, EndColumn: 1}}

	blob, err := XLSX(snapshot.Import(&models.Table{Sheets: []models.TableSheet{src}}))
	if err != nil {
		t.Fatalf("XLSX: %v", err)
	}
	f := openXLSX(t, blob)

	if got, _ := f.GetCellValue("Merged", "A1"); got != "Top" {
		t.Errorf("A1 = %q, want Top", got)
	}
	merges, err := f.GetMergeCells("Merged")
	if err != nil {
		t.Fatalf("GetMergeCells: %v", err)
	}
	if len(merges) != 1 {
		t.Fatalf("merges = %d, want 1", len(merges))
	}
	if merges[0].GetStartAxis() != "A1" || merges[0].GetEndAxis() != "B2" {
		t.Errorf("merge = %s:%s, want A1:B2", merges[0].GetStartAxis(), merges[0].GetEndAxis())
	}
}

func TestXLSXHintsFormulaAndTitle(t *testing.T) {
	wb := snapshot.NewEmpty()
	wb.Name = "Budget"
	sheet := wb.Sheets[wb.SheetOrder[0]]
	sheet.CellData = map[int]map[int]models.Cell{
		0: {
			0: {V: 41.0, T: models.CellTypeNumber},
			1: {V: 42.0, T: models.CellTypeNumber, F: "=A1+1"},
			2: {F: "=SUM(A1:B1)"},
		},
	}
	sheet.ColumnData = map[int]models.ColumnInfo{1: {W: 160}, 2: {W: 1e6}}
	sheet.RowData = map[int]models.RowInfo{0: {H: 40}, 3: {H: 1e6}}

	blob, err := XLSX(wb)
	if err != nil {
		t.Fatalf("XLSX: %v", err)
	}
	f := openXLSX(t, blob)
	name := sheet.Name

	if got, _ := f.GetCellFormula(name, "B1"); got != "A1+1" {
		t.Errorf("B1 formula = %q, want A1+1", got)
	}
	if got, _ := f.GetCellValue(name, "B1"); got != "42" {
		t.Errorf("B1 cached value = %q, want 42", got)
	}
	if got, _ := f.GetCellFormula(name, "C1"); got != "SUM(A1:B1)" {
		t.Errorf("C1 formula = %q", got)
	}
	if got, _ := f.GetColWidth(name, "B"); got != 20 {
		t.Errorf("B width = %v, want 20", got)
	}
	if got, _ := f.GetColWidth(name, "C"); got != excelize.MaxColumnWidth {
		t.Errorf("C width = %v, want clamp %d", got, excelize.MaxColumnWidth)
	}
	if got, _ := f.GetRowHeight(name, 1); got != 30 {
		t.Errorf("row 1 height = %v, want 30", got)
	}
	if got, _ := f.GetRowHeight(name, 4); got != excelize.MaxRowHeight {
		t.Errorf("row 4 height = %v, want clamp %d", got, excelize.MaxRowHeight)
	}
	props, err := f.GetDocProps()
	if err != nil {
		t.Fatalf("GetDocProps: %v", err)
	}
	if props.Title != "Budget" {
		t.Errorf("Title = %q, want Budget", props.Title)
	}
}

func TestXLSXFormulaCachedValues(t *testing.T) {
	wb := snapshot.NewEmpty()
	sheet := wb.Sheets[wb.SheetOrder[0]]
	sheet.CellData = map[int]map[int]models.Cell{
		0: {
			0: {V: "hi", T: models.CellTypeString, F: `="hi"`},
			1: {V: true, T: models.CellTypeBoolean, F: "=TRUE()"},
			2: {V: 2.5, T: models.CellTypeNumber, F: "=5/2"},
		},
	}

	blob, err := XLSX(wb)
	if err != nil {
		t.Fatalf("XLSX: %v", err)
	}
	f := openXLSX(t, blob)
	name := sheet.Name

	tests := []struct {
		cell     string
		formula  string
		raw      string
		wantType excelize.CellType
	}{
		{"A1", `"hi"`, "hi", excelize.CellTypeFormula},
		{"B1", "TRUE()", "1", excelize.CellTypeBool},
		{"C1", "5/2", "2.5", excelize.CellTypeUnset},
	}
	for _, tt := range tests {
		if got, _ := f.GetCellFormula(name, tt.cell); got != tt.formula {
			t.Errorf("%s formula = %q, want %q", tt.cell, got, tt.formula)
		}
		got, err := f.GetCellValue(name, tt.cell, excelize.Options{RawCellValue: true})
		if err != nil {
			t.Fatalf("GetCellValue(%s): %v", tt.cell, err)
		}
		if got != tt.raw {
			t.Errorf("%s cached value = %q, want %q", tt.cell, got, tt.raw)
		}
		if typ, _ := f.GetCellType(name, tt.cell); typ != tt.wantType {
			t.Errorf("%s type = %v, want %v", tt.cell, typ, tt.wantType)
		}
	}
}

func TestXLSXSheetOrderAndNames(t *testing.T) {
	wb := &models.WorkbookSnapshot{
		SheetOrder: []string{"a", "missing", "b", "c"},
		Sheets: map[string]*models.SheetSnapshot{
			"a": {Name: "Q1/Q2"},
			"b": {Name: "q1_q2"},
			"c": {Name: ""},
		},
	}
	blob, err := XLSX(wb)
	if err != nil {
		t.Fatalf("XLSX: %v", err)
	}
	f := openXLSX(t, blob)

	want := []string{"Q1_Q2", "q1_q2 (2)", "Sheet"}
	if got := f.GetSheetList(); !reflect.DeepEqual(got, want) {
		t.Errorf("sheets = %v, want %v", got, want)
	}
}

func TestXLSXNoSheets(t *testing.T) {
	for _, wb := range []*models.WorkbookSnapshot{nil, {}} {
		blob, err := XLSX(wb)
		if err != nil {
			t.Fatalf("XLSX: %v", err)
		}
		f := openXLSX(t, blob)
		if got := f.GetSheetList(); len(got) != 1 {
			t.Errorf("sheets = %v, want one default sheet", got)
		}
	}
}

func TestSanitizeSheetName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Sales", "Sales"},
		{"invalid chars", "a:b\\c/d?e*f[g]", "a_b_c_d_e_f_g_"},
		{"quotes trimmed", "'quoted'", "quoted"},
		{"empty", "", "Sheet"},
		{"only quotes", "''", "Sheet"},
		{"truncated", "abcdefghijklmnopqrstuvwxyz0123456789", "abcdefghijklmnopqrstuvwxyz01234"},
		{"multibyte kept whole", "売上データ", "売上データ"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeSheetName(tt.in); got != tt.want {
				t.Errorf("sanitizeSheetName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSheetNamerDedupe(t *testing.T) {
	n := newSheetNamer()
	long := "abcdefghijklmnopqrstuvwxyz01234"
	got := []string{n.next("Data"), n.next("DATA"), n.next("data"), n.next(long), n.next(long)}
	want := []string{"Data", "DATA (2)", "data (3)", long, "abcdefghijklmnopqrstuvwxyz0 (2)"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("names = %v, want %v", got, want)
	}
}

func TestTruncateUTF16(t *testing.T) {
	// U+1F600 takes two UTF-16 units and is never split.
	if got := truncateUTF16("ab\U0001F600", 3); got != "ab" {
		t.Errorf("truncateUTF16 = %q, want ab", got)
	}
	if got := truncateUTF16("ab\U0001F600", 4); got != "ab\U0001F600" {
		t.Errorf("truncateUTF16 = %q", got)
	}
}

package output

import (
	"errors"
	"strings"
	"testing"

	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge/models"
	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge/snapshot"
)

func TestToJSONShape(t *testing.T) {
	wb := snapshot.NewEmpty()
	sheet := wb.Sheets[wb.SheetOrder[0]]
	sheet.CellData[0] = map[int]models.Cell{1: {V: 42.0, T: models.CellTypeNumber, F: "=A1*2"}}

	data, err := ToJSON(wb, false)
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	for _, want := range []string{
		`"sheetOrder":["sheet-0"]`,
		`"cellData":{"0":{"1":{"v":42,"t":2,"f":"=A1*2"}}}`,
		`"freeze":{"xSplit":0,"ySplit":0,"startRow":-1,"startColumn":-1}`,
	} {
		if !strings.Contains(string(data), want) {
			t.Errorf("JSON lacks %s\n%s", want, data)
		}
	}

	pretty, err := ToJSON(wb, true)
	if err != nil {
		t.Fatalf("ToJSON pretty: %v", err)
	}
	if !strings.Contains(string(pretty), "\n  \"id\": \"workbook-01\"") {
		t.Errorf("pretty output not indented:\n%s", pretty)
	}
}

func TestFromJSON(t *testing.T) {
	in := `{
		"id": "wb", "name": "Book", "sheetOrder": ["s1"],
		"sheets": {
			"s1": {"name": "Data", "cellData": {"2": {"0": {"v": "x", "t": 1}, "3": {"v": true, "t": 3}}}},
			"gone": null
		}
	}`
	wb, err := FromJSON([]byte(in))
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if _, ok := wb.Sheets["gone"]; ok {
		t.Errorf("null sheet kept")
	}
	s := wb.Sheets["s1"]
	if s.ID != "s1" {
		t.Errorf("ID = %q, want s1", s.ID)
	}
	if c, ok := s.Cell(2, 0); !ok || c.V != "x" || c.T != models.CellTypeString {
		t.Errorf("cell (2,0) = %+v, %v", c, ok)
	}
	if c, _ := s.Cell(2, 3); c.V != true {
		t.Errorf("cell (2,3) = %+v", c)
	}
	if s.RowData == nil || s.ColumnData == nil {
		t.Errorf("hint maps not allocated")
	}
}

func TestFromJSONErrors(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr error
	}{
		{"null", "null", ErrEmptySnapshot},
		{"no sheets", `{"id":"wb"}`, ErrEmptySnapshot},
		{"malformed", `{"sheets":`, nil},
		{"bad row key", `{"sheets":{"s":{"cellData":{"x":{}}}}}`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromJSON([]byte(tt.in))
			if err == nil {
				t.Fatal("FromJSON succeeded, want error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	src := models.NewTableSheet("Data")
	src.SetCell(0, 0, models.TableCell{Value: "Name", Kind: models.KindString})
	src.SetCell(1, 2, models.TableCell{Value: 2.5, Kind: models.KindNumber, Formula: "A1"})
	src.Merges = []models.Range{{StartRow: 3, StartColumn: 0, EndRow: 4, EndColumn: 1}}
	wb := snapshot.Import(&models.Table{Sheets: []models.TableSheet{src}})

	data, err := ToJSON(wb, false)
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	got, err := FromJSON(data)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	sheet := got.Sheets[got.SheetOrder[0]]
	if c, _ := sheet.Cell(1, 2); c.V != 2.5 || c.F != "=A1" {
		t.Errorf("cell (1,2) = %+v", c)
	}
	if len(sheet.MergeData) != 1 || sheet.MergeData[0] != wb.Sheets[wb.SheetOrder[0]].MergeData[0] {
		t.Errorf("MergeData = %+v", sheet.MergeData)
	}
}

func TestSheetToJSON(t *testing.T) {
	data, err := SheetToJSON(&models.SheetSnapshot{ID: "s", Name: "One"}, false)
	if err != nil {
		t.Fatalf("SheetToJSON: %v", err)
	}
	if !strings.HasPrefix(string(data), `{"id":"s","name":"One"`) {
		t.Errorf("SheetToJSON = %s", data)
	}
}

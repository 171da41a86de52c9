// Package output serializes workbook snapshots to the JSON form the
// spreadsheet engine exchanges.
package output

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge/models"
)

// ErrEmptySnapshot is returned by FromJSON for a null or sheetless document.
var ErrEmptySnapshot = errors.New("snapshot has no sheets")

// ToJSON serializes a workbook snapshot.
func ToJSON(wb *models.WorkbookSnapshot, pretty bool) ([]byte, error) {
	return marshal(wb, pretty)
}

// SheetToJSON serializes one sheet snapshot.
func SheetToJSON(s *models.SheetSnapshot, pretty bool) ([]byte, error) {
	return marshal(s, pretty)
}

// FromJSON parses a workbook snapshot. Sheet maps missing from the input
// are allocated so callers can index them.
func FromJSON(data []byte) (*models.WorkbookSnapshot, error) {
	var wb *models.WorkbookSnapshot
	if err := json.Unmarshal(data, &wb); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if wb == nil || len(wb.Sheets) == 0 {
		return nil, ErrEmptySnapshot
	}
	for id, s := range wb.Sheets {
		if s == nil {
			delete(wb.Sheets, id)
			continue
		}
		if s.ID == "" {
			s.ID = id
		}
		if s.CellData == nil {
			s.CellData = make(map[int]map[int]models.Cell)
		}
		if s.RowData == nil {
			s.RowData = make(map[int]models.RowInfo)
		}
		if s.ColumnData == nil {
			s.ColumnData = make(map[int]models.ColumnInfo)
		}
	}
	return wb, nil
}

func marshal(v any, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}

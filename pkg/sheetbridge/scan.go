package sheetbridge

import (
	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge/export"
	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge/models"
	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge/security"
)

// SheetScan is the injection scan result for one sheet.
type SheetScan struct {
	SheetID string `json:"sheetId"`
	Name    string `json:"name"`
	security.Result
}

// ScanReport is the injection scan result for a workbook.
type ScanReport struct {
	Found  bool        `json:"found"`
	Sheets []SheetScan `json:"sheets"`
}

// ScanWorkbook scans every sheet of wb, in sheet order, as it would be
// written to delimited text. wb is not modified.
func ScanWorkbook(wb *models.WorkbookSnapshot) ScanReport {
	report := ScanReport{Sheets: []SheetScan{}}
	if wb == nil {
		return report
	}
	for _, sheet := range wb.OrderedSheets() {
		res := security.Scan(export.Grid(sheet))
		report.Found = report.Found || res.Found
		report.Sheets = append(report.Sheets, SheetScan{SheetID: sheet.ID, Name: sheet.Name, Result: res})
	}
	return report
}

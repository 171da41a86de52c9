package snapshot

import "github.com/ukaji3/sheetbridge-go/pkg/sheetbridge/models"

// Dimensions of a brand-new document.
const (
	newRowCount     = 100
	newColumnCount  = 26
	newColumnWidth  = 88
	newRowHeight    = 24
	newWorkbookName = "Untitled"
)

// NewEmpty returns the snapshot for a new, blank document.
func NewEmpty() *models.WorkbookSnapshot {
	sheet := newSheet(SheetID(0), DefaultSheet)
	sheet.RowCount = newRowCount
	sheet.ColumnCount = newColumnCount
	sheet.DefaultColumnWidth = newColumnWidth
	sheet.DefaultRowHeight = newRowHeight

	return &models.WorkbookSnapshot{
		ID:         WorkbookID,
		Name:       newWorkbookName,
		AppVersion: AppVersion,
		Locale:     Locale,
		Styles:     map[string]any{},
		SheetOrder: []string{sheet.ID},
		Sheets:     map[string]*models.SheetSnapshot{sheet.ID: sheet},
	}
}

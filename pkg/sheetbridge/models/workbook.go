package models

// WorkbookSnapshot is the declarative workbook exchanged with the
// spreadsheet engine. Export adapters treat it as read-only.
type WorkbookSnapshot struct {
	// ID identifies the workbook.
	ID string `json:"id"`
	// Name is the workbook display name.
	Name string `json:"name"`
	// AppVersion is engine bookkeeping.
	AppVersion string `json:"appVersion"`
	// Locale is the engine locale tag.
	Locale string `json:"locale"`
	// Styles is engine bookkeeping; always empty on import.
	Styles map[string]any `json:"styles"`
	// SheetOrder lists sheet identifiers in display order.
	SheetOrder []string `json:"sheetOrder"`
	// Sheets maps sheet identifier to sheet.
	Sheets map[string]*SheetSnapshot `json:"sheets"`
}

// OrderedSheets returns the sheets named by SheetOrder, skipping identifiers
// that have no entry in Sheets.
func (w *WorkbookSnapshot) OrderedSheets() []*SheetSnapshot {
	sheets := make([]*SheetSnapshot, 0, len(w.SheetOrder))
	for _, id := range w.SheetOrder {
		if s, ok := w.Sheets[id]; ok && s != nil {
			sheets = append(sheets, s)
		}
	}
	return sheets
}

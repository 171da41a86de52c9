package export

import (
	"strings"

	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge/models"
)

// defaultColumnPx is the raw width of a column without a width hint.
const defaultColumnPx = 80.0

type coord struct{ row, col int }

// spanCell is one drawn table cell. Merged regions are drawn once from
// their top-left cell.
type spanCell struct {
	Row     int
	Col     int
	RowSpan int
	ColSpan int
	Text    string
}

// tableLayout is the drawable form of one sheet.
type tableLayout struct {
	// Rows holds one entry per occupied row. Interior merge positions are
	// omitted.
	Rows [][]spanCell
	// Widths holds the column widths in page units, summing to the
	// printable width.
	Widths []float64
}

// layoutTable lays out the occupied rectangle of s across printable page
// units. Column widths are proportional to the sheet's pixel widths.
func layoutTable(s *models.SheetSnapshot, printable float64) tableLayout {
	if s == nil || !s.Populated() {
		return tableLayout{}
	}
	maxRow, maxCol := s.Extent()

	anchors := make(map[coord]models.Range)
	interior := make(map[coord]bool)
	for _, m := range s.MergeData {
		if m.StartRow > maxRow || m.StartColumn > maxCol {
			continue
		}
		anchors[coord{m.StartRow, m.StartColumn}] = m
		for r := m.StartRow; r <= m.EndRow && r <= maxRow; r++ {
			for c := m.StartColumn; c <= m.EndColumn && c <= maxCol; c++ {
				if r != m.StartRow || c != m.StartColumn {
					interior[coord{r, c}] = true
				}
			}
		}
	}

	rows := make([][]spanCell, maxRow+1)
	for r := range rows {
		row := make([]spanCell, 0, maxCol+1)
		for c := 0; c <= maxCol; c++ {
			if interior[coord{r, c}] {
				continue
			}
			cell := spanCell{Row: r, Col: c, RowSpan: 1, ColSpan: 1}
			if v, ok := s.Cell(r, c); ok {
				cell.Text = CellText(v.V)
			}
			if m, ok := anchors[coord{r, c}]; ok {
				cell.RowSpan = min(m.EndRow, maxRow) - r + 1
				cell.ColSpan = min(m.EndColumn, maxCol) - c + 1
			}
			row = append(row, cell)
		}
		rows[r] = row
	}

	return tableLayout{Rows: rows, Widths: columnWidths(s, maxCol+1, printable)}
}

// columnWidths distributes printable across n columns in proportion to
// their raw pixel widths.
func columnWidths(s *models.SheetSnapshot, n int, printable float64) []float64 {
	raw := make([]float64, n)
	total := 0.0
	for c := range raw {
		w := defaultColumnPx
		if info, ok := s.ColumnData[c]; ok && info.W > 0 {
			w = info.W
		}
		raw[c] = w
		total += w
	}
	widths := make([]float64, n)
	for c, w := range raw {
		widths[c] = w / total * printable
	}
	return widths
}

// span returns the total of widths[from:from+n].
func span(widths []float64, from, n int) float64 {
	total := 0.0
	for i := from; i < from+n && i < len(widths); i++ {
		total += widths[i]
	}
	return total
}

// wrapText breaks text into lines no wider than width. Lines break at the
// last space when there is one, otherwise inside the word. When bytewise is
// set, text is a single-byte encoded string and is split per byte.
func wrapText(text string, width float64, measure func(string) float64, bytewise bool) []string {
	text = strings.NewReplacer("\r\n", "\n", "\r", "\n", "\t", " ").Replace(text)
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		lines = append(lines, wrapLine(para, width, measure, bytewise)...)
	}
	return lines
}

func wrapLine(s string, width float64, measure func(string) float64, bytewise bool) []string {
	var parts []string
	if bytewise {
		parts = make([]string, len(s))
		for i := range len(s) {
			parts[i] = s[i : i+1]
		}
	} else {
		parts = strings.Split(s, "")
	}

	var lines []string
	start, lastSpace := 0, -1
	for i := 0; i < len(parts); i++ {
		if parts[i] == " " {
			lastSpace = i
		}
		if i == start || measure(strings.Join(parts[start:i+1], "")) <= width {
			continue
		}
		if lastSpace > start {
			lines = append(lines, strings.Join(parts[start:lastSpace], ""))
			start = lastSpace + 1
		} else {
			lines = append(lines, strings.Join(parts[start:i], ""))
			start = i
		}
		lastSpace = -1
		i = start - 1
	}
	return append(lines, strings.Join(parts[start:], ""))
}

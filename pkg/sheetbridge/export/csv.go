package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge/charset"
	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge/models"
	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge/security"
)

// CSVOptions configures the delimited-text writer.
type CSVOptions struct {
	// SheetID selects the sheet to write. Empty means the first sheet in order.
	SheetID string
	// Encoding is the output encoding. Empty means utf-8.
	Encoding models.Encoding
	// Codec encodes the text. Nil means the process-wide codec.
	Codec *charset.Codec
	// Logger receives injection and substitution warnings. Nil means
	// slog.Default().
	Logger *slog.Logger
	// OnScan, when set, receives the injection scan result for the grid.
	OnScan func(security.Result)
}

// CSV writes one sheet as delimited text. A missing or empty sheet produces
// an empty document.
func CSV(wb *models.WorkbookSnapshot, opts CSVOptions) (*models.ExportBlob, error) {
	enc := opts.Encoding
	if enc == "" {
		enc = models.EncodingUTF8
	}
	codec := opts.Codec
	if codec == nil {
		codec = charset.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	grid := Grid(targetSheet(wb, opts.SheetID))

	result := security.Scan(grid)
	if result.Found {
		logger.Warn("csv export contains formula-like cells",
			"count", len(result.Flagged),
			"first_row", result.Flagged[0].Row,
			"first_col", result.Flagged[0].Col)
	}
	if opts.OnScan != nil {
		opts.OnScan(result)
	}

	text, err := formatCSV(grid)
	if err != nil {
		return nil, err
	}
	data, err := codec.WithLogger(logger).Encode(text, enc)
	if err != nil {
		return nil, err
	}
	return &models.ExportBlob{Data: data, ContentType: models.CSVContentType(enc)}, nil
}

func targetSheet(wb *models.WorkbookSnapshot, id string) *models.SheetSnapshot {
	if wb == nil {
		return nil
	}
	if id == "" {
		if len(wb.SheetOrder) == 0 {
			return nil
		}
		id = wb.SheetOrder[0]
	}
	return wb.Sheets[id]
}

// Grid returns the dense row-major text of a sheet, from (0, 0) to the
// largest populated row and column. Unpopulated cells are empty strings.
func Grid(s *models.SheetSnapshot) [][]string {
	if s == nil || !s.Populated() {
		return [][]string{}
	}
	maxRow, maxCol := s.Extent()
	grid := make([][]string, maxRow+1)
	for r := range grid {
		row := make([]string, maxCol+1)
		for c := range row {
			if cell, ok := s.Cell(r, c); ok {
				row[c] = CellText(cell.V)
			}
		}
		grid[r] = row
	}
	return grid
}

// CellText renders a cell value the way it appears in text output.
func CellText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

// formatCSV joins rows with CRLF and leaves no terminator after the last
// row. Line breaks inside a quoted field are written unchanged.
func formatCSV(grid [][]string) (string, error) {
	var out, rec bytes.Buffer
	w := csv.NewWriter(&rec)
	for i, row := range grid {
		rec.Reset()
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("write csv: %w", err)
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return "", fmt.Errorf("write csv: %w", err)
		}
		if i > 0 {
			out.WriteString("\r\n")
		}
		out.Write(bytes.TrimSuffix(rec.Bytes(), []byte("\n")))
	}
	return out.String(), nil
}

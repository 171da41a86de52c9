package reader

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge/charset"
	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge/models"
)

// csvSheetName is the name given to the single sheet of a delimited file.
const csvSheetName = "Sheet1"

// readCSV decodes data and splits it into records. Fields stay literal
// strings; no type coercion happens here.
func (r *Reader) readCSV(data []byte, explicit models.Encoding) (*models.Table, models.DetectedEncoding, error) {
	var enc models.DetectedEncoding
	if explicit != "" {
		enc = models.DetectedEncoding{
			Encoding:   explicit,
			Confidence: models.ConfidenceHigh,
			HasBOM:     bytes.HasPrefix(data, charset.BOM),
		}
	} else {
		enc = charset.Detect(data)
	}

	text, err := r.codec.Decode(charset.StripBOM(data), enc.Encoding)
	if err != nil {
		return nil, enc, err
	}

	sheet, err := parseDelimited(text)
	if err != nil {
		return nil, enc, err
	}
	return &models.Table{Sheets: []models.TableSheet{sheet}}, enc, nil
}

// parseDelimited splits text into a sheet. encoding/csv drops blank lines,
// so they are reinstated as rows holding one empty field, as is the row
// after a final line terminator. This keeps row positions aligned with the
// source lines. Field values survive a save, but quoting and line
// terminators are normalized, so the saved bytes may differ from the source.
func parseDelimited(text string) (models.TableSheet, error) {
	sheet := models.NewTableSheet(csvSheetName)

	cr := csv.NewReader(strings.NewReader(text))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	row := 0
	consumedLines := 0
	var offset int64
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return models.TableSheet{}, err
		}

		line, _ := cr.FieldPos(0)
		for blank := line - consumedLines - 1; blank > 0; blank-- {
			setEmptyRow(&sheet, row)
			row++
		}
		for col, field := range record {
			sheet.SetCell(row, col, models.TableCell{Value: field, Kind: models.KindString})
		}
		row++

		next := cr.InputOffset()
		consumedLines += strings.Count(text[offset:next], "\n")
		offset = next
	}

	for n := strings.Count(text[offset:], "\n"); n > 0; n-- {
		setEmptyRow(&sheet, row)
		row++
	}
	if strings.HasSuffix(text, "\n") {
		setEmptyRow(&sheet, row)
	}
	return sheet, nil
}

func setEmptyRow(sheet *models.TableSheet, row int) {
	sheet.SetCell(row, 0, models.TableCell{Value: "", Kind: models.KindString})
}

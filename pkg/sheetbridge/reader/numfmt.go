package reader

import (
	"time"

	"github.com/xuri/excelize/v2"
	"github.com/xuri/nfp"
)

// builtinDateFormats are the built-in number format ids that display a
// date or time, including the East Asian locale variants.
var builtinDateFormats = [][2]int{{14, 22}, {27, 36}, {45, 47}, {50, 58}, {71, 81}}

// isDateFormat reports whether the number format id displays a date or
// time. A non-empty code is a custom format and is tokenized rather than
// pattern-matched so that quoted literals and colors are not mistaken for
// date parts.
func isDateFormat(id int, code string) bool {
	if code != "" {
		return isDateFormatCode(code)
	}
	for _, r := range builtinDateFormats {
		if id >= r[0] && id <= r[1] {
			return true
		}
	}
	return false
}

func isDateFormatCode(code string) bool {
	p := nfp.NumberFormatParser()
	for _, section := range p.Parse(code) {
		for _, token := range section.Items {
			if token.TType == nfp.TokenTypeDateTimes || token.TType == nfp.TokenTypeElapsedDateTimes {
				return true
			}
		}
	}
	return false
}

// formatSerial renders a date serial as ISO-style text: a date, a time of
// day, or both.
func formatSerial(serial float64, date1904 bool) string {
	t, err := excelize.ExcelDateToTime(serial, date1904)
	if err != nil {
		return ""
	}
	t = t.Round(time.Second)
	switch {
	case serial < 1:
		return t.Format(time.TimeOnly)
	case t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0:
		return t.Format(time.DateOnly)
	default:
		return t.Format(time.DateTime)
	}
}

// Package charset classifies and converts the character encoding of
// delimited text files.
package charset

import (
	"bytes"
	"unicode/utf8"

	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge/models"
)

// BOM is the UTF-8 byte-order-mark.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// maxScanBytes bounds the byte-pair analysis.
const maxScanBytes = 8192

// Detect classifies data as UTF-8, Shift_JIS or EUC-JP. It never fails:
// missing evidence only lowers the confidence.
func Detect(data []byte) models.DetectedEncoding {
	if len(data) == 0 {
		return models.DetectedEncoding{Encoding: models.EncodingUTF8, Confidence: models.ConfidenceLow}
	}
	if bytes.HasPrefix(data, BOM) {
		return models.DetectedEncoding{Encoding: models.EncodingUTF8, Confidence: models.ConfidenceHigh, HasBOM: true}
	}
	if utf8.Valid(data) {
		return models.DetectedEncoding{Encoding: models.EncodingUTF8, Confidence: models.ConfidenceHigh}
	}

	if len(data) > maxScanBytes {
		data = data[:maxScanBytes]
	}
	sjis, euc := countPairs(data)
	return classify(sjis, euc)
}

// countPairs counts double-byte sequences shaped like Shift_JIS and EUC-JP.
// A matching pair consumes both bytes; Shift_JIS is tried first.
func countPairs(data []byte) (sjis, euc int) {
	for i := 0; i < len(data)-1; {
		lead, trail := data[i], data[i+1]
		switch {
		case isSJISLead(lead) && isSJISTrail(trail):
			sjis++
			i += 2
		case isEUCByte(lead) && isEUCByte(trail):
			euc++
			i += 2
		case lead == 0x8E && trail >= 0xA1 && trail <= 0xDF:
			// half-width katakana (SS2)
			euc++
			i += 2
		default:
			i++
		}
	}
	return sjis, euc
}

func classify(sjis, euc int) models.DetectedEncoding {
	if euc > sjis {
		conf := models.ConfidenceMedium
		if euc > sjis*2 {
			conf = models.ConfidenceHigh
		}
		return models.DetectedEncoding{Encoding: models.EncodingEUCJP, Confidence: conf}
	}

	conf := models.ConfidenceLow
	if sjis > 0 {
		conf = models.ConfidenceMedium
		if sjis > euc*2 {
			conf = models.ConfidenceHigh
		}
	}
	return models.DetectedEncoding{Encoding: models.EncodingShiftJIS, Confidence: conf}
}

func isSJISLead(b byte) bool {
	return (b >= 0x81 && b <= 0x9F) || (b >= 0xE0 && b <= 0xEF)
}

func isSJISTrail(b byte) bool {
	return (b >= 0x40 && b <= 0x7E) || (b >= 0x80 && b <= 0xFC)
}

func isEUCByte(b byte) bool {
	return b >= 0xA1 && b <= 0xFE
}

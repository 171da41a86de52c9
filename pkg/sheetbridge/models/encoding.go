package models

// Encoding names a supported character encoding for delimited text.
type Encoding string

const (
	// EncodingUTF8 is UTF-8, written with a byte-order-mark.
	EncodingUTF8 Encoding = "utf-8"
	// EncodingShiftJIS is Shift_JIS (Windows-31J family).
	EncodingShiftJIS Encoding = "shift_jis"
	// EncodingEUCJP is EUC-JP.
	EncodingEUCJP Encoding = "euc-jp"
)

// Confidence grades how sure the detector is about an encoding.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// DetectedEncoding is the result of classifying raw text bytes.
// It is computed once and never mutated.
type DetectedEncoding struct {
	// Encoding is the detected character encoding.
	Encoding Encoding `json:"encoding"`
	// Confidence is high, medium or low.
	Confidence Confidence `json:"confidence"`
	// HasBOM reports whether the input starts with EF BB BF.
	HasBOM bool `json:"hasBom"`
}

package models

// Content types attached to export blobs.
const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypePDF  = "application/pdf"
)

// CSVContentType returns the content type for delimited text in enc.
func CSVContentType(enc Encoding) string {
	return "text/csv;charset=" + string(enc)
}

// ExportBlob is the immutable result of one save action.
type ExportBlob struct {
	// Data is the encoded file.
	Data []byte
	// ContentType is the MIME type, including charset for text.
	ContentType string
}

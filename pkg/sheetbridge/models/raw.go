// Package models defines data structures shared by the readers, the snapshot
// adapters and the export writers.
package models

import (
	"path/filepath"
	"strings"
)

// RawBytes is an uploaded file: its bytes plus the name it was offered under.
// The name is only used to infer the extension.
type RawBytes struct {
	// Name is the original file name (no path required).
	Name string
	// Data is the file content. Readers never modify it.
	Data []byte
}

// Extension returns the lower-cased extension of Name including the dot,
// or "" when the name has none.
func (r RawBytes) Extension() string {
	return strings.ToLower(filepath.Ext(r.Name))
}

package validate

import (
	"errors"
	"testing"
)

var (
	xlsxHead = []byte{0x50, 0x4B, 0x03, 0x04, 0x14, 0x00}
	xlsHead  = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

func TestValidateExtension(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"book.xlsx", false},
		{"BOOK.XLSX", false},
		{"legacy.Xls", false},
		{"data.csv", false},
		{"archive.tar.csv", false},
		{"notes.txt", true},
		{"macro.xlsm", true},
		{"noext", true},
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateExtension(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateExtension(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrRejectedFormat) {
			t.Errorf("ValidateExtension(%q) error %v is not ErrRejectedFormat", tt.name, err)
		}
	}
}

func TestValidateSize(t *testing.T) {
	if err := ValidateSize(MaxFileSize); err != nil {
		t.Errorf("file of exactly 50 MiB rejected: %v", err)
	}
	if err := ValidateSize(MaxFileSize + 1); !errors.Is(err, ErrTooLarge) {
		t.Errorf("expected ErrTooLarge for 50 MiB + 1, got %v", err)
	}
	if err := ValidateSize(0); err != nil {
		t.Errorf("empty file rejected: %v", err)
	}
}

func TestValidateMagicBytes(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		ext     string
		wantErr bool
	}{
		{"xlsx ok", xlsxHead, ".xlsx", false},
		{"xlsx without dot", xlsxHead, "xlsx", false},
		{"xls ok", xlsHead, ".xls", false},
		{"xls declared as xlsx", xlsHead, ".xlsx", true},
		{"zip declared as xls", xlsxHead, ".XLS", true},
		{"truncated", []byte{0x50, 0x4B}, ".xlsx", true},
		{"csv skipped", []byte("anything"), ".csv", false},
		{"unknown skipped", []byte{0x00}, ".bin", false},
	}

	for _, tt := range tests {
		err := ValidateMagicBytes(tt.data, tt.ext)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrFormatMismatch) {
			t.Errorf("%s: error %v is not ErrFormatMismatch", tt.name, err)
		}
	}
}

func TestValidateFile(t *testing.T) {
	atLimit := make([]byte, MaxFileSize)
	copy(atLimit, xlsxHead)
	overLimit := make([]byte, MaxFileSize+1)
	copy(overLimit, xlsxHead)

	tests := []struct {
		name     string
		fileName string
		data     []byte
		want     error
	}{
		{"accepts exactly 50 MiB", "big.xlsx", atLimit, nil},
		{"rejects 50 MiB + 1", "big.xlsx", overLimit, ErrTooLarge},
		{"extension checked first", "big.pdf", overLimit, ErrRejectedFormat},
		{"size checked before magic", "big.xls", overLimit, ErrTooLarge},
		{"magic mismatch", "book.xlsx", []byte("a,b\n"), ErrFormatMismatch},
		{"csv skips magic", "data.csv", xlsHead, nil},
		{"empty csv", "data.csv", nil, nil},
	}

	for _, tt := range tests {
		err := ValidateFile(tt.fileName, tt.data)
		if tt.want == nil {
			if err != nil {
				t.Errorf("%s: unexpected error %v", tt.name, err)
			}
			continue
		}
		if !errors.Is(err, tt.want) {
			t.Errorf("%s: error = %v, expected %v", tt.name, err, tt.want)
		}
	}
}

func TestValidatorCustomLimit(t *testing.T) {
	v := Validator{MaxSize: 10}
	if err := v.ValidateFile("a.csv", make([]byte, 10)); err != nil {
		t.Errorf("10 bytes rejected at a 10 byte limit: %v", err)
	}
	if err := v.ValidateFile("a.csv", make([]byte, 11)); !errors.Is(err, ErrTooLarge) {
		t.Errorf("expected ErrTooLarge, got %v", err)
	}
}

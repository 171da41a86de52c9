package reader

import (
	"errors"
	"testing"

	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge/charset"
	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge/models"
	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge/validate"
	"golang.org/x/text/encoding/japanese"
)

func TestReadCSVDetectsEncoding(t *testing.T) {
	sjis, err := japanese.ShiftJIS.NewEncoder().Bytes([]byte("名前,年齢\n山田,30"))
	if err != nil {
		t.Fatal(err)
	}

	res, err := Read(models.RawBytes{Name: "people.CSV", Data: sjis}, "")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if res.Format != validate.FormatCSV {
		t.Errorf("Format = %q, want csv", res.Format)
	}
	if res.Encoding == nil || res.Encoding.Encoding != models.EncodingShiftJIS {
		t.Fatalf("Encoding = %+v, want shift_jis", res.Encoding)
	}
	if got := res.Table.Sheets[0].Cells[1][0].Value; got != "山田" {
		t.Errorf("cell (1,0) = %v, want 山田", got)
	}
}

func TestReadCSVExplicitEncoding(t *testing.T) {
	data := append(append([]byte(nil), charset.BOM...), []byte("a,b")...)

	res, err := Read(models.RawBytes{Name: "x.csv", Data: data}, models.EncodingUTF8)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	want := models.DetectedEncoding{Encoding: models.EncodingUTF8, Confidence: models.ConfidenceHigh, HasBOM: true}
	if *res.Encoding != want {
		t.Errorf("Encoding = %+v, want %+v", *res.Encoding, want)
	}
	if got := res.Table.Sheets[0].Cells[0][0].Value; got != "a" {
		t.Errorf("cell (0,0) = %q, want BOM stripped", got)
	}
}

func TestReadCSVTranscoderUnavailable(t *testing.T) {
	failing := charset.NewCodec(func() (charset.Transcoders, error) {
		return nil, errors.New("tables missing")
	})
	r := New(nil).WithCodec(failing)

	_, err := r.Read(models.RawBytes{Name: "x.csv", Data: []byte("a")}, models.EncodingShiftJIS)
	var cerr *charset.ConfigurationError
	if !errors.As(err, &cerr) {
		t.Fatalf("Read() error = %v, want *charset.ConfigurationError", err)
	}
}

func TestReadDispatch(t *testing.T) {
	if _, err := Read(models.RawBytes{Name: "notes.txt", Data: []byte("x")}, ""); !errors.Is(err, validate.ErrRejectedFormat) {
		t.Errorf("Read(.txt) error = %v, want ErrRejectedFormat", err)
	}

	res, err := Read(models.RawBytes{Name: "book.xlsx", Data: buildXLSX(t)}, "")
	if err != nil {
		t.Fatalf("Read(.xlsx) error = %v", err)
	}
	if res.Encoding != nil {
		t.Errorf("Encoding = %+v, want nil for binary formats", res.Encoding)
	}

	res, err = Read(models.RawBytes{Name: "legacy.xls", Data: compoundFile(t, sampleWorkbook())}, "")
	if err != nil {
		t.Fatalf("Read(.xls) error = %v", err)
	}
	if res.Format != validate.FormatXLS || len(res.Table.Sheets) != 1 {
		t.Errorf("Read(.xls) = %+v, want one xls sheet", res)
	}
}

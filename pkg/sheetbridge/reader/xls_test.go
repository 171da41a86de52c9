package reader

import (
	"encoding/binary"
	"errors"
	"math"
	"reflect"
	"testing"
	"unicode/utf16"

	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge/models"
)

// Cell and table records decoded by xlsReader; the fixtures still write them.
const (
	recMulRK    = 0x00BD
	recXF       = 0x00E0
	recSST      = 0x00FC
	recLabelSST = 0x00FD
	recNumber   = 0x0203
	recBoolErr  = 0x0205
	recRK       = 0x027E
	recFormat   = 0x041E
)

func rec(op int, parts ...[]byte) []byte {
	body := cat(parts...)
	return cat(le16(op), le16(len(body)), body)
}

func le32(v int) []byte {
	return binary.LittleEndian.AppendUint32(nil, uint32(v))
}

func le64f(v float64) []byte {
	return binary.LittleEndian.AppendUint64(nil, math.Float64bits(v))
}

func bof(substream int) []byte {
	return rec(recBOF, le16(biff8Version), le16(substream), make([]byte, 12))
}

// cell header: row, column, XF index.
func cellHdr(row, col, xf int) []byte {
	return cat(le16(row), le16(col), le16(xf))
}

// compoundFile wraps a workbook stream in a minimal version 3 compound
// document: header, one FAT sector, one directory sector, then the stream.
func compoundFile(t *testing.T, stream []byte) []byte {
	t.Helper()
	const (
		sector     = 512
		endOfChain = 0xFFFFFFFE
		freeSect   = 0xFFFFFFFF
		fatSect    = 0xFFFFFFFD
		noStream   = 0xFFFFFFFF
	)
	if len(stream) < 4096 {
		stream = append(stream, make([]byte, 4096-len(stream))...)
	}
	nStream := (len(stream) + sector - 1) / sector
	if 2+nStream > sector/4 {
		t.Fatalf("stream too large for fixture: %d bytes", len(stream))
	}

	header := make([]byte, sector)
	copy(header, []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1})
	binary.LittleEndian.PutUint16(header[24:], 0x003E)
	binary.LittleEndian.PutUint16(header[26:], 0x0003)
	binary.LittleEndian.PutUint16(header[28:], 0xFFFE)
	binary.LittleEndian.PutUint16(header[30:], 9)
	binary.LittleEndian.PutUint16(header[32:], 6)
	binary.LittleEndian.PutUint32(header[44:], 1)
	binary.LittleEndian.PutUint32(header[48:], 1)
	binary.LittleEndian.PutUint32(header[56:], 4096)
	binary.LittleEndian.PutUint32(header[60:], endOfChain)
	binary.LittleEndian.PutUint32(header[68:], endOfChain)
	binary.LittleEndian.PutUint32(header[76:], 0)
	for i := 1; i < 109; i++ {
		binary.LittleEndian.PutUint32(header[76+4*i:], freeSect)
	}

	fat := make([]byte, sector)
	for i := 0; i < sector/4; i++ {
		binary.LittleEndian.PutUint32(fat[4*i:], freeSect)
	}
	binary.LittleEndian.PutUint32(fat[0:], fatSect)
	binary.LittleEndian.PutUint32(fat[4:], endOfChain)
	for i := 0; i < nStream; i++ {
		next := uint32(2 + i + 1)
		if i == nStream-1 {
			next = endOfChain
		}
		binary.LittleEndian.PutUint32(fat[4*(2+i):], next)
	}

	dirEntry := func(name string, typ byte, child, start uint32, size int) []byte {
		e := make([]byte, 128)
		units := utf16.Encode([]rune(name))
		for i, u := range units {
			binary.LittleEndian.PutUint16(e[2*i:], u)
		}
		binary.LittleEndian.PutUint16(e[64:], uint16(2*(len(units)+1)))
		e[66] = typ
		e[67] = 1
		binary.LittleEndian.PutUint32(e[68:], noStream)
		binary.LittleEndian.PutUint32(e[72:], noStream)
		binary.LittleEndian.PutUint32(e[76:], child)
		binary.LittleEndian.PutUint32(e[116:], start)
		binary.LittleEndian.PutUint32(e[120:], uint32(size))
		return e
	}
	unused := make([]byte, 128)
	for _, off := range []int{68, 72, 76} {
		binary.LittleEndian.PutUint32(unused[off:], noStream)
	}
	dir := cat(
		dirEntry("Root Entry", 5, 1, endOfChain, 0),
		dirEntry("Workbook", 2, noStream, 2, len(stream)),
		unused,
		unused,
	)

	body := make([]byte, nStream*sector)
	copy(body, stream)
	return cat(header, fat, dir, body)
}

// sampleWorkbook builds a BIFF8 stream with one worksheet.
func sampleWorkbook() []byte {
	sst := cat(le32(3), le32(3),
		le16(4), []byte{0}, []byte("Name"),
		le16(2), []byte{1}, le16(0x65E5), le16(0x672C),
		le16(6), []byte{0}, []byte("ABCDEF"),
	)

	sheetName := cat([]byte{5, 0}, []byte("Sales"))
	globalsWith := func(offset int) []byte {
		return cat(
			bof(substreamBook),
			rec(recDateMode, le16(0)),
			rec(recFormat, le16(164), le16(10), []byte{0}, []byte("yyyy/mm/dd")),
			rec(recXF, le16(0), le16(0), make([]byte, 16)),
			rec(recXF, le16(0), le16(14), make([]byte, 16)),
			rec(recXF, le16(0), le16(164), make([]byte, 16)),
			rec(recBoundSheet, le32(offset), []byte{0, boundSheetWorksheet}, sheetName),
			rec(recBoundSheet, le32(0), []byte{0, 0x02}, cat([]byte{5, 0}, []byte("Chart"))),
			rec(recSST, sst),
			rec(recEOF),
		)
	}
	offset := len(globalsWith(0))

	stringFormula := cat([]byte{ptgStr, 1, 0}, []byte("x"))
	refPlusSeven := cat([]byte{0x24}, le16(0), relCol(1), []byte{ptgInt}, le16(7), []byte{ptgAdd})
	stringResult := cat([]byte{0, 0, 0, 0, 0, 0}, []byte{0xFF, 0xFF})

	sheet := cat(
		bof(substreamSheet),
		rec(recColInfo, le16(0), le16(0), le16(20*256), le16(0), le16(0), le16(0)),
		rec(recRow, le16(0), le16(0), le16(2), le16(600), le16(0), le16(0), le32(0x40)),
		rec(recLabelSST, cellHdr(0, 0, 0), le32(0)),
		rec(recNumber, cellHdr(0, 1, 0), le64f(42)),
		rec(recRK, cellHdr(1, 0, 0), le32(7<<2|0x02)),
		rec(recBoolErr, cellHdr(1, 1, 0), []byte{1, 0}),
		rec(recLabelSST, cellHdr(2, 0, 0), le32(2)),
		rec(recNumber, cellHdr(2, 1, 1), le64f(45000)),
		rec(recMulRK, le16(2), le16(2), le16(2), le32(45001<<2|0x02), le16(0), le32(3<<2|0x02), le16(3)),
		rec(recFormula, cellHdr(3, 0, 0), le64f(49), le16(0), le32(0), le16(len(refPlusSeven)), refPlusSeven),
		rec(recFormula, cellHdr(3, 1, 0), stringResult, le16(0), le32(0), le16(len(stringFormula)), stringFormula),
		rec(recString, le16(1), []byte{0}, []byte("x")),
		rec(recBoolErr, cellHdr(3, 2, 0), []byte{0x2A, 1}),
		rec(recLabelSST, cellHdr(5, 0, 0), le32(1)),
		rec(recMergedCells, le16(1), le16(4), le16(4), le16(0), le16(2)),
		rec(recEOF),
	)
	return cat(globalsWith(offset), sheet)
}

func TestReadXLS(t *testing.T) {
	table, err := readXLS(compoundFile(t, sampleWorkbook()))
	if err != nil {
		t.Fatalf("readXLS() error = %v", err)
	}
	if len(table.Sheets) != 1 {
		t.Fatalf("got %d sheets, want 1 (chart sheets are skipped)", len(table.Sheets))
	}
	sheet := table.Sheets[0]
	if sheet.Name != "Sales" {
		t.Errorf("Name = %q, want Sales", sheet.Name)
	}

	tests := []struct {
		row, col int
		want     models.TableCell
	}{
		{0, 0, models.TableCell{Value: "Name", Kind: models.KindString}},
		{0, 1, models.TableCell{Value: 42.0, Kind: models.KindNumber}},
		{1, 0, models.TableCell{Value: 7.0, Kind: models.KindNumber}},
		{1, 1, models.TableCell{Value: true, Kind: models.KindBoolean}},
		{2, 0, models.TableCell{Value: "ABCDEF", Kind: models.KindString}},
		{2, 1, models.TableCell{Value: "2023-03-15", Kind: models.KindDate}},
		{2, 2, models.TableCell{Value: "2023-03-16", Kind: models.KindDate}},
		{2, 3, models.TableCell{Value: 3.0, Kind: models.KindNumber}},
		{3, 0, models.TableCell{Value: 49.0, Kind: models.KindNumber, Formula: "B1+7"}},
		{3, 1, models.TableCell{Value: "x", Kind: models.KindString, Formula: `"x"`}},
		{3, 2, models.TableCell{Value: "#N/A", Kind: models.KindError}},
		{5, 0, models.TableCell{Value: "日本", Kind: models.KindString}},
	}
	for _, tt := range tests {
		got, ok := sheet.Cells[tt.row][tt.col]
		if !ok {
			t.Errorf("cell (%d,%d) missing", tt.row, tt.col)
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("cell (%d,%d) = %+v, want %+v", tt.row, tt.col, got, tt.want)
		}
	}

	wantMerges := []models.Range{{StartRow: 4, StartColumn: 0, EndRow: 4, EndColumn: 2}}
	if !reflect.DeepEqual(sheet.Merges, wantMerges) {
		t.Errorf("Merges = %+v, want %+v", sheet.Merges, wantMerges)
	}
	if got := sheet.Columns[0].WidthChars; got != 20 {
		t.Errorf("column 0 width = %v chars, want 20", got)
	}
	if got := sheet.Rows[0].HeightPt; got != 30 {
		t.Errorf("row 0 height = %v pt, want 30", got)
	}
}

func TestReadXLSErrors(t *testing.T) {
	biff5 := cat(rec(recBOF, le16(0x0500), le16(substreamBook), make([]byte, 4)), rec(recEOF))

	tests := []struct {
		name string
		data []byte
	}{
		{"not a compound file", []byte("definitely not a workbook")},
		{"biff5 stream", compoundFile(t, biff5)},
		{"sheet offset out of range", compoundFile(t, cat(
			bof(substreamBook),
			rec(recBoundSheet, le32(100000), []byte{0, boundSheetWorksheet}, []byte{1, 0, 'A'}),
			rec(recEOF),
		))},
		{"missing shared string", compoundFile(t, func() []byte {
			globals := func(offset int) []byte {
				return cat(
					bof(substreamBook),
					rec(recBoundSheet, le32(offset), []byte{0, boundSheetWorksheet}, []byte{1, 0, 'A'}),
					rec(recEOF),
				)
			}
			return cat(globals(len(globals(0))), bof(substreamSheet), rec(recLabelSST, cellHdr(0, 0, 0), le32(9)), rec(recEOF))
		}())},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := readXLS(tt.data)
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("readXLS() error = %v, want *ParseError", err)
			}
			if perr.Format != "xls" {
				t.Errorf("Format = %q, want xls", perr.Format)
			}
		})
	}
}

func TestLatin1(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"caf\xe9", "café"},
		{"日本", "日本"},
	}
	for _, tt := range tests {
		if got := latin1(tt.in); got != tt.want {
			t.Errorf("latin1(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

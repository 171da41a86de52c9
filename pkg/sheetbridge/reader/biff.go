package reader

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf16"
)

// BIFF8 records the workbook library does not surface.
const (
	recFormula     = 0x0006
	recEOF         = 0x000A
	recDateMode    = 0x0022
	recColInfo     = 0x007D
	recBoundSheet  = 0x0085
	recMergedCells = 0x00E5
	recString      = 0x0207
	recRow         = 0x0208
	recArray       = 0x0221
	recTable       = 0x0236
	recShrFmla     = 0x04BC
	recBOF         = 0x0809
)

// BOF substream types and the BIFF8 version stamp.
const (
	biff8Version   = 0x0600
	substreamBook  = 0x0005
	substreamSheet = 0x0010
)

// boundSheetWorksheet marks a BOUNDSHEET entry that is a plain worksheet.
const boundSheetWorksheet = 0x00

var errTruncated = errors.New("truncated record")

// errorCodes maps BIFF error values to their display text.
var errorCodes = map[byte]string{
	0x00: "#NULL!",
	0x07: "#DIV/0!",
	0x0F: "#VALUE!",
	0x17: "#REF!",
	0x1D: "#NAME?",
	0x24: "#NUM!",
	0x2A: "#N/A",
}

func errorText(code byte) string {
	if s, ok := errorCodes[code]; ok {
		return s
	}
	return fmt.Sprintf("#ERR%d!", code)
}

type record struct {
	op   uint16
	data []byte
}

// recordStream walks the records of a workbook stream.
type recordStream struct {
	buf []byte
	pos int
}

func newRecordStream(buf []byte, pos int) *recordStream {
	return &recordStream{buf: buf, pos: pos}
}

// next returns the following record. ok is false at end of stream.
func (s *recordStream) next() (rec record, ok bool, err error) {
	if s.pos >= len(s.buf) {
		return record{}, false, nil
	}
	if s.pos+4 > len(s.buf) {
		return record{}, false, errTruncated
	}
	op := binary.LittleEndian.Uint16(s.buf[s.pos:])
	size := int(binary.LittleEndian.Uint16(s.buf[s.pos+2:]))
	start := s.pos + 4
	end := start + size
	if end > len(s.buf) {
		return record{}, false, errTruncated
	}
	s.pos = end
	return record{op: op, data: s.buf[start:end]}, true, nil
}

// readBOF consumes a BOF record and returns its substream type.
func (s *recordStream) readBOF() (uint16, error) {
	rec, ok, err := s.next()
	if err != nil {
		return 0, err
	}
	if !ok || rec.op != recBOF || len(rec.data) < 4 {
		return 0, errors.New("missing BOF record")
	}
	if version := binary.LittleEndian.Uint16(rec.data); version != biff8Version {
		return 0, fmt.Errorf("unsupported BIFF version 0x%04X", version)
	}
	return binary.LittleEndian.Uint16(rec.data[2:]), nil
}

func u16(data []byte, off int) int {
	return int(binary.LittleEndian.Uint16(data[off:]))
}

func u32(data []byte, off int) int {
	return int(binary.LittleEndian.Uint32(data[off:]))
}

func f64(data []byte, off int) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(data[off:]))
}

// decodeChars decodes n characters stored either as Latin-1 bytes or
// UTF-16LE code units.
func decodeChars(data []byte, n int, wide bool) (string, error) {
	if wide {
		if len(data) < 2*n {
			return "", errTruncated
		}
		units := make([]uint16, n)
		for i := range units {
			units[i] = binary.LittleEndian.Uint16(data[2*i:])
		}
		return string(utf16.Decode(units)), nil
	}
	if len(data) < n {
		return "", errTruncated
	}
	var sb strings.Builder
	sb.Grow(n)
	for _, b := range data[:n] {
		sb.WriteRune(rune(b))
	}
	return sb.String(), nil
}

// unicodeString decodes an XLUnicodeString (lenSize 2) or
// ShortXLUnicodeString (lenSize 1) at off. Rich text and phonetic
// blocks are skipped. It returns the string and the bytes consumed.
func unicodeString(data []byte, off, lenSize int) (string, int, error) {
	pos := off
	if len(data) < pos+lenSize+1 {
		return "", 0, errTruncated
	}
	var n int
	if lenSize == 1 {
		n = int(data[pos])
	} else {
		n = u16(data, pos)
	}
	pos += lenSize
	flags := data[pos]
	pos++

	runs, extSize := 0, 0
	if flags&0x08 != 0 {
		if len(data) < pos+2 {
			return "", 0, errTruncated
		}
		runs = u16(data, pos)
		pos += 2
	}
	if flags&0x04 != 0 {
		if len(data) < pos+4 {
			return "", 0, errTruncated
		}
		extSize = u32(data, pos)
		pos += 4
	}

	wide := flags&0x01 != 0
	s, err := decodeChars(data[pos:], n, wide)
	if err != nil {
		return "", 0, err
	}
	if wide {
		pos += 2 * n
	} else {
		pos += n
	}
	pos += 4*runs + extSize
	return s, pos - off, nil
}

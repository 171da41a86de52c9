package reader

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

var errUnsupportedToken = errors.New("unsupported formula token")

// Formula token identifiers, with operand class bits stripped.
const (
	ptgAdd     = 0x03
	ptgRange   = 0x11
	ptgUplus   = 0x12
	ptgUminus  = 0x13
	ptgPercent = 0x14
	ptgParen   = 0x15
	ptgMissArg = 0x16
	ptgStr     = 0x17
	ptgAttr    = 0x19
	ptgErr     = 0x1C
	ptgBool    = 0x1D
	ptgInt     = 0x1E
	ptgNum     = 0x1F
	ptgFunc    = 0x21
	ptgFuncVar = 0x22
	ptgRef     = 0x24
	ptgArea    = 0x25
	ptgRefErr  = 0x2A
	ptgAreaErr = 0x2B
)

// tAttr option bits.
const (
	attrChoose = 0x04
	attrSum    = 0x10
)

// binaryOps maps ptgAdd..ptgRange to their operator text.
var binaryOps = [...]string{"+", "-", "*", "/", "^", "&", "<", "<=", "=", ">=", ">", "<>", " ", ",", ":"}

type funcDef struct {
	name string
	// argc is the fixed argument count used by ptgFunc; -1 for functions
	// that only appear as ptgFuncVar.
	argc int
}

// funcDefs covers the built-in sheet functions seen in everyday workbooks.
var funcDefs = map[int]funcDef{
	0:   {"COUNT", -1},
	1:   {"IF", -1},
	2:   {"ISNA", 1},
	3:   {"ISERROR", 1},
	4:   {"SUM", -1},
	5:   {"AVERAGE", -1},
	6:   {"MIN", -1},
	7:   {"MAX", -1},
	8:   {"ROW", -1},
	9:   {"COLUMN", -1},
	10:  {"NA", 0},
	11:  {"NPV", -1},
	12:  {"STDEV", -1},
	13:  {"DOLLAR", -1},
	14:  {"FIXED", -1},
	15:  {"SIN", 1},
	16:  {"COS", 1},
	17:  {"TAN", 1},
	18:  {"ATAN", 1},
	19:  {"PI", 0},
	20:  {"SQRT", 1},
	21:  {"EXP", 1},
	22:  {"LN", 1},
	23:  {"LOG10", 1},
	24:  {"ABS", 1},
	25:  {"INT", 1},
	26:  {"SIGN", 1},
	27:  {"ROUND", 2},
	28:  {"LOOKUP", -1},
	29:  {"INDEX", -1},
	30:  {"REPT", 2},
	31:  {"MID", 3},
	32:  {"LEN", 1},
	33:  {"VALUE", 1},
	34:  {"TRUE", 0},
	35:  {"FALSE", 0},
	36:  {"AND", -1},
	37:  {"OR", -1},
	38:  {"NOT", 1},
	39:  {"MOD", 2},
	48:  {"TEXT", 2},
	56:  {"PV", -1},
	63:  {"RAND", 0},
	64:  {"MATCH", -1},
	65:  {"DATE", 3},
	66:  {"TIME", 3},
	67:  {"DAY", 1},
	68:  {"MONTH", 1},
	69:  {"YEAR", 1},
	70:  {"WEEKDAY", -1},
	71:  {"HOUR", 1},
	72:  {"MINUTE", 1},
	73:  {"SECOND", 1},
	74:  {"NOW", 0},
	75:  {"AREAS", 1},
	76:  {"ROWS", 1},
	77:  {"COLUMNS", 1},
	78:  {"OFFSET", -1},
	82:  {"SEARCH", -1},
	83:  {"TRANSPOSE", 1},
	97:  {"ATAN2", 2},
	98:  {"ASIN", 1},
	99:  {"ACOS", 1},
	100: {"CHOOSE", -1},
	101: {"HLOOKUP", -1},
	102: {"VLOOKUP", -1},
	109: {"LOG", -1},
	111: {"CHAR", 1},
	112: {"LOWER", 1},
	113: {"UPPER", 1},
	114: {"PROPER", 1},
	115: {"LEFT", -1},
	116: {"RIGHT", -1},
	117: {"EXACT", 2},
	118: {"TRIM", 1},
	119: {"REPLACE", 4},
	120: {"SUBSTITUTE", -1},
	124: {"FIND", -1},
	127: {"ISTEXT", 1},
	128: {"ISNUMBER", 1},
	129: {"ISBLANK", 1},
	148: {"INDIRECT", -1},
	169: {"COUNTA", -1},
	183: {"PRODUCT", -1},
	184: {"FACT", 1},
	197: {"TRUNC", -1},
	212: {"ROUNDUP", 2},
	213: {"ROUNDDOWN", 2},
	219: {"ADDRESS", -1},
	220: {"DAYS360", -1},
	221: {"TODAY", 0},
	336: {"CONCATENATE", -1},
	337: {"POWER", 2},
	342: {"RADIANS", 1},
	343: {"DEGREES", 1},
	344: {"SUBTOTAL", -1},
	345: {"SUMIF", -1},
	346: {"COUNTIF", 2},
	347: {"COUNTBLANK", 1},
	359: {"HYPERLINK", -1},
}

// decompileFormula renders BIFF8 parsed-expression bytes as formula text
// without the leading "=". Shared and array formulas, names and 3-D
// references are not rendered; the caller keeps the cached value only.
func decompileFormula(rgce []byte) (string, error) {
	var stack []string
	pop := func() (string, error) {
		if len(stack) == 0 {
			return "", errors.New("formula stack underflow")
		}
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return top, nil
	}
	popN := func(n int) ([]string, error) {
		if n > len(stack) {
			return nil, errors.New("formula stack underflow")
		}
		args := append([]string(nil), stack[len(stack)-n:]...)
		stack = stack[:len(stack)-n]
		return args, nil
	}
	need := func(pos, n int) error {
		if pos+n > len(rgce) {
			return errTruncated
		}
		return nil
	}

	pos := 0
	for pos < len(rgce) {
		op := rgce[pos]
		base := op
		if op >= 0x20 {
			base = op&0x1F | 0x20
		}
		pos++

		switch {
		case base >= ptgAdd && base <= ptgRange:
			rhs, err := pop()
			if err != nil {
				return "", err
			}
			lhs, err := pop()
			if err != nil {
				return "", err
			}
			stack = append(stack, lhs+binaryOps[base-ptgAdd]+rhs)

		case base == ptgUplus, base == ptgUminus, base == ptgPercent:
			v, err := pop()
			if err != nil {
				return "", err
			}
			switch base {
			case ptgUplus:
				v = "+" + v
			case ptgUminus:
				v = "-" + v
			default:
				v += "%"
			}
			stack = append(stack, v)

		case base == ptgParen:
			v, err := pop()
			if err != nil {
				return "", err
			}
			stack = append(stack, "("+v+")")

		case base == ptgMissArg:
			stack = append(stack, "")

		case base == ptgStr:
			s, n, err := unicodeString(rgce, pos, 1)
			if err != nil {
				return "", err
			}
			pos += n
			stack = append(stack, `"`+strings.ReplaceAll(s, `"`, `""`)+`"`)

		case base == ptgAttr:
			if err := need(pos, 3); err != nil {
				return "", err
			}
			opts := rgce[pos]
			data := u16(rgce, pos+1)
			pos += 3
			if opts&attrChoose != 0 {
				pos += 2 * (data + 1)
			}
			if opts&attrSum != 0 {
				v, err := pop()
				if err != nil {
					return "", err
				}
				stack = append(stack, "SUM("+v+")")
			}

		case base == ptgErr:
			if err := need(pos, 1); err != nil {
				return "", err
			}
			stack = append(stack, errorText(rgce[pos]))
			pos++

		case base == ptgBool:
			if err := need(pos, 1); err != nil {
				return "", err
			}
			if rgce[pos] != 0 {
				stack = append(stack, "TRUE")
			} else {
				stack = append(stack, "FALSE")
			}
			pos++

		case base == ptgInt:
			if err := need(pos, 2); err != nil {
				return "", err
			}
			stack = append(stack, strconv.Itoa(u16(rgce, pos)))
			pos += 2

		case base == ptgNum:
			if err := need(pos, 8); err != nil {
				return "", err
			}
			stack = append(stack, strconv.FormatFloat(f64(rgce, pos), 'g', -1, 64))
			pos += 8

		case base == ptgFunc:
			if err := need(pos, 2); err != nil {
				return "", err
			}
			def, ok := funcDefs[u16(rgce, pos)]
			pos += 2
			if !ok || def.argc < 0 {
				return "", errUnsupportedToken
			}
			args, err := popN(def.argc)
			if err != nil {
				return "", err
			}
			stack = append(stack, def.name+"("+strings.Join(args, ",")+")")

		case base == ptgFuncVar:
			if err := need(pos, 3); err != nil {
				return "", err
			}
			argc := int(rgce[pos] & 0x7F)
			def, ok := funcDefs[u16(rgce, pos+1)&0x7FFF]
			pos += 3
			if !ok {
				return "", errUnsupportedToken
			}
			args, err := popN(argc)
			if err != nil {
				return "", err
			}
			stack = append(stack, def.name+"("+strings.Join(args, ",")+")")

		case base == ptgRef:
			if err := need(pos, 4); err != nil {
				return "", err
			}
			stack = append(stack, cellRef(u16(rgce, pos), u16(rgce, pos+2)))
			pos += 4

		case base == ptgArea:
			if err := need(pos, 8); err != nil {
				return "", err
			}
			first := cellRef(u16(rgce, pos), u16(rgce, pos+4))
			last := cellRef(u16(rgce, pos+2), u16(rgce, pos+6))
			stack = append(stack, first+":"+last)
			pos += 8

		case base == ptgRefErr, base == ptgAreaErr:
			size := 4
			if base == ptgAreaErr {
				size = 8
			}
			if err := need(pos, size); err != nil {
				return "", err
			}
			stack = append(stack, "#REF!")
			pos += size

		default:
			return "", fmt.Errorf("%w 0x%02X", errUnsupportedToken, op)
		}
	}

	if len(stack) != 1 {
		return "", fmt.Errorf("formula left %d operands", len(stack))
	}
	return stack[0], nil
}

// cellRef renders an A1 reference. The column word carries the relative
// flags in its top two bits.
func cellRef(row, colWord int) string {
	col := colWord & 0x3FFF
	name, err := excelize.ColumnNumberToName(col + 1)
	if err != nil {
		name = "?"
	}
	var sb strings.Builder
	if colWord&0x4000 == 0 {
		sb.WriteByte('$')
	}
	sb.WriteString(name)
	if colWord&0x8000 == 0 {
		sb.WriteByte('$')
	}
	sb.WriteString(strconv.Itoa(row + 1))
	return sb.String()
}

// Package security detects cell values that a spreadsheet application
// would interpret as formulas when the exported text is opened.
package security

import (
	"strings"

	"github.com/xuri/efp"
)

// triggers are the leading characters that make a cell active.
const triggers = "=+-@\t\r\n"

// Finding is one flagged cell.
type Finding struct {
	Row   int    `json:"row"`
	Col   int    `json:"col"`
	Value string `json:"value"`
	// Functions lists function names in the value's token stream.
	Functions []string `json:"functions,omitempty"`
}

// Result is the outcome of a scan.
type Result struct {
	Found   bool      `json:"found"`
	Flagged []Finding `json:"flagged"`
}

// IsSuspicious reports whether value starts with a formula trigger.
func IsSuspicious(value string) bool {
	return value != "" && strings.IndexByte(triggers, value[0]) >= 0
}

// Scan inspects every cell of grid. It never modifies grid.
func Scan(grid [][]string) Result {
	res := Result{Flagged: []Finding{}}
	for r, row := range grid {
		for c, value := range row {
			if !IsSuspicious(value) {
				continue
			}
			res.Flagged = append(res.Flagged, Finding{
				Row:       r,
				Col:       c,
				Value:     value,
				Functions: functionNames(value),
			})
		}
	}
	res.Found = len(res.Flagged) > 0
	return res
}

// functionNames tokenizes a formula-like value and collects the names of
// the functions it calls. Whitespace triggers carry no formula.
func functionNames(value string) []string {
	switch value[0] {
	case '\t', '\r', '\n':
		return nil
	}

	p := efp.ExcelParser()
	var names []string
	seen := make(map[string]bool)
	for _, tok := range p.Parse(value) {
		if tok.TType != efp.TokenTypeFunction || tok.TSubType != efp.TokenSubTypeStart {
			continue
		}
		name := strings.ToUpper(strings.TrimLeft(tok.TValue, "@"))
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

package report

import (
	"errors"
	"strings"

	"github.com/joseph-ayodele/medreport/constants"
)

// Messages are printed to users verbatim.
//
//nolint:staticcheck
var (
	ErrHeaderNotFound  = errors.New("Error: Couldn't find the 'Test' column in the data.")
	ErrColumnsNotFound = errors.New("Error: Couldn't find 'Test', 'Normal', 'Range' or 'Result' columns in the data.")
)

// SplitLines breaks text on line feeds, carriage returns, form feeds between PDF pages and the
// Unicode line and paragraph separators. Empty lines are dropped.
func SplitLines(text string) []string {
	return strings.FieldsFunc(text, isLineBreak)
}

func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029':
		return true
	}
	return false
}

// FindHeader returns the index of the first line that contains "test" in any case.
func FindHeader(lines []string) (int, bool) {
	for i, line := range lines {
		if strings.Contains(strings.ToLower(line), "test") {
			return i, true
		}
	}
	return -1, false
}

// ResolveColumns maps header tokens to fields. When several tokens name the same field the
// last one wins.
func ResolveColumns(header string) (Columns, error) {
	cols := Columns{}
	for idx, token := range strings.Fields(header) {
		if f, ok := constants.FieldForToken(token); ok {
			cols[f] = idx
		}
	}
	if !cols.Complete() {
		return cols, ErrColumnsNotFound
	}
	return cols, nil
}

// Categorize locates the header line and turns every later line with enough tokens into a Row.
// Each field takes exactly one whitespace-separated token, so multi-word values are cut to
// their token at the header position.
func Categorize(text string) ([]Row, Columns, error) {
	lines := SplitLines(text)
	headerAt, ok := FindHeader(lines)
	if !ok {
		return nil, nil, ErrHeaderNotFound
	}

	cols, err := ResolveColumns(lines[headerAt])
	if err != nil {
		return nil, cols, err
	}

	maxIdx := cols.Max()
	fields := constants.Fields()
	rows := make([]Row, 0, len(lines)-headerAt-1)
	for _, line := range lines[headerAt+1:] {
		tokens := strings.Fields(line)
		if len(tokens) <= maxIdx {
			continue
		}
		var row Row
		for _, f := range fields {
			row.set(f, tokens[cols[f]])
		}
		rows = append(rows, row)
	}
	return rows, cols, nil
}

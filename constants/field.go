package constants

import (
	"strings"
)

// Field names one column of a categorized report row.
type Field string

const (
	Test   Field = "Test"
	Normal Field = "Normal"
	Range  Field = "Range"
	Result Field = "Result"
)

// allFields is the column order used when rows are written out.
var allFields = []Field{
	Test,
	Normal,
	Range,
	Result,
}

// headerKeywords is checked in order; the first keyword found in a header token claims it.
var headerKeywords = []struct {
	field   Field
	keyword string
}{
	{Test, "test"},
	{Result, "result"},
	{Normal, "normal"},
	{Range, "range"},
}

func Fields() []Field {
	out := make([]Field, len(allFields))
	copy(out, allFields)
	return out
}

func AsStringSlice() []string {
	result := make([]string, len(allFields))
	for i, f := range allFields {
		result[i] = string(f)
	}
	return result
}

// FieldForToken reports which field a header token names, if any.
// Matching is a case-insensitive substring test, so "TestName" and "Results" both resolve.
func FieldForToken(token string) (Field, bool) {
	normalized := strings.ToLower(strings.TrimSpace(token))
	if normalized == "" {
		return "", false
	}
	for _, kw := range headerKeywords {
		if strings.Contains(normalized, kw.keyword) {
			return kw.field, true
		}
	}
	return "", false
}

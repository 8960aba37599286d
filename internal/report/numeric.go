package report

import (
	"regexp"
	"strconv"
	"strings"
)

var reNumber = regexp.MustCompile(`[-+]?\d*\.\d+|\d+`)

// ExtractNumericValue parses the first number in s. Strings containing a hyphen are treated as
// ranges and yield no value.
func ExtractNumericValue(s string) (float64, bool) {
	if strings.Contains(s, "-") {
		return 0, false
	}
	m := reNumber.FindString(s)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

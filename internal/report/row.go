// Package report finds the Test / Normal / Range / Result table in extracted report text.
package report

import (
	"github.com/joseph-ayodele/medreport/constants"
)

// Row is one categorized data line.
type Row struct {
	Test   string `json:"test"`
	Normal string `json:"normal"`
	Range  string `json:"range"`
	Result string `json:"result"`
}

// Get returns the value of field f.
func (r Row) Get(f constants.Field) string {
	switch f {
	case constants.Test:
		return r.Test
	case constants.Normal:
		return r.Normal
	case constants.Range:
		return r.Range
	case constants.Result:
		return r.Result
	}
	return ""
}

// Values returns the row in constants.Fields() order.
func (r Row) Values() []string {
	fields := constants.Fields()
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = r.Get(f)
	}
	return out
}

func (r *Row) set(f constants.Field, v string) {
	switch f {
	case constants.Test:
		r.Test = v
	case constants.Normal:
		r.Normal = v
	case constants.Range:
		r.Range = v
	case constants.Result:
		r.Result = v
	}
}

// Columns maps each field to its token position in the header line.
type Columns map[constants.Field]int

// Complete reports whether all four fields resolved.
func (c Columns) Complete() bool {
	for _, f := range constants.Fields() {
		if _, ok := c[f]; !ok {
			return false
		}
	}
	return true
}

// Max is the highest recorded position, or -1 when empty.
func (c Columns) Max() int {
	m := -1
	for _, idx := range c {
		if idx > m {
			m = idx
		}
	}
	return m
}

package main

import (
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/joseph-ayodele/medreport/constants"
	"github.com/joseph-ayodele/medreport/internal/entity"
	"github.com/joseph-ayodele/medreport/internal/export"
	"github.com/joseph-ayodele/medreport/internal/report"
)

// writeJSONError prints {"error": msg} indented by four spaces.
func writeJSONError(w io.Writer, msg string) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	return enc.Encode(map[string]string{"error": msg})
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	t := tablewriter.NewWriter(w)
	t.SetHeader(header)
	t.SetAutoFormatHeaders(false)
	t.SetAutoWrapText(false)
	return t
}

// renderRows prints at most limit rows in field order.
func renderRows(w io.Writer, rows []report.Row, limit int) {
	t := newTable(w, constants.AsStringSlice())
	for i, r := range rows {
		if limit > 0 && i >= limit {
			break
		}
		t.Append(r.Values())
	}
	t.Render()
}

func renderTestResults(w io.Writer, results []export.TestResult) {
	t := newTable(w, []string{string(constants.Test), string(constants.Result)})
	for _, r := range results {
		t.Append([]string{r.Test, r.Result})
	}
	t.Render()
}

func renderRuns(w io.Writer, runs []*entity.Run) {
	t := newTable(w, []string{"ID", "Started", "Status", "Format", "Method", "Rows", "Duration", "Source"})
	for _, r := range runs {
		t.Append([]string{
			r.ID.String(),
			r.StartedAt.Local().Format(time.DateTime),
			string(r.Status),
			r.Format,
			r.Method,
			strconv.Itoa(r.RowCount),
			r.Duration().Round(time.Millisecond).String(),
			r.SourcePath,
		})
	}
	t.Render()
}

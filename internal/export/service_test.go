package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/medreport/internal/common"
	"github.com/joseph-ayodele/medreport/internal/report"
)

func TestWriteThenReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	rows := []report.Row{
		{Test: "Glucose", Normal: "70-100", Range: "Normal", Result: "95"},
		{Test: "HbA1c", Normal: "4-6", Range: "Normal", Result: "5.40"},
		{Test: "Culture", Normal: "neg", Range: "Normal", Result: "Negative"},
	}

	svc := NewService(nil)
	require.NoError(t, svc.WriteRows(path, rows))

	got, err := svc.ReadTestResults(path)
	require.NoError(t, err)
	assert.Equal(t, []TestResult{
		{Test: "Glucose", Result: "95"},
		{Test: "HbA1c", Result: "5.40"},
		{Test: "Culture", Result: "Negative"},
	}, got)
}

func TestWriteRowsLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, NewService(nil).WriteRows(path, []report.Row{
		{Test: "Glucose", Normal: "70-100", Range: "Normal", Result: "95"},
	}))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())
	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Test", "Normal", "Range", "Result"},
		{"Glucose", "70-100", "Normal", "95"},
	}, rows)

	styleID, err := f.GetCellStyle(SheetName, "D1")
	require.NoError(t, err)
	style, err := f.GetStyle(styleID)
	require.NoError(t, err)
	require.NotNil(t, style.Font)
	assert.True(t, style.Font.Bold)

	width, err := f.GetColWidth(SheetName, "A")
	require.NoError(t, err)
	assert.Equal(t, 24.0, width)
	width, err = f.GetColWidth(SheetName, "D")
	require.NoError(t, err)
	assert.Equal(t, 14.0, width)
}

func TestWriteRowsColumnWidthFailure(t *testing.T) {
	saved := columnWidths
	t.Cleanup(func() { columnWidths = saved })
	columnWidths = append(columnWidths[:0:0], columnWidths...)
	columnWidths[1].width = 300

	path := filepath.Join(t.TempDir(), "out.xlsx")
	err := NewService(nil).WriteRows(path, []report.Row{{Test: "A", Normal: "1", Range: "2", Result: "3"}})
	require.Error(t, err)
	assert.Equal(t, common.CodeWriteXLSX, common.CodeOf(err))
	assert.Contains(t, err.Error(), "Error writing to Excel: column width B:D")
	assert.NoFileExists(t, path)
}

func TestWriteRowsOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	svc := NewService(nil)
	require.NoError(t, svc.WriteRows(path, []report.Row{{Test: "A", Normal: "1", Range: "2", Result: "3"}}))
	require.NoError(t, svc.WriteRows(path, []report.Row{{Test: "B", Normal: "1", Range: "2", Result: "4"}}))

	got, err := svc.ReadTestResults(path)
	require.NoError(t, err)
	assert.Equal(t, []TestResult{{Test: "B", Result: "4"}}, got)
}

func TestWriteEmptyRowsReadsBackEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	svc := NewService(nil)
	require.NoError(t, svc.WriteRows(path, nil))

	got, err := svc.ReadTestResults(path)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestWriteRowsBadPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "no-such-dir", "out.xlsx")
	err := NewService(nil).WriteRows(path, nil)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "Error writing to Excel: "), err.Error())
	assert.Equal(t, common.CodeWriteXLSX, common.CodeOf(err))
}

func TestReadTestResultsColumnsByName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shuffled.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"Result", "Unit", "Test"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"95", "mg/dL", "Glucose"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]any{"7.2"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	got, err := NewService(nil).ReadTestResults(path)
	require.NoError(t, err)
	assert.Equal(t, []TestResult{{Test: "Glucose", Result: "95"}, {Test: "", Result: "7.2"}}, got)
}

func TestReadTestResultsErrors(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(nil)

	_, err := svc.ReadTestResults(filepath.Join(dir, "missing.xlsx"))
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "Error reading from Excel: "), err.Error())

	noResult := filepath.Join(dir, "no-result.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"Test", "Normal"}))
	require.NoError(t, f.SaveAs(noResult))
	require.NoError(t, f.Close())
	_, err = svc.ReadTestResults(noResult)
	assert.EqualError(t, err, `Error reading from Excel: column "Result" not found`)

	empty := filepath.Join(dir, "empty.xlsx")
	f = excelize.NewFile()
	require.NoError(t, f.SaveAs(empty))
	require.NoError(t, f.Close())
	_, err = svc.ReadTestResults(empty)
	assert.Error(t, err)

	garbage := filepath.Join(dir, "garbage.xlsx")
	require.NoError(t, os.WriteFile(garbage, []byte("not a zip"), 0o644))
	_, err = svc.ReadTestResults(garbage)
	assert.Equal(t, common.CodeReadXLSX, common.CodeOf(err))
}

package export

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/medreport/constants"
	"github.com/joseph-ayodele/medreport/internal/common"
	"github.com/joseph-ayodele/medreport/internal/report"
)

// SheetName is the worksheet rows are written to.
const SheetName = "Sheet1"

// TestResult is the Test/Result projection read back from a workbook.
type TestResult struct {
	Test   string
	Result string
}

// Service writes categorized rows to XLSX and reads them back.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// WriteRows saves rows to path as a single-sheet workbook with a bold header row in field
// order. An existing file is overwritten.
func (s *Service) WriteRows(path string, rows []report.Row) error {
	start := time.Now()
	if err := writeWorkbook(path, rows); err != nil {
		s.logger.Error("export.xlsx.write.failed", "path", path, "error", err)
		return common.NewAppError(common.CodeWriteXLSX, "Error writing to Excel", err)
	}
	s.logger.Info("export.xlsx.ok",
		"path", path,
		"rows", len(rows),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

var columnWidths = []struct {
	from, to string
	width    float64
}{
	{"A", "A", 24}, // test
	{"B", "D", 14}, // normal, range, result
}

func writeWorkbook(path string, rows []report.Row) error {
	f := excelize.NewFile()
	defer f.Close()

	if index, _ := f.GetSheetIndex(SheetName); index == -1 {
		if _, err := f.NewSheet(SheetName); err != nil {
			return err
		}
	}
	activeIndex, _ := f.GetSheetIndex(SheetName)
	f.SetActiveSheet(activeIndex)

	headers := constants.AsStringSlice()
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellStr(SheetName, cell, h); err != nil {
			return err
		}
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(SheetName, "A1", lastHeader, bold); err != nil {
		return err
	}

	for r, row := range rows {
		for c, v := range row.Values() {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellStr(SheetName, cell, v); err != nil {
				return err
			}
		}
	}

	for _, w := range columnWidths {
		if err := f.SetColWidth(SheetName, w.from, w.to, w.width); err != nil {
			return fmt.Errorf("column width %s:%s: %w", w.from, w.to, err)
		}
	}

	return f.SaveAs(path)
}

// ReadTestResults loads the first sheet of path and returns its Test and Result columns in
// row order. Columns are located by header name, so their position does not matter.
func (s *Service) ReadTestResults(path string) ([]TestResult, error) {
	out, err := readTestResults(path)
	if err != nil {
		s.logger.Error("export.xlsx.read.failed", "path", path, "error", err)
		return nil, common.NewAppError(common.CodeReadXLSX, "Error reading from Excel", err)
	}
	s.logger.Debug("export.xlsx.read.ok", "path", path, "rows", len(out))
	return out, nil
}

func readTestResults(path string) ([]TestResult, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheets[0])
	}

	testCol, resultCol := -1, -1
	for i, h := range rows[0] {
		switch strings.TrimSpace(h) {
		case string(constants.Test):
			testCol = i
		case string(constants.Result):
			resultCol = i
		}
	}
	if testCol < 0 {
		return nil, fmt.Errorf("column %q not found", constants.Test)
	}
	if resultCol < 0 {
		return nil, fmt.Errorf("column %q not found", constants.Result)
	}

	out := make([]TestResult, 0, len(rows)-1)
	for _, row := range rows[1:] {
		out = append(out, TestResult{Test: cellAt(row, testCol), Result: cellAt(row, resultCol)})
	}
	return out, nil
}

// GetRows drops trailing empty cells, so short rows are padded here.
func cellAt(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/medreport/constants"
	"github.com/joseph-ayodele/medreport/internal/common"
	"github.com/joseph-ayodele/medreport/internal/export"
	"github.com/joseph-ayodele/medreport/internal/extract"
	"github.com/joseph-ayodele/medreport/internal/report"
	"github.com/joseph-ayodele/medreport/internal/repository"
)

// historyTimeout bounds the write of a run's terminal status.
const historyTimeout = 5 * time.Second

// Result is everything one run produced.
type Result struct {
	RunID      uuid.UUID
	SourcePath string
	Extraction extract.TextExtractionResult
	Columns    report.Columns
	Rows       []report.Row
	OutputPath string
	Readback   []export.TestResult
}

// Processor runs read -> categorize -> write -> read back for one report.
type Processor struct {
	logger   *slog.Logger
	reader   extract.TextExtractor
	exporter *export.Service
	runs     repository.RunRepository
	output   string
}

// NewProcessor wires the stages. runs may be nil, in which case nothing is recorded.
func NewProcessor(logger *slog.Logger, reader extract.TextExtractor, exporter *export.Service, runs repository.RunRepository, outputPath string) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if outputPath == "" {
		outputPath = common.DefaultOutputPath
	}
	return &Processor{logger: logger, reader: reader, exporter: exporter, runs: runs, output: outputPath}
}

// OutputPath is where the spreadsheet is written.
func (p *Processor) OutputPath() string { return p.output }

// Process runs every stage for path. A failure is returned as *StageError; the partial result
// is returned alongside it.
func (p *Processor) Process(ctx context.Context, path string) (*Result, error) {
	res := &Result{RunID: uuid.New(), SourcePath: path, OutputPath: p.output}
	recorded := false
	if p.runs != nil {
		run, err := p.runs.Start(ctx, path, hashFile(path), constants.FormatForPath(path))
		if err != nil {
			p.logger.Warn("processor.history.start.failed", "error", err)
		} else {
			res.RunID = run.ID
			recorded = true
		}
	}
	ctx = common.WithRunID(ctx, res.RunID.String())
	log := p.logger.With("run_id", res.RunID.String())
	ctx = common.WithLogger(ctx, log)
	start := time.Now()

	// 1) read -> plain text
	ext, err := p.reader.Extract(ctx, path)
	res.Extraction = ext
	if err != nil {
		return res, p.fail(ctx, res, recorded, StageRead, err)
	}
	log.Info("processor.read.ok",
		"path", path,
		"format", ext.Format,
		"method", ext.Method,
		"pages", ext.Pages,
		"bytes", len(ext.Text),
		"duration_ms", ext.Duration.Milliseconds(),
	)
	log.Debug("processor.read.text", "text", ext.Text)

	// 2) categorize -> rows
	rows, cols, err := report.Categorize(ext.Text)
	res.Columns = cols
	if err != nil {
		return res, p.fail(ctx, res, recorded, StageCategorize, err)
	}
	res.Rows = rows
	log.Debug("processor.categorize.columns", "columns", columnsAttr(cols))

	// 3) write spreadsheet
	if err := p.exporter.WriteRows(p.output, rows); err != nil {
		return res, p.fail(ctx, res, recorded, StageWrite, err)
	}

	// 4) read it back
	back, err := p.exporter.ReadTestResults(p.output)
	if err != nil {
		return res, p.fail(ctx, res, recorded, StageReadback, err)
	}
	res.Readback = back

	if recorded {
		hctx, cancel := historyContext(ctx)
		defer cancel()
		if err := p.runs.FinishSuccess(hctx, res.RunID, ext.Method, p.output, rows); err != nil {
			log.Warn("processor.history.finish.failed", "error", err)
		}
	}
	log.Info("processor.ok",
		"rows", len(rows),
		"output", p.output,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

func (p *Processor) fail(ctx context.Context, res *Result, recorded bool, stage Stage, err error) error {
	log := common.LoggerFromContext(ctx, p.logger)
	log.Error("processor.stage.failed", "stage", stage, "error", err)
	if recorded {
		hctx, cancel := historyContext(ctx)
		defer cancel()
		if ferr := p.runs.FinishFailure(hctx, res.RunID, res.Extraction.Method, err.Error()); ferr != nil {
			log.Warn("processor.history.finish.failed", "error", ferr)
		}
	}
	return &StageError{Stage: stage, RunID: res.RunID, Err: err}
}

// historyContext detaches terminal status writes from ctx, which may be the reason the run
// ended.
func historyContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), historyTimeout)
}

// hashFile returns the hex SHA-256 of the file, or "" when it cannot be read.
func hashFile(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return ""
	}
	return hex.EncodeToString(h.Sum(nil))
}

func columnsAttr(cols report.Columns) string {
	parts := make([]string, 0, len(cols))
	for _, f := range constants.Fields() {
		if idx, ok := cols[f]; ok {
			parts = append(parts, string(f)+"="+strconv.Itoa(idx))
		}
	}
	return strings.Join(parts, " ")
}

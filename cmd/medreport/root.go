package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/medreport/internal/common"
	"github.com/joseph-ayodele/medreport/internal/export"
	"github.com/joseph-ayodele/medreport/internal/extract"
	"github.com/joseph-ayodele/medreport/internal/ocr"
	"github.com/joseph-ayodele/medreport/internal/ocr/tesseract"
	"github.com/joseph-ayodele/medreport/internal/pipeline"
	"github.com/joseph-ayodele/medreport/internal/report"
	"github.com/joseph-ayodele/medreport/internal/repository"
)

const (
	msgMissingPath = "Please provide the file path as an argument."
	previewRows    = 5
)

type rootOptions struct {
	out     string
	json    bool
	history string
	debug   bool
}

func newRootCmd(cfg *common.Config, stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{out: cfg.OutputPath, history: cfg.History.DSN}

	cmd := &cobra.Command{
		Use:   "medreport [flags] <file_path>",
		Short: "Extract lab test rows from a medical report into a spreadsheet",
		Long: `Read a PDF, Word (.docx) or image lab report, find the header line naming the
Test, Normal, Range and Result columns, write the rows to an .xlsx file and print
the Test and Result columns read back from it.

Any failure exits with status 1. Read, header, and read-back failures print a JSON
{"error": ...} object; a failed spreadsheet write prints the error as plain text.

Example: medreport --out results.xlsx report.pdf`,
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(stderr, cfg, opts.debug)
			if len(args) == 0 {
				if err := writeJSONError(stdout, msgMissingPath); err != nil {
					return err
				}
				return &exitError{code: 1}
			}
			return runExtract(cmd.Context(), cfg, opts, args[0], logger, stdout)
		},
	}

	cmd.Flags().StringVar(&opts.out, "out", opts.out, "Spreadsheet to write")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Print the rows as a JSON document instead of tables")
	cmd.PersistentFlags().StringVar(&opts.history, "history", opts.history, "Run history store (SQLite path or postgres:// URL); empty disables it")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Log at debug level, including the extracted text")

	cmd.AddCommand(newHistoryCmd(cfg, opts, stdout, stderr))
	return cmd
}

func newLogger(w io.Writer, cfg *common.Config, debug bool) *slog.Logger {
	level := cfg.SlogLevel()
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	}))
	slog.SetDefault(logger)
	return logger
}

func newEngine(cfg common.OCRConfig, logger *slog.Logger) ocr.Engine {
	oc := ocrConfig(cfg)
	if cfg.Engine == common.OCREngineCLI {
		return ocr.NewCLIEngine(oc, logger)
	}
	return tesseract.NewEngine(oc, logger)
}

func ocrConfig(cfg common.OCRConfig) ocr.Config {
	return ocr.Config{
		Pdftoppm:    cfg.Pdftoppm,
		Tesseract:   cfg.Tesseract,
		Lang:        cfg.Lang,
		TessdataDir: cfg.TessdataDir,
		DPI:         cfg.DPI,
		MaxPages:    cfg.MaxPages,
		PSM:         cfg.PSM,
	}.WithDefaults()
}

// openHistory returns nil when the store is disabled or unreachable; runs are then not recorded.
func openHistory(ctx context.Context, cfg *common.Config, dsn string, logger *slog.Logger) (*repository.DB, func()) {
	if dsn == "" {
		return nil, func() {}
	}
	db, err := repository.Open(ctx, repository.Config{
		DSN:         dsn,
		MaxConns:    cfg.History.MaxConns,
		DialTimeout: cfg.History.DialTimeout,
	}, logger)
	if err != nil {
		logger.Warn("run history disabled", "error", err)
		return nil, func() {}
	}
	return db, func() { db.Close(logger) }
}

func runExtract(ctx context.Context, cfg *common.Config, opts *rootOptions, path string, logger *slog.Logger, stdout io.Writer) error {
	if cfg.OCR.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.OCR.Timeout)
		defer cancel()
	}

	var runs repository.RunRepository
	db, closeDB := openHistory(ctx, cfg, opts.history, logger)
	defer closeDB()
	if db != nil {
		runs = repository.NewRunRepository(db, logger)
	}

	engine := newEngine(cfg.OCR, logger)
	reader := extract.NewReader(engine, ocr.NewRasterizer(ocrConfig(cfg.OCR), logger), cfg.OCR.PDFOCRFallback, logger)
	proc := pipeline.NewProcessor(logger, reader, export.NewService(logger), runs, opts.out)

	res, err := proc.Process(ctx, path)
	if err != nil {
		var se *pipeline.StageError
		if errors.As(err, &se) && se.Stage == pipeline.StageWrite {
			fmt.Fprintln(stdout, err.Error())
		} else if werr := writeJSONError(stdout, err.Error()); werr != nil {
			return werr
		}
		return &exitError{code: 1}
	}

	if opts.json {
		b, err := report.EncodeDocument(report.NewDocument(res.RunID.String(), res.SourcePath, res.OutputPath, res.Rows))
		if err != nil {
			return fmt.Errorf("encode document: %w", err)
		}
		_, err = fmt.Fprintln(stdout, string(b))
		return err
	}

	fmt.Fprintf(stdout, "Data successfully written to %s\n", res.OutputPath)
	renderRows(stdout, res.Rows, previewRows)
	fmt.Fprintln(stdout, "Extracted Data:")
	renderTestResults(stdout, res.Readback)
	return nil
}

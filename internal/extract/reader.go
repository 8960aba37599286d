package extract

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/medreport/constants"
	"github.com/joseph-ayodele/medreport/internal/common"
	"github.com/joseph-ayodele/medreport/internal/ocr"
)

// Reader dispatches a report file to the PDF, Word or image reader by its suffix.
type Reader struct {
	engine      ocr.Engine
	rasterizer  PageRasterizer
	pdfFallback bool
	logger      *slog.Logger
}

// NewReader builds a Reader. engine may be nil, in which case images fail to read;
// rasterizer may be nil, which disables OCR of scanned PDFs.
func NewReader(engine ocr.Engine, rasterizer PageRasterizer, pdfFallback bool, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{engine: engine, rasterizer: rasterizer, pdfFallback: pdfFallback, logger: logger}
}

// Extract returns the text of the report at path. Read failures are *common.AppError values
// whose message names the reader that failed; unsupported suffixes return common.ErrUnsupportedFormat.
func (r *Reader) Extract(ctx context.Context, path string) (TextExtractionResult, error) {
	start := time.Now()
	format := constants.FormatForPath(path)
	r.logger.Debug("starting text extraction", "path", path, "format", format)

	var (
		res TextExtractionResult
		err error
	)
	switch format {
	case constants.PDF:
		res, err = r.readPDF(ctx, path)
		if err != nil {
			err = common.NewAppError(common.CodeReadPDF, "Error reading PDF file", err)
		}
	case constants.DOCX:
		res, err = r.readDOCX(path)
		if err != nil {
			err = common.NewAppError(common.CodeReadDOCX, "Error reading Word file", err)
		}
	case constants.IMAGE:
		res, err = r.readImage(ctx, path)
		if err != nil {
			err = common.NewAppError(common.CodeReadImage, "Error reading image file", err)
		}
	default:
		r.logger.Error("unsupported report format", "path", path)
		return TextExtractionResult{}, common.ErrUnsupportedFormat
	}
	res.Format = format
	res.Duration = time.Since(start)
	if err != nil {
		r.logger.Error("text extraction failed", "path", path, "format", format, "error", err)
		return res, err
	}
	r.logger.Debug("text extraction ok",
		"path", path,
		"method", res.Method,
		"pages", res.Pages,
		"bytes", len(res.Text),
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

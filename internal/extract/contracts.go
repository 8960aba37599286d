package extract

import (
	"context"
	"time"
)

// TextExtractor is stage 1: file -> text.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (TextExtractionResult, error)
}

// PageRasterizer renders the pages of a PDF to PNG images.
type PageRasterizer interface {
	Rasterize(ctx context.Context, path string) ([][]byte, error)
}

// Extraction methods recorded on a result.
const (
	MethodPDFText  = "pdf-text"
	MethodPDFOCR   = "pdf-ocr"
	MethodDOCX     = "docx-xml"
	MethodImageOCR = "image-ocr"
)

type TextExtractionResult struct {
	Text     string
	Pages    int
	Format   string // constants.PDF | constants.DOCX | constants.IMAGE
	Method   string
	Engine   string // OCR engine name, empty when no OCR ran
	Duration time.Duration
}

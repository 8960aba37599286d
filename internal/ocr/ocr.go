package ocr

import (
	"context"
)

// Engine turns a PNG-encoded image into text.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, png []byte) (string, error)
}

type Config struct {
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	Lang        string // default "eng"
	TessdataDir string
	DPI         int // rasterization DPI for scanned PDFs, default 300
	MaxPages    int // 0 = no limit

	PSM int // e.g., 6 is good for uniform block of text
}

// WithDefaults fills unset fields.
func (c Config) WithDefaults() Config {
	if c.Pdftoppm == "" {
		c.Pdftoppm = "pdftoppm"
	}
	if c.Tesseract == "" {
		c.Tesseract = "tesseract"
	}
	if c.Lang == "" {
		c.Lang = "eng"
	}
	if c.DPI <= 0 {
		c.DPI = 300
	}
	return c
}

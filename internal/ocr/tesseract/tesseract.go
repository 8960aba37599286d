// Package tesseract implements ocr.Engine on top of libtesseract through gosseract.
package tesseract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/joseph-ayodele/medreport/internal/ocr"
)

// Engine creates one gosseract client per image.
type Engine struct {
	clientFactory func() *gosseract.Client
	cfg           ocr.Config
	logger        *slog.Logger
}

func NewEngine(cfg ocr.Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{clientFactory: gosseract.NewClient, cfg: cfg.WithDefaults(), logger: logger}
}

func (e *Engine) Name() string { return "gosseract" }

// Recognize runs OCR over a single PNG image.
func (e *Engine) Recognize(ctx context.Context, png []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c := e.clientFactory()
	defer func() {
		if err := c.Close(); err != nil {
			e.logger.Warn("gosseract close failed", "error", err)
		}
	}()

	if e.cfg.TessdataDir != "" {
		c.TessdataPrefix = e.cfg.TessdataDir
	}
	if err := c.SetLanguage(strings.Split(e.cfg.Lang, "+")...); err != nil {
		return "", fmt.Errorf("set languages: %w", err)
	}
	if e.cfg.PSM > 0 {
		if err := c.SetPageSegMode(gosseract.PageSegMode(e.cfg.PSM)); err != nil {
			return "", fmt.Errorf("set psm: %w", err)
		}
	}
	if e.cfg.DPI > 0 {
		if err := c.SetVariable(gosseract.SettableVariable("user_defined_dpi"), fmt.Sprint(e.cfg.DPI)); err != nil {
			return "", fmt.Errorf("set dpi: %w", err)
		}
	}
	if err := c.SetImageFromBytes(png); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	e.logger.Debug("gosseract ok", "bytes_in", len(png), "chars_out", len(text))
	return text, nil
}

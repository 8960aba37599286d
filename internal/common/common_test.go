package common

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{
		"MEDREPORT_OUTPUT", "MEDREPORT_HISTORY_DSN", "LOG_LEVEL", "OCR_ENGINE",
		"TESSERACT_LANG", "OCR_DPI", "PDF_OCR_FALLBACK", "OCR_TIMEOUT", "OCR_PSM",
	} {
		t.Setenv(k, "")
	}

	cfg := LoadConfig()
	assert.Equal(t, DefaultOutputPath, cfg.OutputPath)
	assert.Equal(t, "", cfg.History.DSN)
	assert.Equal(t, OCREngineGosseract, cfg.OCR.Engine)
	assert.Equal(t, "eng", cfg.OCR.Lang)
	assert.Equal(t, 300, cfg.OCR.DPI)
	assert.Equal(t, 0, cfg.OCR.PSM)
	assert.True(t, cfg.OCR.PDFOCRFallback)
	assert.Equal(t, 2*time.Minute, cfg.OCR.Timeout)
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("MEDREPORT_OUTPUT", "out.xlsx")
	t.Setenv("MEDREPORT_HISTORY_DSN", ":memory:")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("OCR_ENGINE", "CLI")
	t.Setenv("OCR_DPI", "150")
	t.Setenv("PDF_OCR_FALLBACK", "false")
	t.Setenv("OCR_TIMEOUT", "10s")
	t.Setenv("OCR_PSM", "6")

	cfg := LoadConfig()
	assert.Equal(t, "out.xlsx", cfg.OutputPath)
	assert.Equal(t, ":memory:", cfg.History.DSN)
	assert.Equal(t, OCREngineCLI, cfg.OCR.Engine)
	assert.Equal(t, 150, cfg.OCR.DPI)
	assert.False(t, cfg.OCR.PDFOCRFallback)
	assert.Equal(t, 10*time.Second, cfg.OCR.Timeout)
	assert.Equal(t, 6, cfg.OCR.PSM)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
}

func TestLoadConfigIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("OCR_DPI", "lots")
	assert.Equal(t, 300, LoadConfig().OCR.DPI)
}

func TestValidate(t *testing.T) {
	cfg := LoadConfig()
	cfg.OCR.Engine = "paddle"
	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, CodeConfig, CodeOf(err))

	cfg = LoadConfig()
	cfg.OCR.Engine = OCREngineGosseract
	cfg.OCR.DPI = 0
	assert.Error(t, cfg.Validate())

	cfg = LoadConfig()
	cfg.OCR.Engine = OCREngineGosseract
	cfg.OutputPath = " "
	assert.Error(t, cfg.Validate())

	cfg = LoadConfig()
	cfg.OCR.Engine = OCREngineGosseract
	cfg.OCR.PSM = 14
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidInput)
}

func TestAppErrorMessage(t *testing.T) {
	cause := errors.New("boom")
	err := NewAppError(CodeReadPDF, "Error reading PDF file", cause)
	assert.Equal(t, "Error reading PDF file: boom", err.Error())
	assert.ErrorIs(t, err, cause)

	wrapped := fmt.Errorf("stage: %w", err)
	assert.Equal(t, CodeReadPDF, CodeOf(wrapped))
	assert.Equal(t, "", CodeOf(cause))

	assert.Equal(t, "plain", NewAppError(CodeConfig, "plain", nil).Error())
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "", RunIDFromContext(ctx))
	ctx = WithRunID(ctx, "abc")
	assert.Equal(t, "abc", RunIDFromContext(ctx))

	fallback := slog.Default()
	assert.Same(t, fallback, LoggerFromContext(ctx, fallback))
	scoped := fallback.With("run_id", "abc")
	assert.Same(t, scoped, LoggerFromContext(WithLogger(ctx, scoped), fallback))
}

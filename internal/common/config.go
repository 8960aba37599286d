package common

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultOutputPath is the spreadsheet written to the working directory.
const DefaultOutputPath = "extracted_medical_report_data.xlsx"

// OCR engine names accepted in OCR_ENGINE.
const (
	OCREngineGosseract = "gosseract"
	OCREngineCLI       = "cli"
)

// Config holds all application configuration
type Config struct {
	OutputPath string
	LogLevel   string
	History    HistoryConfig
	OCR        OCRConfig
}

// HistoryConfig holds run-history store configuration. An empty DSN disables the store.
type HistoryConfig struct {
	DSN         string
	MaxConns    int32
	DialTimeout time.Duration
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Engine         string
	Tesseract      string
	Pdftoppm       string
	Lang           string
	TessdataDir    string
	DPI            int
	MaxPages       int
	PSM            int // tesseract page segmentation mode, 0 = engine default
	PDFOCRFallback bool
	Timeout        time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		OutputPath: getEnv("MEDREPORT_OUTPUT", DefaultOutputPath),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		History: HistoryConfig{
			DSN:         getEnv("MEDREPORT_HISTORY_DSN", ""),
			MaxConns:    getEnvAsInt32("MEDREPORT_HISTORY_MAX_CONNS", 4),
			DialTimeout: getEnvAsDuration("MEDREPORT_HISTORY_DIAL_TIMEOUT", 3*time.Second),
		},
		OCR: OCRConfig{
			Engine:         strings.ToLower(getEnv("OCR_ENGINE", OCREngineGosseract)),
			Tesseract:      getEnv("TESSERACT_BIN", "tesseract"),
			Pdftoppm:       getEnv("PDFTOPPM_BIN", "pdftoppm"),
			Lang:           getEnv("TESSERACT_LANG", "eng"),
			TessdataDir:    getEnv("TESSDATA_PREFIX", ""),
			DPI:            getEnvAsInt("OCR_DPI", 300),
			MaxPages:       getEnvAsInt("OCR_MAX_PAGES", 0),
			PSM:            getEnvAsInt("OCR_PSM", 0),
			PDFOCRFallback: getEnvAsBool("PDF_OCR_FALLBACK", true),
			Timeout:        getEnvAsDuration("OCR_TIMEOUT", 2*time.Minute),
		},
	}
}

// SlogLevel maps LogLevel onto a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if strings.TrimSpace(c.OutputPath) == "" {
		return NewAppError(CodeConfig, "MEDREPORT_OUTPUT must not be empty", ErrInvalidInput)
	}
	switch c.OCR.Engine {
	case OCREngineGosseract, OCREngineCLI:
	default:
		return NewAppError(CodeConfig, fmt.Sprintf("OCR_ENGINE %q is not one of: gosseract | cli", c.OCR.Engine), ErrInvalidInput)
	}
	if c.OCR.DPI <= 0 {
		return NewAppError(CodeConfig, "OCR_DPI must be positive", ErrInvalidInput)
	}
	if c.OCR.PSM < 0 || c.OCR.PSM > 13 {
		return NewAppError(CodeConfig, "OCR_PSM must be between 0 and 13", ErrInvalidInput)
	}
	if c.OCR.MaxPages < 0 {
		return NewAppError(CodeConfig, "OCR_MAX_PAGES must not be negative", ErrInvalidInput)
	}
	return nil
}

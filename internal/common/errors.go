package common

import (
	"errors"
	"fmt"
)

// Error codes carried by AppError.
const (
	CodeReadPDF    = "READ_PDF"
	CodeReadDOCX   = "READ_DOCX"
	CodeReadImage  = "READ_IMAGE"
	CodeWriteXLSX  = "WRITE_XLSX"
	CodeReadXLSX   = "READ_XLSX"
	CodeConfig     = "CONFIG_ERROR"
	CodeRunHistory = "RUN_HISTORY"
)

// AppError represents application-specific errors.
// Error() renders only the message and cause; Code is for callers that branch on it.
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrDatabase     = errors.New("database error")

	//nolint:staticcheck // user-facing message, printed verbatim
	ErrUnsupportedFormat = errors.New("Unsupported file format. Please provide a PDF, Word, or image file.")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// CodeOf returns the AppError code anywhere in err's chain, or "".
func CodeOf(err error) string {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

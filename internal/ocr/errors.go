package ocr

import (
	"errors"
	"fmt"
)

// Common OCR processing errors
var (
	// ErrFileNotFound is returned when the upload path does not exist or is not a regular file.
	ErrFileNotFound = errors.New("file not found")

	// ErrUnsupportedFormat is returned when the file extension is not in the allow-list
	// or the file cannot be decoded as the format its extension claims.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrFileTooLarge is returned when the file exceeds the configured size ceiling.
	ErrFileTooLarge = errors.New("file size exceeds the maximum limit")

	// ErrOCRFailed is returned when the OCR backend is unreachable, answers with an error
	// status, or returns a payload that cannot be interpreted.
	ErrOCRFailed = errors.New("OCR processing failed")

	// ErrMissingCredentials is returned when a Google backend is selected but no
	// credentials can be found.
	ErrMissingCredentials = errors.New("missing Google Cloud credentials: set GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS environment variable")

	// ErrEmptyDocument is returned when the backend produced no readable text.
	ErrEmptyDocument = errors.New("document contains no readable text")
)

// OCRError wraps errors with additional context about the OCR processing failure.
type OCRError struct {
	// Op is the operation that failed (e.g., "ExtractText", "Rasterize").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *OCRError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("ocr: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("ocr: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *OCRError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *OCRError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewOCRError creates a new OCRError with the specified operation and underlying error.
func NewOCRError(op string, err error, details string) *OCRError {
	return &OCRError{
		Op:      op,
		Err:     err,
		Details: details,
	}
}

// WrapOCRError wraps an error as an OCRError if it isn't already one.
func WrapOCRError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var ocrErr *OCRError
	if errors.As(err, &ocrErr) {
		return err // Already wrapped
	}

	return NewOCRError(op, err, details)
}

// IsValidationError reports whether err was caused by the input file rather than the backend.
// Validation errors are surfaced to the caller; everything else is an upstream failure.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrFileNotFound) ||
		errors.Is(err, ErrUnsupportedFormat) ||
		errors.Is(err, ErrFileTooLarge)
}

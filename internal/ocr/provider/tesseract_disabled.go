//go:build !tesseract

package provider

import (
	"errors"

	"docchat/internal/ocr"
)

// ErrTesseractUnavailable is returned for OCR_PROVIDER=tesseract in builds without the tesseract tag.
var ErrTesseractUnavailable = errors.New("tesseract backend not compiled in, rebuild with -tags tesseract")

func newTesseractBackend([]string) (ocr.Backend, error) {
	return nil, ErrTesseractUnavailable
}

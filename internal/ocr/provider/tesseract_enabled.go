//go:build tesseract

package provider

import (
	"docchat/internal/ocr"
	"docchat/internal/ocr/tesseract"
)

func newTesseractBackend(languages []string) (ocr.Backend, error) {
	return tesseract.New(languages...), nil
}

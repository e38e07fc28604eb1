//go:build tesseract

// Package tesseract provides an OCR backend on top of a local Tesseract installation.
// gosseract links against libtesseract and leptonica, so the package only builds with
// the tesseract build tag.
package tesseract

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"

	"docchat/internal/ocr"
)

// Backend recognizes pages with Tesseract.
type Backend struct {
	languages     []string
	clientFactory func() *gosseract.Client
}

// New creates a backend for the given Tesseract language codes (default "eng").
func New(languages ...string) *Backend {
	if len(languages) == 0 {
		languages = []string{"eng"}
	}
	return &Backend{languages: languages, clientFactory: gosseract.NewClient}
}

// Name implements ocr.Backend.
func (b *Backend) Name() string { return "tesseract" }

// Recognize implements ocr.Backend. Tesseract cannot be interrupted mid-page, so ctx is
// only checked before the call.
func (b *Backend) Recognize(ctx context.Context, page ocr.Page) (string, error) {
	const op = "TesseractRecognize"

	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := b.clientFactory()
	defer client.Close()

	if err := client.SetLanguage(b.languages...); err != nil {
		return "", ocr.NewOCRError(op, ocr.ErrOCRFailed, fmt.Sprintf("invalid languages %v: %v", b.languages, err))
	}
	if err := client.SetImageFromBytes(page.Data); err != nil {
		return "", ocr.NewOCRError(op, ocr.ErrOCRFailed, fmt.Sprintf("failed to load image: %v", err))
	}

	text, err := client.Text()
	if err != nil {
		return "", ocr.NewOCRError(op, ocr.ErrOCRFailed, fmt.Sprintf("tesseract failed: %v", err))
	}
	return text, nil
}

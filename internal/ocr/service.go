// Package ocr turns an uploaded document into plain text.
//
// The Gateway validates the file, rasterizes its first page when needed and hands the
// page image to exactly one Backend. Backends are interchangeable:
//
//   - remote: multipart POST to an OCR model server (OCR_URL), the default
//   - vision: Google Cloud Vision DOCUMENT_TEXT_DETECTION
//   - documentai: a Google Document AI OCR processor
//   - tesseract: a local Tesseract installation (subpackage tesseract)
//   - mock: fixed sample text for offline development
//
// Google backends read credentials from the environment:
//   - GOOGLE_APPLICATION_CREDENTIALS: Path to service account JSON file, OR
//   - GOOGLE_CREDENTIALS: Inline JSON credentials string
//
// Only the first page of a PDF is recognized. Multi-page documents are truncated to
// page one and Result.PageCount reports how many pages the source had.
package ocr

import (
	"context"
	"time"
)

// Backend recognizes the text on a single page image.
type Backend interface {
	// Name identifies the backend in logs and results.
	Name() string

	// Recognize returns the text found on the page.
	Recognize(ctx context.Context, page Page) (string, error)
}

// Page is the payload handed to a Backend.
type Page struct {
	// Data is the encoded image (or the original bytes when no rasterization happened).
	Data []byte

	// MimeType describes Data, e.g. "image/png".
	MimeType string

	// Filename is the name sent along with the payload.
	Filename string
}

// Result contains the extracted text and processing metadata.
type Result struct {
	// Text is the recognized text of the first page.
	Text string `json:"text"`

	// PageCount is the number of pages in the source document.
	PageCount int `json:"page_count"`

	// Backend is the name of the backend that produced Text.
	Backend string `json:"backend"`

	// Rasterized is true when the source had to be converted to a PNG first.
	Rasterized bool `json:"rasterized"`

	// ProcessedAt is the timestamp when the OCR processing completed.
	ProcessedAt time.Time `json:"processed_at"`

	// ProcessingDuration is how long the OCR processing took.
	ProcessingDuration time.Duration `json:"processing_duration"`
}

// Package convert runs an uploaded file through OCR and HTML synthesis.
package convert

import (
	"context"
	"path/filepath"

	"github.com/rs/zerolog"

	"docchat/internal/logger"
	"docchat/internal/ocr"
	"docchat/internal/synthesis"
)

// Extractor is the part of the OCR gateway the pipeline needs.
type Extractor interface {
	ExtractText(ctx context.Context, filePath, mimeHint string) (*ocr.Result, error)
}

// Outcome describes a finished conversion.
type Outcome struct {
	HTML     string
	Filename string

	// OCR is nil when extraction failed and HTML is the error document.
	OCR *ocr.Result

	// Err holds the upstream failure that produced the error document.
	Err error
}

// Pipeline converts documents to HTML.
type Pipeline struct {
	extractor   Extractor
	synthesizer synthesis.Synthesizer
	log         zerolog.Logger
}

// NewPipeline creates a pipeline.
func NewPipeline(extractor Extractor, synthesizer synthesis.Synthesizer) *Pipeline {
	return &Pipeline{
		extractor:   extractor,
		synthesizer: synthesizer,
		log:         logger.WithComponent("convert"),
	}
}

// Convert extracts and formats the file at path. displayName is used for the document
// title and defaults to the base name of path.
//
// Validation errors (bad extension, oversize, missing file) are returned. Every other
// failure is turned into a rendered error document so the caller always has HTML to show.
func (p *Pipeline) Convert(ctx context.Context, path, displayName string) (*Outcome, error) {
	if displayName == "" {
		displayName = filepath.Base(path)
	}

	result, err := p.extractor.ExtractText(ctx, path, "")
	if err != nil {
		if ocr.IsValidationError(err) {
			return nil, err
		}
		p.log.Error().
			Err(err).
			Str("file", displayName).
			Msg("OCR failed, returning error document")
		return &Outcome{
			HTML:     synthesis.ErrorDocument(displayName, err),
			Filename: displayName,
			Err:      err,
		}, nil
	}

	html, err := p.synthesizer.Synthesize(ctx, result.Text, displayName)
	if err != nil {
		p.log.Error().
			Err(err).
			Str("file", displayName).
			Msg("HTML synthesis failed, returning error document")
		return &Outcome{
			HTML:     synthesis.ErrorDocument(displayName, err),
			Filename: displayName,
			OCR:      result,
			Err:      err,
		}, nil
	}

	p.log.Info().
		Str("file", displayName).
		Str("backend", result.Backend).
		Int("html_length", len(html)).
		Msg("Document converted")

	return &Outcome{HTML: html, Filename: displayName, OCR: result}, nil
}

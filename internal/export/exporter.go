// Package export serves the current document as HTML or PDF.
package export

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"docchat/internal/document"
	"docchat/internal/logger"
)

var tracer = otel.Tracer("docchat/internal/export")

// Renderer turns an HTML document into PDF bytes.
type Renderer interface {
	Name() string
	Render(ctx context.Context, html string) ([]byte, error)
}

// Exporter reads the document store.
type Exporter struct {
	store    *document.Store
	renderer Renderer
	log      zerolog.Logger
}

// NewExporter creates an exporter for store using renderer for PDFs.
func NewExporter(store *document.Store, renderer Renderer) *Exporter {
	return &Exporter{
		store:    store,
		renderer: renderer,
		log:      logger.WithComponent("export"),
	}
}

// HTML returns the current document verbatim.
func (e *Exporter) HTML() string {
	return e.store.Get()
}

// PDF renders the current document.
func (e *Exporter) PDF(ctx context.Context) ([]byte, error) {
	const op = "PDF"

	ctx, span := tracer.Start(ctx, "export.PDF")
	defer span.End()
	span.SetAttributes(attribute.String("export.renderer", e.renderer.Name()))

	html := e.store.Get()
	if strings.TrimSpace(html) == "" {
		span.SetStatus(codes.Error, ErrEmptyDocument.Error())
		return nil, &ExportError{Op: op, Err: ErrEmptyDocument}
	}

	start := time.Now()
	pdf, err := e.renderer.Render(ctx, html)
	if err == nil && len(pdf) == 0 {
		err = fmt.Errorf("renderer produced no output")
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.log.Error().
			Err(err).
			Str("renderer", e.renderer.Name()).
			Msg("PDF rendering failed")
		return nil, &ExportError{Op: op, Err: fmt.Errorf("%w: %v", ErrRenderFailed, err)}
	}

	e.log.Info().
		Str("renderer", e.renderer.Name()).
		Int("bytes", len(pdf)).
		Dur("duration", time.Since(start)).
		Msg("Rendered PDF")
	span.SetAttributes(attribute.Int("export.bytes", len(pdf)))

	return pdf, nil
}

// NewRenderer returns the renderer selected by PDF_RENDERER.
func NewRenderer(name, chromePath string) (Renderer, error) {
	switch name {
	case "", "chrome":
		return NewChromeRenderer(chromePath), nil
	case "fpdf":
		return NewFPDFRenderer(), nil
	}
	return nil, fmt.Errorf("unknown PDF renderer %q", name)
}

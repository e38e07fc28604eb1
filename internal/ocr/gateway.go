package ocr

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"docchat/internal/logger"
)

var tracer = otel.Tracer("docchat/internal/ocr")

// GatewayOptions configures input validation.
type GatewayOptions struct {
	// AllowedExtensions lists accepted extensions including the dot, e.g. ".pdf".
	AllowedExtensions []string

	// MaxFileSize is the inclusive byte ceiling.
	MaxFileSize int64
}

// Gateway validates documents and dispatches them to a Backend.
type Gateway struct {
	backend Backend
	allowed map[string]struct{}
	maxSize int64
	log     zerolog.Logger
}

// NewGateway creates a gateway around the given backend.
func NewGateway(backend Backend, opts GatewayOptions) *Gateway {
	allowed := make(map[string]struct{}, len(opts.AllowedExtensions))
	for _, ext := range opts.AllowedExtensions {
		allowed[strings.ToLower(ext)] = struct{}{}
	}
	return &Gateway{
		backend: backend,
		allowed: allowed,
		maxSize: opts.MaxFileSize,
		log:     logger.WithComponent("ocr-gateway"),
	}
}

// Backend returns the backend the gateway dispatches to.
func (g *Gateway) Backend() Backend {
	return g.backend
}

// AllowsExtension reports whether a file name carries an accepted extension.
func (g *Gateway) AllowsExtension(filename string) bool {
	_, ok := g.allowed[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// Validate checks that path names a regular file with an accepted extension and size.
func (g *Gateway) Validate(path string) (os.FileInfo, error) {
	const op = "Validate"

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewOCRError(op, ErrFileNotFound, path)
		}
		return nil, WrapOCRError(op, err, "failed to stat file")
	}
	if !info.Mode().IsRegular() {
		return nil, NewOCRError(op, ErrFileNotFound, fmt.Sprintf("%s is not a regular file", path))
	}
	if !g.AllowsExtension(path) {
		return nil, NewOCRError(op, ErrUnsupportedFormat, fmt.Sprintf("extension %q", filepath.Ext(path)))
	}
	if g.maxSize > 0 && info.Size() > g.maxSize {
		return nil, NewOCRError(op, ErrFileTooLarge, fmt.Sprintf("file size: %d bytes, limit: %d bytes", info.Size(), g.maxSize))
	}
	return info, nil
}

// ExtractText validates the file at filePath, rasterizes it if needed and returns the
// backend's text. mimeHint, when set, overrides the MIME type derived from the extension
// for files that are sent unchanged.
func (g *Gateway) ExtractText(ctx context.Context, filePath, mimeHint string) (*Result, error) {
	const op = "ExtractText"
	startTime := time.Now()

	ctx, span := tracer.Start(ctx, "ocr.ExtractText")
	defer span.End()
	span.SetAttributes(
		attribute.String("ocr.backend", g.backend.Name()),
		attribute.String("ocr.file", filepath.Base(filePath)),
	)

	if _, err := g.Validate(filePath); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, WrapOCRError(op, err, "failed to read file")
	}

	ext := strings.ToLower(filepath.Ext(filePath))
	raster, err := Rasterize(data, ext)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	page := Page{
		Data:     raster.Data,
		MimeType: raster.MimeType,
		Filename: filepath.Base(filePath),
	}
	if raster.Converted {
		page.Filename = strings.TrimSuffix(page.Filename, filepath.Ext(page.Filename)) + ".png"
	} else if mimeHint != "" {
		page.MimeType = mimeHint
	}

	g.log.Debug().
		Str("file", filePath).
		Str("backend", g.backend.Name()).
		Int("page_count", raster.PageCount).
		Bool("rasterized", raster.Converted).
		Int("bytes", len(page.Data)).
		Msg("Dispatching page to OCR backend")

	text, err := g.backend.Recognize(ctx, page)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		g.log.Error().Err(err).Str("file", filePath).Msg("OCR backend failed")
		if !errors.Is(err, ErrOCRFailed) {
			err = fmt.Errorf("%w: %v", ErrOCRFailed, err)
		}
		return nil, WrapOCRError(op, err, g.backend.Name())
	}

	if strings.TrimSpace(text) == "" {
		span.SetStatus(codes.Error, ErrEmptyDocument.Error())
		return nil, NewOCRError(op, ErrEmptyDocument, filepath.Base(filePath))
	}

	result := &Result{
		Text:       text,
		PageCount:  raster.PageCount,
		Backend:    g.backend.Name(),
		Rasterized: raster.Converted,
	}
	result.ProcessedAt = time.Now()
	result.ProcessingDuration = result.ProcessedAt.Sub(startTime)

	if raster.PageCount > 1 {
		g.log.Warn().
			Str("file", filePath).
			Int("page_count", raster.PageCount).
			Msg("Only the first page was recognized")
	}
	g.log.Info().
		Str("file", filePath).
		Str("backend", result.Backend).
		Int("text_length", len(result.Text)).
		Dur("duration", result.ProcessingDuration).
		Msg("OCR processing completed")

	span.SetAttributes(attribute.Int("ocr.text_length", len(result.Text)))
	return result, nil
}

// mimeTypeForExt maps a lower-case extension to the MIME type sent to backends.
func mimeTypeForExt(ext string) string {
	switch ext {
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".tiff", ".tif":
		return "image/tiff"
	case ".bmp":
		return "image/bmp"
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}

// Package provider builds the OCR backend selected in the configuration.
package provider

import (
	"context"
	"fmt"
	"net/http"

	"docchat/internal/config"
	"docchat/internal/ocr"
)

// NewBackend builds the backend selected by OCR_PROVIDER.
func NewBackend(ctx context.Context, cfg *config.Config) (ocr.Backend, error) {
	switch cfg.OCRProvider {
	case "remote":
		return ocr.NewRemoteBackend(cfg.OCRURL, cfg.OCRTask, &http.Client{Timeout: cfg.OCRTimeout}), nil
	case "vision":
		return ocr.NewVisionBackend(ctx)
	case "documentai":
		return ocr.NewDocumentAIBackend(ctx, ocr.DocumentAIConfig{
			ProjectID:   cfg.GoogleCloudProject,
			Location:    cfg.GoogleCloudLocation,
			ProcessorID: cfg.DocumentAIProcessorID,
		})
	case "tesseract":
		return newTesseractBackend(cfg.TesseractLanguages)
	case "mock":
		return ocr.NewMockBackend(), nil
	}
	return nil, fmt.Errorf("unknown OCR provider %q", cfg.OCRProvider)
}

// NewGateway builds a gateway with the configured backend and upload limits.
func NewGateway(ctx context.Context, cfg *config.Config) (*ocr.Gateway, error) {
	backend, err := NewBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return ocr.NewGateway(backend, ocr.GatewayOptions{
		AllowedExtensions: cfg.AllowedExtensions,
		MaxFileSize:       cfg.MaxFileSize,
	}), nil
}

package ocr

import (
	"context"
	"fmt"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/api/option"
)

// DocumentAIConfig identifies the Document AI OCR processor.
type DocumentAIConfig struct {
	ProjectID   string
	Location    string
	ProcessorID string
}

// DocumentAIBackend recognizes pages with a Google Document AI OCR processor.
type DocumentAIBackend struct {
	client *documentai.DocumentProcessorClient
	config DocumentAIConfig
}

// NewDocumentAIBackend creates a processor client for the configured location.
func NewDocumentAIBackend(ctx context.Context, config DocumentAIConfig) (*DocumentAIBackend, error) {
	const op = "NewDocumentAIBackend"

	if config.Location == "" {
		config.Location = "us"
	}

	clientOptions := googleClientOptions()
	hasCredentials := len(clientOptions) > 0

	// Non-US processors live behind a regional endpoint
	if config.Location != "us" {
		endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", config.Location)
		clientOptions = append(clientOptions, option.WithEndpoint(endpoint))
	}

	client, err := documentai.NewDocumentProcessorClient(ctx, clientOptions...)
	if err != nil {
		if !hasCredentials {
			return nil, WrapOCRError(op, ErrMissingCredentials, "no credentials found in environment")
		}
		return nil, WrapOCRError(op, err, fmt.Sprintf("failed to create Document AI client for location: %s", config.Location))
	}

	return &DocumentAIBackend{client: client, config: config}, nil
}

// Name implements Backend.
func (d *DocumentAIBackend) Name() string { return "documentai" }

// Recognize implements Backend.
func (d *DocumentAIBackend) Recognize(ctx context.Context, page Page) (string, error) {
	const op = "DocumentAIRecognize"

	req := &documentaipb.ProcessRequest{
		Name: d.processorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  page.Data,
				MimeType: page.MimeType,
			},
		},
	}

	resp, err := d.client.ProcessDocument(ctx, req)
	if err != nil {
		return "", NewOCRError(op, ErrOCRFailed, fmt.Sprintf("Document AI call failed: %v", err))
	}
	if resp.GetDocument() == nil {
		return "", NewOCRError(op, ErrOCRFailed, "no document in Document AI response")
	}
	return resp.GetDocument().GetText(), nil
}

func (d *DocumentAIBackend) processorName() string {
	return fmt.Sprintf("projects/%s/locations/%s/processors/%s",
		d.config.ProjectID, d.config.Location, d.config.ProcessorID)
}

// Close closes the underlying Document AI client.
func (d *DocumentAIBackend) Close() error {
	if d.client != nil {
		return d.client.Close()
	}
	return nil
}

package ocr_test

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"docchat/internal/ocr"
)

// Example demonstrates extracting text through the gateway with the offline backend.
func Example() {
	// Create context with timeout for OCR processing
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dir, err := os.MkdirTemp("", "ocr-example")
	if err != nil {
		log.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "scan.jpg")
	if err := os.WriteFile(path, []byte("jpeg bytes"), 0o644); err != nil {
		log.Fatalf("Failed to write sample: %v", err)
	}

	gateway := ocr.NewGateway(&ocr.MockBackend{Text: "Hello from page one"}, ocr.GatewayOptions{
		AllowedExtensions: []string{".pdf", ".png", ".jpg"},
		MaxFileSize:       10 * 1024 * 1024,
	})

	result, err := gateway.ExtractText(ctx, path, "")
	if err != nil {
		log.Fatalf("Failed to extract text: %v", err)
	}

	fmt.Println(result.Backend)
	fmt.Println(result.Text)
	// Output:
	// mock
	// Hello from page one
}

// ExampleIsValidationError demonstrates distinguishing bad input from backend failures.
func ExampleIsValidationError() {
	gateway := ocr.NewGateway(ocr.NewMockBackend(), ocr.GatewayOptions{
		AllowedExtensions: []string{".pdf"},
		MaxFileSize:       1024,
	})

	_, err := gateway.ExtractText(context.Background(), "does-not-exist.pdf", "")

	switch {
	case ocr.IsValidationError(err) && errors.Is(err, ocr.ErrFileNotFound):
		fmt.Println("validation: file not found")
	case errors.Is(err, ocr.ErrOCRFailed):
		fmt.Println("upstream failure")
	}
	// Output:
	// validation: file not found
}

// ExampleNewRemoteBackend demonstrates configuring the model-server backend.
func ExampleNewRemoteBackend() {
	backend := ocr.NewRemoteBackend("http://localhost:8001/predict", "", nil)
	fmt.Println(backend.Name())
	// Output:
	// remote
}

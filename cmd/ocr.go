package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"docchat/internal/logger"
	"docchat/internal/ocr"
	ocrprovider "docchat/internal/ocr/provider"
)

var ocrCmd = &cobra.Command{
	Use:   "ocr [file]",
	Short: "Extract raw text from a scanned document",
	Long: `Run only the OCR step and print the recognized text.

The backend is chosen with OCR_PROVIDER:
  remote      multipart POST to OCR_URL (default)
  vision      Google Cloud Vision (GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS)
  documentai  Google Document AI (GOOGLE_CLOUD_PROJECT, DOCUMENT_AI_PROCESSOR_ID)
  tesseract   local Tesseract via gosseract (binary built with -tags tesseract)
  mock        fixed sample text`,
	Example: `  # Print extracted text
  docchat ocr scan.png

  # Save JSON with metadata
  docchat ocr report.pdf --json -o result.json

  # Use a different backend for one run
  OCR_PROVIDER=tesseract docchat ocr receipt.jpg`,
	Args: cobra.ExactArgs(1),
	RunE: runOCR,
}

// OCROutput is the JSON written with --json.
type OCROutput struct {
	Text               string    `json:"text"`
	Backend            string    `json:"backend"`
	PageCount          int       `json:"page_count,omitempty"`
	Rasterized         bool      `json:"rasterized"`
	ProcessedAt        time.Time `json:"processed_at,omitempty"`
	ProcessingDuration string    `json:"processing_duration,omitempty"`
	FileName           string    `json:"file_name"`
	FileSize           int64     `json:"file_size"`
}

func init() {
	rootCmd.AddCommand(ocrCmd)

	ocrCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	ocrCmd.Flags().Bool("json", false, "Output as JSON with metadata")
	ocrCmd.Flags().Duration("timeout", 0, "Processing timeout (default: OCR_TIMEOUT)")
}

func runOCR(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("ocr")

	outputPath, _ := cmd.Flags().GetString("output")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout <= 0 {
		timeout = cfg.OCRTimeout
	}

	filePath := args[0]

	log.Info().
		Str("file", filePath).
		Str("output", outputPath).
		Bool("json", jsonOutput).
		Dur("timeout", timeout).
		Msg("Starting OCR processing")

	ctx, cancel := createContextWithTimeout(cmd.Context(), timeout, log)
	defer cancel()

	gateway, err := ocrprovider.NewGateway(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create OCR backend: %w", err)
	}
	if closer, ok := gateway.Backend().(io.Closer); ok {
		defer func() {
			if err := closer.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to close OCR backend")
			}
		}()
	}

	fileInfo, err := gateway.Validate(filePath)
	if err != nil {
		return handleOCRError(err, log)
	}

	result, err := gateway.ExtractText(ctx, filePath, "")
	if err != nil {
		return handleOCRError(err, log)
	}

	log.Info().
		Str("backend", result.Backend).
		Int("page_count", result.PageCount).
		Dur("duration", result.ProcessingDuration).
		Int("text_length", len(result.Text)).
		Msg("OCR processing completed successfully")

	return outputResults(result, fileInfo, outputPath, jsonOutput, log)
}

// handleOCRError turns gateway errors into messages a CLI user can act on.
func handleOCRError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("OCR processing failed")

	errStr := err.Error()

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("OCR processing timed out. Try increasing --timeout or OCR_TIMEOUT")
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("OCR processing was canceled")
	case errors.Is(err, ocr.ErrFileNotFound):
		return fmt.Errorf("file not found or not a regular file: %w", err)
	case errors.Is(err, ocr.ErrFileTooLarge):
		return fmt.Errorf("file is too large (maximum %d bytes). Raise MAX_FILE_SIZE or shrink the file", cfg.MaxFileSize)
	case errors.Is(err, ocr.ErrUnsupportedFormat):
		return fmt.Errorf("unsupported or corrupted file. Allowed types: %s", strings.Join(cfg.AllowedExtensions, ", "))
	case errors.Is(err, ocr.ErrEmptyDocument):
		return fmt.Errorf("no readable text found in the document")
	case errors.Is(err, ocr.ErrMissingCredentials):
		return fmt.Errorf("Google Cloud credentials not configured. Set GOOGLE_APPLICATION_CREDENTIALS to a service account JSON file, " +
			"set GOOGLE_CREDENTIALS to inline JSON, or run: gcloud auth application-default login")
	case strings.Contains(errStr, "Unauthenticated") ||
		strings.Contains(errStr, "invalid_grant") ||
		strings.Contains(errStr, "PERMISSION_DENIED"):
		return fmt.Errorf("Google Cloud authentication failed. Check your credentials and that the service account "+
			"may call the selected API: %v", err)
	case strings.Contains(errStr, "unreachable"):
		return fmt.Errorf("OCR server unreachable. Check OCR_URL (currently %q): %w", cfg.OCRURL, err)
	default:
		return fmt.Errorf("OCR processing failed: %w", err)
	}
}

func outputResults(result *ocr.Result, fileInfo os.FileInfo, outputPath string, jsonOutput bool, log zerolog.Logger) error {
	if !jsonOutput {
		return writeOutput(outputPath, []byte(result.Text), log)
	}

	data, err := json.MarshalIndent(OCROutput{
		Text:               result.Text,
		Backend:            result.Backend,
		PageCount:          result.PageCount,
		Rasterized:         result.Rasterized,
		ProcessedAt:        result.ProcessedAt,
		ProcessingDuration: result.ProcessingDuration.String(),
		FileName:           filepath.Base(fileInfo.Name()),
		FileSize:           fileInfo.Size(),
	}, "", "  ")
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal JSON output")
		return fmt.Errorf("failed to create JSON output: %w", err)
	}
	return writeOutput(outputPath, append(data, '\n'), log)
}

package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"docchat/internal/logger"
)

var convertCmd = &cobra.Command{
	Use:   "convert [file]",
	Short: "Convert a scanned document to HTML",
	Long: `Run a document through OCR and HTML synthesis without starting the server.

The first page of PDFs is rendered to an image before recognition; TIFF and BMP
files are converted to PNG. When recognition fails the output is an HTML error
document and the command still succeeds, matching the upload endpoint.`,
	Example: `  # Print HTML for a scanned invoice
  docchat convert invoice.pdf

  # Write HTML and a PDF rendition
  docchat convert invoice.png -o invoice.html --pdf invoice.pdf`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringP("output", "o", "", "HTML output file path (default: stdout)")
	convertCmd.Flags().String("pdf", "", "Also render the HTML to this PDF file")
}

func runConvert(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("convert")

	outputPath, _ := cmd.Flags().GetString("output")
	pdfPath, _ := cmd.Flags().GetString("pdf")
	filePath := args[0]

	ctx, cancel := createContextWithTimeout(cmd.Context(), cfg.OCRTimeout+cfg.LLMTimeout, log)
	defer cancel()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close OCR backend")
		}
	}()

	outcome, err := a.pipeline.Convert(ctx, filePath, filepath.Base(filePath))
	if err != nil {
		return handleOCRError(err, log)
	}
	if outcome.Err != nil {
		log.Warn().Err(outcome.Err).Msg("Conversion failed, writing error document")
	}

	if err := writeOutput(outputPath, []byte(outcome.HTML), log); err != nil {
		return err
	}

	if pdfPath == "" {
		return nil
	}

	a.engine.Store().Set(outcome.HTML)
	pdf, err := a.exporter.PDF(ctx)
	if err != nil {
		return fmt.Errorf("failed to render PDF: %w", err)
	}
	return writeOutput(pdfPath, pdf, log)
}

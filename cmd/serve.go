package cmd

import (
	"github.com/spf13/cobra"

	"docchat/internal/logger"
	"docchat/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Start the HTTP API used by the web editor.

Endpoints:
  GET  /api/health      liveness check
  POST /api/upload      multipart "file" upload, returns the converted HTML
  POST /api/chat        {"message": "..."} edit request against the current document
  GET  /api/export      current HTML
  GET  /api/export/pdf  current document as PDF`,
	Example: `  # Serve on the configured port (BACKEND_PORT, default 8000)
  docchat serve

  # Serve on another port with offline backends
  OCR_PROVIDER=mock LLM_PROVIDER=mock docchat serve --port 9000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "Port to listen on (default: BACKEND_PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("serve")

	if port, _ := cmd.Flags().GetInt("port"); port > 0 {
		cfg.Port = port
	}

	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close OCR backend")
		}
	}()

	log.Info().
		Str("ocr_backend", a.gateway.Backend().Name()).
		Str("llm_provider", a.provider.Name()).
		Str("synthesis", cfg.SynthesisMode).
		Str("pdf_renderer", cfg.PDFRenderer).
		Msg("Starting docchat server")

	srv := server.New(server.Options{
		Addr:               cfg.Addr(),
		UploadDir:          cfg.UploadDir,
		MaxFileSize:        cfg.MaxFileSize,
		AllowedExtensions:  cfg.AllowedExtensions,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		OCRTimeout:         cfg.OCRTimeout,
		LLMTimeout:         cfg.LLMTimeout,
		PDFTimeout:         cfg.LLMTimeout,
	}, a.pipeline, a.engine, a.exporter)

	return srv.Run(cmd.Context())
}

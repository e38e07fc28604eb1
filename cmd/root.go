package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"docchat/internal/config"
	"docchat/internal/logger"
	"docchat/internal/telemetry"
)

var version = "1.0.0"

var (
	configPath string
	cfg        *config.Config
	tracing    *telemetry.Provider
)

var rootCmd = &cobra.Command{
	Use:   "docchat",
	Short: "Convert scanned documents to HTML and edit them through a chat model",
	Long: `docchat turns scanned documents (PDF, PNG, JPEG, TIFF, BMP) into HTML with an
OCR backend and lets you edit the result by describing changes in plain language.

Run "docchat serve" for the HTTP API, or use the convert, ocr and edit
commands to work with files directly.

Configuration comes from an optional YAML file (--config or CONFIG_FILE),
overridden by environment variables and a .env file in the working directory.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded

		if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		tracing, err = telemetry.NewProvider(cmd.Context(), telemetry.Config{
			Endpoint:       cfg.OTLPEndpoint,
			ServiceVersion: version,
		})
		return err
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if tracing == nil {
			return nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return tracing.Shutdown(ctx)
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML configuration file (default: $CONFIG_FILE)")
}

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"docchat/internal/config"
	"docchat/internal/convert"
	"docchat/internal/document"
	"docchat/internal/editor"
	"docchat/internal/export"
	"docchat/internal/llm"
	"docchat/internal/ocr"
	ocrprovider "docchat/internal/ocr/provider"
	"docchat/internal/synthesis"
)

// app holds the components every command is assembled from.
type app struct {
	gateway  *ocr.Gateway
	provider llm.Provider
	pipeline *convert.Pipeline
	engine   *editor.Engine
	exporter *export.Exporter
}

// newApp builds the components selected by cfg. Close releases backend clients.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	gateway, err := ocrprovider.NewGateway(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create OCR backend: %w", err)
	}

	provider, err := llm.NewProviderFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM provider: %w", err)
	}

	synthesizer, err := synthesis.New(cfg.SynthesisMode, provider)
	if err != nil {
		return nil, err
	}

	renderer, err := export.NewRenderer(cfg.PDFRenderer, cfg.ChromePath)
	if err != nil {
		return nil, err
	}

	store := document.NewStore()
	return &app{
		gateway:  gateway,
		provider: provider,
		pipeline: convert.NewPipeline(gateway, synthesizer),
		engine:   editor.NewEngine(store, provider),
		exporter: export.NewExporter(store, renderer),
	}, nil
}

func (a *app) Close() error {
	if closer, ok := a.gateway.Backend().(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// createContextWithTimeout returns a context cancelled after timeout or on SIGINT/SIGTERM.
// A zero timeout only reacts to signals.
func createContextWithTimeout(parent context.Context, timeout time.Duration, log zerolog.Logger) (context.Context, context.CancelFunc) {
	var ctx context.Context
	var cancel context.CancelFunc
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(parent, timeout)
	} else {
		ctx, cancel = context.WithCancel(parent)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// writeOutput writes data to path, or to stdout when path is empty.
func writeOutput(path string, data []byte, log zerolog.Logger) error {
	if path == "" {
		if _, err := os.Stdout.Write(data); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Error().
			Err(err).
			Str("output_file", path).
			Msg("Failed to write output file")
		return fmt.Errorf("failed to write output file: %w", err)
	}

	log.Info().
		Str("output_file", path).
		Int("bytes", len(data)).
		Msg("Output written to file")
	return nil
}

package synthesis

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"docchat/internal/llm"
	"docchat/internal/logger"
)

var tracer = otel.Tracer("docchat/internal/synthesis")

const formatterSystemPrompt = `You convert OCR output into a clean, well-structured HTML document.
Infer what kind of document it is (invoice, letter, form, report, ...).
Reconstruct headings, lists and tables from the text layout, and preserve the original order and wording.
Return only the raw HTML document, without explanations and without markdown code fences.`

// LLMFormatter asks a model to lay out the text. It is best effort: on any failure the
// raw text is returned unchanged with a nil error.
type LLMFormatter struct {
	provider llm.Provider
	log      zerolog.Logger
}

// NewLLMFormatter creates a formatter backed by provider.
func NewLLMFormatter(provider llm.Provider) *LLMFormatter {
	return &LLMFormatter{
		provider: provider,
		log:      logger.WithComponent("llm-formatter"),
	}
}

// Synthesize implements Synthesizer.
func (f *LLMFormatter) Synthesize(ctx context.Context, rawText, filename string) (string, error) {
	ctx, span := tracer.Start(ctx, "synthesis.LLMFormat")
	defer span.End()

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: formatterSystemPrompt},
		{Role: llm.RoleUser, Content: fmt.Sprintf("Filename: %s\n\nOCR text:\n%s", filename, rawText)},
	}

	reply, err := f.provider.Complete(ctx, messages)
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("synthesis.fallback", true))
		f.log.Warn().
			Err(err).
			Str("file", filename).
			Msg("LLM formatting failed, using raw text")
		return rawText, nil
	}

	formatted := llm.StripCodeFence(reply, "html")
	if strings.TrimSpace(formatted) == "" {
		span.SetAttributes(attribute.Bool("synthesis.fallback", true))
		f.log.Warn().Str("file", filename).Msg("LLM formatting returned no HTML, using raw text")
		return rawText, nil
	}

	f.log.Info().
		Str("file", filename).
		Int("raw_length", len(rawText)).
		Int("html_length", len(formatted)).
		Msg("Formatted document with LLM")
	return formatted, nil
}

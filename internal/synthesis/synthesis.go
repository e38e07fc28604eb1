// Package synthesis turns OCR text into an HTML document.
//
// Three strategies are available:
//   - escape: every non-blank line becomes an escaped paragraph (deterministic)
//   - markdown: the text is rendered as GitHub-flavored markdown
//   - llm: a model reconstructs headings and tables; falls back to the raw text
package synthesis

import (
	"context"
	"fmt"
	"html"
	"html/template"
	"strings"

	"docchat/internal/llm"
)

// Synthesizer builds an HTML document from raw text.
type Synthesizer interface {
	Synthesize(ctx context.Context, rawText, filename string) (string, error)
}

// EscapeWrap is the deterministic strategy.
type EscapeWrap struct{}

// Synthesize implements Synthesizer.
func (EscapeWrap) Synthesize(_ context.Context, rawText, filename string) (string, error) {
	return wrapPage(filename, template.HTML(Paragraphs(rawText)))
}

// Paragraphs escapes text and wraps each non-blank, trimmed line in <p>.
func Paragraphs(text string) string {
	var b strings.Builder
	for _, line := range strings.Split(html.EscapeString(text), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		b.WriteString("<p>")
		b.WriteString(line)
		b.WriteString("</p>\n")
	}
	return b.String()
}

// ErrorDocument renders the visible document shown when a file could not be processed.
func ErrorDocument(filename string, err error) string {
	body := fmt.Sprintf(`<div class="error"><h2>Document processing failed</h2><p>%s</p><p>%s</p></div>`,
		html.EscapeString(filename), html.EscapeString(err.Error()))
	doc, execErr := wrapPage(filename, template.HTML(body))
	if execErr != nil {
		return body
	}
	return doc
}

// New returns the synthesizer for mode. provider is only used by the llm mode.
func New(mode string, provider llm.Provider) (Synthesizer, error) {
	switch mode {
	case "", "escape":
		return EscapeWrap{}, nil
	case "markdown":
		return NewMarkdown(), nil
	case "llm":
		if provider == nil {
			return nil, fmt.Errorf("synthesis mode %q needs an LLM provider", mode)
		}
		return NewLLMFormatter(provider), nil
	}
	return nil, fmt.Errorf("unknown synthesis mode %q", mode)
}

package synthesis

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Markdown renders OCR output as GitHub-flavored markdown. OCR models commonly emit
// markdown headings and pipe tables, which this turns into real HTML structure.
// Raw HTML in the input is not passed through.
type Markdown struct {
	md goldmark.Markdown
}

// NewMarkdown creates a markdown synthesizer with GFM tables, strikethrough and autolinks.
func NewMarkdown() *Markdown {
	return &Markdown{md: goldmark.New(goldmark.WithExtensions(extension.GFM))}
}

// Synthesize implements Synthesizer.
func (m *Markdown) Synthesize(_ context.Context, rawText, filename string) (string, error) {
	var buf bytes.Buffer
	if err := m.md.Convert([]byte(rawText), &buf); err != nil {
		return "", fmt.Errorf("markdown synthesis: %w", err)
	}
	return wrapPage(filename, template.HTML(buf.String()))
}

package editor

import (
	"strings"

	"docchat/internal/llm"
)

const (
	explanationMarker = "EXPLANATION:"
	htmlMarker        = "HTML:"
)

// ParseResponse splits a model reply into its explanation and HTML sections.
//
// ok is false unless both markers occur somewhere in text (case-sensitive, not anchored
// to line starts). The split happens at the first "HTML:", so an explanation that itself
// contains "HTML:" is cut short there. The HTML side loses at most one leading fence
// ("```html" before "```") and one trailing "```".
func ParseResponse(text string) (explanation, html string, ok bool) {
	if !strings.Contains(text, explanationMarker) || !strings.Contains(text, htmlMarker) {
		return "", "", false
	}

	left, right, _ := strings.Cut(text, htmlMarker)

	explanation = strings.TrimSpace(strings.ReplaceAll(left, explanationMarker, ""))

	return explanation, llm.StripCodeFence(right, "html"), true
}

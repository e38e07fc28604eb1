package llm

import "strings"

// StripCodeFence removes one leading fence (```lang or ```) and one trailing ``` from
// a model reply, trimming surrounding whitespace. Text without fences is only trimmed.
func StripCodeFence(text, lang string) string {
	cleaned := strings.TrimSpace(text)

	if lang != "" && strings.HasPrefix(cleaned, "```"+lang) {
		cleaned = strings.TrimPrefix(cleaned, "```"+lang)
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```")
	}
	cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")

	return strings.TrimSpace(cleaned)
}

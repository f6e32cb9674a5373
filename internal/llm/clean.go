package llm

import (
	"regexp"
	"strings"
)

var leadingLangTag = regexp.MustCompile(`(?i)^json\s*`)

// CleanResponse removes code fences and a stray leading "json" language tag.
// The prompt forbids structured wrapping, but the model emits it anyway.
func CleanResponse(text string) string {
	text = strings.ReplaceAll(text, "```", "")
	text = strings.TrimSpace(text)
	text = leadingLangTag.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

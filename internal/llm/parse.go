package llm

import "strings"

// ExtractJSON returns the JSON payload of a model response. Models regularly
// wrap structured output in a Markdown code fence despite instructions not
// to; the fence and an optional language tag are stripped.
func ExtractJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

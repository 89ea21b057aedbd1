// Package llm - util.go provides shared utilities for LLM response processing.
package llm

import "strings"

// CleanJSONBlock strips a markdown code fence from an LLM response. Models
// routinely wrap JSON in ```json ... ``` even when told not to, and the play
// parser rejects fenced input.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	body := strings.TrimPrefix(text, "```")
	body = strings.TrimPrefix(body, "json")

	// The opening fence may carry another language tag ("javascript" and the
	// like). A first line that is short, spaceless and not already JSON is a
	// tag, not content.
	if idx := strings.Index(body, "\n"); idx >= 0 {
		tag := body[:idx]
		if len(tag) < 20 && !strings.Contains(tag, " ") && !strings.Contains(tag, "{") && !strings.Contains(tag, "[") {
			body = body[idx+1:]
		}
	}

	if idx := strings.LastIndex(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}

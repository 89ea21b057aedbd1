// Package prompts provides the externalized LLM prompt templates used by the
// pipeline stages. Templates are JSON files embedded at compile time.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

//go:embed *.json
var promptFiles embed.FS

// The embedded library is small and immutable, so it is parsed in full on
// first use rather than cached per file.
var (
	loadOnce sync.Once
	library  map[string]map[string]string
	loadErr  error
)

func load() {
	library = make(map[string]map[string]string)

	entries, err := promptFiles.ReadDir(".")
	if err != nil {
		loadErr = fmt.Errorf("failed to read embedded prompts: %w", err)
		return
	}

	for _, entry := range entries {
		data, err := promptFiles.ReadFile(entry.Name())
		if err != nil {
			loadErr = fmt.Errorf("failed to read prompt file %s: %w", entry.Name(), err)
			return
		}
		var prompts map[string]string
		if err := json.Unmarshal(data, &prompts); err != nil {
			loadErr = fmt.Errorf("failed to parse prompt file %s: %w", entry.Name(), err)
			return
		}
		library[entry.Name()] = prompts
	}
}

// Get retrieves a prompt template by filename and key. The filename carries
// no path (e.g. "research.json").
func Get(filename, key string) (string, error) {
	loadOnce.Do(load)
	if loadErr != nil {
		return "", loadErr
	}

	prompts, ok := library[filename]
	if !ok {
		return "", fmt.Errorf("failed to read prompt file %s: not embedded", filename)
	}
	prompt, ok := prompts[key]
	if !ok {
		return "", fmt.Errorf("prompt key %q not found in %s", key, filename)
	}
	return prompt, nil
}

// Format replaces placeholders in the form {{.Key}} with values from data.
func Format(template string, data map[string]string) string {
	result := template
	for key, value := range data {
		placeholder := fmt.Sprintf("{{.%s}}", key)
		result = strings.ReplaceAll(result, placeholder, value)
	}
	return result
}

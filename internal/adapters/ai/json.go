package ai

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var codeFence = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)```")

// ExtractJSON pulls the JSON document out of a model response that may be
// wrapped in markdown fences or surrounded by prose.
func ExtractJSON(text string) string {
	if matches := codeFence.FindStringSubmatch(text); len(matches) > 1 {
		return strings.TrimSpace(matches[1])
	}

	startObj := strings.Index(text, "{")
	startArr := strings.Index(text, "[")

	var start int
	var endChar string

	switch {
	case startObj >= 0 && (startArr < 0 || startObj < startArr):
		start, endChar = startObj, "}"
	case startArr >= 0:
		start, endChar = startArr, "]"
	default:
		return strings.TrimSpace(text)
	}

	if end := strings.LastIndex(text, endChar); end > start {
		return strings.TrimSpace(text[start : end+1])
	}

	return strings.TrimSpace(text)
}

// DecodeJSON extracts and unmarshals a JSON response into v
func DecodeJSON(text string, v any) error {
	jsonStr := ExtractJSON(text)
	if jsonStr == "" {
		return fmt.Errorf("empty response")
	}
	if err := json.Unmarshal([]byte(jsonStr), v); err != nil {
		return fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	return nil
}

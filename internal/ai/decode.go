package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StripCodeFence removes a surrounding Markdown code fence (``` or ```json)
// from a model response. Text without a fence is returned trimmed.
func StripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		// drop the info string, e.g. "json"
		if info := strings.TrimSpace(text[:nl]); !strings.ContainsAny(info, "{[") {
			text = text[nl+1:]
		}
	} else {
		text = strings.TrimPrefix(text, "json")
	}
	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// DecodeJSON strips any code fence from text and decodes it into v.
// Failures are reported as ErrUpstream.
func DecodeJSON(text string, v interface{}) error {
	if err := json.Unmarshal([]byte(StripCodeFence(text)), v); err != nil {
		return fmt.Errorf("%w: invalid JSON in model response: %v", ErrUpstream, err)
	}
	return nil
}

package ai

import (
	"encoding/json"
	"strings"
)

// Model responses are free text that should contain an embedded JSON value,
// often wrapped in prose or a markdown fence. These helpers cut out the
// first plausible JSON object or array and unmarshal it; callers treat a
// failure as "no JSON present" and fall back to a raw-text shape.

// ExtractObject finds the outermost {...} span in text and unmarshals it
// into out. Returns false if no parseable object is present.
func ExtractObject(text string, out interface{}) bool {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return false
	}
	return json.Unmarshal([]byte(text[start:end+1]), out) == nil
}

// ExtractArray finds the outermost [...] span in text and unmarshals it
// into out. Returns false if no parseable array is present.
func ExtractArray(text string, out interface{}) bool {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start == -1 || end <= start {
		return false
	}
	return json.Unmarshal([]byte(text[start:end+1]), out) == nil
}

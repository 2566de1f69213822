package extraction

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	openFence  = regexp.MustCompile("(?i)^```(?:json)?[ \t]*\r?\n?")
	closeFence = regexp.MustCompile("\r?\n?[ \t]*```$")
)

// ExtractJSONObject recovers a single JSON object from raw backend text.
// Backends are not format-guaranteed even when asked for JSON, so this
// tolerates markdown code fences, surrounding prose and a singleton
// array wrapping the object. Failure is a malformed-response Error
// carrying the original text.
func ExtractJSONObject(raw string) (map[string]any, error) {
	text := strings.TrimSpace(raw)
	text = openFence.ReplaceAllString(text, "")
	text = closeFence.ReplaceAllString(text, "")
	text = strings.TrimSpace(text)

	var candidate string
	switch {
	case strings.HasPrefix(text, "{") && strings.HasSuffix(text, "}"):
		candidate = text
	case strings.HasPrefix(text, "[") && strings.HasSuffix(text, "]"):
		return unwrapArray(text, raw)
	default:
		// Look for the first { and the last } and take the span.
		start := strings.Index(text, "{")
		end := strings.LastIndex(text, "}")
		if start == -1 || end == -1 || end < start {
			return nil, malformedResponse("no JSON object found in response", raw, nil)
		}
		candidate = text[start : end+1]
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(candidate), &obj); err != nil {
		return nil, malformedResponse("response is not valid JSON", raw, err)
	}
	return obj, nil
}

// unwrapArray tolerates backends that wrap the object in a list; the
// first element wins.
func unwrapArray(text, raw string) (map[string]any, error) {
	var arr []any
	if err := json.Unmarshal([]byte(text), &arr); err != nil {
		return nil, malformedResponse("response is not valid JSON", raw, err)
	}
	if len(arr) == 0 {
		return nil, malformedResponse("response array is empty", raw, nil)
	}
	obj, ok := arr[0].(map[string]any)
	if !ok {
		return nil, malformedResponse("response array holds no object", raw, nil)
	}
	return obj, nil
}

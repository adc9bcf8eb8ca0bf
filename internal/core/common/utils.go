package common

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSON returns the outermost JSON object embedded in a model
// response, which often wraps it in markdown fences or prose.
func ExtractJSON(response string) (string, bool) {
	start := strings.IndexByte(response, '{')
	end := strings.LastIndexByte(response, '}')
	if start < 0 || end < start {
		return "", false
	}
	return response[start : end+1], true
}

// ParseJSON decodes the JSON object embedded in response into T.
func ParseJSON[T any](response string) (T, error) {
	var result T
	raw, ok := ExtractJSON(response)
	if !ok {
		return result, fmt.Errorf("no JSON object found in response")
	}
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return result, fmt.Errorf("failed to unmarshal JSON: %w\nData: %s", err, raw)
	}
	return result, nil
}

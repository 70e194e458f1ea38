package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedResponse indicates the model output contained no parseable
// JSON, neither bare nor inside a fenced code block.
var ErrMalformedResponse = errors.New("malformed model response")

// Extract parses raw model output into a Result. Models frequently wrap the
// requested JSON in prose or a markdown fence despite instructions, so a
// direct parse is tried first and a fenced-block parse second.
//
// The extractor does not validate business fields: a structurally valid
// object with missing keys is passed through as-is. usedModelName is stamped
// onto the result so callers can report which cascade entry produced it.
func Extract(raw string, usedModelName string) (*Result, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty output", ErrMalformedResponse)
	}

	var res Result
	if err := json.Unmarshal([]byte(trimmed), &res); err == nil {
		res.UsedModelName = usedModelName
		return &res, nil
	}

	inner, ok := fencedJSON(trimmed)
	if !ok {
		return nil, fmt.Errorf("%w: no JSON object or fenced block found", ErrMalformedResponse)
	}
	if err := json.Unmarshal([]byte(inner), &res); err != nil {
		return nil, fmt.Errorf("%w: fenced block is not valid JSON: %v", ErrMalformedResponse, err)
	}
	res.UsedModelName = usedModelName
	return &res, nil
}

// fencedJSON returns the interior of the first ```json ... ``` block, or the
// first bare ``` ... ``` block when no json-tagged fence exists. The fence
// tag is matched case-insensitively since models emit ```JSON too.
func fencedJSON(s string) (string, bool) {
	lower := strings.ToLower(s)
	for _, marker := range []string{"```json", "```"} {
		start := strings.Index(lower, marker)
		if start < 0 {
			continue
		}
		rest := s[start+len(marker):]
		end := strings.Index(rest, "```")
		if end < 0 {
			continue
		}
		inner := strings.TrimSpace(rest[:end])
		if inner != "" {
			return inner, true
		}
	}
	return "", false
}

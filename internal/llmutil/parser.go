// Helpers for digging structured data out of conversational LLM output.
package llmutil

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	json "github.com/json-iterator/go"

	"github.com/deskpilot/deskpilot/api/schemas"
)

// ErrNoJSONArray is returned when the response contains no decodable array.
var ErrNoJSONArray = errors.New("no JSON array found in response")

// jsonArrayFenceRegex extracts a JSON array wrapped in a markdown code fence.
// \x60 is a backtick; Go raw strings cannot contain them.
var jsonArrayFenceRegex = regexp.MustCompile("(?s)\x60\x60\x60(?:json)?\\s*(\\[.*\\])\\s*\x60\x60\x60")

// ExtractArray locates the JSON array inside an LLM response. Models wrap
// their answers in markdown fences or conversational prose; the extraction
// takes the fenced body when present, otherwise the span from the first '['
// to the last ']'.
func ExtractArray(response string) (string, error) {
	response = strings.TrimSpace(response)

	if strings.HasPrefix(response, "```") {
		if matches := jsonArrayFenceRegex.FindStringSubmatch(response); len(matches) > 1 {
			return matches[1], nil
		}
	}

	first := strings.Index(response, "[")
	last := strings.LastIndex(response, "]")
	if first == -1 || last == -1 || last < first {
		return "", ErrNoJSONArray
	}
	return response[first : last+1], nil
}

// ParseInstructions decodes the instruction sequence embedded in an LLM
// response. A response with no array, or an array that does not decode into
// instructions, is an error; callers treat that as a signal to fall back to
// rule-based generation.
func ParseInstructions(response string) (schemas.Sequence, error) {
	raw, err := ExtractArray(response)
	if err != nil {
		return nil, err
	}

	var seq schemas.Sequence
	if err := json.Unmarshal([]byte(raw), &seq); err != nil {
		return nil, fmt.Errorf("failed to decode instruction array: %w (extracted: %s)", err, truncate(raw, 300))
	}
	return seq, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

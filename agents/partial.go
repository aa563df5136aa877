package agents

import (
	"encoding/json"
	"strings"
)

// completePartialJSON closes an incomplete JSON object so it can be parsed
// while the model is still streaming it. It closes an unterminated string,
// drops a trailing comma, supplies null for a dangling key, and closes any
// open brackets.
func completePartialJSON(partial string) string {
	partial = strings.TrimSpace(partial)
	if partial == "" {
		return partial
	}

	var stack []byte
	inString := false
	escaped := false
	for i := 0; i < len(partial); i++ {
		c := partial[i]
		if escaped {
			escaped = false
			continue
		}
		if inString {
			switch c {
			case '\\':
				escaped = true
			case '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			stack = append(stack, c)
		case '}', ']':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}

	out := partial
	if escaped {
		out = out[:len(out)-1]
	}
	if inString {
		out += `"`
	}

	trimmed := strings.TrimRight(out, " \t\n\r")
	if strings.HasSuffix(trimmed, ",") {
		out = strings.TrimSuffix(trimmed, ",")
	} else if strings.HasSuffix(trimmed, ":") {
		out = trimmed + "null"
	}

	for i := len(stack) - 1; i >= 0; i-- {
		switch stack[i] {
		case '{':
			out += "}"
		case '[':
			out += "]"
		}
	}
	return out
}

// parsePartial attempts to decode a possibly incomplete JSON object into v.
// It reports whether the decode succeeded.
func parsePartial(partial string, v interface{}) bool {
	completed := completePartialJSON(partial)
	if completed == "" {
		return false
	}
	return json.Unmarshal([]byte(completed), v) == nil
}

package llm

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNoJSON means the model reply contained no balanced JSON object.
var ErrNoJSON = errors.New("no JSON object found in reply")

// ExtractJSON returns the first balanced {...} substring of raw. Model
// replies routinely wrap the object in prose or markdown fences; everything
// outside the braces is ignored.
func ExtractJSON(raw string) (string, bool) {
	depth := 0
	start := -1
	inString := false
	escaped := false

	for i := 0; i < len(raw); i++ {
		ch := raw[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 {
					return raw[start : i+1], true
				}
			}
		}
	}
	return "", false
}

// DecodeReply extracts the first balanced JSON object from raw and decodes
// it strictly into v. Any failure means "the service returned nothing
// usable"; the raw text is preserved in the error for the audit log.
func DecodeReply(raw string, v any) error {
	obj, ok := ExtractJSON(raw)
	if !ok {
		return fmt.Errorf("%w: %q", ErrNoJSON, truncate(raw, 200))
	}
	if err := json.Unmarshal([]byte(obj), v); err != nil {
		return fmt.Errorf("decode reply %q: %w", truncate(obj, 200), err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

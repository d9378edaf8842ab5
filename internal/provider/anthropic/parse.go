package anthropic

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var errNoJSONObject = errors.New("reply contains no JSON object")

// parseOutput extracts the first JSON object from text and returns the
// requested fields as strings. Every field must be present and non-empty.
func parseOutput(text string, fields []string) (map[string]string, error) {
	obj, err := firstJSONObject(text)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(fields))
	for _, f := range fields {
		v := stringify(obj[f])
		if v == "" {
			return nil, fmt.Errorf("reply is missing field %q", f)
		}
		out[f] = v
	}
	return out, nil
}

// firstJSONObject scans for the first balanced {...} that decodes as an object.
// Models often wrap the object in prose or a code fence.
func firstJSONObject(text string) (map[string]any, error) {
	for start := 0; start < len(text); start++ {
		if text[start] != '{' {
			continue
		}
		end := matchingBrace(text, start)
		if end < 0 {
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal([]byte(text[start:end+1]), &obj); err == nil {
			return obj, nil
		}
	}
	return nil, errNoJSONObject
}

// matchingBrace returns the index of the brace closing text[start], honouring
// JSON string literals, or -1.
func matchingBrace(text string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
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
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// stringify flattens a decoded JSON value. Lists of strings become one line per
// entry; other composite values are re-encoded as JSON.
func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case []any:
		lines := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return marshalString(val)
			}
			if s = strings.TrimSpace(s); s != "" {
				lines = append(lines, s)
			}
		}
		return strings.Join(lines, "\n")
	default:
		return marshalString(val)
	}
}

func marshalString(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	s := string(b)
	if s == "[]" || s == "{}" {
		return ""
	}
	return s
}

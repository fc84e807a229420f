package client

import (
	"bytes"
	"encoding/json"
	"strings"
	"unicode"
)

// Normalize rewrites every object key in a JSON document from camelCase to
// snake_case so callers only ever decode the canonical schema. When both
// spellings of a key are present the snake_case value wins. Empty input is
// returned unchanged.
func Normalize(data []byte) ([]byte, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return data, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}

	return json.Marshal(normalizeValue(doc))
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		// snake_case keys first so they take precedence over camelCase aliases
		for k, item := range val {
			if isSnake(k) {
				out[k] = normalizeValue(item)
			}
		}
		for k, item := range val {
			if isSnake(k) {
				continue
			}
			key := SnakeCase(k)
			if _, exists := out[key]; !exists {
				out[key] = normalizeValue(item)
			}
		}
		return out
	case []any:
		for i, item := range val {
			val[i] = normalizeValue(item)
		}
		return val
	default:
		return v
	}
}

func isSnake(s string) bool {
	for _, r := range s {
		if unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

// SnakeCase converts a camelCase or PascalCase identifier to snake_case.
// Acronyms stay together: "stripeSessionID" -> "stripe_session_id",
// "imageURLPath" -> "image_url_path".
func SnakeCase(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s) + 4)

	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}

	return b.String()
}

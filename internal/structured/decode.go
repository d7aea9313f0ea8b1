package structured

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Tag reports how a decode attempt concluded.
type Tag string

const (
	// TagParsed means the text yielded a valid record, either directly or
	// via extraction of an embedded JSON object.
	TagParsed Tag = "parsed"

	// TagDegraded means both parse attempts failed and the zero value was
	// substituted.
	TagDegraded Tag = "degraded"
)

// Normalizer lets a schema clamp its numeric fields to documented ranges
// after a successful parse. Malformed-but-present values are salvaged, not
// treated as fatal.
type Normalizer interface {
	Normalize()
}

// fencedBlock matches a fenced code block, optionally tagged json.
var fencedBlock = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// Decode parses raw model output into T using two stages: first the whole
// text as JSON, then the first fenced block or balanced JSON object found
// anywhere in the text. If both fail, the zero value is returned tagged
// Degraded.
func Decode[T any](raw string) (T, Tag) {
	var out T

	candidate := strings.TrimSpace(raw)

	// Stage 1: the entire text is the record. Models often wrap JSON in a
	// fence even when asked not to, so strip a leading/trailing fence
	// before the direct attempt.
	direct := strings.TrimSpace(strings.TrimSuffix(
		strings.TrimPrefix(strings.TrimPrefix(candidate, "```json"), "```"), "```"))
	if tryUnmarshal(direct, &out) {
		normalize(&out)
		return out, TagParsed
	}

	// Stage 2a: first fenced block anywhere in the text.
	if m := fencedBlock.FindStringSubmatch(candidate); m != nil {
		var fenced T
		if tryUnmarshal(strings.TrimSpace(m[1]), &fenced) {
			normalize(&fenced)
			return fenced, TagParsed
		}
	}

	// Stage 2b: first balanced JSON object anywhere in the text.
	if obj := firstJSONObject(candidate); obj != "" {
		var embedded T
		if tryUnmarshal(obj, &embedded) {
			normalize(&embedded)
			return embedded, TagParsed
		}
	}

	var zero T
	return zero, TagDegraded
}

func tryUnmarshal[T any](text string, out *T) bool {
	if text == "" {
		return false
	}
	return json.Unmarshal([]byte(text), out) == nil
}

func normalize(v any) {
	if n, ok := v.(Normalizer); ok {
		n.Normalize()
	}
}

// firstJSONObject returns the first balanced {...} substring, honoring
// string literals and escapes, or "" if none closes.
func firstJSONObject(text string) string {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

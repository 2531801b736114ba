// Package extract normalizes model prose into structured data: it digs a
// JSON document out of free-form completion text and coerces loosely typed
// fields into the schemas the rest of the system consumes.
package extract

import (
	"encoding/json"
	"strings"
)

// JSON pulls the first JSON document out of completion text. Search order:
// a ```json fence, then any fence, then the first balanced {...} or [...]
// span. Returns nil when nothing parses; the caller surfaces that as a
// parse error with the raw text, not as a request failure.
func JSON(text string) json.RawMessage {
	for _, candidate := range candidates(text) {
		trimmed := strings.TrimSpace(candidate)
		if trimmed == "" {
			continue
		}
		if json.Valid([]byte(trimmed)) {
			return json.RawMessage(trimmed)
		}
	}
	return nil
}

// JSONInto extracts and unmarshals in one step. ok is false when no valid
// document was found or it did not fit the target shape.
func JSONInto(text string, target interface{}) bool {
	raw := JSON(text)
	if raw == nil {
		return false
	}
	return json.Unmarshal(raw, target) == nil
}

func candidates(text string) []string {
	var out []string
	if c := fencedBlock(text, "```json"); c != "" {
		out = append(out, c)
	}
	if c := fencedBlock(text, "```"); c != "" {
		out = append(out, c)
	}
	if c := balancedSpan(text, '{', '}'); c != "" {
		out = append(out, c)
	}
	if c := balancedSpan(text, '[', ']'); c != "" {
		out = append(out, c)
	}
	return out
}

// fencedBlock returns the body of the first fence opened by marker.
func fencedBlock(text, marker string) string {
	start := strings.Index(text, marker)
	if start < 0 {
		return ""
	}
	body := text[start+len(marker):]
	// The opener may carry a language tag up to the newline.
	if nl := strings.IndexByte(body, '\n'); nl >= 0 && marker == "```" {
		firstLine := strings.TrimSpace(body[:nl])
		if firstLine != "" && !strings.ContainsAny(firstLine, "{[") {
			body = body[nl+1:]
		}
	}
	end := strings.Index(body, "```")
	if end < 0 {
		return ""
	}
	return body[:end]
}

// balancedSpan returns the first depth-balanced span between open and close,
// honoring JSON string literals and escapes.
func balancedSpan(text string, open, close byte) string {
	start := strings.IndexByte(text, open)
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
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

package jsonutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"unicode"
)

// ErrNoObject is returned when text contains no JSON object.
var ErrNoObject = errors.New("jsonutil: no JSON object found")

// MarshalNoEscape encodes v into JSON without HTML-escaping <, > and &.
func MarshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	// json.Encoder.Encode appends a newline.
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

const fence = "```"

// StripCodeFences removes markdown fence markers (``` and ```json) that open
// or close a line. Backticks elsewhere, such as inside string values, are kept.
func StripCodeFences(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		t := strings.TrimSpace(line)
		fenced := false
		if strings.HasPrefix(t, fence) {
			t = strings.TrimLeftFunc(t[len(fence):], isTagRune)
			fenced = true
		}
		if strings.HasSuffix(t, fence) {
			t = strings.TrimSuffix(t, fence)
			fenced = true
		}
		if !fenced {
			out = append(out, line)
			continue
		}
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return strings.Join(out, "\n")
}

// isTagRune matches the language tag after an opening fence.
func isTagRune(r rune) bool {
	return r == '-' || r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// ExtractObject returns the first top-level {...} object in model output.
// Fences are stripped first; braces inside string literals are ignored.
// When the first object never closes, everything up to the last '}' is
// returned so the caller's parser reports the real syntax error.
func ExtractObject(text string) (string, error) {
	s := StripCodeFences(text)
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", ErrNoObject
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
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
				return s[start : i+1], nil
			}
		}
	}
	end := strings.LastIndexByte(s, '}')
	if end <= start {
		return "", ErrNoObject
	}
	return s[start : end+1], nil
}

// StripTrailingCommas removes commas that directly precede a closing brace
// or bracket outside string literals.
func StripTrailingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			b.WriteByte(c)
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
		if c == '"' {
			inString = true
			b.WriteByte(c)
			continue
		}
		if c == ',' {
			j := i + 1
			for j < len(s) && (s[j] == ' ' || s[j] == '\n' || s[j] == '\r' || s[j] == '\t') {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

// ErrInvalidObject is returned when the extracted object does not parse.
var ErrInvalidObject = errors.New("jsonutil: extracted object is not valid JSON")

// ExtractValidObject extracts the first object from text and returns it
// once it is valid JSON, repairing trailing commas if needed.
func ExtractValidObject(text string) ([]byte, error) {
	obj, err := ExtractObject(text)
	if err != nil {
		return nil, err
	}
	if json.Valid([]byte(obj)) {
		return []byte(obj), nil
	}
	if repaired := StripTrailingCommas(obj); json.Valid([]byte(repaired)) {
		return []byte(repaired), nil
	}
	return nil, ErrInvalidObject
}

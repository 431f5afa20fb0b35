package survey

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Answer is one submitted (questionId, value) pair. Value is the raw
// selection: a numeral for scale items, option text for choice items or
// free text.
type Answer struct {
	QuestionID string `json:"questionId"`
	Value      string `json:"value"`
}

// UnmarshalJSON accepts numeric and boolean values in addition to strings,
// since some clients send scale answers as JSON numbers.
func (a *Answer) UnmarshalJSON(data []byte) error {
	var raw struct {
		QuestionID string          `json:"questionId"`
		Value      json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	a.QuestionID = strings.TrimSpace(raw.QuestionID)
	v := bytes.TrimSpace(raw.Value)
	switch {
	case len(v) == 0 || bytes.Equal(v, []byte("null")):
		a.Value = ""
	case v[0] == '"':
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return err
		}
		a.Value = s
	case v[0] == '{' || v[0] == '[':
		return fmt.Errorf("answer %q: value must be a scalar", a.QuestionID)
	default:
		a.Value = string(v)
	}
	return nil
}

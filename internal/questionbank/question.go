package questionbank

import (
	"sort"
	"strings"
)

// Locale is a question-bank language code such as "zh".
type Locale string

const (
	LocaleZH Locale = "zh"
	LocaleEN Locale = "en"
	LocaleJA Locale = "ja"
)

// DefaultLocales is the fallback order used when a lookup misses the
// requested locale.
var DefaultLocales = []Locale{LocaleZH, LocaleEN, LocaleJA}

// NormalizeLocale lower-cases and trims lang; unknown or empty values map to zh.
func NormalizeLocale(lang string) Locale {
	l := Locale(strings.ToLower(strings.TrimSpace(lang)))
	for _, known := range DefaultLocales {
		if l == known {
			return l
		}
	}
	return LocaleZH
}

type QuestionType string

const (
	TypeScale  QuestionType = "scale"
	TypeChoice QuestionType = "choice"
	TypeText   QuestionType = "text"
)

// LocalizedText maps a locale code to display text.
type LocalizedText map[string]string

// Get returns the text for lang, falling back to zh, en, ja and then any
// remaining locale in key order.
func (t LocalizedText) Get(lang string) string {
	if len(t) == 0 {
		return ""
	}
	if s := strings.TrimSpace(t[lang]); s != "" {
		return s
	}
	for _, l := range DefaultLocales {
		if s := strings.TrimSpace(t[string(l)]); s != "" {
			return s
		}
	}
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if s := strings.TrimSpace(t[k]); s != "" {
			return s
		}
	}
	return ""
}

// Question is the metadata of a single questionnaire item.
type Question struct {
	ID         string          `json:"id" yaml:"id"`
	Type       QuestionType    `json:"type" yaml:"type"`
	Text       LocalizedText   `json:"text" yaml:"text"`
	Options    []LocalizedText `json:"options,omitempty" yaml:"options,omitempty"`
	LeftLabel  LocalizedText   `json:"leftLabel,omitempty" yaml:"leftLabel,omitempty"`
	RightLabel LocalizedText   `json:"rightLabel,omitempty" yaml:"rightLabel,omitempty"`
	// Scale bounds; zero means the formatter default.
	Min int `json:"min,omitempty" yaml:"min,omitempty"`
	Max int `json:"max,omitempty" yaml:"max,omitempty"`
}

type Section struct {
	ID        string        `json:"id" yaml:"id"`
	Title     LocalizedText `json:"title,omitempty" yaml:"title,omitempty"`
	Questions []Question    `json:"questions" yaml:"questions"`
}

// Scheme names the sections answered in one questionnaire mode.
type Scheme struct {
	Sections []string `json:"sections" yaml:"sections"`
}

// Document is one per-locale question file of an assessment.
type Document struct {
	Sections []Section        `json:"sections" yaml:"sections"`
	Schemes  map[string]Scheme `json:"schemes,omitempty" yaml:"schemes,omitempty"`
}

// ModeFull accepts additional module sections on top of its scheme.
const ModeFull = "full"

// Questions flattens the sections of the given mode in order. Extra section
// ids are only honored in full mode; duplicates and unknown ids are skipped.
func (d *Document) Questions(mode string, extra []string) []Question {
	if d == nil {
		return nil
	}
	scheme, ok := d.Schemes[mode]
	if !ok {
		return nil
	}
	ids := append([]string{}, scheme.Sections...)
	if mode == ModeFull {
		ids = append(ids, extra...)
	}
	seen := make(map[string]bool, len(ids))
	var out []Question
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		sec := d.section(id)
		if sec == nil {
			continue
		}
		out = append(out, sec.Questions...)
	}
	return out
}

func (d *Document) section(id string) *Section {
	for i := range d.Sections {
		if d.Sections[i].ID == id {
			return &d.Sections[i]
		}
	}
	return nil
}

// Each calls fn for every question of every section in document order.
func (d *Document) Each(fn func(Question)) {
	if d == nil {
		return
	}
	for _, sec := range d.Sections {
		for _, q := range sec.Questions {
			fn(q)
		}
	}
}

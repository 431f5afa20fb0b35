package survey

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed categories.yaml
var defaultCategoriesYAML []byte

type CategoryName string

const (
	CategoryMBTI     CategoryName = "mbti"
	CategoryValues   CategoryName = "values"
	CategoryClinical CategoryName = "clinical"
	CategorySexual   CategoryName = "sexual"
	CategoryThinking CategoryName = "thinking"
)

var knownCategories = map[CategoryName]bool{
	CategoryMBTI: true, CategoryValues: true, CategoryClinical: true,
	CategorySexual: true, CategoryThinking: true,
}

type CategorySpec struct {
	Name        CategoryName `yaml:"name"`
	Label       string       `yaml:"label"`
	Prefixes    []string     `yaml:"prefixes"`
	Instruction string       `yaml:"instruction"`
}

// RiskRule flags a screening item whose high-frequency answers must surface
// a safety warning in the analysis.
type RiskRule struct {
	Question    string   `yaml:"question"`
	Values      []string `yaml:"values"`
	Phrases     []string `yaml:"phrases"`
	Marker      string   `yaml:"marker"`
	Instruction string   `yaml:"instruction"`
}

type CategoryTable struct {
	Categories []CategorySpec `yaml:"categories"`
	Risk       RiskRule       `yaml:"risk"`
}

// LoadCategories parses and validates a category table.
func LoadCategories(raw []byte) (*CategoryTable, error) {
	var t CategoryTable
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("categories: %w", err)
	}
	seen := map[CategoryName]bool{}
	for _, c := range t.Categories {
		if !knownCategories[c.Name] {
			return nil, fmt.Errorf("categories: unknown category %q", c.Name)
		}
		if seen[c.Name] {
			return nil, fmt.Errorf("categories: duplicate category %q", c.Name)
		}
		seen[c.Name] = true
		if len(c.Prefixes) == 0 {
			return nil, fmt.Errorf("categories: %s has no prefixes", c.Name)
		}
	}
	if t.Risk.Question != "" && strings.TrimSpace(t.Risk.Marker) == "" {
		return nil, fmt.Errorf("categories: risk rule for %s has no marker", t.Risk.Question)
	}
	return &t, nil
}

// DefaultCategories returns the embedded table.
func DefaultCategories() *CategoryTable {
	t, err := LoadCategories(defaultCategoriesYAML)
	if err != nil {
		panic(err)
	}
	return t
}

// Categories is the detection result for one submission.
type Categories struct {
	MBTI     bool `json:"mbti"`
	Values   bool `json:"values"`
	Clinical bool `json:"clinical"`
	Sexual   bool `json:"sexual"`
	Thinking bool `json:"thinking"`
	// Risk is the critical safety flag; it implies Clinical.
	Risk bool `json:"risk"`
}

func (c Categories) Has(name CategoryName) bool {
	switch name {
	case CategoryMBTI:
		return c.MBTI
	case CategoryValues:
		return c.Values
	case CategoryClinical:
		return c.Clinical
	case CategorySexual:
		return c.Sexual
	case CategoryThinking:
		return c.Thinking
	}
	return false
}

func (c *Categories) set(name CategoryName) {
	switch name {
	case CategoryMBTI:
		c.MBTI = true
	case CategoryValues:
		c.Values = true
	case CategoryClinical:
		c.Clinical = true
	case CategorySexual:
		c.Sexual = true
	case CategoryThinking:
		c.Thinking = true
	}
}

// Any reports whether at least one dimension was detected.
func (c Categories) Any() bool {
	return c.MBTI || c.Values || c.Clinical || c.Sexual || c.Thinking
}

type Detector struct {
	table *CategoryTable
}

// NewDetector uses the embedded table when t is nil.
func NewDetector(t *CategoryTable) *Detector {
	if t == nil {
		t = DefaultCategories()
	}
	return &Detector{table: t}
}

// Detect is a pure prefix-membership test over the answered ids.
func (d *Detector) Detect(answers []Answer) Categories {
	var c Categories
	for _, a := range answers {
		for _, spec := range d.table.Categories {
			if c.Has(spec.Name) {
				continue
			}
			for _, p := range spec.Prefixes {
				if strings.HasPrefix(a.QuestionID, p) {
					c.set(spec.Name)
					break
				}
			}
		}
		if d.isRisk(a) {
			c.Risk = true
			c.Clinical = true
		}
	}
	return c
}

func (d *Detector) isRisk(a Answer) bool {
	r := d.table.Risk
	if r.Question == "" || a.QuestionID != r.Question {
		return false
	}
	v := strings.TrimSpace(a.Value)
	for _, want := range r.Values {
		if v == want {
			return true
		}
	}
	lower := strings.ToLower(v)
	for _, p := range r.Phrases {
		if p != "" && strings.Contains(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

// Instructions renders the conditional instruction block naming only the
// detected dimensions. It is empty when nothing was detected.
func (d *Detector) Instructions(c Categories) string {
	if !c.Any() {
		return ""
	}
	var b strings.Builder
	b.WriteString("The questionnaire contains data ONLY for the dimensions below. Analyze these and nothing else:\n")
	r := d.table.Risk
	riskWritten := false
	for _, spec := range d.table.Categories {
		if !c.Has(spec.Name) {
			continue
		}
		prefixes := make([]string, len(spec.Prefixes))
		for i, p := range spec.Prefixes {
			prefixes[i] = p + "*"
		}
		fmt.Fprintf(&b, "- %s [%s]: %s", spec.Label, strings.Join(prefixes, ", "), strings.TrimSpace(spec.Instruction))
		if spec.Name == CategoryClinical && c.Risk {
			fmt.Fprintf(&b, "\n  %s (%s). %s", r.Marker, r.Question, strings.TrimSpace(r.Instruction))
			riskWritten = true
		}
		b.WriteString("\n")
	}
	if c.Risk && !riskWritten {
		fmt.Fprintf(&b, "- SAFETY: %s (%s). %s\n", r.Marker, r.Question, strings.TrimSpace(r.Instruction))
	}
	return strings.TrimRight(b.String(), "\n")
}

// Marker returns the configured safety marker string.
func (d *Detector) Marker() string { return d.table.Risk.Marker }

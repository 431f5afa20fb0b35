package survey

import (
	"fmt"
	"strings"

	"holoprofile/internal/questionbank"
)

// Resolver looks up question metadata; questionbank.Bank satisfies it.
type Resolver interface {
	Lookup(id, lang string) (questionbank.Question, bool)
}

const (
	defaultScaleMin = 1
	defaultScaleMax = 7
)

// Formatter renders answers into the context block read by the model.
type Formatter struct {
	resolver Resolver
	scaleMin int
	scaleMax int
}

type FormatterOption func(*Formatter)

// WithScaleBounds sets the bounds assumed for scale questions that do not
// declare their own.
func WithScaleBounds(min, max int) FormatterOption {
	return func(f *Formatter) {
		if min < max {
			f.scaleMin, f.scaleMax = min, max
		}
	}
}

func NewFormatter(r Resolver, opts ...FormatterOption) *Formatter {
	f := &Formatter{resolver: r, scaleMin: defaultScaleMin, scaleMax: defaultScaleMax}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Format emits one block per answer, in input order, separated by a blank
// line. Unresolved ids degrade to the raw id as question text.
func (f *Formatter) Format(answers []Answer, lang string) string {
	blocks := make([]string, 0, len(answers))
	for _, a := range answers {
		blocks = append(blocks, f.block(a, lang))
	}
	return strings.Join(blocks, "\n\n")
}

func (f *Formatter) block(a Answer, lang string) string {
	var q questionbank.Question
	ok := false
	if f.resolver != nil {
		q, ok = f.resolver.Lookup(a.QuestionID, lang)
	}
	if !ok {
		return fmt.Sprintf("[%s] %s\nAnswer: %s", a.QuestionID, a.QuestionID, a.Value)
	}

	text := q.Text.Get(lang)
	if text == "" {
		text = a.QuestionID
	}
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s\n", a.QuestionID, text)

	switch q.Type {
	case questionbank.TypeScale:
		lo, hi := f.bounds(q)
		left, right := q.LeftLabel.Get(lang), q.RightLabel.Get(lang)
		if left != "" || right != "" {
			fmt.Fprintf(&b, "Type: scale (%d = %s, %d = %s)\n", lo, orDash(left), hi, orDash(right))
		} else {
			fmt.Fprintf(&b, "Type: scale (%d-%d)\n", lo, hi)
		}
		fmt.Fprintf(&b, "Answer: %s / %d", a.Value, hi)
	case questionbank.TypeChoice:
		b.WriteString("Type: choice\n")
		if len(q.Options) > 0 {
			opts := make([]string, 0, len(q.Options))
			for i, o := range q.Options {
				opts = append(opts, fmt.Sprintf("%c) %s", optionLabel(i), o.Get(lang)))
			}
			fmt.Fprintf(&b, "Options: %s\n", strings.Join(opts, " | "))
		}
		fmt.Fprintf(&b, "Answer: %s", a.Value)
	default:
		fmt.Fprintf(&b, "Answer: %s", a.Value)
	}
	return b.String()
}

func (f *Formatter) bounds(q questionbank.Question) (int, int) {
	if q.Min < q.Max {
		return q.Min, q.Max
	}
	return f.scaleMin, f.scaleMax
}

func optionLabel(i int) rune {
	if i < 26 {
		return rune('A' + i)
	}
	return '*'
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

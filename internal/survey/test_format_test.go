package survey

import (
	"encoding/json"
	"strings"
	"testing"

	"holoprofile/internal/questionbank"
	"holoprofile/internal/tester"
)

func fakeBank() *questionbank.Bank {
	doc := &questionbank.Document{Sections: []questionbank.Section{{
		ID: "core",
		Questions: []questionbank.Question{
			{
				ID: "mbti_1", Type: questionbank.TypeScale,
				Text:       questionbank.LocalizedText{"en": "I recharge by being alone", "zh": "我通过独处恢复精力"},
				LeftLabel:  questionbank.LocalizedText{"en": "Disagree"},
				RightLabel: questionbank.LocalizedText{"en": "Agree"},
			},
			{
				ID: "val_1", Type: questionbank.TypeChoice,
				Text: questionbank.LocalizedText{"en": "Markets should be"},
				Options: []questionbank.LocalizedText{
					{"en": "Free"}, {"en": "Regulated"},
				},
			},
			{ID: "think_1", Type: questionbank.TypeText, Text: questionbank.LocalizedText{"en": "Describe a belief you changed"}},
			{ID: "phq9_1", Type: questionbank.TypeScale, Text: questionbank.LocalizedText{"en": "Little interest"}, Min: 0, Max: 3},
		},
	}}}
	return questionbank.New(map[questionbank.Locale][]*questionbank.Document{questionbank.LocaleEN: {doc}})
}

func TestFormatScaleChoiceAndText(t *testing.T) {
	f := NewFormatter(fakeBank())
	out := f.Format([]Answer{
		{QuestionID: "mbti_1", Value: "4"},
		{QuestionID: "val_1", Value: "Regulated"},
		{QuestionID: "think_1", Value: "I used to trust experts blindly."},
	}, "en")

	blocks := strings.Split(out, "\n\n")
	tester.Eq(t, len(blocks), 3)
	tester.Eq(t, blocks[0], "[mbti_1] I recharge by being alone\nType: scale (1 = Disagree, 7 = Agree)\nAnswer: 4 / 7")
	tester.Eq(t, blocks[1], "[val_1] Markets should be\nType: choice\nOptions: A) Free | B) Regulated\nAnswer: Regulated")
	tester.Eq(t, blocks[2], "[think_1] Describe a belief you changed\nAnswer: I used to trust experts blindly.")
}

func TestFormatUsesQuestionScaleBounds(t *testing.T) {
	out := NewFormatter(fakeBank()).Format([]Answer{{QuestionID: "phq9_1", Value: "2"}}, "en")
	tester.Contains(t, out, "Type: scale (0-3)")
	tester.Contains(t, out, "Answer: 2 / 3")
}

func TestFormatConfiguredDefaultBounds(t *testing.T) {
	out := NewFormatter(fakeBank(), WithScaleBounds(1, 5)).Format([]Answer{{QuestionID: "mbti_1", Value: "5"}}, "en")
	tester.Contains(t, out, "5 = Agree")
	tester.Contains(t, out, "Answer: 5 / 5")
}

func TestFormatUnresolvedFallsBackToID(t *testing.T) {
	out := NewFormatter(fakeBank()).Format([]Answer{{QuestionID: "legacy_42", Value: "yes"}}, "en")
	tester.Eq(t, out, "[legacy_42] legacy_42\nAnswer: yes")

	out = NewFormatter(nil).Format([]Answer{{QuestionID: "mbti_1", Value: "3"}}, "en")
	tester.Eq(t, out, "[mbti_1] mbti_1\nAnswer: 3")
}

func TestFormatPreservesOrderAndIsIdempotent(t *testing.T) {
	f := NewFormatter(fakeBank())
	answers := []Answer{
		{QuestionID: "think_1", Value: "a"},
		{QuestionID: "zzz", Value: "b"},
		{QuestionID: "mbti_1", Value: "2"},
		{QuestionID: "val_1", Value: "Free"},
	}
	first := f.Format(answers, "en")
	second := f.Format(answers, "en")
	tester.Eq(t, first, second)

	var ids []string
	for _, blk := range strings.Split(first, "\n\n") {
		ids = append(ids, blk[1:strings.Index(blk, "]")])
	}
	tester.Eq(t, ids, []string{"think_1", "zzz", "mbti_1", "val_1"})
}

func TestFormatEmpty(t *testing.T) {
	tester.Eq(t, NewFormatter(fakeBank()).Format(nil, "en"), "")
}

func TestAnswerUnmarshalAcceptsNumbers(t *testing.T) {
	var answers []Answer
	tester.NoErr(t, json.Unmarshal([]byte(`[
		{"questionId":"mbti_1","value":4},
		{"questionId":" val_1 ","value":"Free"},
		{"questionId":"x","value":true},
		{"questionId":"y","value":null}
	]`), &answers))
	tester.Eq(t, answers, []Answer{
		{QuestionID: "mbti_1", Value: "4"},
		{QuestionID: "val_1", Value: "Free"},
		{QuestionID: "x", Value: "true"},
		{QuestionID: "y", Value: ""},
	})

	var bad Answer
	tester.True(t, json.Unmarshal([]byte(`{"questionId":"z","value":{"a":1}}`), &bad) != nil, "object values are rejected")
}

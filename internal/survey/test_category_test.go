package survey

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectUnrecognizedPrefixes(t *testing.T) {
	d := NewDetector(nil)
	c := d.Detect([]Answer{{QuestionID: "foo_1", Value: "1"}, {QuestionID: "MBTI_1", Value: "2"}, {QuestionID: "", Value: "x"}})
	assert.Equal(t, Categories{}, c)
	assert.Empty(t, d.Instructions(c))
}

func TestDetectEmpty(t *testing.T) {
	d := NewDetector(nil)
	assert.False(t, d.Detect(nil).Any())
}

func TestDetectEachCategory(t *testing.T) {
	d := NewDetector(nil)
	cases := []struct {
		id   string
		want Categories
	}{
		{"mbti_1", Categories{MBTI: true}},
		{"val_econ_3", Categories{Values: true}},
		{"soc_2", Categories{Values: true}},
		{"phq9_1", Categories{Clinical: true}},
		{"gad7_4", Categories{Clinical: true}},
		{"anxiety_2", Categories{Clinical: true}},
		{"mdq_3", Categories{Clinical: true}},
		{"mood_1", Categories{Clinical: true}},
		{"attach_5", Categories{Clinical: true}},
		{"behavior_9", Categories{Clinical: true}},
		{"sex_1", Categories{Sexual: true}},
		{"think_7", Categories{Thinking: true}},
	}
	for _, tc := range cases {
		t.Run(tc.id, func(t *testing.T) {
			assert.Equal(t, tc.want, d.Detect([]Answer{{QuestionID: tc.id, Value: "1"}}))
		})
	}
}

func TestDetectMultipleFlags(t *testing.T) {
	d := NewDetector(nil)
	c := d.Detect([]Answer{
		{QuestionID: "mbti_1", Value: "4"},
		{QuestionID: "think_1", Value: "3"},
		{QuestionID: "sex_2", Value: "1"},
	})
	assert.Equal(t, Categories{MBTI: true, Sexual: true, Thinking: true}, c)

	block := d.Instructions(c)
	assert.Contains(t, block, "COGNITIVE (MBTI)")
	assert.Contains(t, block, "SEXUAL PSYCHOLOGY")
	assert.Contains(t, block, "INDEPENDENT THINKING")
	assert.NotContains(t, block, "CLINICAL")
	assert.NotContains(t, block, "VALUES")
}

func TestDetectScenarioA(t *testing.T) {
	c := NewDetector(nil).Detect([]Answer{{QuestionID: "mbti_1", Value: "4"}})
	assert.Equal(t, Categories{MBTI: true}, c)
}

func TestRiskFlagRaisesSafetyMarker(t *testing.T) {
	d := NewDetector(nil)
	for _, v := range []string{"7", "4", "5", "几乎每天", "超过一半以上的天数", "Nearly every day", "ほぼ毎日"} {
		t.Run(v, func(t *testing.T) {
			c := d.Detect([]Answer{{QuestionID: "phq9_9_risk", Value: v}})
			require.True(t, c.Risk)
			require.True(t, c.Clinical)

			block := d.Instructions(c)
			clinical := block[strings.Index(block, "CLINICAL SCREENING"):]
			assert.Contains(t, clinical, "CRITICAL: SUICIDE IDEATION DETECTED")
		})
	}
}

func TestRiskFlagNotRaisedForLowFrequency(t *testing.T) {
	d := NewDetector(nil)
	for _, v := range []string{"1", "0", "完全不会", "Not at all"} {
		c := d.Detect([]Answer{{QuestionID: "phq9_9_risk", Value: v}})
		assert.False(t, c.Risk, v)
		assert.True(t, c.Clinical, v)
		assert.NotContains(t, d.Instructions(c), d.Marker())
	}
	c := d.Detect([]Answer{{QuestionID: "phq9_8", Value: "7"}})
	assert.False(t, c.Risk)
}

func TestRiskWithoutClinicalCategoryStillWarns(t *testing.T) {
	table, err := LoadCategories([]byte(`
categories:
  - name: mbti
    label: COGNITIVE
    prefixes: [mbti_]
risk:
  question: risk_q
  values: ["yes"]
  marker: "CRITICAL: SAFETY"
`))
	require.NoError(t, err)
	d := NewDetector(table)
	c := d.Detect([]Answer{{QuestionID: "risk_q", Value: "yes"}})
	assert.True(t, c.Risk)
	assert.Contains(t, d.Instructions(c), "CRITICAL: SAFETY")
}

func TestLoadCategoriesValidation(t *testing.T) {
	_, err := LoadCategories([]byte("categories:\n  - name: astrology\n    prefixes: [astro_]\n"))
	assert.Error(t, err)

	_, err = LoadCategories([]byte("categories:\n  - name: mbti\n    prefixes: []\n"))
	assert.Error(t, err)

	_, err = LoadCategories([]byte("categories:\n  - name: mbti\n    prefixes: [a_]\n  - name: mbti\n    prefixes: [b_]\n"))
	assert.Error(t, err)

	_, err = LoadCategories([]byte("risk:\n  question: q\n"))
	assert.Error(t, err)
}

func TestDefaultCategoriesPrefixSet(t *testing.T) {
	table := DefaultCategories()
	got := map[CategoryName][]string{}
	for _, c := range table.Categories {
		got[c.Name] = c.Prefixes
	}
	assert.Equal(t, []string{"mbti_"}, got[CategoryMBTI])
	assert.Equal(t, []string{"val_", "soc_"}, got[CategoryValues])
	assert.Equal(t, []string{"sex_"}, got[CategorySexual])
	assert.Equal(t, []string{"think_"}, got[CategoryThinking])
	assert.Contains(t, got[CategoryClinical], "phq9_")
	assert.Equal(t, "phq9_9_risk", table.Risk.Question)
}

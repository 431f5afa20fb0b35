package artifact

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrMissingIdentityCard marks a profile that cannot be served.
var ErrMissingIdentityCard = errors.New("profile: identity_card missing")

// Score is a 0-100 value. It decodes from JSON numbers or numeric strings
// ("85", "85%") since free-text generations are not always typed.
type Score int

const (
	ScoreMin Score = 0
	ScoreMax Score = 100
)

func (s *Score) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*s = 0
		return nil
	}
	raw := string(b)
	if b[0] == '"' {
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
		raw = strings.TrimSuffix(strings.TrimSpace(raw), "%")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("score: %q is not a number", raw)
	}
	// Float to int conversion is implementation-defined outside the int range.
	f = math.Max(math.Min(math.Round(f), math.MaxInt32), math.MinInt32)
	*s = Score(f)
	return nil
}

func (s Score) InRange() bool { return s >= ScoreMin && s <= ScoreMax }

func (s *Score) clamp() bool {
	switch {
	case *s < ScoreMin:
		*s = ScoreMin
	case *s > ScoreMax:
		*s = ScoreMax
	default:
		return false
	}
	return true
}

// FinalProfile is the synthesized report.
type FinalProfile struct {
	IdentityCard      *IdentityCard     `json:"identity_card"`
	ClinicalFindings  ClinicalFindings  `json:"clinical_findings"`
	Scores            Scores            `json:"scores"`
	Dimensions        Dimensions        `json:"dimensions"`
	IntegrityAnalysis IntegrityAnalysis `json:"integrity_analysis"`
	CelebrityMatch    CelebrityMatch    `json:"celebrity_match"`
	Highlights        Highlights        `json:"highlights"`
	CareerAnalysis    CareerAnalysis    `json:"career_analysis"`
	SocialAnalysis    SocialAnalysis    `json:"social_analysis"`
	Analysis          Analysis          `json:"analysis"`
}

type IdentityCard struct {
	Archetype       string   `json:"archetype" jsonschema:"description=Headline archetype title"`
	OneLiner        string   `json:"one_liner"`
	MBTI            string   `json:"mbti" jsonschema:"description=Four-letter MBTI type such as INTJ"`
	Alignment       string   `json:"alignment"`
	Ideology        string   `json:"ideology"`
	ClinicalLabel   string   `json:"clinical_label"`
	PersonalityTags []string `json:"personality_tags"`
}

type ClinicalFinding struct {
	Level       string `json:"level" jsonschema:"description=None / Low / Medium / High"`
	Explanation string `json:"explanation"`
}

type Attachment struct {
	Type        string `json:"type" jsonschema:"description=Secure / Anxious / Avoidant / Disorganized"`
	Description string `json:"description"`
}

type ClinicalFindings struct {
	Depression       ClinicalFinding `json:"depression"`
	Anxiety          ClinicalFinding `json:"anxiety"`
	ADHD             ClinicalFinding `json:"adhd"`
	Narcissism       ClinicalFinding `json:"narcissism"`
	SexualRepression ClinicalFinding `json:"sexual_repression"`
	Attachment       Attachment      `json:"attachment"`
}

type Scores struct {
	RepressionIndex     Score `json:"repression_index" jsonschema:"minimum=0,maximum=100"`
	HappinessIndex      Score `json:"happiness_index" jsonschema:"minimum=0,maximum=100"`
	SocialAdaptation    Score `json:"social_adaptation" jsonschema:"minimum=0,maximum=100"`
	IndependentThinking Score `json:"independent_thinking" jsonschema:"minimum=0,maximum=100"`
}

// Dimension is one ideology axis; Value 0 and 100 are the two poles.
type Dimension struct {
	Value     Score  `json:"value" jsonschema:"minimum=0,maximum=100"`
	AxisLabel string `json:"axis_label"`
}

type Dimensions struct {
	Economic   Dimension `json:"economic"`
	Diplomatic Dimension `json:"diplomatic"`
	Civil      Dimension `json:"civil"`
	Societal   Dimension `json:"societal"`
}

type IntegrityAnalysis struct {
	ConsistencyScore Score    `json:"consistency_score" jsonschema:"minimum=0,maximum=100"`
	Conflicts        []string `json:"conflicts"`
	Verdict          string   `json:"verdict"`
}

type CelebrityMatch struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

type Highlights struct {
	Talents     []string `json:"talents"`
	Liabilities []string `json:"liabilities"`
}

type CareerAnalysis struct {
	SuitableCareers   []string `json:"suitable_careers"`
	UnsuitableCareers []string `json:"unsuitable_careers"`
	WorkplaceAdvice   string   `json:"workplace_advice"`
}

type CircleBreakdown struct {
	DeepConnections    string `json:"deep_connections"`
	CasualFriends      string `json:"casual_friends"`
	UselessConnections string `json:"useless_connections"`
}

type SocialAnalysis struct {
	Overview        string          `json:"overview"`
	CircleBreakdown CircleBreakdown `json:"circle_breakdown"`
}

type Analysis struct {
	Strengths    string `json:"strengths"`
	DarkSide     string `json:"dark_side"`
	IdeologyNote string `json:"ideology_note"`
	ClinicalNote string `json:"clinical_note"`
	Advice       string `json:"advice"`
}

// BoundedField names one 0-100 field of a profile.
type BoundedField struct {
	Path  string
	Score *Score
}

// BoundedFields lists every 0-100 field of p.
func (p *FinalProfile) BoundedFields() []BoundedField {
	return []BoundedField{
		{"scores.repression_index", &p.Scores.RepressionIndex},
		{"scores.happiness_index", &p.Scores.HappinessIndex},
		{"scores.social_adaptation", &p.Scores.SocialAdaptation},
		{"scores.independent_thinking", &p.Scores.IndependentThinking},
		{"dimensions.economic.value", &p.Dimensions.Economic.Value},
		{"dimensions.diplomatic.value", &p.Dimensions.Diplomatic.Value},
		{"dimensions.civil.value", &p.Dimensions.Civil.Value},
		{"dimensions.societal.value", &p.Dimensions.Societal.Value},
		{"integrity_analysis.consistency_score", &p.IntegrityAnalysis.ConsistencyScore},
	}
}

// Validate reports a missing identity card or any out-of-range score.
func (p *FinalProfile) Validate() error {
	if p == nil || p.IdentityCard == nil {
		return ErrMissingIdentityCard
	}
	var bad []string
	for _, f := range p.BoundedFields() {
		if !f.Score.InRange() {
			bad = append(bad, fmt.Sprintf("%s=%d", f.Path, *f.Score))
		}
	}
	if len(bad) > 0 {
		return fmt.Errorf("profile: out of range: %s", strings.Join(bad, ", "))
	}
	return nil
}

// Normalize clamps every bounded field into [0,100], upper-cases the MBTI
// code and replaces nil slices with empty ones. It returns the paths of the
// clamped fields.
func (p *FinalProfile) Normalize() []string {
	if p == nil {
		return nil
	}
	var clamped []string
	for _, f := range p.BoundedFields() {
		if f.Score.clamp() {
			clamped = append(clamped, f.Path)
		}
	}
	if p.IdentityCard != nil {
		p.IdentityCard.MBTI = strings.ToUpper(strings.TrimSpace(p.IdentityCard.MBTI))
		p.IdentityCard.PersonalityTags = nonNil(p.IdentityCard.PersonalityTags)
	}
	p.IntegrityAnalysis.Conflicts = nonNil(p.IntegrityAnalysis.Conflicts)
	p.Highlights.Talents = nonNil(p.Highlights.Talents)
	p.Highlights.Liabilities = nonNil(p.Highlights.Liabilities)
	p.CareerAnalysis.SuitableCareers = nonNil(p.CareerAnalysis.SuitableCareers)
	p.CareerAnalysis.UnsuitableCareers = nonNil(p.CareerAnalysis.UnsuitableCareers)
	return clamped
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Decode parses raw JSON into a profile. A document without an
// identity_card key is rejected before field decoding.
func Decode(raw []byte) (*FinalProfile, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, err
	}
	card, ok := probe["identity_card"]
	if !ok || bytes.Equal(bytes.TrimSpace(card), []byte("null")) {
		return nil, ErrMissingIdentityCard
	}
	var p FinalProfile
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

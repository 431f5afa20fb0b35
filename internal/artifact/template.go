package artifact

import "encoding/json"

func finding(level, explanation string) ClinicalFinding {
	return ClinicalFinding{Level: level, Explanation: explanation}
}

// Example is the JSON template embedded in free-text synthesis prompts.
func Example() FinalProfile {
	return FinalProfile{
		IdentityCard: &IdentityCard{
			Archetype:       "The Machiavellian Saint",
			OneLiner:        "You save the world only to rule it.",
			MBTI:            "ENTJ",
			Alignment:       "Chaotic Good",
			Ideology:        "Social Democracy",
			ClinicalLabel:   "High-functioning anxious achiever",
			PersonalityTags: []string{"Ultra-Ambitious", "Hyper-Rational"},
		},
		ClinicalFindings: ClinicalFindings{
			Depression:       finding("None/Low/Medium/High", "Brief screening insight..."),
			Anxiety:          finding("None/Low/Medium/High", "Brief screening insight..."),
			ADHD:             finding("None/Low/Medium/High", "Brief screening insight..."),
			Narcissism:       finding("None/Low/Medium/High", "Brief screening insight..."),
			SexualRepression: finding("None/Low/Medium/High", "Brief screening insight..."),
			Attachment:       Attachment{Type: "Secure/Anxious/Avoidant/Disorganized", Description: "Brief insight..."},
		},
		Scores: Scores{RepressionIndex: 40, HappinessIndex: 55, SocialAdaptation: 70, IndependentThinking: 80},
		Dimensions: Dimensions{
			Economic:   Dimension{Value: 35, AxisLabel: "Equality vs Markets"},
			Diplomatic: Dimension{Value: 60, AxisLabel: "Nation vs Globe"},
			Civil:      Dimension{Value: 70, AxisLabel: "Authority vs Liberty"},
			Societal:   Dimension{Value: 65, AxisLabel: "Tradition vs Progress"},
		},
		IntegrityAnalysis: IntegrityAnalysis{
			ConsistencyScore: 75,
			Conflicts:        []string{"Q1 vs Q5: claims high empathy but picks the selfish action in scenario A."},
			Verdict:          "Truthful/Exaggerating/Deceptive with one sentence of reasoning",
		},
		CelebrityMatch: CelebrityMatch{Name: "Famous person", Reason: "Why they match..."},
		Highlights:     Highlights{Talents: []string{"..."}, Liabilities: []string{"..."}},
		CareerAnalysis: CareerAnalysis{
			SuitableCareers:   []string{"..."},
			UnsuitableCareers: []string{"..."},
			WorkplaceAdvice:   "...",
		},
		SocialAnalysis: SocialAnalysis{
			Overview:        "...",
			CircleBreakdown: CircleBreakdown{DeepConnections: "...", CasualFriends: "...", UselessConnections: "..."},
		},
		Analysis: Analysis{
			Strengths:    "Praise the user...",
			DarkSide:     "The dangerous part...",
			IdeologyNote: "Why this ideology fits...",
			ClinicalNote: "Screening summary...",
			Advice:       "One actionable step.",
		},
	}
}

// ExampleJSON renders Example as indented JSON.
func ExampleJSON() string {
	b, err := json.MarshalIndent(Example(), "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}

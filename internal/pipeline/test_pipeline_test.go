package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"holoprofile/internal/artifact"
	"holoprofile/internal/llm"
	llmclient "holoprofile/internal/llmClient"
	"holoprofile/internal/survey"
)

type stubBuilder struct {
	client *llmclient.FakeClient
	temps  []float64
	cfgs   []llmclient.ModelConfig
}

func (b *stubBuilder) Build(cfg llmclient.ModelConfig, temperature float64) llmclient.LLMClient {
	b.temps = append(b.temps, temperature)
	b.cfgs = append(b.cfgs, cfg)
	return b.client
}

func profileJSON(t *testing.T, mutate func(*artifact.FinalProfile)) string {
	t.Helper()
	p := artifact.Example()
	if mutate != nil {
		mutate(&p)
	}
	b, err := json.Marshal(p)
	require.NoError(t, err)
	return string(b)
}

// scripted answers text calls by phase and structured calls with structured.
func scripted(analysis, synthesis string, structured func() (json.RawMessage, error)) *llmclient.FakeClient {
	return &llmclient.FakeClient{
		ChunkRunes: 8,
		TextFn: func(ctx context.Context, _ llmclient.Prompt) (string, error) {
			switch llm.PhaseFrom(ctx) {
			case llm.PhaseAnalysis:
				return analysis, nil
			case llm.PhaseSynthesis:
				return synthesis, nil
			}
			return "", errors.New("unexpected phase")
		},
		StructuredFn: func(context.Context, llmclient.Prompt, llmclient.Schema) (json.RawMessage, error) {
			if structured == nil {
				return nil, errors.New("structured fallback not expected")
			}
			return structured()
		},
	}
}

func newTestPipeline(c *llmclient.FakeClient) (*Pipeline, *stubBuilder) {
	b := &stubBuilder{client: c}
	return New(b, survey.NewFormatter(nil), survey.NewDetector(nil)), b
}

func TestRunBufferedScenarioA(t *testing.T) {
	synthesis := "Here is the report:\n```json\n" + profileJSON(t, func(p *artifact.FinalProfile) {
		p.IdentityCard.MBTI = "intj"
		p.Scores.HappinessIndex = 150
		p.Dimensions.Civil.Value = -3
	}) + "\n```"
	c := scripted("deep analysis", synthesis, nil)
	p, b := newTestPipeline(c)

	prof, err := p.Run(context.Background(), State{
		Answers: []survey.Answer{{QuestionID: "mbti_1", Value: "4"}},
		Config:  llmclient.ModelConfig{Model: "foo/bar"},
		Lang:    "en",
	})
	require.NoError(t, err)
	require.NotNil(t, prof.IdentityCard)
	assert.Equal(t, "INTJ", prof.IdentityCard.MBTI)
	assert.Len(t, prof.IdentityCard.MBTI, 4)
	assert.EqualValues(t, 100, prof.Scores.HappinessIndex)
	assert.EqualValues(t, 0, prof.Dimensions.Civil.Value)
	require.NoError(t, prof.Validate())

	assert.Equal(t, 2, c.CallCount("generate"))
	assert.Equal(t, 0, c.CallCount("stream"))
	assert.Equal(t, 0, c.CallCount("structured"))
	assert.Equal(t, []float64{DefaultAnalysisTemperature, DefaultSynthesisTemperature}, b.temps)
	assert.Equal(t, "foo/bar", b.cfgs[0].Model)

	calls := c.Calls()
	analysisPrompt := calls[0].Prompt
	assert.Contains(t, analysisPrompt.System, "COGNITIVE (MBTI)")
	assert.NotContains(t, analysisPrompt.System, "CLINICAL SCREENING")
	assert.Contains(t, analysisPrompt.System, "English")
	assert.Contains(t, analysisPrompt.User, "[mbti_1] mbti_1\nAnswer: 4")

	synthesisPrompt := calls[1].Prompt
	assert.Contains(t, synthesisPrompt.User, "deep analysis")
	assert.Contains(t, synthesisPrompt.User, "[TEMPLATE]")
	assert.Contains(t, synthesisPrompt.System, "Every string value must be written in English")
}

func TestSynthesisFallsBackExactlyOnce(t *testing.T) {
	for name, text := range map[string]string{
		"not json":         "not json at all",
		"no identity card": `{"scores":{"happiness_index":50}}`,
		"truncated":        `{"identity_card":{"mbti":"INTJ"`,
	} {
		t.Run(name, func(t *testing.T) {
			c := scripted("analysis", text, func() (json.RawMessage, error) {
				return json.RawMessage(artifact.ExampleJSON()), nil
			})
			p, _ := newTestPipeline(c)
			prof, err := p.Run(context.Background(), State{Answers: []survey.Answer{{QuestionID: "x", Value: "1"}}})
			require.NoError(t, err)
			require.NotNil(t, prof.IdentityCard)
			assert.Equal(t, 1, c.CallCount("structured"))
		})
	}
}

func TestFallbackPromptCarriesSchemaNotTemplate(t *testing.T) {
	var got llmclient.Schema
	c := scripted("analysis", "nope", nil)
	c.StructuredFn = func(_ context.Context, p llmclient.Prompt, s llmclient.Schema) (json.RawMessage, error) {
		got = s
		assert.NotContains(t, p.User, "[TEMPLATE]")
		assert.NotContains(t, p.System, "TEMPLATE")
		assert.Contains(t, p.System, "conforms to the response schema")
		return json.RawMessage(artifact.ExampleJSON()), nil
	}
	p, _ := newTestPipeline(c)
	_, err := p.Run(context.Background(), State{Answers: []survey.Answer{{QuestionID: "x", Value: "1"}}})
	require.NoError(t, err)
	assert.Equal(t, artifact.SchemaName, got.Name)
	assert.Equal(t, "object", got.JSON["type"])
}

func TestFallbackFailureSurfaces(t *testing.T) {
	provider := &llmclient.ProviderError{Provider: "Fake", Status: 500, Err: errors.New("boom")}
	c := scripted("analysis", "not json", func() (json.RawMessage, error) { return nil, provider })
	p, _ := newTestPipeline(c)
	_, err := p.Run(context.Background(), State{Answers: []survey.Answer{{QuestionID: "x", Value: "1"}}})
	var pe *llmclient.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 1, c.CallCount("structured"))

	c = scripted("analysis", "not json", func() (json.RawMessage, error) { return json.RawMessage(`{"x":1}`), nil })
	p, _ = newTestPipeline(c)
	_, err = p.Run(context.Background(), State{Answers: []survey.Answer{{QuestionID: "x", Value: "1"}}})
	var parseErr *SynthesisParseError
	require.True(t, errors.As(err, &parseErr))
}

func TestRunRejectsEmptyAnswersWithoutModelCall(t *testing.T) {
	c := scripted("a", "b", nil)
	p, _ := newTestPipeline(c)
	_, err := p.Run(context.Background(), State{})
	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, ErrNoAnswers, ErrorMessage(err))
	assert.Equal(t, 0, c.CallCount(""))
}

func TestRiskMarkerReachesAnalysisPrompt(t *testing.T) {
	c := scripted("analysis", artifact.ExampleJSON(), nil)
	p, _ := newTestPipeline(c)
	_, err := p.Run(context.Background(), State{Answers: []survey.Answer{
		{QuestionID: "phq9_1", Value: "2"},
		{QuestionID: "phq9_9_risk", Value: "7"},
	}})
	require.NoError(t, err)
	assert.Contains(t, c.Calls()[0].Prompt.System, "CRITICAL: SUICIDE IDEATION DETECTED")
}

func TestAnalysisErrorPropagates(t *testing.T) {
	c := scripted("", "", nil)
	c.TextFn = func(context.Context, llmclient.Prompt) (string, error) {
		return "", &llmclient.ConfigurationError{Msg: llmclient.MissingAPIKeyMessage}
	}
	p, _ := newTestPipeline(c)
	_, err := p.Run(context.Background(), State{Answers: []survey.Answer{{QuestionID: "x", Value: "1"}}})
	require.Error(t, err)
	assert.Equal(t, llmclient.MissingAPIKeyMessage, ErrorMessage(err))
	assert.Equal(t, 1, c.CallCount(""))
}

func collect(ch <-chan Event) []Event {
	var evs []Event
	for ev := range ch {
		evs = append(evs, ev)
	}
	return evs
}

func TestStreamFrameOrder(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	c := scripted(strings.Repeat("analysis ", 5), artifact.ExampleJSON(), nil)
	p, _ := newTestPipeline(c)
	evs := collect(p.Stream(context.Background(), State{
		Answers: []survey.Answer{{QuestionID: "mbti_1", Value: "4"}},
		Lang:    "ja",
	}))
	require.NotEmpty(t, evs)

	assert.Equal(t, Event{Type: EventStatus, Data: StatusLabel(StageAnalysis, "ja")}, evs[0])
	last := evs[len(evs)-1]
	assert.Equal(t, EventFinal, last.Type)
	prof, ok := last.Data.(*artifact.FinalProfile)
	require.True(t, ok)
	assert.NotNil(t, prof.IdentityCard)

	var statuses, terminals int
	var analysisText strings.Builder
	for i, ev := range evs {
		switch ev.Type {
		case EventStatus:
			statuses++
		case EventChunk:
			if statuses == 1 {
				analysisText.WriteString(ev.Data.(string))
			}
		case EventFinal, EventError:
			terminals++
			assert.Equal(t, len(evs)-1, i)
		}
	}
	assert.Equal(t, 2, statuses)
	assert.Equal(t, 1, terminals)
	assert.Equal(t, strings.Repeat("analysis ", 5), analysisText.String())
	assert.Equal(t, 2, c.CallCount("stream"))
}

func TestStreamErrorTerminates(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	c := scripted("", "", nil)
	c.TextFn = func(context.Context, llmclient.Prompt) (string, error) {
		return "", &llmclient.ProviderError{Provider: "Fake", Status: 503, Err: errors.New("overloaded")}
	}
	p, _ := newTestPipeline(c)
	evs := collect(p.Stream(context.Background(), State{Answers: []survey.Answer{{QuestionID: "x", Value: "1"}}}))

	require.Len(t, evs, 2)
	assert.Equal(t, EventStatus, evs[0].Type)
	assert.Equal(t, StatusLabel(StageAnalysis, "zh"), evs[0].Data)
	assert.Equal(t, EventError, evs[1].Type)
	assert.Contains(t, evs[1].Data, "overloaded")
}

func TestStreamValidationStillStartsWithStatus(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	p, _ := newTestPipeline(scripted("a", "b", nil))
	evs := collect(p.Stream(context.Background(), State{Lang: "en"}))
	require.Len(t, evs, 2)
	assert.Equal(t, EventStatus, evs[0].Type)
	assert.Equal(t, Event{Type: EventError, Data: ErrNoAnswers}, evs[1])
}

func TestStreamCancelAbandonsCall(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	c := scripted(strings.Repeat("x", 400), artifact.ExampleJSON(), nil)
	c.ChunkRunes = 1
	c.ChunkDelay = 5 * time.Millisecond
	p, _ := newTestPipeline(c)

	ctx, cancel := context.WithCancel(context.Background())
	ch := p.Stream(ctx, State{Answers: []survey.Answer{{QuestionID: "x", Value: "1"}}})

	var evs []Event
	for ev := range ch {
		evs = append(evs, ev)
		if ev.Type == EventChunk {
			cancel()
		}
	}
	cancel()
	for _, ev := range evs {
		assert.NotEqual(t, EventFinal, ev.Type)
	}
	assert.Less(t, len(evs), 50)
	assert.Equal(t, 0, c.CallCount("structured"))
}

func TestStatusLabelFallsBackToEnglish(t *testing.T) {
	assert.Equal(t, StatusLabel(StageSynthesis, "en"), StatusLabel(StageSynthesis, "fr"))
	assert.NotEqual(t, StatusLabel(StageSynthesis, "en"), StatusLabel(StageSynthesis, "zh"))
}

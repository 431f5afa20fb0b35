package pipeline

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"holoprofile/internal/artifact"
	"holoprofile/internal/llm"
	llmclient "holoprofile/internal/llmClient"
	"holoprofile/internal/survey"
	"holoprofile/internal/util/jsonutil"
)

// ClientBuilder builds a model client bound to a config and temperature.
// *llm.Factory satisfies it.
type ClientBuilder interface {
	Build(cfg llmclient.ModelConfig, temperature float64) llmclient.LLMClient
}

// ContextFormatter renders answers for the model; *survey.Formatter
// satisfies it.
type ContextFormatter interface {
	Format(answers []survey.Answer, lang string) string
}

// CategoryDetector decides which dimensions a submission covers;
// *survey.Detector satisfies it.
type CategoryDetector interface {
	Detect(answers []survey.Answer) survey.Categories
	Instructions(c survey.Categories) string
}

// State is threaded through the stages of one run.
type State struct {
	Answers               []survey.Answer
	Config                llmclient.ModelConfig
	Lang                  string
	ComprehensiveAnalysis string
	FinalProfile          *artifact.FinalProfile

	context    string
	categories survey.Categories
}

// generate streams through em when it is set, otherwise waits for the full
// completion.
func generate(ctx context.Context, cli llmclient.LLMClient, p llmclient.Prompt, em Emitter) (string, error) {
	if em == nil {
		return cli.Generate(ctx, p)
	}
	return cli.GenerateStream(ctx, p, em.EmitLLMChunk)
}

// AnalysisStage produces the free-text analysis.
type AnalysisStage struct {
	builder     ClientBuilder
	detector    CategoryDetector
	temperature float64
	log         *zap.Logger
}

func (s *AnalysisStage) Run(ctx context.Context, st *State, em Emitter) error {
	instructions := s.detector.Instructions(st.categories)
	prompt, err := analysisPrompt(st.context, instructions, st.Lang)
	if err != nil {
		return fmt.Errorf("analysis prompt: %w", err)
	}
	cli := s.builder.Build(st.Config, s.temperature)
	defer cli.Close()

	out, err := generate(llm.WithPhase(ctx, llm.PhaseAnalysis), cli, prompt, em)
	if err != nil {
		return fmt.Errorf("analysis: %w", err)
	}
	st.ComprehensiveAnalysis = out
	s.log.Debug("analysis complete", zap.Int("bytes", len(out)))
	return nil
}

// SynthesisStage turns the analysis into a FinalProfile: free text parsed
// as JSON first, then one schema-constrained call when that fails.
type SynthesisStage struct {
	builder     ClientBuilder
	temperature float64
	log         *zap.Logger
}

func (s *SynthesisStage) Run(ctx context.Context, st *State, em Emitter) error {
	prompt, err := synthesisPrompt(st.context, st.ComprehensiveAnalysis, st.Lang)
	if err != nil {
		return fmt.Errorf("synthesis prompt: %w", err)
	}
	cli := s.builder.Build(st.Config, s.temperature)
	defer cli.Close()

	raw, err := generate(llm.WithPhase(ctx, llm.PhaseSynthesis), cli, prompt, em)
	if err != nil {
		return fmt.Errorf("synthesis: %w", err)
	}
	profile, err := parseProfile(raw)
	if err != nil {
		s.log.Warn("synthesis output unusable, using structured fallback",
			zap.Error(&SynthesisParseError{Raw: raw, Err: err}))
		profile, err = s.fallback(ctx, cli, st)
		if err != nil {
			return fmt.Errorf("synthesis fallback: %w", err)
		}
	}

	if clamped := profile.Normalize(); len(clamped) > 0 {
		s.log.Info("clamped out-of-range scores", zap.Strings("fields", clamped))
	}
	if err := profile.Validate(); err != nil {
		return fmt.Errorf("synthesis: %w", err)
	}
	st.FinalProfile = profile
	return nil
}

func (s *SynthesisStage) fallback(ctx context.Context, cli llmclient.LLMClient, st *State) (*artifact.FinalProfile, error) {
	schema, err := artifact.Schema()
	if err != nil {
		return nil, err
	}
	prompt, err := fallbackPrompt(st.context, st.ComprehensiveAnalysis, st.Lang)
	if err != nil {
		return nil, err
	}
	raw, err := cli.GenerateStructured(llm.WithPhase(ctx, llm.PhaseFallback), prompt, llmclient.Schema{
		Name:        artifact.SchemaName,
		Description: "Personality report",
		JSON:        schema,
	})
	if err != nil {
		return nil, err
	}
	profile, err := parseProfile(string(raw))
	if err != nil {
		return nil, &SynthesisParseError{Raw: string(raw), Err: err}
	}
	return profile, nil
}

func parseProfile(text string) (*artifact.FinalProfile, error) {
	obj, err := jsonutil.ExtractValidObject(strings.TrimSpace(text))
	if err != nil {
		return nil, err
	}
	return artifact.Decode(obj)
}

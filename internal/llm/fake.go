package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"holoprofile/internal/artifact"
	llmclient "holoprofile/internal/llmClient"
)

// NewOfflineClient returns deterministic, minimal responses per phase for
// offline runs (LLM_PROVIDER=fake) and demos.
func NewOfflineClient(model string) *llmclient.FakeClient {
	return &llmclient.FakeClient{
		Model: model,
		TextFn: func(ctx context.Context, p llmclient.Prompt) (string, error) {
			switch PhaseFrom(ctx) {
			case PhaseProbe:
				return "OK", nil
			case PhaseAnalysis:
				return offlineAnalysis(p), nil
			case PhaseSynthesis:
				return "```json\n" + artifact.ExampleJSON() + "\n```", nil
			default:
				return "", nil
			}
		},
		StructuredFn: func(context.Context, llmclient.Prompt, llmclient.Schema) (json.RawMessage, error) {
			return json.RawMessage(artifact.ExampleJSON()), nil
		},
	}
}

func offlineAnalysis(p llmclient.Prompt) string {
	return fmt.Sprintf("Offline analysis of a %d-byte context.\n\n"+
		"The respondent shows a balanced profile with no strong signal in any dimension.", len(p.User))
}

package llmclient

import (
	"errors"
	"testing"

	"holoprofile/internal/tester"
)

func TestCleanValue(t *testing.T) {
	cases := map[string]string{
		"  sk-abc  ":     "sk-abc",
		`"sk-abc"`:       "sk-abc",
		`'sk-abc'`:       "sk-abc",
		"` \"sk-abc\" `": "sk-abc",
		`"unbalanced`:    `"unbalanced`,
		`""`:             "",
		"":               "",
	}
	for in, want := range cases {
		tester.Eq(t, CleanValue(in), want, in)
	}
}

func TestResolveConfigPrecedence(t *testing.T) {
	env := Env{APIKey: "env-key", BaseURL: "https://env.example/v1", Model: "env/model"}

	got := ResolveConfig(ModelConfig{APIKey: " req-key ", Model: `"foo/bar"`}, env)
	tester.Eq(t, got, ModelConfig{APIKey: "req-key", BaseURL: "https://env.example/v1", Model: "foo/bar"})

	got = ResolveConfig(ModelConfig{APIKey: "   ", BaseURL: "''"}, env)
	tester.Eq(t, got, ModelConfig{APIKey: "env-key", BaseURL: "https://env.example/v1", Model: "env/model"})

	got = ResolveConfig(ModelConfig{}, Env{})
	tester.Eq(t, got, ModelConfig{Model: DefaultModel})
}

func TestRequireKeyIsConfigurationError(t *testing.T) {
	err := ResolveConfig(ModelConfig{}, Env{}).RequireKey()
	var cfgErr *ConfigurationError
	tester.True(t, errors.As(err, &cfgErr))
	tester.Contains(t, err.Error(), "Missing API Key")

	tester.NoErr(t, ModelConfig{APIKey: "k"}.RequireKey())
}

func TestEnvFrom(t *testing.T) {
	vars := map[string]string{
		"OPENAI_API_KEY":  "openai",
		"OPENAI_BASE_URL": "https://openrouter.ai/api/v1",
		"LLM_MODEL":       "m",
		"GEMINI_API_KEY":  "gem",
	}
	getenv := func(k string) string { return vars[k] }

	tester.Eq(t, EnvFrom(getenv, "openai"), Env{APIKey: "openai", BaseURL: "https://openrouter.ai/api/v1", Model: "m"})
	tester.Eq(t, EnvFrom(getenv, "gemini"), Env{APIKey: "gem", Model: "m"})

	vars["GEMINI_BASE_URL"] = "https://gemini.example/v1beta"
	tester.Eq(t, EnvFrom(getenv, "gemini").BaseURL, "https://gemini.example/v1beta")
}

func TestMaskedKey(t *testing.T) {
	tester.Eq(t, ModelConfig{}.MaskedKey(), "")
	tester.Eq(t, ModelConfig{APIKey: "short"}.MaskedKey(), "****")
	tester.Eq(t, ModelConfig{APIKey: "sk-1234567890"}.MaskedKey(), "sk-1...7890")
}

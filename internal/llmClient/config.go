package llmclient

import (
	"strings"
)

// DefaultModel is used when neither the request nor the environment names one.
const DefaultModel = "google/gemini-3-flash-preview"

// ModelConfig carries per-request model settings. Empty fields are absent.
type ModelConfig struct {
	APIKey  string `json:"apiKey,omitempty"`
	BaseURL string `json:"baseUrl,omitempty"`
	Model   string `json:"model,omitempty"`
}

// Env holds environment-level defaults.
type Env struct {
	APIKey  string
	BaseURL string
	Model   string
}

// EnvFrom reads OPENAI_API_KEY, OPENAI_BASE_URL and LLM_MODEL. For the
// "gemini" provider the key falls back through GEMINI_API_KEY and the base
// URL comes from GEMINI_BASE_URL only.
func EnvFrom(getenv func(string) string, provider string) Env {
	env := Env{
		APIKey:  getenv("OPENAI_API_KEY"),
		BaseURL: getenv("OPENAI_BASE_URL"),
		Model:   getenv("LLM_MODEL"),
	}
	if strings.EqualFold(provider, "gemini") {
		if k := CleanValue(getenv("GEMINI_API_KEY")); k != "" {
			env.APIKey = k
		}
		env.BaseURL = getenv("GEMINI_BASE_URL")
	}
	return env
}

// CleanValue trims whitespace and strips surrounding quote characters left
// over from copy-paste.
func CleanValue(s string) string {
	s = strings.TrimSpace(s)
	for len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first != last || (first != '"' && first != '\'' && first != '`') {
			break
		}
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}

// ResolveConfig merges a request config over environment defaults field by
// field: a non-empty cleaned request value wins, then the environment, then
// DefaultModel for the model name. It never fails; a missing key is reported
// by RequireKey at call time.
func ResolveConfig(req ModelConfig, env Env) ModelConfig {
	return ModelConfig{
		APIKey:  firstNonEmpty(CleanValue(req.APIKey), CleanValue(env.APIKey)),
		BaseURL: firstNonEmpty(CleanValue(req.BaseURL), CleanValue(env.BaseURL)),
		Model:   firstNonEmpty(CleanValue(req.Model), CleanValue(env.Model), DefaultModel),
	}
}

// RequireKey returns a *ConfigurationError when no API key is set.
func (c ModelConfig) RequireKey() error {
	if c.APIKey == "" {
		return &ConfigurationError{Msg: MissingAPIKeyMessage}
	}
	return nil
}

// MaskedKey returns a log-safe form of the API key.
func (c ModelConfig) MaskedKey() string {
	switch n := len(c.APIKey); {
	case n == 0:
		return ""
	case n <= 8:
		return "****"
	default:
		return c.APIKey[:4] + "..." + c.APIKey[n-4:]
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envOf(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(envOf(nil))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Port)
	assert.True(t, cfg.IsLocal())
	assert.Empty(t, cfg.CORSAllowedOrigins)
	assert.Equal(t, "./data/assessments", cfg.QuestionBankDir)
	assert.Equal(t, LLMConfig{
		Provider:             "openai",
		Timeout:              5 * time.Minute,
		MaxRetries:           1,
		AnalysisTemperature:  0.1,
		SynthesisTemperature: 0.2,
	}, cfg.LLM)
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := FromEnv(envOf(map[string]string{
		"PORT":                  "9000",
		"APP_ENV":               "production",
		"CORS_ALLOWED_ORIGINS":  "https://a.example, https://b.example,,*",
		"LLM_PROVIDER":          "Gemini",
		"LLM_TIMEOUT":           "3",
		"LLM_MAX_RETRIES":       "0",
		"SYNTHESIS_TEMPERATURE": "0.3",
	}))
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Port)
	assert.False(t, cfg.IsLocal())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, 3*time.Minute, cfg.LLM.Timeout)
	assert.Equal(t, 0, cfg.LLM.MaxRetries)
	assert.InDelta(t, 0.3, cfg.LLM.SynthesisTemperature, 1e-9)

	cfg, err = FromEnv(envOf(map[string]string{"LLM_TIMEOUT": "90s", "PORT": "127.0.0.1:7000"}))
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, "127.0.0.1:7000", cfg.Port)
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	for k, v := range map[string]string{
		"LLM_TIMEOUT":          "soon",
		"LLM_MAX_RETRIES":      "3",
		"ANALYSIS_TEMPERATURE": "hot",
	} {
		_, err := FromEnv(envOf(map[string]string{k: v}))
		assert.Error(t, err, k)
	}
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string
	Env  string
	// CORSAllowedOrigins is empty when every origin is reflected.
	CORSAllowedOrigins []string
	QuestionBankDir    string
	CategoriesFile     string
	LogLevel           string
	LLM                LLMConfig
}

type LLMConfig struct {
	Provider             string
	Timeout              time.Duration
	MaxRetries           int
	AnalysisTemperature  float64
	SynthesisTemperature float64
}

// Load reads .env (when present) and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv, applying defaults for unset keys.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(k string) string { return strings.TrimSpace(getenv(k)) }

	timeout, err := durationOr(get("LLM_TIMEOUT"), 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("LLM_TIMEOUT: %w", err)
	}
	retries, err := intOr(get("LLM_MAX_RETRIES"), 1)
	if err != nil {
		return nil, fmt.Errorf("LLM_MAX_RETRIES: %w", err)
	}
	if retries < 0 || retries > 1 {
		return nil, fmt.Errorf("LLM_MAX_RETRIES: must be 0 or 1, got %d", retries)
	}
	analysisTemp, err := floatOr(get("ANALYSIS_TEMPERATURE"), 0.1)
	if err != nil {
		return nil, fmt.Errorf("ANALYSIS_TEMPERATURE: %w", err)
	}
	synthesisTemp, err := floatOr(get("SYNTHESIS_TEMPERATURE"), 0.2)
	if err != nil {
		return nil, fmt.Errorf("SYNTHESIS_TEMPERATURE: %w", err)
	}

	return &Config{
		Port:               NormalizePort(firstNonEmpty(get("PORT"), ":8080")),
		Env:                firstNonEmpty(get("APP_ENV"), "local"),
		CORSAllowedOrigins: splitList(get("CORS_ALLOWED_ORIGINS")),
		QuestionBankDir:    firstNonEmpty(get("QUESTION_BANK_DIR"), "./data/assessments"),
		CategoriesFile:     get("CATEGORIES_FILE"),
		LogLevel:           firstNonEmpty(get("LOG_LEVEL"), "info"),
		LLM: LLMConfig{
			Provider:             firstNonEmpty(strings.ToLower(get("LLM_PROVIDER")), "openai"),
			Timeout:              timeout,
			MaxRetries:           retries,
			AnalysisTemperature:  analysisTemp,
			SynthesisTemperature: synthesisTemp,
		},
	}, nil
}

// NormalizePort turns a bare port number into a listen address.
func NormalizePort(port string) string {
	port = strings.TrimSpace(port)
	if port != "" && !strings.Contains(port, ":") {
		return ":" + port
	}
	return port
}

// IsLocal reports whether the app runs in a developer environment.
func (c *Config) IsLocal() bool { return strings.EqualFold(c.Env, "local") }

// durationOr accepts Go durations ("90s", "5m") or a bare number of minutes.
func durationOr(raw string, def time.Duration) (time.Duration, error) {
	if raw == "" {
		return def, nil
	}
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		if n <= 0 {
			return 0, fmt.Errorf("must be positive")
		}
		return time.Duration(n * float64(time.Minute)), nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive")
	}
	return d, nil
}

func intOr(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

func floatOr(raw string, def float64) (float64, error) {
	if raw == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if f < 0 || f > 2 {
		return 0, fmt.Errorf("out of range [0,2]: %v", f)
	}
	return f, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" && p != "*" {
			out = append(out, p)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

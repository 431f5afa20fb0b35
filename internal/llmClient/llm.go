package llmclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrEmptyResponse = errors.New("empty response from LLM")

// Prompt is a system+user message pair.
type Prompt struct {
	System string
	User   string
}

// Schema is a structural contract for schema-constrained generation.
type Schema struct {
	Name        string
	Description string
	JSON        map[string]any
}

// LLMClient is a text-generation client bound to one model and temperature.
type LLMClient interface {
	Name() string
	Close() error
	// Generate returns the full completion text.
	Generate(ctx context.Context, p Prompt) (string, error)
	// GenerateStream calls onChunk for every text delta in arrival order and
	// returns the concatenated text.
	GenerateStream(ctx context.Context, p Prompt, onChunk func(chunk string)) (string, error)
	// GenerateStructured asks the provider to enforce s and returns the JSON
	// document it produced.
	GenerateStructured(ctx context.Context, p Prompt, s Schema) (json.RawMessage, error)
}

// PermanentError indicates an error that will not resolve with retries.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func NewPermanentError(err error) error {
	return &PermanentError{Err: err}
}

// ConfigurationError reports that no API key could be resolved when a call
// was attempted.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string { return e.Msg }

// MissingAPIKeyMessage is the message surfaced to callers without credentials.
const MissingAPIKeyMessage = "Missing API Key. Please configure it in Settings or set OPENAI_API_KEY in .env"

// ProviderError wraps a failed provider call.
type ProviderError struct {
	Provider string
	Status   int // HTTP status when known
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Provider, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// permanentStatus reports HTTP statuses that retrying cannot fix.
func permanentStatus(status int) bool {
	switch status {
	case 400, 401, 403, 404, 422:
		return true
	}
	return false
}

// classify wraps a provider error, marking it permanent when retrying is
// pointless. Context errors pass through unchanged.
func classify(provider string, status int, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	pe := &ProviderError{Provider: provider, Status: status, Err: err}
	if permanentStatus(status) {
		return NewPermanentError(pe)
	}
	return pe
}

package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	llmclient "holoprofile/internal/llmClient"
)

// Provider selects the backend used by a Factory.
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
	ProviderFake   Provider = "fake"
)

// ParseProvider maps an LLM_PROVIDER value to a Provider. Empty means openai.
func ParseProvider(s string) (Provider, error) {
	switch p := Provider(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return ProviderOpenAI, nil
	case ProviderOpenAI, ProviderGemini, ProviderFake:
		return p, nil
	default:
		return "", fmt.Errorf("unknown LLM provider %q", s)
	}
}

// Pipeline phases, used for logging and by the offline client.
const (
	PhaseAnalysis  = "analysis"
	PhaseSynthesis = "synthesis"
	PhaseFallback  = "synthesis_fallback"
	PhaseProbe     = "probe"
)

const (
	DefaultTimeout    = 5 * time.Minute
	DefaultMaxRetries = 1
)

// DefaultHeaders are sent by the OpenAI-compatible client on every request.
var DefaultHeaders = map[string]string{"X-Title": "holoprofile"}

// Settings is everything a Constructor needs to build one provider client.
type Settings struct {
	Config      llmclient.ModelConfig
	Temperature float64
	Timeout     time.Duration
	MaxRetries  int
	Headers     map[string]string
}

// Constructor builds a provider client. It is responsible for applying
// Settings.MaxRetries, either natively or through the Retry middleware.
type Constructor func(ctx context.Context, s Settings) (llmclient.LLMClient, error)

// Factory builds configured clients from per-request ModelConfig values.
type Factory struct {
	provider   Provider
	env        llmclient.Env
	envSet     bool
	timeout    time.Duration
	maxRetries int
	headers    map[string]string
	logger     *zap.Logger
	construct  Constructor
}

type Option func(*Factory)

func WithProvider(p Provider) Option { return func(f *Factory) { f.provider = p } }

// WithEnv replaces the environment defaults read at construction.
func WithEnv(env llmclient.Env) Option {
	return func(f *Factory) { f.env, f.envSet = env, true }
}

func WithTimeout(d time.Duration) Option {
	return func(f *Factory) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithMaxRetries sets the retry budget; values outside [0,1] are clamped.
func WithMaxRetries(n int) Option {
	return func(f *Factory) { f.maxRetries = min(max(n, 0), 1) }
}

func WithHeaders(h map[string]string) Option { return func(f *Factory) { f.headers = h } }

func WithLogger(l *zap.Logger) Option { return func(f *Factory) { f.logger = l } }

// WithConstructor overrides the provider constructor. Used by tests to
// inject scripted clients.
func WithConstructor(c Constructor) Option { return func(f *Factory) { f.construct = c } }

// NewFactory never fails: missing credentials surface as a
// *llmclient.ConfigurationError when a call is attempted.
func NewFactory(opts ...Option) *Factory {
	f := &Factory{
		provider:   ProviderOpenAI,
		timeout:    DefaultTimeout,
		maxRetries: DefaultMaxRetries,
		headers:    DefaultHeaders,
	}
	for _, o := range opts {
		o(f)
	}
	if !f.envSet {
		f.env = llmclient.EnvFrom(os.Getenv, string(f.provider))
	}
	if f.construct == nil {
		f.construct = constructorFor(f.provider)
	}
	return f
}

func (f *Factory) Provider() Provider { return f.provider }

// Resolve merges a request config over the factory's environment defaults.
func (f *Factory) Resolve(req llmclient.ModelConfig) llmclient.ModelConfig {
	return llmclient.ResolveConfig(req, f.env)
}

func (f *Factory) needsKey() bool { return f.provider != ProviderFake }

// Build returns a client bound to cfg and temperature. The provider client
// is created on first use.
func (f *Factory) Build(cfg llmclient.ModelConfig, temperature float64) llmclient.LLMClient {
	return &lazyClient{f: f, cfg: f.Resolve(cfg), temperature: temperature}
}

func (f *Factory) settings(cfg llmclient.ModelConfig, temperature float64) Settings {
	return Settings{
		Config:      cfg,
		Temperature: temperature,
		Timeout:     f.timeout,
		MaxRetries:  f.maxRetries,
		Headers:     f.headers,
	}
}

func (f *Factory) open(ctx context.Context, cfg llmclient.ModelConfig, temperature float64) (llmclient.LLMClient, error) {
	if f.needsKey() {
		if err := cfg.RequireKey(); err != nil {
			return nil, err
		}
	}
	inner, err := f.construct(ctx, f.settings(cfg, temperature))
	if err != nil {
		return nil, err
	}
	return Wrap(inner, WithLogging(f.logger), WithHooks()), nil
}

// ProbeResult is the body returned by a connectivity check.
type ProbeResult struct {
	Status   string `json:"status"`
	Model    string `json:"model"`
	Response string `json:"response"`
}

// Probe requires the API key up front and issues one trivial generation.
func (f *Factory) Probe(ctx context.Context, req llmclient.ModelConfig) (*ProbeResult, error) {
	cfg := f.Resolve(req)
	if f.needsKey() {
		if err := cfg.RequireKey(); err != nil {
			return nil, err
		}
	}
	cli := f.Build(cfg, 0)
	defer cli.Close()
	out, err := cli.Generate(WithPhase(ctx, PhaseProbe), llmclient.Prompt{User: "Say OK"})
	if err != nil {
		return nil, err
	}
	return &ProbeResult{Status: "success", Model: cfg.Model, Response: out}, nil
}

// lazyClient defers provider construction, and therefore the API key check,
// until the first call.
type lazyClient struct {
	f           *Factory
	cfg         llmclient.ModelConfig
	temperature float64

	once  sync.Once
	inner llmclient.LLMClient
	err   error
}

func (c *lazyClient) get(ctx context.Context) (llmclient.LLMClient, error) {
	c.once.Do(func() {
		c.inner, c.err = c.f.open(ctx, c.cfg, c.temperature)
	})
	return c.inner, c.err
}

func (c *lazyClient) Name() string { return string(c.f.provider) + ":" + c.cfg.Model }

func (c *lazyClient) Close() error {
	if c.inner != nil {
		return c.inner.Close()
	}
	return nil
}

func (c *lazyClient) Generate(ctx context.Context, p llmclient.Prompt) (string, error) {
	cli, err := c.get(ctx)
	if err != nil {
		return "", err
	}
	return cli.Generate(ctx, p)
}

func (c *lazyClient) GenerateStream(ctx context.Context, p llmclient.Prompt, onChunk func(chunk string)) (string, error) {
	cli, err := c.get(ctx)
	if err != nil {
		return "", err
	}
	return cli.GenerateStream(ctx, p, onChunk)
}

func (c *lazyClient) GenerateStructured(ctx context.Context, p llmclient.Prompt, s llmclient.Schema) (json.RawMessage, error) {
	cli, err := c.get(ctx)
	if err != nil {
		return nil, err
	}
	return cli.GenerateStructured(ctx, p, s)
}

func constructorFor(p Provider) Constructor {
	switch p {
	case ProviderGemini:
		return newGemini
	case ProviderFake:
		return func(_ context.Context, s Settings) (llmclient.LLMClient, error) {
			return NewOfflineClient(s.Config.Model), nil
		}
	default:
		return newOpenAI
	}
}

func newOpenAI(_ context.Context, s Settings) (llmclient.LLMClient, error) {
	return llmclient.NewOpenAIClient(llmclient.OpenAIOptions{
		APIKey:      s.Config.APIKey,
		BaseURL:     s.Config.BaseURL,
		Model:       s.Config.Model,
		Temperature: s.Temperature,
		Timeout:     s.Timeout,
		MaxRetries:  s.MaxRetries,
		Headers:     s.Headers,
	}), nil
}

func newGemini(ctx context.Context, s Settings) (llmclient.LLMClient, error) {
	cli, err := llmclient.NewGeminiClient(ctx, llmclient.GeminiOptions{
		APIKey:      s.Config.APIKey,
		BaseURL:     s.Config.BaseURL,
		Model:       s.Config.Model,
		Temperature: s.Temperature,
		Timeout:     s.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return Wrap(cli, Retry(s.MaxRetries+1, time.Second)), nil
}

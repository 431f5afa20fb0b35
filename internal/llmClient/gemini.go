package llmclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	genai "google.golang.org/genai"
)

type GeminiOptions struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	Timeout     time.Duration
	HTTPClient  *http.Client
}

// GeminiClient is a thin wrapper around the official genai client.
// Retries, logging and hooks are applied via middleware.
type GeminiClient struct {
	cli         *genai.Client
	model       string
	temperature float32
}

// NewGeminiClient accepts OpenRouter-style names ("google/gemini-...") and
// strips the vendor prefix.
func NewGeminiClient(ctx context.Context, o GeminiOptions) (*GeminiClient, error) {
	hc := o.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: o.Timeout}
	}
	cfg := &genai.ClientConfig{
		APIKey:     o.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: hc,
	}
	if o.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: o.BaseURL}
	}
	cli, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &GeminiClient{
		cli:         cli,
		model:       strings.TrimPrefix(o.Model, "google/"),
		temperature: float32(o.Temperature),
	}, nil
}

func (g *GeminiClient) Name() string { return "Gemini:" + g.model }
func (g *GeminiClient) Close() error { return nil }

func (g *GeminiClient) config(p Prompt) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{Temperature: genai.Ptr(g.temperature)}
	if strings.TrimSpace(p.System) != "" {
		cfg.SystemInstruction = genai.NewContentFromText(p.System, genai.RoleUser)
	}
	return cfg
}

func (g *GeminiClient) Generate(ctx context.Context, p Prompt) (string, error) {
	resp, err := g.cli.Models.GenerateContent(ctx, g.model, genai.Text(p.User), g.config(p))
	if err != nil {
		return "", g.wrap(err)
	}
	txt := resp.Text()
	if txt == "" {
		return "", g.wrap(ErrEmptyResponse)
	}
	return txt, nil
}

func (g *GeminiClient) GenerateStream(ctx context.Context, p Prompt, onChunk func(chunk string)) (string, error) {
	var sb strings.Builder
	for resp, err := range g.cli.Models.GenerateContentStream(ctx, g.model, genai.Text(p.User), g.config(p)) {
		if err != nil {
			return sb.String(), g.wrap(err)
		}
		delta := resp.Text()
		if delta == "" {
			continue
		}
		sb.WriteString(delta)
		if onChunk != nil {
			onChunk(delta)
		}
	}
	return sb.String(), nil
}

func (g *GeminiClient) GenerateStructured(ctx context.Context, p Prompt, s Schema) (json.RawMessage, error) {
	cfg := g.config(p)
	cfg.ResponseMIMEType = "application/json"
	cfg.ResponseSchema = ToGenaiSchema(s.JSON)
	resp, err := g.cli.Models.GenerateContent(ctx, g.model, genai.Text(p.User), cfg)
	if err != nil {
		return nil, g.wrap(err)
	}
	txt := strings.TrimSpace(resp.Text())
	if txt == "" {
		return nil, g.wrap(ErrEmptyResponse)
	}
	return json.RawMessage(txt), nil
}

func (g *GeminiClient) wrap(err error) error {
	status := 0
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		status = apiErr.Code
	}
	return classify(g.Name(), status, err)
}

// ToGenaiSchema converts a JSON Schema map (as produced by invopop/jsonschema)
// into the genai schema subset.
func ToGenaiSchema(m map[string]any) *genai.Schema {
	if m == nil {
		return nil
	}
	s := &genai.Schema{}
	if t, ok := m["type"].(string); ok {
		s.Type = genaiType(t)
	}
	if d, ok := m["description"].(string); ok {
		s.Description = d
	}
	if v, ok := number(m["minimum"]); ok {
		s.Minimum = genai.Ptr(v)
	}
	if v, ok := number(m["maximum"]); ok {
		s.Maximum = genai.Ptr(v)
	}
	if enum, ok := m["enum"].([]any); ok {
		for _, e := range enum {
			if es, ok := e.(string); ok {
				s.Enum = append(s.Enum, es)
			}
		}
	}
	if props, ok := m["properties"].(map[string]any); ok {
		s.Properties = make(map[string]*genai.Schema, len(props))
		for name, p := range props {
			if pm, ok := p.(map[string]any); ok {
				s.Properties[name] = ToGenaiSchema(pm)
			}
		}
	}
	if req, ok := m["required"].([]any); ok {
		for _, r := range req {
			if rs, ok := r.(string); ok {
				s.Required = append(s.Required, rs)
			}
		}
		s.PropertyOrdering = append([]string(nil), s.Required...)
	}
	if items, ok := m["items"].(map[string]any); ok {
		s.Items = ToGenaiSchema(items)
	}
	return s
}

func genaiType(t string) genai.Type {
	switch t {
	case "object":
		return genai.TypeObject
	case "array":
		return genai.TypeArray
	case "string":
		return genai.TypeString
	case "integer":
		return genai.TypeInteger
	case "number":
		return genai.TypeNumber
	case "boolean":
		return genai.TypeBoolean
	}
	return genai.TypeUnspecified
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

package llmclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAIOptions configures an OpenAI-compatible chat-completions client
// (OpenAI, OpenRouter and similar gateways).
type OpenAIOptions struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	Timeout     time.Duration
	MaxRetries  int
	Headers     map[string]string
	HTTPClient  *http.Client
}

// OpenAIClient is a thin wrapper around openai-go. Cross-cutting concerns
// (logging, hooks) are applied via middleware.
type OpenAIClient struct {
	cli         openai.Client
	model       string
	temperature float64
}

func NewOpenAIClient(o OpenAIOptions) *OpenAIClient {
	opts := []option.RequestOption{
		option.WithAPIKey(o.APIKey),
		option.WithMaxRetries(o.MaxRetries),
	}
	if o.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(o.BaseURL))
	}
	if o.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(o.Timeout))
	}
	if o.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(o.HTTPClient))
	}
	for k, v := range o.Headers {
		opts = append(opts, option.WithHeader(k, v))
	}
	return &OpenAIClient{
		cli:         openai.NewClient(opts...),
		model:       o.Model,
		temperature: o.Temperature,
	}
}

func (c *OpenAIClient) Name() string { return "OpenAI:" + c.model }
func (c *OpenAIClient) Close() error { return nil }

func (c *OpenAIClient) params(p Prompt) openai.ChatCompletionNewParams {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if strings.TrimSpace(p.System) != "" {
		msgs = append(msgs, openai.SystemMessage(p.System))
	}
	msgs = append(msgs, openai.UserMessage(p.User))
	return openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.model),
		Messages:    msgs,
		Temperature: openai.Float(c.temperature),
	}
}

func (c *OpenAIClient) Generate(ctx context.Context, p Prompt) (string, error) {
	resp, err := c.cli.Chat.Completions.New(ctx, c.params(p))
	if err != nil {
		return "", c.wrap(err)
	}
	if len(resp.Choices) == 0 {
		return "", c.wrap(ErrEmptyResponse)
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *OpenAIClient) GenerateStream(ctx context.Context, p Prompt, onChunk func(chunk string)) (string, error) {
	stream := c.cli.Chat.Completions.NewStreaming(ctx, c.params(p))
	defer stream.Close()

	var sb strings.Builder
	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		sb.WriteString(delta)
		if onChunk != nil {
			onChunk(delta)
		}
	}
	if err := stream.Err(); err != nil {
		return sb.String(), c.wrap(err)
	}
	return sb.String(), nil
}

func (c *OpenAIClient) GenerateStructured(ctx context.Context, p Prompt, s Schema) (json.RawMessage, error) {
	params := c.params(p)
	params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
			JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
				Name:        s.Name,
				Description: openai.String(s.Description),
				Schema:      s.JSON,
				Strict:      openai.Bool(true),
			},
		},
	}
	resp, err := c.cli.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, c.wrap(err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return nil, c.wrap(ErrEmptyResponse)
	}
	return json.RawMessage(resp.Choices[0].Message.Content), nil
}

func (c *OpenAIClient) wrap(err error) error {
	status := 0
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		status = apiErr.StatusCode
		if strings.Contains(apiErr.Error(), "context_length_exceeded") {
			return NewPermanentError(&ProviderError{Provider: c.Name(), Status: status, Err: err})
		}
	}
	return classify(c.Name(), status, err)
}

package llm

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	llmclient "holoprofile/internal/llmClient"
)

// Middleware decorates an LLMClient to inject cross-cutting concerns
// (retries, logging, hooks, etc.).
type Middleware func(llmclient.LLMClient) llmclient.LLMClient

// Wrap applies middlewares in left-to-right order.
// Example: Wrap(inner, A, B) => A(B(inner))
func Wrap(inner llmclient.LLMClient, mws ...Middleware) llmclient.LLMClient {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}

// -------- Logging --------

// WithLogging logs phase, prompt size, latency and errors for every call.
// A nil logger disables it.
func WithLogging(logger *zap.Logger) Middleware {
	return func(next llmclient.LLMClient) llmclient.LLMClient {
		if logger == nil {
			return next
		}
		return &logging{next: next, log: logger.Named("llm")}
	}
}

type logging struct {
	next llmclient.LLMClient
	log  *zap.Logger
}

func (l *logging) Name() string { return l.next.Name() }
func (l *logging) Close() error { return l.next.Close() }

func (l *logging) begin(ctx context.Context, method string, p llmclient.Prompt) (*zap.Logger, time.Time) {
	log := l.log.With(
		zap.String("phase", PhaseFrom(ctx)),
		zap.String("method", method),
		zap.String("client", l.next.Name()),
	)
	log.Debug("llm request", zap.Int("prompt_bytes", len(p.System)+len(p.User)))
	return log, time.Now()
}

func (l *logging) end(log *zap.Logger, start time.Time, outBytes int, err error) {
	fields := []zap.Field{zap.Duration("latency", time.Since(start)), zap.Int("response_bytes", outBytes)}
	if err != nil {
		log.Warn("llm error", append(fields, zap.Error(err))...)
		return
	}
	log.Info("llm response", fields...)
}

func (l *logging) Generate(ctx context.Context, p llmclient.Prompt) (string, error) {
	log, start := l.begin(ctx, "generate", p)
	out, err := l.next.Generate(ctx, p)
	l.end(log, start, len(out), err)
	return out, err
}

func (l *logging) GenerateStream(ctx context.Context, p llmclient.Prompt, onChunk func(chunk string)) (string, error) {
	log, start := l.begin(ctx, "stream", p)
	chunks := 0
	out, err := l.next.GenerateStream(ctx, p, func(s string) {
		chunks++
		if onChunk != nil {
			onChunk(s)
		}
	})
	log = log.With(zap.Int("chunks", chunks))
	l.end(log, start, len(out), err)
	return out, err
}

func (l *logging) GenerateStructured(ctx context.Context, p llmclient.Prompt, s llmclient.Schema) (json.RawMessage, error) {
	log, start := l.begin(ctx, "structured", p)
	raw, err := l.next.GenerateStructured(ctx, p, s)
	l.end(log.With(zap.String("schema", s.Name)), start, len(raw), err)
	return raw, err
}

// -------- Hooks --------

// WithHooks calls HookFrom(ctx).Before/After around every call.
// If no hook is present in the context, it is a no-op.
func WithHooks() Middleware {
	return func(next llmclient.LLMClient) llmclient.LLMClient {
		return &hooked{next: next}
	}
}

type hooked struct{ next llmclient.LLMClient }

func (h *hooked) Name() string { return h.next.Name() }
func (h *hooked) Close() error { return h.next.Close() }

func (h *hooked) before(ctx context.Context, p llmclient.Prompt) PromptHook {
	hook := HookFrom(ctx)
	if hook != nil {
		hook.Before(ctx, PhaseFrom(ctx), p)
	}
	return hook
}

func (h *hooked) Generate(ctx context.Context, p llmclient.Prompt) (string, error) {
	hook := h.before(ctx, p)
	out, err := h.next.Generate(ctx, p)
	if hook != nil {
		hook.After(ctx, PhaseFrom(ctx), out, err)
	}
	return out, err
}

func (h *hooked) GenerateStream(ctx context.Context, p llmclient.Prompt, onChunk func(chunk string)) (string, error) {
	hook := h.before(ctx, p)
	out, err := h.next.GenerateStream(ctx, p, onChunk)
	if hook != nil {
		hook.After(ctx, PhaseFrom(ctx), out, err)
	}
	return out, err
}

func (h *hooked) GenerateStructured(ctx context.Context, p llmclient.Prompt, s llmclient.Schema) (json.RawMessage, error) {
	hook := h.before(ctx, p)
	raw, err := h.next.GenerateStructured(ctx, p, s)
	if hook != nil {
		hook.After(ctx, PhaseFrom(ctx), string(raw), err)
	}
	return raw, err
}

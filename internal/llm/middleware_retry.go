package llm

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	llmclient "holoprofile/internal/llmClient"
)

// Retry retries failed calls up to maxAttempts with exponential backoff
// starting at baseDelay. Permanent and configuration errors are returned
// immediately, and a stream is only retried if it has not emitted a chunk.
func Retry(maxAttempts int, baseDelay time.Duration) Middleware {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if baseDelay <= 0 {
		baseDelay = 300 * time.Millisecond
	}
	return func(next llmclient.LLMClient) llmclient.LLMClient {
		return &retrying{next: next, max: maxAttempts, base: baseDelay}
	}
}

type retrying struct {
	next llmclient.LLMClient
	max  int
	base time.Duration
}

func (r *retrying) Name() string { return r.next.Name() }
func (r *retrying) Close() error { return r.next.Close() }

func retryable(err error) bool {
	var pErr *llmclient.PermanentError
	if errors.As(err, &pErr) {
		return false
	}
	var cErr *llmclient.ConfigurationError
	if errors.As(err, &cErr) {
		return false
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// wait sleeps for the i-th backoff step or until ctx is done.
func (r *retrying) wait(ctx context.Context, i int) error {
	t := time.NewTimer(r.base * time.Duration(1<<i))
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (r *retrying) Generate(ctx context.Context, p llmclient.Prompt) (string, error) {
	var last error
	for i := 0; i < r.max; i++ {
		out, err := r.next.Generate(ctx, p)
		if err == nil {
			return out, nil
		}
		last = err
		if !retryable(err) || i == r.max-1 {
			break
		}
		if err := r.wait(ctx, i); err != nil {
			return "", err
		}
	}
	return "", last
}

func (r *retrying) GenerateStream(ctx context.Context, p llmclient.Prompt, onChunk func(chunk string)) (string, error) {
	var last error
	for i := 0; i < r.max; i++ {
		emitted := false
		out, err := r.next.GenerateStream(ctx, p, func(s string) {
			emitted = true
			if onChunk != nil {
				onChunk(s)
			}
		})
		if err == nil {
			return out, nil
		}
		last = err
		// The consumer has already seen partial text.
		if emitted || !retryable(err) || i == r.max-1 {
			break
		}
		if err := r.wait(ctx, i); err != nil {
			return "", err
		}
	}
	return "", last
}

func (r *retrying) GenerateStructured(ctx context.Context, p llmclient.Prompt, s llmclient.Schema) (json.RawMessage, error) {
	var last error
	for i := 0; i < r.max; i++ {
		raw, err := r.next.GenerateStructured(ctx, p, s)
		if err == nil {
			return raw, nil
		}
		last = err
		if !retryable(err) || i == r.max-1 {
			break
		}
		if err := r.wait(ctx, i); err != nil {
			return nil, err
		}
	}
	return nil, last
}

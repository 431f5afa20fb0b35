package llmclient

import (
	"context"
	"encoding/json"
	"sync"
	"time"
	"unicode/utf8"
)

// FakeCall records one invocation of a FakeClient.
type FakeCall struct {
	Method string // "generate", "stream" or "structured"
	Prompt Prompt
}

// FakeClient is a scripted LLMClient for tests and offline runs. Text
// responses are served from TextFn, structured ones from StructuredFn.
type FakeClient struct {
	Model        string
	TextFn       func(ctx context.Context, p Prompt) (string, error)
	StructuredFn func(ctx context.Context, p Prompt, s Schema) (json.RawMessage, error)
	// ChunkRunes splits streamed text into chunks of this many runes (default 16).
	ChunkRunes int
	// ChunkDelay pauses between streamed chunks.
	ChunkDelay time.Duration

	mu    sync.Mutex
	calls []FakeCall
}

func (f *FakeClient) Name() string {
	if f.Model == "" {
		return "Fake"
	}
	return "Fake:" + f.Model
}

func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) record(method string, p Prompt) {
	f.mu.Lock()
	f.calls = append(f.calls, FakeCall{Method: method, Prompt: p})
	f.mu.Unlock()
}

// Calls returns a copy of the recorded calls.
func (f *FakeClient) Calls() []FakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]FakeCall(nil), f.calls...)
}

// CallCount counts recorded calls of one method, or all calls when method
// is empty.
func (f *FakeClient) CallCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if method == "" || c.Method == method {
			n++
		}
	}
	return n
}

func (f *FakeClient) text(ctx context.Context, p Prompt) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if f.TextFn == nil {
		return "", ErrEmptyResponse
	}
	return f.TextFn(ctx, p)
}

func (f *FakeClient) Generate(ctx context.Context, p Prompt) (string, error) {
	f.record("generate", p)
	return f.text(ctx, p)
}

func (f *FakeClient) GenerateStream(ctx context.Context, p Prompt, onChunk func(chunk string)) (string, error) {
	f.record("stream", p)
	full, err := f.text(ctx, p)
	if err != nil {
		return "", err
	}
	size := f.ChunkRunes
	if size <= 0 {
		size = 16
	}
	rest := full
	for rest != "" {
		n, i := 0, 0
		for i < len(rest) && n < size {
			_, w := utf8.DecodeRuneInString(rest[i:])
			i += w
			n++
		}
		chunk := rest[:i]
		rest = rest[i:]
		if f.ChunkDelay > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(f.ChunkDelay):
			}
		} else if err := ctx.Err(); err != nil {
			return "", err
		}
		if onChunk != nil {
			onChunk(chunk)
		}
	}
	return full, nil
}

func (f *FakeClient) GenerateStructured(ctx context.Context, p Prompt, s Schema) (json.RawMessage, error) {
	f.record("structured", p)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.StructuredFn == nil {
		return nil, ErrEmptyResponse
	}
	return f.StructuredFn(ctx, p, s)
}

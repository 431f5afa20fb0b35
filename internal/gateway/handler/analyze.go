package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"holoprofile/internal/gateway/middleware"
	llmclient "holoprofile/internal/llmClient"
	"holoprofile/internal/pipeline"
	"holoprofile/internal/survey"
	"holoprofile/internal/util/jsonutil"
)

const (
	contentTypeNDJSON = "application/x-ndjson"
	contentTypeSSE    = "text/event-stream"
)

// AnalyzeRequest is the body of POST /api/analyze and the first message of
// the WebSocket variant.
type AnalyzeRequest struct {
	Answers []survey.Answer        `json:"answers"`
	Config  *llmclient.ModelConfig `json:"config,omitempty"`
	Lang    string                 `json:"lang,omitempty"`
	Test    bool                   `json:"test,omitempty"`
	Stream  bool                   `json:"stream,omitempty"`
}

func (req AnalyzeRequest) state() pipeline.State {
	st := pipeline.State{Answers: req.Answers, Lang: req.Lang}
	if req.Config != nil {
		st.Config = *req.Config
	}
	return st
}

func (req AnalyzeRequest) modelConfig() llmclient.ModelConfig {
	if req.Config == nil {
		return llmclient.ModelConfig{}
	}
	return *req.Config
}

// Analyze serves POST /api/analyze in buffered, streaming or probe mode.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Test {
		h.probe(w, r, req.modelConfig())
		return
	}
	if ct, ok := streamContentType(r, req); ok {
		if len(req.Answers) == 0 {
			writeError(w, r, &pipeline.ValidationError{Msg: pipeline.ErrNoAnswers})
			return
		}
		h.stream(w, r, req.state(), ct)
		return
	}
	profile, err := h.analyzer.Run(r.Context(), req.state())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *Handler) probe(w http.ResponseWriter, r *http.Request, cfg llmclient.ModelConfig) {
	res, err := h.prober.Probe(r.Context(), cfg)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// streamContentType reports whether the caller asked for frames, and which
// content type to answer with.
func streamContentType(r *http.Request, req AnalyzeRequest) (string, bool) {
	accept := r.Header.Get("Accept")
	if strings.Contains(accept, contentTypeSSE) {
		return contentTypeSSE, true
	}
	if strings.Contains(accept, contentTypeNDJSON) {
		return contentTypeNDJSON, true
	}
	switch strings.ToLower(r.URL.Query().Get("stream")) {
	case "1", "true":
		return contentTypeNDJSON, true
	}
	return contentTypeNDJSON, req.Stream
}

// stream writes one JSON frame per line and flushes after each. A failed
// write cancels the run and drains the remaining events.
func (h *Handler) stream(w http.ResponseWriter, r *http.Request, st pipeline.State, contentType string) {
	log := middleware.LoggerFrom(r.Context())
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	w.Header().Set("Content-Type", contentType+"; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	rc := http.NewResponseController(w)

	events := h.analyzer.Stream(ctx, st)
	for ev := range events {
		if ev.Type == pipeline.EventError {
			log.Warn("analysis stream failed", zap.Any("message", ev.Data))
		}
		if err := writeFrame(w, rc, ev); err != nil {
			log.Info("stream closed by client", zap.Error(err))
			cancel()
			for range events {
			}
			return
		}
	}
}

func writeFrame(w http.ResponseWriter, rc *http.ResponseController, ev pipeline.Event) error {
	line, err := jsonutil.MarshalNoEscape(ev)
	if err != nil {
		line, _ = jsonutil.MarshalNoEscape(pipeline.Event{Type: pipeline.EventError, Data: "failed to encode event"})
	}
	if _, err := w.Write(append(line, '\n')); err != nil {
		return err
	}
	if err := rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return err
	}
	return nil
}

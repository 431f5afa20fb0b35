package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"holoprofile/internal/artifact"
	"holoprofile/internal/gateway/middleware"
	"holoprofile/internal/llm"
	llmclient "holoprofile/internal/llmClient"
	"holoprofile/internal/pipeline"
	"holoprofile/internal/questionbank"
	"holoprofile/internal/util/jsonutil"
)

// Analyzer runs the two-stage analysis. *pipeline.Pipeline satisfies it.
type Analyzer interface {
	Run(ctx context.Context, st pipeline.State) (*artifact.FinalProfile, error)
	Stream(ctx context.Context, st pipeline.State) <-chan pipeline.Event
}

// Prober checks model connectivity. *llm.Factory satisfies it.
type Prober interface {
	Probe(ctx context.Context, cfg llmclient.ModelConfig) (*llm.ProbeResult, error)
}

// QuestionSource serves assessment documents. *questionbank.DirLoader
// satisfies it.
type QuestionSource interface {
	Registry() (*questionbank.Registry, error)
	Document(assessmentID, lang string) (*questionbank.Document, questionbank.Locale, error)
}

type Deps struct {
	Analyzer  Analyzer
	Prober    Prober
	Questions QuestionSource
	Logger    *zap.Logger
}

type Handler struct {
	analyzer  Analyzer
	prober    Prober
	questions QuestionSource
	log       *zap.Logger
}

func New(d Deps) *Handler {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		analyzer:  d.Analyzer,
		prober:    d.Prober,
		questions: d.Questions,
		log:       log.Named("handler"),
	}
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := jsonutil.MarshalNoEscape(v)
	if err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	log := middleware.LoggerFrom(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error("request failed", zap.Error(err))
	} else {
		log.Info("request rejected", zap.Error(err))
	}
	writeJSON(w, status, errorBody{Error: pipeline.ErrorMessage(err)})
}

func statusFor(err error) int {
	var vErr *pipeline.ValidationError
	switch {
	case errors.As(err, &vErr):
		return http.StatusBadRequest
	case errors.Is(err, questionbank.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a JSON body, mapping malformed input to a ValidationError.
// An empty body decodes as the zero value.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return &pipeline.ValidationError{Msg: "invalid json body"}
	}
	return nil
}

const maxBodyBytes = 1 << 20

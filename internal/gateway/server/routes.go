package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"holoprofile/internal/gateway/handler"
	"holoprofile/internal/gateway/middleware"
)

func NewRouter(h *handler.Handler, allowedOrigins []string, log *zap.Logger) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/analyze", h.Analyze).Methods(http.MethodPost)
	api.HandleFunc("/analyze/ws", h.AnalyzeWS).Methods(http.MethodGet)
	api.HandleFunc("/assessments", h.Assessments).Methods(http.MethodGet)
	api.HandleFunc("/assessments/{id}/questions", h.Questions).Methods(http.MethodGet)

	// Preflight requests are answered by CORS before routing.
	return middleware.CORS(allowedOrigins)(middleware.RequestLog(log)(r))
}

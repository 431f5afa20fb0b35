package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"holoprofile/internal/questionbank"
)

func (h *Handler) Assessments(w http.ResponseWriter, r *http.Request) {
	reg, err := h.questions.Registry()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reg)
}

// Questions serves GET /api/assessments/{id}/questions?lang=&mode=&extra=.
// Without mode the whole document is returned; with mode the flattened
// question list of that scheme.
func (h *Handler) Questions(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	q := r.URL.Query()
	doc, loc, err := h.questions.Document(id, q.Get("lang"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Language", string(loc))

	mode := strings.TrimSpace(q.Get("mode"))
	if mode == "" {
		writeJSON(w, http.StatusOK, doc)
		return
	}
	if _, ok := doc.Schemes[mode]; !ok {
		writeError(w, r, fmt.Errorf("%w: mode %q", questionbank.ErrNotFound, mode))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"mode":      mode,
		"questions": doc.Questions(mode, splitCSV(q.Get("extra"))),
	})
}

func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

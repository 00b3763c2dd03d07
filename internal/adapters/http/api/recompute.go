package api

import (
	"net/http"
	"strings"
)

// RecomputeHandler handles the manual single-cleaner trigger.
type RecomputeHandler struct {
	deps Dependencies
}

// NewRecomputeHandler creates a new recompute handler.
func NewRecomputeHandler(deps Dependencies) *RecomputeHandler {
	return &RecomputeHandler{deps: deps}
}

// HandleRecompute handles POST /recompute/{email} requests. The response is
// always the trigger result; a failed recompute answers 200 with
// success=false so admin callers can render the error without surprises.
func (h *RecomputeHandler) HandleRecompute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	email := strings.TrimPrefix(r.URL.Path, "/recompute/")
	if email == "" || strings.Contains(email, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.UpdateSingle(r.Context(), email))
}

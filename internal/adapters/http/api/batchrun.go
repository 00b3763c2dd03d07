package api

import "net/http"

// BatchHandler triggers a synchronous batch recompute run.
type BatchHandler struct {
	deps Dependencies
}

// NewBatchHandler creates a new batch handler.
func NewBatchHandler(deps Dependencies) *BatchHandler {
	return &BatchHandler{deps: deps}
}

// HandleRunBatch handles POST /batch/run requests and answers with the
// finished run report. The run never raises; failures are inside the report.
func (h *BatchHandler) HandleRunBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.RunNightlyBatch(r.Context()))
}

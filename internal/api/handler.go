package api

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/PD410/coinbase-notion-sync/internal/logger"
	"github.com/PD410/coinbase-notion-sync/internal/sync"
)

// SyncHandler exposes the sync pipeline over HTTP.
type SyncHandler struct {
	runner sync.Runner
	log    zerolog.Logger
}

// NewSyncHandler creates a new sync handler.
func NewSyncHandler(runner sync.Runner, log zerolog.Logger) *SyncHandler {
	return &SyncHandler{
		runner: runner,
		log:    log,
	}
}

// Handle serves the sync endpoint. GET and POST run a sync; OPTIONS answers
// the CORS preflight; everything else is rejected. Every response carries
// CORS headers, and the body is always JSON.
func (h *SyncHandler) Handle(w http.ResponseWriter, r *http.Request) {
	setCORS(w)

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)

	case http.MethodGet, http.MethodPost:
		ctx := logger.WithContext(r.Context(), h.log)
		result := h.runner.Run(ctx)

		status := http.StatusOK
		if !result.Success {
			status = http.StatusInternalServerError
		}
		WriteJSON(w, status, result)

	default:
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// Health handles the liveness endpoint.
func (h *SyncHandler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func setCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
}

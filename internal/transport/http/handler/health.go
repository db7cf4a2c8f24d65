package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// HealthHandler handles health-check endpoints.
type HealthHandler struct {
	queueLen func() int
}

// NewHealthHandler takes the queue depth reporter; nil omits it.
func NewHealthHandler(queueLen func() int) *HealthHandler {
	return &HealthHandler{queueLen: queueLen}
}

func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	switch chi.URLParam(r, "action") {
	case "ping":
		writeJSON(w, http.StatusOK, MessageEnvelope{Message: "pong"})
	case "queue":
		depth := 0
		if h.queueLen != nil {
			depth = h.queueLen()
		}
		writeJSON(w, http.StatusOK, map[string]int{"queue_depth": depth})
	default:
		writeError(w, http.StatusBadRequest, "unknown action")
	}
}

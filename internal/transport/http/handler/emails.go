package handler

import (
	"encoding/json"
	"net/http"

	"github.com/xzajyb/MXacc-sub002/internal/domain"
	"github.com/xzajyb/MXacc-sub002/internal/pkg/validate"
)

// Enqueuer accepts email tasks for asynchronous delivery.
type Enqueuer interface {
	Enqueue(task domain.EmailTask) (string, error)
}

// EmailHandler lets operators queue any transactional email.
type EmailHandler struct {
	queue Enqueuer
}

func NewEmailHandler(q Enqueuer) *EmailHandler { return &EmailHandler{queue: q} }

const maxEnqueueBodySize = 64 << 10

type enqueueRequest struct {
	Kind      string            `json:"kind" validate:"required"`
	Recipient string            `json:"recipient" validate:"required,email"`
	Data      map[string]string `json:"data"`
}

func (h *EmailHandler) Enqueue(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxEnqueueBodySize)
	var req enqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	kind, err := domain.ParseTemplateKind(req.Kind)
	if err != nil {
		httpError(w, err)
		return
	}
	taskID, err := h.queue.Enqueue(domain.EmailTask{
		Kind:      kind,
		Recipient: req.Recipient,
		Data:      req.Data,
	})
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, TaskEnvelope{TaskID: taskID})
}

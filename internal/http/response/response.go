package response

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
	StatusPending Status = "PENDING"
)

// Envelope is the wire shape every JSON endpoint answers with.
type Envelope struct {
	Status  Status `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func JSON(w http.ResponseWriter, r *http.Request, httpStatus int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(httpStatus)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.ErrorContext(r.Context(), "failed to encode response", "error", err)
	}
}

func Success(w http.ResponseWriter, r *http.Request, message string, data any) {
	JSON(w, r, http.StatusOK, Envelope{Status: StatusSuccess, Message: message, Data: data})
}

func Pending(w http.ResponseWriter, r *http.Request, message string) {
	JSON(w, r, http.StatusAccepted, Envelope{Status: StatusPending, Message: message})
}

func Failed(w http.ResponseWriter, r *http.Request, httpStatus int, message string) {
	JSON(w, r, httpStatus, Envelope{Status: StatusFailed, Message: message})
}

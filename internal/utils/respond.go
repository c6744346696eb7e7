package utils

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/EmpoweredVote/EV-Links/internal/apperr"
)

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Detail string `json:"detail"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "err", err)
	}
}

func WriteMessage(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, MessageResponse{Message: message})
}

// WriteError renders err as {"detail": ...}. Errors outside the apperr
// taxonomy are logged and reported as a bare 500.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.Status(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	WriteJSON(w, status, ErrorResponse{Detail: apperr.Detail(err)})
}

const maxBodyBytes = 1 << 20 // 1 MiB

// DecodeJSON decodes the body into dst and validates it.
func DecodeJSON(r *http.Request, dst any) error {
	body := http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		return apperr.Validation("Invalid request body.")
	}
	return Validate(dst)
}

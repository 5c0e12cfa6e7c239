package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/chirpnet/apiserver/internal/services"
	"github.com/chirpnet/apiserver/internal/store"
)

// DataResponse is the success envelope: {"data": ..., "message": ...}.
type DataResponse struct {
	Data    any    `json:"data"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse is a simple error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, DataResponse{Data: data})
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, DataResponse{Data: nil, Message: message})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeServiceError translates the service error taxonomy to HTTP statuses.
// Messages stay generic so nothing internal leaks to clients.
func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrEmailTaken):
		writeError(w, http.StatusConflict, "User with this email already exists")
	case errors.Is(err, services.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, services.ErrWrongPassword):
		writeError(w, http.StatusBadRequest, "Current password is incorrect")
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "User not found")
	default:
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

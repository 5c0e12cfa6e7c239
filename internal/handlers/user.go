package handlers

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"github.com/chirpnet/apiserver/internal/auth"
	"github.com/chirpnet/apiserver/internal/services"
	"github.com/go-chi/chi/v5"
)

const maxAvatarBytes = 5 << 20

// UserHandler provides HTTP handlers for user listing and avatars.
type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// UserRouter registers user routes on the given router. Avatar routes are
// mounted only when an object store is configured.
func UserRouter(r chi.Router, userService *services.UserService, guard func(http.Handler) http.Handler) {
	handler := NewUserHandler(userService)

	r.Use(guard)
	r.Get("/", handler.ListUsers)
	if userService.HasAvatarStorage() {
		r.Put("/me/avatar", handler.UploadAvatar)
		r.Get("/me/avatar", handler.GetAvatar)
	}
}

// ListUsers returns all users except the caller.
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.SubjectFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	users, err := h.userService.ListOthers(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err, "failed to list users")
		return
	}

	writeData(w, http.StatusOK, users)
}

// UploadAvatar stores the caller's avatar image.
func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.SubjectFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	contentType := strings.TrimSpace(r.Header.Get("Content-Type"))
	if !strings.HasPrefix(contentType, "image/") {
		writeError(w, http.StatusBadRequest, "avatar must be an image")
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxAvatarBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload")
		return
	}
	if len(data) == 0 {
		writeError(w, http.StatusBadRequest, "empty upload")
		return
	}
	if len(data) > maxAvatarBytes {
		writeError(w, http.StatusBadRequest, "avatar too large")
		return
	}

	err = h.userService.SaveAvatar(r.Context(), userID, bytes.NewReader(data), int64(len(data)), contentType)
	if err != nil {
		writeServiceError(w, err, "failed to store avatar")
		return
	}

	writeMessage(w, http.StatusOK, "Avatar updated successfully")
}

// GetAvatar streams the caller's stored avatar.
func (h *UserHandler) GetAvatar(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.SubjectFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	reader, contentType, err := h.userService.Avatar(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusNotFound, "avatar not found")
		return
	}
	defer reader.Close()

	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, reader)
}

package handlers

import (
	"encoding/json"
	"net/http"
	"net/mail"
	"strings"

	"github.com/chirpnet/apiserver/internal/auth"
	"github.com/chirpnet/apiserver/internal/services"
	"github.com/chirpnet/apiserver/types"
	"github.com/go-chi/chi/v5"
)

const minPasswordLength = 6

// AuthHandler provides the authentication endpoints.
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, authService *services.AuthService, guard func(http.Handler) http.Handler) {
	handler := NewAuthHandler(authService)

	r.Post("/register", handler.Register)
	r.Post("/login", handler.Login)
	r.With(guard).Patch("/change-password", handler.ChangePassword)
	r.With(guard).Get("/me", handler.Me)
	r.With(guard).Post("/logout", handler.Logout)
}

// Register creates a new account and returns the user plus a session token.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing required fields")
		return
	}
	if addr, err := mail.ParseAddress(req.Email); err != nil || addr.Address != req.Email {
		writeError(w, http.StatusBadRequest, "invalid email address")
		return
	}
	if len(req.Password) < minPasswordLength {
		writeError(w, http.StatusBadRequest, "password must be at least 6 characters")
		return
	}

	user, token, err := h.authService.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err, "failed to create user")
		return
	}

	writeData(w, http.StatusCreated, AuthResponse{User: user, Token: token})
}

// Login verifies credentials and returns the user plus a fresh token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing credentials")
		return
	}

	user, token, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err, "failed to authenticate")
		return
	}

	writeData(w, http.StatusOK, AuthResponse{User: user, Token: token})
}

// ChangePassword replaces the caller's password hash.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.SubjectFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "missing required fields")
		return
	}
	if len(req.NewPassword) < minPasswordLength {
		writeError(w, http.StatusBadRequest, "password must be at least 6 characters")
		return
	}

	if err := h.authService.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		writeServiceError(w, err, "failed to change password")
		return
	}

	writeMessage(w, http.StatusOK, "Password changed successfully")
}

// Me returns the current authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.SubjectFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.authService.CurrentUser(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err, "failed to load user")
		return
	}

	writeData(w, http.StatusOK, user)
}

// Logout acknowledges a client-side token discard.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, http.StatusOK, h.authService.Logout())
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// AuthResponse is the payload inside "data" for register and login.
type AuthResponse struct {
	User  types.User `json:"user"`
	Token string     `json:"token"`
}

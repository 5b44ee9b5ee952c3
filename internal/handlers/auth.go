package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/benlox44/restaurant-auth/internal/auth"
)

const minPasswordLength = 8

// AuthHandler exposes registration, login, and the token-based account
// recovery endpoints.
type AuthHandler struct {
	svc *auth.Service
}

func NewAuthHandler(svc *auth.Service) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, svc *auth.Service) {
	h := NewAuthHandler(svc)

	r.Post("/", h.Register)
	r.Post("/login", h.Login)
	r.Post("/request-password-reset", h.RequestPasswordReset)
	r.Post("/reset-password", h.ResetPassword)
	r.Post("/reset-password-after-revert", h.ResetPasswordAfterRevert)
	r.Post("/request-unlock", h.RequestUnlock)

	r.Get("/confirm-email", h.ConfirmEmail)
	r.Get("/confirm-email-update", h.ConfirmEmailUpdate)
	r.Get("/revert-email", h.RevertEmail)
	r.Get("/unlock-account", h.UnlockAccount)
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

type EmailRequest struct {
	Email string `json:"email"`
}

type NewPasswordRequest struct {
	NewPassword string `json:"newPassword"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
}

func validEmail(email string) bool {
	at := strings.Index(email, "@")
	return at > 0 && at < len(email)-1
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" || !validEmail(req.Email) {
		writeError(w, http.StatusBadRequest, "missing required fields")
		return
	}
	if len(req.Password) < minPasswordLength {
		writeError(w, http.StatusBadRequest, "password too short")
		return
	}

	if err := h.svc.Register(r.Context(), req.Name, req.Email, req.Password); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, MessageResponse{Message: "Confirmation email sent to " + req.Email})
}

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

	session, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, LoginResponse{AccessToken: session})
}

func (h *AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if !validEmail(req.Email) {
		writeError(w, http.StatusBadRequest, "missing required fields")
		return
	}

	if err := h.svc.RequestPasswordReset(r.Context(), req.Email); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "If your email is registered and is confirmed, a link was sent"})
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	h.resetPassword(w, r, h.svc.ResetPassword)
}

func (h *AuthHandler) ResetPasswordAfterRevert(w http.ResponseWriter, r *http.Request) {
	h.resetPassword(w, r, h.svc.ResetPasswordAfterRevert)
}

func (h *AuthHandler) resetPassword(
	w http.ResponseWriter,
	r *http.Request,
	reset func(ctx context.Context, raw, newSecret string) error,
) {
	var req NewPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if len(req.NewPassword) < minPasswordLength {
		writeError(w, http.StatusBadRequest, "password too short")
		return
	}

	if err := reset(r.Context(), r.URL.Query().Get("token"), req.NewPassword); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Password changed successfully"})
}

func (h *AuthHandler) RequestUnlock(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if !validEmail(req.Email) {
		writeError(w, http.StatusBadRequest, "missing required fields")
		return
	}

	if err := h.svc.RequestUnlock(r.Context(), req.Email); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "If your account exists and is locked, a link was sent"})
}

func (h *AuthHandler) ConfirmEmail(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ConfirmEmail(r.Context(), r.URL.Query().Get("token")); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Email confirmed successfully"})
}

func (h *AuthHandler) ConfirmEmailUpdate(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ConfirmEmailUpdate(r.Context(), r.URL.Query().Get("token")); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Email updated successfully"})
}

func (h *AuthHandler) RevertEmail(w http.ResponseWriter, r *http.Request) {
	reset, err := h.svc.RevertEmail(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Message    string `json:"message"`
		ResetToken string `json:"reset_token"`
	}{
		Message:    "Email reverted successfully; use the reset token to set a new password",
		ResetToken: reset,
	})
}

func (h *AuthHandler) UnlockAccount(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.UnlockAccount(r.Context(), r.URL.Query().Get("token")); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Account unlocked successfully"})
}

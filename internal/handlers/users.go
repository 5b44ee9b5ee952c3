package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/benlox44/restaurant-auth/internal/auth"
	"github.com/benlox44/restaurant-auth/types"
)

// UsersHandler exposes the session-authenticated profile endpoints.
type UsersHandler struct {
	svc *auth.Service
}

func NewUsersHandler(svc *auth.Service) *UsersHandler {
	return &UsersHandler{svc: svc}
}

// UsersRouter registers user routes on the given router. All routes require a
// session token.
func UsersRouter(r chi.Router, svc *auth.Service, requireAuth func(http.Handler) http.Handler) {
	h := NewUsersHandler(svc)

	r.Use(requireAuth)
	r.Get("/me", h.Me)
	r.Patch("/me", h.UpdateProfile)
	r.Patch("/me/password", h.UpdatePassword)
	r.Patch("/me/email", h.RequestEmailUpdate)
	r.Delete("/me", h.DeleteMe)

	r.Get("/", h.FindAll)
	r.Delete("/{id}", h.DeleteByID)
}

type UpdateProfileRequest struct {
	Name string `json:"name"`
}

type UpdatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type UpdateEmailRequest struct {
	Password string `json:"password"`
	NewEmail string `json:"newEmail"`
}

type UserResponse struct {
	Data types.SafeUser `json:"data"`
}

type UsersResponse struct {
	Data []types.SafeUser `json:"data"`
}

func (h *UsersHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.svc.FindMe(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, UserResponse{Data: user})
}

func (h *UsersHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "missing required fields")
		return
	}

	if err := h.svc.UpdateProfile(r.Context(), userID, req.Name); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Profile updated successfully"})
}

func (h *UsersHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req UpdatePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.CurrentPassword == "" {
		writeError(w, http.StatusBadRequest, "missing required fields")
		return
	}
	if len(req.NewPassword) < minPasswordLength {
		writeError(w, http.StatusBadRequest, "password too short")
		return
	}

	if err := h.svc.UpdatePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Password updated successfully"})
}

func (h *UsersHandler) RequestEmailUpdate(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req UpdateEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	req.NewEmail = strings.TrimSpace(req.NewEmail)
	if req.Password == "" || !validEmail(req.NewEmail) {
		writeError(w, http.StatusBadRequest, "missing required fields")
		return
	}

	if err := h.svc.RequestEmailUpdate(r.Context(), userID, req.Password, req.NewEmail); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Confirmation email sent successfully"})
}

func (h *UsersHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.svc.DeleteAccount(r.Context(), userID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Your account was deleted successfully"})
}

func (h *UsersHandler) FindAll(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.FindAll(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, UsersResponse{Data: users})
}

func (h *UsersHandler) DeleteByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	if err := h.svc.DeleteAccount(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "User deleted successfully"})
}

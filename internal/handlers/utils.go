package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/benlox44/restaurant-auth/internal/auth"
	"github.com/benlox44/restaurant-auth/internal/store"
	"github.com/benlox44/restaurant-auth/internal/token"
)

type contextKey string

const contextSubjectKey contextKey = "sub"

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func userIDFromContext(ctx context.Context) (int64, error) {
	subject, ok := ctx.Value(contextSubjectKey).(int64)
	if !ok || subject < 1 {
		return 0, errors.New("missing subject")
	}
	return subject, nil
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeServiceError maps core errors onto HTTP responses. Every
// token-verification sub-failure collapses to one generic message so the
// response never reveals whether a token was forged, expired, mis-purposed,
// or replayed.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case token.IsVerificationError(err):
		writeError(w, http.StatusUnauthorized, "invalid or expired token")
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, auth.ErrAccountLocked):
		writeError(w, http.StatusForbidden, "account is locked")
	case errors.Is(err, auth.ErrEmailNotConfirmed):
		writeError(w, http.StatusForbidden, "email not confirmed")
	case errors.Is(err, auth.ErrIncorrectPassword):
		writeError(w, http.StatusForbidden, "incorrect password")
	case errors.Is(err, auth.ErrEmailTaken),
		errors.Is(err, auth.ErrPasswordReuse),
		errors.Is(err, auth.ErrEmailChangeCooldown),
		errors.Is(err, auth.ErrSameEmail),
		errors.Is(err, auth.ErrAlreadyConfirmed),
		errors.Is(err, auth.ErrAlreadyUnlocked):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, auth.ErrSameName):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "user not found")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func bearerToken(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", errors.New("missing authorization")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization")
	}
	raw := strings.TrimSpace(parts[1])
	if raw == "" {
		return "", errors.New("invalid authorization")
	}
	return raw, nil
}

// RequireAuth verifies a session-purpose bearer token and injects the caller
// id into the request context. The core never touches transport metadata;
// handlers resolve the authenticated caller once and pass a plain value down.
func RequireAuth(tokens *token.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := bearerToken(r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			claims, err := tokens.Verify(r.Context(), raw, token.PurposeSession)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			subject, err := claims.UserID()
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			ctx := context.WithValue(r.Context(), contextSubjectKey, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

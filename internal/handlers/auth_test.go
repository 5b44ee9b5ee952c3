package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/benlox44/restaurant-auth/internal/auth"
	"github.com/benlox44/restaurant-auth/internal/limiters"
	"github.com/benlox44/restaurant-auth/internal/mail"
	"github.com/benlox44/restaurant-auth/internal/password"
	"github.com/benlox44/restaurant-auth/internal/store"
	"github.com/benlox44/restaurant-auth/internal/token"
	"github.com/benlox44/restaurant-auth/types"
)

type memoryRepo struct {
	mu    sync.Mutex
	seq   int64
	users map[int64]types.User
}

func (r *memoryRepo) FindByID(_ context.Context, id int64) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *memoryRepo) FindByEmail(_ context.Context, email string) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *memoryRepo) FindAll(_ context.Context) ([]types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	users := make([]types.User, 0, len(r.users))
	for _, user := range r.users {
		users = append(users, user)
	}
	return users, nil
}

func (r *memoryRepo) Create(_ context.Context, user types.User) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	user.ID = r.seq
	user.CreatedAt = time.Now()
	r.users[user.ID] = user
	return user, nil
}

func (r *memoryRepo) Update(_ context.Context, user types.User) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return types.User{}, store.ErrNotFound
	}
	r.users[user.ID] = user
	return user, nil
}

func (r *memoryRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *memoryRepo) DeleteUnconfirmedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for id, user := range r.users {
		if !user.IsEmailConfirmed && user.CreatedAt.Before(cutoff) {
			delete(r.users, id)
			count++
		}
	}
	return count, nil
}

func newTestRouter(t *testing.T) (*chi.Mux, *token.Manager, *memoryRepo) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	tokens, err := token.NewManager([]byte("test-secret-test-secret-test-1234"), token.NewRedisReplayLedger(client))
	if err != nil {
		t.Fatalf("token.NewManager failed: %v", err)
	}
	hasher, err := password.NewBcrypt(4)
	if err != nil {
		t.Fatalf("password.NewBcrypt failed: %v", err)
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	repo := &memoryRepo{users: make(map[int64]types.User)}
	svc, err := auth.New(auth.Config{
		Users:  repo,
		Tokens: tokens,
		Mail:   mail.NewLogNotifier(log, "http://localhost:8080"),
		Hasher: hasher,
		Failures: limiters.NewLoginLimiter(client, limiters.LoginConfig{
			Threshold: 5,
			Window:    5 * time.Minute,
		}),
		Logger: log,
	})
	if err != nil {
		t.Fatalf("auth.New failed: %v", err)
	}

	router := chi.NewRouter()
	router.Route("/auth", func(r chi.Router) {
		AuthRouter(r, svc)
	})
	router.Route("/users", func(r chi.Router) {
		UsersRouter(r, svc, RequireAuth(tokens))
	})
	return router, tokens, repo
}

func seedConfirmedUser(t *testing.T, repo *memoryRepo, email, secret string) types.User {
	t.Helper()

	hasher, err := password.NewBcrypt(4)
	if err != nil {
		t.Fatalf("password.NewBcrypt failed: %v", err)
	}
	hash, err := hasher.Hash(secret)
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	user, err := repo.Create(context.Background(), types.User{
		Name:             "Test User",
		Email:            email,
		PasswordHash:     hash,
		IsEmailConfirmed: true,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return user
}

func doJSON(t *testing.T, router http.Handler, method, target string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body failed: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestLoginEndpoint(t *testing.T) {
	router, _, repo := newTestRouter(t)
	seedConfirmedUser(t, repo, "a@x.com", "hunter2hunter2")

	rec := doJSON(t, router, http.MethodPost, "/auth/login", LoginRequest{Email: "a@x.com", Password: "hunter2hunter2"}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp LoginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response failed: %v", err)
	}
	if resp.AccessToken == "" {
		t.Fatal("expected access token")
	}
}

func TestLoginEndpointInvalidCredentials(t *testing.T) {
	router, _, repo := newTestRouter(t)
	seedConfirmedUser(t, repo, "a@x.com", "hunter2hunter2")

	rec := doJSON(t, router, http.MethodPost, "/auth/login", LoginRequest{Email: "a@x.com", Password: "wrong"}, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status %d, want 401", rec.Code)
	}
}

// All token-verification failures must collapse to one externally visible
// message, whatever the internal cause.
func TestTokenErrorsCollapse(t *testing.T) {
	router, tokens, repo := newTestRouter(t)
	user := seedConfirmedUser(t, repo, "a@x.com", "hunter2hunter2")

	wrongPurpose, err := tokens.Issue(token.PurposeUnlockAccount, user.ID, user.Email, time.Hour)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	for name, raw := range map[string]string{
		"garbage":       "not-a-token",
		"wrong purpose": wrongPurpose,
	} {
		rec := doJSON(t, router, http.MethodGet, "/auth/confirm-email?token="+raw, nil, nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: status %d, want 401", name, rec.Code)
		}
		var resp ErrorResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response failed: %v", err)
		}
		if resp.Error != "invalid or expired token" {
			t.Fatalf("%s: error %q leaks the internal cause", name, resp.Error)
		}
	}
}

func TestMeRequiresSessionToken(t *testing.T) {
	router, tokens, repo := newTestRouter(t)
	user := seedConfirmedUser(t, repo, "a@x.com", "hunter2hunter2")

	rec := doJSON(t, router, http.MethodGet, "/users/me", nil, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status %d, want 401 without token", rec.Code)
	}

	// A non-session purpose must not open the session-guarded surface.
	reset, err := tokens.Issue(token.PurposeResetPassword, user.ID, user.Email, time.Hour)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	rec = doJSON(t, router, http.MethodGet, "/users/me", nil, map[string]string{"Authorization": "Bearer " + reset})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status %d, want 401 with reset token", rec.Code)
	}

	session, err := tokens.Issue(token.PurposeSession, user.ID, user.Email, time.Hour)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	rec = doJSON(t, router, http.MethodGet, "/users/me", nil, map[string]string{"Authorization": "Bearer " + session})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp UserResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response failed: %v", err)
	}
	if resp.Data.Email != "a@x.com" {
		t.Fatalf("unexpected profile %+v", resp.Data)
	}
}

func TestRegisterEndpointValidation(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/auth/", RegisterRequest{Name: "A", Email: "bad", Password: "hunter2hunter2"}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400 for bad email", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/auth/", RegisterRequest{Name: "A", Email: "a@x.com", Password: "short"}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400 for short password", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/auth/", RegisterRequest{Name: "A", Email: "a@x.com", Password: "hunter2hunter2"}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status %d, want 201: %s", rec.Code, rec.Body.String())
	}
}

package auth

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/benlox44/restaurant-auth/internal/limiters"
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

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{users: make(map[int64]types.User)}
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

type sentMail struct {
	To    string
	Token string
}

type captureNotifier struct {
	mu sync.Mutex

	Confirmations []sentMail
	Resets        []sentMail
	Unlocks       []sentMail
	Reverts       []sentMail
	Changes       []sentMail
}

func (n *captureNotifier) record(list *[]sentMail, address, tok string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	*list = append(*list, sentMail{To: address, Token: tok})
}

func (n *captureNotifier) SendConfirmation(_ context.Context, address, tok string) {
	n.record(&n.Confirmations, address, tok)
}

func (n *captureNotifier) SendPasswordReset(_ context.Context, address, tok string) {
	n.record(&n.Resets, address, tok)
}

func (n *captureNotifier) SendUnlock(_ context.Context, address, tok string) {
	n.record(&n.Unlocks, address, tok)
}

func (n *captureNotifier) SendRevertNotice(_ context.Context, address, tok string) {
	n.record(&n.Reverts, address, tok)
}

func (n *captureNotifier) SendChangeConfirmation(_ context.Context, address, tok string) {
	n.record(&n.Changes, address, tok)
}

type testEnv struct {
	svc     *Service
	repo    *memoryRepo
	mail    *captureNotifier
	tokens  *token.Manager
	limiter *limiters.LoginLimiter
	hasher  *password.Bcrypt
	redis   *miniredis.Miniredis
}

func newTestEnv(t *testing.T) *testEnv {
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

	repo := newMemoryRepo()
	notifier := &captureNotifier{}
	limiter := limiters.NewLoginLimiter(client, limiters.LoginConfig{Threshold: 5, Window: 5 * time.Minute})

	svc, err := New(Config{
		Users:    repo,
		Tokens:   tokens,
		Mail:     notifier,
		Hasher:   hasher,
		Failures: limiter,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	return &testEnv{
		svc:     svc,
		repo:    repo,
		mail:    notifier,
		tokens:  tokens,
		limiter: limiter,
		hasher:  hasher,
		redis:   mr,
	}
}

// seedUser creates a confirmed account directly in the repo.
func (e *testEnv) seedUser(t *testing.T, email, secret string) types.User {
	t.Helper()

	hash, err := e.hasher.Hash(secret)
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	user, err := e.repo.Create(context.Background(), types.User{
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

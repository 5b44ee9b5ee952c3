// Package server wires the collaborators together and runs the HTTP
// front-end.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/benlox44/restaurant-auth/config"
	"github.com/benlox44/restaurant-auth/internal/auth"
	"github.com/benlox44/restaurant-auth/internal/db"
	"github.com/benlox44/restaurant-auth/internal/handlers"
	"github.com/benlox44/restaurant-auth/internal/limiters"
	"github.com/benlox44/restaurant-auth/internal/mail"
	"github.com/benlox44/restaurant-auth/internal/password"
	"github.com/benlox44/restaurant-auth/internal/store"
	"github.com/benlox44/restaurant-auth/internal/token"
)

// Server wraps the HTTP server, router, and shared connections.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	redis      *redis.Client
	auth       *auth.Service
	log        *slog.Logger
}

// New opens the backing stores and builds the full service graph.
func New(ctx context.Context, cfg config.Config, log *slog.Logger) (*Server, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	dbConn, err := db.Open(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	tokens, err := token.NewManager([]byte(cfg.JWTSecret), token.NewRedisReplayLedger(redisClient))
	if err != nil {
		_ = dbConn.Close()
		_ = redisClient.Close()
		return nil, err
	}

	hasher, err := password.NewBcrypt(cfg.Auth.BcryptCost)
	if err != nil {
		_ = dbConn.Close()
		_ = redisClient.Close()
		return nil, err
	}

	authService, err := auth.New(auth.Config{
		Users:  store.NewUserRepository(dbConn),
		Tokens: tokens,
		Mail:   mail.NewLogNotifier(log, cfg.BaseURL),
		Hasher: hasher,
		Failures: limiters.NewLoginLimiter(redisClient, limiters.LoginConfig{
			Threshold: cfg.Auth.MaxLoginFailures,
			Window:    cfg.Auth.LoginFailureWindow,
		}),
		Logger:                log,
		EmailChangeCooldown:   cfg.Auth.EmailChangeCooldown,
		UnconfirmedAccountAge: cfg.Auth.UnconfirmedAccountAge,
	})
	if err != nil {
		_ = dbConn.Close()
		_ = redisClient.Close()
		return nil, err
	}

	requireAuth := handlers.RequireAuth(tokens)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, authService)
	})
	router.Route("/users", func(r chi.Router) {
		handlers.UsersRouter(r, authService, requireAuth)
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		redis:      redisClient,
		auth:       authService,
		log:        log,
	}, nil
}

// Auth exposes the core service, e.g. for the startup sweep.
func (s *Server) Auth() *auth.Service {
	return s.auth
}

// Start runs the HTTP server until it is closed.
func (s *Server) Start() error {
	s.log.Info("server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and closes the shared connections.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if s.db != nil {
		_ = s.db.Close()
	}
	if s.redis != nil {
		_ = s.redis.Close()
	}
	return err
}

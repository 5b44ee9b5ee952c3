package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/benlox44/restaurant-auth/config"
	"github.com/benlox44/restaurant-auth/internal/auth"
	"github.com/benlox44/restaurant-auth/internal/db"
	"github.com/benlox44/restaurant-auth/internal/limiters"
	"github.com/benlox44/restaurant-auth/internal/mail"
	"github.com/benlox44/restaurant-auth/internal/password"
	"github.com/benlox44/restaurant-auth/internal/store"
	"github.com/benlox44/restaurant-auth/internal/token"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete unconfirmed accounts older than the allowed age",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

		dbConn, err := db.Open(cmd.Context(), cfg.Database)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		defer dbConn.Close()

		// The sweep never issues or verifies tokens, but the service
		// constructor requires the full collaborator set.
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		defer redisClient.Close()

		secret := cfg.JWTSecret
		if secret == "" {
			secret = "sweep-only"
		}
		tokens, err := token.NewManager([]byte(secret), token.NewRedisReplayLedger(redisClient))
		if err != nil {
			return err
		}
		hasher, err := password.NewBcrypt(cfg.Auth.BcryptCost)
		if err != nil {
			return err
		}

		svc, err := auth.New(auth.Config{
			Users:  store.NewUserRepository(dbConn),
			Tokens: tokens,
			Mail:   mail.NewLogNotifier(log, cfg.BaseURL),
			Hasher: hasher,
			Failures: limiters.NewLoginLimiter(redisClient, limiters.LoginConfig{
				Threshold: cfg.Auth.MaxLoginFailures,
				Window:    cfg.Auth.LoginFailureWindow,
			}),
			Logger:                log,
			UnconfirmedAccountAge: cfg.Auth.UnconfirmedAccountAge,
		})
		if err != nil {
			return err
		}

		count, err := svc.SweepUnconfirmed(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %d unconfirmed accounts\n", count)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}

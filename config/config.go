package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort int
	BaseURL    string
	JWTSecret  string
	Database   DatabaseConfig
	Redis      RedisConfig
	Auth       AuthConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	UseSSL   bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// AuthConfig groups the knobs of the account-protection subsystem. Defaults
// match the documented policy: five failures in a five-minute window lock the
// account, email changes are allowed once per 30 days, and unconfirmed
// accounts are swept after 24 hours.
type AuthConfig struct {
	BcryptCost            int
	MaxLoginFailures      int
	LoginFailureWindow    time.Duration
	EmailChangeCooldown   time.Duration
	UnconfirmedAccountAge time.Duration
}

func LoadConfig() Config {
	if os.Getenv("ENV") == "dev" {
		godotenv.Load()
	}

	return Config{
		ServerPort: getEnvInt("SERVER_PORT", 8080),
		BaseURL:    getEnv("BASE_URL", "http://localhost:8080"),
		JWTSecret:  getEnv("JWT_SECRET", ""),
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "restaurant"),
			Password: getEnv("DB_PASSWORD", "password"),
			DBName:   getEnv("DB_NAME", "restaurant_auth"),
			UseSSL:   getEnv("DB_SSL", "") == "require",
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			BcryptCost:            getEnvInt("BCRYPT_COST", 10),
			MaxLoginFailures:      getEnvInt("MAX_LOGIN_FAILURES", 5),
			LoginFailureWindow:    getEnvDuration("LOGIN_FAILURE_WINDOW", 5*time.Minute),
			EmailChangeCooldown:   getEnvDuration("EMAIL_CHANGE_COOLDOWN", 30*24*time.Hour),
			UnconfirmedAccountAge: getEnvDuration("UNCONFIRMED_ACCOUNT_AGE", 24*time.Hour),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		var value int
		if _, err := fmt.Sscanf(valueStr, "%d", &value); err == nil {
			return value
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := time.ParseDuration(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}

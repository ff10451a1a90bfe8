// Package config loads ShopAdmin settings from the environment.
// A .env file in the working directory is read first when present.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DevSessionSecret is used when SESSION_SECRET is empty. Serve warns about it.
const DevSessionSecret = "dev-insecure-secret-change-me-now"

type Config struct {
	Host string
	Port string

	// Database: DatabaseURL wins over the POSTGRES_* parts.
	DatabaseURL string
	PGHost      string
	PGPort      string
	PGUser      string
	PGPassword  string
	PGDatabase  string
	PGSSLMode   string

	SessionSecret  string
	SessionBackend string
	SessionMaxAge  time.Duration
	HTTPS          bool

	RedisURL string

	LogLevel string
	LogJSON  bool

	PasswordHash string
	BcryptCost   int

	LoginRateLimit  int
	LoginRateWindow time.Duration

	SeedEmail    string
	SeedPassword string
	SeedName     string
}

// Load reads .env (if any) and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: read .env: %w", err)
	}
	return FromEnv(), nil
}

// FromEnv builds a Config from the current environment only.
func FromEnv() *Config {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = os.Getenv("POSTGRES_DSN")
	}
	return &Config{
		Host: getenv("HOST", "127.0.0.1"),
		Port: getenv("PORT", "8080"),

		DatabaseURL: dsn,
		PGHost:      getenv("POSTGRES_HOST", "127.0.0.1"),
		PGPort:      getenv("POSTGRES_PORT", "5432"),
		PGUser:      getenv("POSTGRES_USER", "postgres"),
		PGPassword:  os.Getenv("POSTGRES_PASSWORD"),
		PGDatabase:  getenv("POSTGRES_DB", "shopadmin"),
		PGSSLMode:   getenv("POSTGRES_SSLMODE", "disable"),

		SessionSecret:  getenv("SESSION_SECRET", DevSessionSecret),
		SessionBackend: strings.ToLower(getenv("SESSION_BACKEND", "memory")),
		SessionMaxAge:  getenvDuration("SESSION_MAX_AGE", 7*24*time.Hour),
		HTTPS:          os.Getenv("APP_HTTPS") == "1",

		RedisURL: os.Getenv("REDIS_URL"),

		LogLevel: getenv("LOG_LEVEL", "info"),
		LogJSON:  getenvBool("LOG_JSON", false),

		PasswordHash: strings.ToLower(getenv("PASSWORD_HASH", "bcrypt")),
		BcryptCost:   getenvInt("BCRYPT_COST", 0),

		LoginRateLimit:  getenvInt("LOGIN_RATE_LIMIT", 20),
		LoginRateWindow: getenvDuration("LOGIN_RATE_WINDOW", 5*time.Minute),

		SeedEmail:    strings.TrimSpace(os.Getenv("ADMIN_SEED_EMAIL")),
		SeedPassword: os.Getenv("ADMIN_SEED_PASSWORD"),
		SeedName:     getenv("ADMIN_SEED_NAME", "Administrator"),
	}
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	switch c.SessionBackend {
	case "memory", "sql":
	case "redis":
		if c.RedisURL == "" {
			return errors.New("config: SESSION_BACKEND=redis requires REDIS_URL")
		}
	default:
		return fmt.Errorf("config: unknown SESSION_BACKEND %q", c.SessionBackend)
	}
	switch c.PasswordHash {
	case "bcrypt", "argon2id":
	default:
		return fmt.Errorf("config: unknown PASSWORD_HASH %q", c.PasswordHash)
	}
	if c.SessionMaxAge <= 0 {
		return errors.New("config: SESSION_MAX_AGE must be positive")
	}
	if c.LoginRateLimit < 0 {
		return errors.New("config: LOGIN_RATE_LIMIT must not be negative")
	}
	if (c.SeedEmail == "") != (c.SeedPassword == "") {
		return errors.New("config: ADMIN_SEED_EMAIL and ADMIN_SEED_PASSWORD must be set together")
	}
	return nil
}

// Addr is the listen address.
func (c *Config) Addr() string { return c.Host + ":" + c.Port }

// HasSeed reports whether a seed administrator is configured.
func (c *Config) HasSeed() bool { return c.SeedEmail != "" && c.SeedPassword != "" }

// DSN returns the database connection string. Without DATABASE_URL it is
// assembled in lib/pq key=value form from the POSTGRES_* parts.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	parts := []string{
		"host=" + c.PGHost,
		"port=" + c.PGPort,
		"user=" + c.PGUser,
		"dbname=" + c.PGDatabase,
		"sslmode=" + c.PGSSLMode,
	}
	if c.PGPassword != "" {
		parts = append(parts, "password="+c.PGPassword)
	}
	return strings.Join(parts, " ")
}

// SafeDSN describes the database target without credentials.
func (c *Config) SafeDSN() string {
	if c.DatabaseURL != "" {
		if strings.HasPrefix(c.DatabaseURL, "sqlite://") {
			return c.DatabaseURL
		}
		return "DATABASE_URL provided"
	}
	return fmt.Sprintf("host=%s user=%s db=%s", c.PGHost, c.PGUser, c.PGDatabase)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getenvBool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getenvDuration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"descstats/internal/errors"
)

// Config is the worker configuration read from the environment.
type Config struct {
	Database DatabaseConfig
	Queue    QueueConfig
	Server   ServerConfig
	Stats    StatsConfig
	LogLevel string
}

type DatabaseConfig struct {
	DSN string
}

type QueueConfig struct {
	RedisURL string
	Name     string
}

type ServerConfig struct {
	Addr string
}

type StatsConfig struct {
	RequireContiguous bool
	BatchConcurrency  int
}

// LoadDotEnv loads each .env file that exists; earlier files win.
func LoadDotEnv(paths ...string) {
	for _, p := range paths {
		_ = godotenv.Load(p)
	}
}

// Load reads configuration from environment variables. A database DSN is
// only required by modes that touch Postgres, so it is checked separately
// by RequireDatabase.
func Load() (*Config, error) {
	dsn, _ := BuildDSNFromEnv()

	concurrency := getEnvIntOrDefault("BATCH_CONCURRENCY", 4)
	if concurrency <= 0 {
		return nil, errors.ConfigInvalid(fmt.Sprintf("BATCH_CONCURRENCY must be positive, got %d", concurrency))
	}

	return &Config{
		Database: DatabaseConfig{DSN: dsn},
		Queue: QueueConfig{
			RedisURL: getEnvOrDefault("REDIS_URL", "redis://localhost:6379/0"),
			Name:     getEnvOrDefault("WORKER_QUEUE", "default"),
		},
		Server: ServerConfig{Addr: getEnvOrDefault("HTTP_ADDR", ":8080")},
		Stats: StatsConfig{
			RequireContiguous: getEnvBoolOrDefault("STATS_REQUIRE_CONTIGUOUS", true),
			BatchConcurrency:  concurrency,
		},
		LogLevel: getEnvOrDefault("LOG_LEVEL", "INFO"),
	}, nil
}

// RequireDatabase fails when no DSN could be built.
func (c *Config) RequireDatabase() error {
	if c.Database.DSN == "" {
		return errors.ConfigInvalid("POSTGRES_DB not set; set env vars or DATABASE_URL")
	}
	return nil
}

// BuildDSNFromEnv prefers the POSTGRES_* variables and falls back to DATABASE_URL.
func BuildDSNFromEnv() (string, error) {
	host := os.Getenv("POSTGRES_HOST")
	port := os.Getenv("POSTGRES_PORT")
	user := os.Getenv("POSTGRES_USER")
	pass := os.Getenv("POSTGRES_PASSWORD")
	dbname := os.Getenv("POSTGRES_DB")
	if dbname == "" {
		if url := os.Getenv("DATABASE_URL"); url != "" {
			return url, nil
		}
		return "", errors.ConfigInvalid("POSTGRES_DB not set; set env vars or DATABASE_URL")
	}
	if host == "" {
		host = "localhost"
	}
	if port == "" {
		port = "5432"
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable", host, port, user, pass, dbname), nil
}

func getEnvOrDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getEnvIntOrDefault(key string, def int) int {
	if v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key))); err == nil {
		return v
	}
	return def
}

func getEnvBoolOrDefault(key string, def bool) bool {
	if v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key))); err == nil {
		return v
	}
	return def
}

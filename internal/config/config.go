// Package config assembles runtime configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds every runtime setting of the server.
type Config struct {
	DBConnStr string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	KafkaBrokers string
	KafkaTopic   string

	HTTPAddr string
	APIToken string

	MockProviders bool
	RefreshCron   string
}

// Load reads configuration from environment variables, applying
// development defaults for anything unset.
func Load() (*Config, error) {
	cfg := &Config{
		DBConnStr:     os.Getenv("DB_CONN_STR"),
		RedisAddr:     envOr("REDIS_ADDR", ""),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		KafkaBrokers:  os.Getenv("KAFKA_BROKERS"),
		KafkaTopic:    envOr("KAFKA_TOPIC", "finview.price-bars"),
		HTTPAddr:      envOr("HTTP_ADDR", ":8080"),
		APIToken:      os.Getenv("API_TOKEN"),
		RefreshCron:   envOr("REFRESH_CRON", "*/5 * * * *"),
	}

	if cfg.DBConnStr == "" {
		// Build it from individual vars (Docker friendly)
		host := envOr("DB_HOST", "localhost")
		port := envOr("DB_PORT", "5432")
		user := envOr("DB_USER", "postgres")
		password := envOr("DB_PASSWORD", "postgres")
		dbname := envOr("DB_NAME", "finview")

		cfg.DBConnStr = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			host, port, user, password, dbname)
	}

	if raw := os.Getenv("REDIS_DB"); raw != "" {
		db, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB %q: %w", raw, err)
		}
		cfg.RedisDB = db
	}

	if raw := os.Getenv("MOCK_PROVIDERS"); raw != "" {
		mock, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid MOCK_PROVIDERS %q: %w", raw, err)
		}
		cfg.MockProviders = mock
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Backend  BackendConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Scanner  ScannerConfig
}

type ServerConfig struct {
	Port int
}

// BackendConfig points at the Python AI backend. An unreachable or empty
// backend never prevents startup; outbound calls just fail per the per-stage
// failure policies.
type BackendConfig struct {
	BaseURL string
	Timeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	MaxConns int32
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type ScannerConfig struct {
	RateLimitMin time.Duration
	RateLimitMax time.Duration
	MaxBatch     int
}

func Load() (*Config, error) {
	// Pick up a local .env when present
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnvInt("PORT", 8082),
		},
		Backend: BackendConfig{
			BaseURL: getEnv("PYTHON_BACKEND_URL", "http://localhost:8001"),
			Timeout: time.Duration(getEnvInt("AI_TIMEOUT_SECONDS", 20)) * time.Second,
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "seller_scanner"),
			MaxConns: int32(getEnvInt("DB_MAX_CONNS", 20)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Scanner: ScannerConfig{
			RateLimitMin: time.Duration(getEnvInt("SCANNER_RATE_LIMIT_MIN_MS", 500)) * time.Millisecond,
			RateLimitMax: time.Duration(getEnvInt("SCANNER_RATE_LIMIT_MAX_MS", 1500)) * time.Millisecond,
			MaxBatch:     getEnvInt("SCANNER_MAX_BATCH", 100),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("AI timeout must be positive")
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.Name == "" {
		return fmt.Errorf("database name is required")
	}

	if c.Scanner.MaxBatch < 1 {
		return fmt.Errorf("at least 1 batch item is required")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

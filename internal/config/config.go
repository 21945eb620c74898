package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the whole application configuration, populated from
// environment variables.
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Gateway  GatewayConfig
	MinIO    MinIOConfig
	Publish  PublishConfig
}

type AppConfig struct {
	Name        string
	Environment string // development, staging, production
	Port        string
	Version     string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MinConns int
}

type RedisConfig struct {
	Host     string
	Password string
	DB       int
}

// GatewayConfig points at the social-posting gateway that performs the
// actual platform API calls.
type GatewayConfig struct {
	BaseURL        string
	APIToken       string
	Timeout        time.Duration
	MaxAttempts    int
	RetryBaseDelay time.Duration
}

type MinIOConfig struct {
	Endpoint  string // localhost:9000
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	URLExpiry time.Duration // presigned URL lifetime
}

// PublishConfig tunes the dispatch pipeline.
type PublishConfig struct {
	LockTTL             time.Duration
	DispatchConcurrency int
	ExpiryGrace         time.Duration
	DueScanLimit        int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Publisher API"),
			Environment: getEnv("APP_ENV", "development"),
			Port:        getEnv("APP_PORT", "8080"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "publisher"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvInt("DB_MAX_CONNS", 25),
			MinConns: getEnvInt("DB_MIN_CONNS", 5),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Gateway: GatewayConfig{
			BaseURL:        getEnv("GATEWAY_BASE_URL", "http://localhost:9090"),
			APIToken:       getEnv("GATEWAY_API_TOKEN", ""),
			Timeout:        getEnvDuration("GATEWAY_TIMEOUT", 30*time.Second),
			MaxAttempts:    getEnvInt("GATEWAY_MAX_ATTEMPTS", 3),
			RetryBaseDelay: getEnvDuration("GATEWAY_RETRY_BASE_DELAY", 2*time.Second),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey: getEnv("MINIO_ACCESS_KEY", "minioadmin"),
			SecretKey: getEnv("MINIO_SECRET_KEY", "minioadmin"),
			Bucket:    getEnv("MINIO_BUCKET", "publisher-media"),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
			URLExpiry: getEnvDuration("MINIO_URL_EXPIRY", time.Hour),
		},
		Publish: PublishConfig{
			LockTTL:             getEnvDuration("PUBLISH_LOCK_TTL", 10*time.Minute),
			DispatchConcurrency: getEnvInt("PUBLISH_DISPATCH_CONCURRENCY", 5),
			ExpiryGrace:         getEnvDuration("PUBLISH_EXPIRY_GRACE", time.Hour),
			DueScanLimit:        getEnvInt("PUBLISH_DUE_SCAN_LIMIT", 100),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks critical configuration values.
func (c *Config) Validate() error {
	if c.App.Environment == "production" {
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD must be set in production")
		}
		if c.Gateway.APIToken == "" {
			return fmt.Errorf("GATEWAY_API_TOKEN must be set in production")
		}
	}

	if c.Gateway.MaxAttempts < 1 {
		return fmt.Errorf("GATEWAY_MAX_ATTEMPTS must be at least 1")
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

package config

import (
	"time"

	"publisher-backend/internal/infrastructure/database"
)

// LoadDatabaseConfig builds the pool config from environment variables.
func LoadDatabaseConfig() (*database.DBConfig, error) {
	return &database.DBConfig{
		Host:              getEnv("DB_HOST", "localhost"),
		Port:              getEnvInt("DB_PORT", 5432),
		Username:          getEnv("DB_USER", "postgres"),
		Password:          getEnv("DB_PASSWORD", ""),
		DBName:            getEnv("DB_NAME", "publisher"),
		SSLMode:           getEnv("DB_SSLMODE", "disable"),
		MaxConns:          int32(getEnvInt("DB_MAX_CONNECTIONS", 25)),
		MinConns:          int32(getEnvInt("DB_MIN_CONNECTIONS", 5)),
		MaxConnLifetime:   getEnvDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
		MaxConnIdleTime:   getEnvDuration("DB_MAX_CONN_IDLE_TIME", time.Minute),
		HealthCheckPeriod: getEnvDuration("DB_HEALTH_CHECK_PERIOD", time.Minute),
		MaxRetries:        getEnvInt("DB_MAX_RETRIES", 5),
		RetryDelay:        getEnvDuration("DB_RETRY_DELAY", time.Second),
		ConnectTimeout:    getEnvDuration("DB_CONNECT_TIMEOUT", 10*time.Second),
	}, nil
}

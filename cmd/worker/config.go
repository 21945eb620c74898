package main

import (
	"log"
	"strconv"

	"publisher-backend/internal/shared/utils"
)

// Config holds worker-local settings not covered by the shared app config.
type Config struct {
	RedisAddr   string
	Concurrency int
	HealthPort  string
}

func loadConfig() *Config {
	concurrency, err := strconv.Atoi(utils.GetEnvVariable("WORKER_CONCURRENCY", "20"))
	if err != nil || concurrency < 1 {
		concurrency = 20
	}

	cfg := &Config{
		RedisAddr:   utils.GetEnvVariable("REDIS_HOST", "localhost:6379"),
		Concurrency: concurrency,
		HealthPort:  utils.GetEnvVariable("WORKER_HEALTH_PORT", "9999"),
	}

	log.Printf("[Config] Redis: %s, Concurrency: %d", cfg.RedisAddr, cfg.Concurrency)

	return cfg
}

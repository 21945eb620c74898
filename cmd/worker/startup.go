package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// startServices performs startup health checks and exposes liveness probes.
func startServices(cfg *Config) error {
	checker := &healthChecker{
		redisClient: redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}),
	}

	if err := checker.checkAll(); err != nil {
		return err
	}

	go startHealthCheckServer(cfg.HealthPort)

	return nil
}

type healthChecker struct {
	redisClient *redis.Client
}

func (h *healthChecker) checkAll() error {
	if err := h.checkRedis(); err != nil {
		return fmt.Errorf("redis check failed: %w", err)
	}
	log.Println("[Startup] Redis: OK")
	return nil
}

func (h *healthChecker) checkRedis() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return h.redisClient.Ping(ctx).Err()
}

// startHealthCheckServer serves the Kubernetes liveness/readiness probes.
func startHealthCheckServer(port string) {
	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"UP","service":"publisher-worker"}`))
	})
	http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"READY"}`))
	})

	log.Printf("[Health] Starting health check server on :%s", port)
	if err := http.ListenAndServe(":"+port, nil); err != nil {
		log.Printf("[Health] Failed to start: %v", err)
	}
}

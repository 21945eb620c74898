package main

import (
	"log"

	"publisher-backend/internal/config"
	"publisher-backend/internal/infrastructure/queue"
)

// asynqScheduler wraps queue.Scheduler for lifecycle management.
type asynqScheduler struct {
	*queue.Scheduler
}

func setupScheduler(cfg *Config, publish config.PublishConfig) *asynqScheduler {
	scheduler := queue.NewScheduler(cfg.RedisAddr, publish)

	if err := scheduler.RegisterPeriodicJobs(); err != nil {
		log.Fatalf("[Scheduler] Failed to register: %v", err)
	}

	go func() {
		log.Println("[Scheduler] Starting...")
		if err := scheduler.Start(); err != nil {
			log.Fatalf("[Scheduler] Failed: %v", err)
		}
	}()

	return &asynqScheduler{Scheduler: scheduler}
}

func (s *asynqScheduler) Shutdown() {
	log.Println("[Scheduler] Shutting down...")
	s.Scheduler.Shutdown()
	log.Println("[Scheduler] Stopped")
}

package queue

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"publisher-backend/internal/config"
	"publisher-backend/internal/domains/publication/model"
	"publisher-backend/internal/shared"
	"publisher-backend/pkg/logger"
)

// Scheduler registers the periodic pipeline jobs: the due-scan tick and the
// stale-publication sweep.
type Scheduler struct {
	scheduler *asynq.Scheduler
	publish   config.PublishConfig
}

func NewScheduler(redisAddress string, publish config.PublishConfig) *Scheduler {
	scheduler := asynq.NewScheduler(
		asynq.RedisClientOpt{Addr: redisAddress},
		&asynq.SchedulerOpts{
			Location: time.UTC,
			LogLevel: asynq.InfoLevel,
		},
	)

	return &Scheduler{
		scheduler: scheduler,
		publish:   publish,
	}
}

func (s *Scheduler) RegisterPeriodicJobs() error {
	if err := s.registerProcessDueJob(); err != nil {
		return err
	}

	return s.registerExpireStaleJob()
}

// ================================================
// JOB 1: Process Due Publications (Every minute)
// ================================================
// One minute is the scheduling granularity promised to users: a publication
// scheduled for 10:05 goes out within the 10:05 minute.
func (s *Scheduler) registerProcessDueJob() error {
	payload, err := json.Marshal(model.ProcessDuePayload{Limit: s.publish.DueScanLimit})
	if err != nil {
		return err
	}

	task := asynq.NewTask(shared.TypeProcessDue, payload)

	_, err = s.scheduler.Register(
		"* * * * *",
		task,
		asynq.Queue(shared.QueueMaintenance),
		asynq.MaxRetry(1),
		asynq.Timeout(time.Minute),
	)

	if err != nil {
		logger.Error("Failed to register ProcessDue job", err)
		return err
	}

	logger.Info("Registered ProcessDue: every minute", map[string]interface{}{})
	return nil
}

// ================================================
// JOB 2: Expire Stale Publications (Every 15 minutes)
// ================================================
// Stale means SCHEDULED but never picked up within the grace window, which
// only happens when workers were down over the dispatch time.
func (s *Scheduler) registerExpireStaleJob() error {
	payload, err := json.Marshal(model.ExpireStalePayload{Limit: s.publish.DueScanLimit})
	if err != nil {
		return err
	}

	task := asynq.NewTask(shared.TypeExpireStale, payload)

	_, err = s.scheduler.Register(
		"*/15 * * * *",
		task,
		asynq.Queue(shared.QueueMaintenance),
		asynq.MaxRetry(2),
		asynq.Timeout(5*time.Minute),
	)

	if err != nil {
		logger.Error("Failed to register ExpireStale job", err)
		return err
	}

	logger.Info("Registered ExpireStale: every 15 minutes", map[string]interface{}{})
	return nil
}

func (s *Scheduler) Start() error {
	return s.scheduler.Run()
}

func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}

package main

import (
	"github.com/hibiken/asynq"

	pubJob "publisher-backend/internal/domains/publication/job"
	"publisher-backend/internal/shared"
	"publisher-backend/pkg/container"
)

// HandlerRegistry holds all job handlers.
type HandlerRegistry struct {
	dispatchPublication *pubJob.DispatchPublicationHandler
	retryPost           *pubJob.RetryPostHandler
	processDue          *pubJob.ProcessDueHandler
	expireStale         *pubJob.ExpireStaleHandler
}

// initializeHandlers creates all job handlers with their dependencies.
func initializeHandlers(c *container.Container) *HandlerRegistry {
	return &HandlerRegistry{
		dispatchPublication: pubJob.NewDispatchPublicationHandler(c.PublishService),
		retryPost:           pubJob.NewRetryPostHandler(c.PublishService),
		processDue:          pubJob.NewProcessDueHandler(c.PublishService),
		expireStale:         pubJob.NewExpireStaleHandler(c.PublishService),
	}
}

// RegisterHandlers registers all handlers with the mux.
func (h *HandlerRegistry) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(shared.TypeDispatchPublication, h.dispatchPublication.ProcessTask)
	mux.HandleFunc(shared.TypeRetryPost, h.retryPost.ProcessTask)
	mux.HandleFunc(shared.TypeProcessDue, h.processDue.ProcessTask)
	mux.HandleFunc(shared.TypeExpireStale, h.expireStale.ProcessTask)
}

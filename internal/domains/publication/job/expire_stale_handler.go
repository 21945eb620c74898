package job

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"publisher-backend/internal/domains/publication/model"
	"publisher-backend/internal/domains/publication/service"
	"publisher-backend/internal/shared/utils"
	"publisher-backend/pkg/logger"
)

// ExpireStaleHandler sweeps SCHEDULED publications whose dispatch time passed
// the grace window without being picked up.
type ExpireStaleHandler struct {
	publishService service.PublishService
}

func NewExpireStaleHandler(publishService service.PublishService) *ExpireStaleHandler {
	return &ExpireStaleHandler{publishService: publishService}
}

func (h *ExpireStaleHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload model.ExpireStalePayload
	if err := utils.UnmarshalTask(t, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	expired, err := h.publishService.ExpireStale(ctx, payload.Limit)
	if err != nil {
		return fmt.Errorf("expire stale publications: %w", err)
	}

	if expired > 0 {
		logger.Info("Expired stale publications", map[string]interface{}{
			"count": expired,
		})
	}

	return nil
}

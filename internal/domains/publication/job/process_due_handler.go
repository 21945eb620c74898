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

// ProcessDueHandler is the scheduler tick: it scans for due publications and
// fans out one dispatch task each. The scan itself does no delivery.
type ProcessDueHandler struct {
	publishService service.PublishService
}

func NewProcessDueHandler(publishService service.PublishService) *ProcessDueHandler {
	return &ProcessDueHandler{publishService: publishService}
}

func (h *ProcessDueHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload model.ProcessDuePayload
	if err := utils.UnmarshalTask(t, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	enqueued, err := h.publishService.ProcessDue(ctx, payload.Limit)
	if err != nil {
		return fmt.Errorf("process due publications: %w", err)
	}

	if enqueued > 0 {
		logger.Info("Enqueued due publications", map[string]interface{}{
			"count": enqueued,
		})
	}

	return nil
}

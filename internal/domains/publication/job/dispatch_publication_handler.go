package job

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"

	"publisher-backend/internal/domains/publication/model"
	"publisher-backend/internal/domains/publication/service"
	"publisher-backend/internal/shared/utils"
	"publisher-backend/pkg/logger"
)

// DispatchPublicationHandler delivers every pending post of one publication.
type DispatchPublicationHandler struct {
	publishService service.PublishService
}

func NewDispatchPublicationHandler(publishService service.PublishService) *DispatchPublicationHandler {
	return &DispatchPublicationHandler{publishService: publishService}
}

func (h *DispatchPublicationHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload model.DispatchPublicationPayload
	if err := utils.UnmarshalTask(t, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	logger.Info("Processing dispatch publication task", map[string]interface{}{
		"publication_id": payload.PublicationID.String(),
	})

	if err := h.publishService.Dispatch(ctx, payload.PublicationID); err != nil {
		// A deleted publication is not worth retrying.
		if errors.Is(err, model.ErrPublicationNotFound) {
			logger.Info("Publication gone, dropping dispatch task", map[string]interface{}{
				"publication_id": payload.PublicationID.String(),
			})
			return nil
		}
		return fmt.Errorf("dispatch publication %s: %w", payload.PublicationID, err)
	}

	return nil
}

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

// RetryPostHandler redelivers one re-armed post without touching its
// published siblings.
type RetryPostHandler struct {
	publishService service.PublishService
}

func NewRetryPostHandler(publishService service.PublishService) *RetryPostHandler {
	return &RetryPostHandler{publishService: publishService}
}

func (h *RetryPostHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload model.RetryPostPayload
	if err := utils.UnmarshalTask(t, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	logger.Info("Processing retry post task", map[string]interface{}{
		"publication_id": payload.PublicationID.String(),
		"post_id":        payload.PostID.String(),
	})

	err := h.publishService.DispatchSinglePost(ctx, payload.PublicationID, payload.PostID)
	if err != nil {
		if errors.Is(err, model.ErrPostNotFound) || errors.Is(err, model.ErrPublicationNotFound) {
			logger.Info("Post gone, dropping retry task", map[string]interface{}{
				"post_id": payload.PostID.String(),
			})
			return nil
		}
		// Lock contention surfaces as an error so asynq re-delivers later.
		return fmt.Errorf("retry post %s: %w", payload.PostID, err)
	}

	return nil
}

package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"publisher-backend/internal/domains/publication/model"
	"publisher-backend/internal/shared"
)

// Enqueuer submits pipeline tasks to the durable queue.
type Enqueuer interface {
	EnqueueDispatch(ctx context.Context, publicationID uuid.UUID) error
	EnqueueRetryPost(ctx context.Context, publicationID, postID uuid.UUID) error
}

// AsynqEnqueuer is the Redis-backed Enqueuer used in production.
type AsynqEnqueuer struct {
	client *asynq.Client
}

func NewAsynqEnqueuer(client *asynq.Client) *AsynqEnqueuer {
	return &AsynqEnqueuer{client: client}
}

// EnqueueDispatch enqueues one dispatch task per due publication. The task
// id is derived from the publication so a publication already waiting in
// the queue is not enqueued twice.
func (e *AsynqEnqueuer) EnqueueDispatch(ctx context.Context, publicationID uuid.UUID) error {
	payload, err := json.Marshal(model.DispatchPublicationPayload{PublicationID: publicationID})
	if err != nil {
		return fmt.Errorf("marshal dispatch payload: %w", err)
	}

	task := asynq.NewTask(shared.TypeDispatchPublication, payload)
	_, err = e.client.EnqueueContext(ctx, task,
		asynq.Queue(shared.QueueDispatch),
		asynq.TaskID("dispatch:"+publicationID.String()),
		asynq.MaxRetry(3),
		asynq.Timeout(5*time.Minute),
	)
	if err != nil && !errors.Is(err, asynq.ErrTaskIDConflict) {
		return fmt.Errorf("enqueue dispatch: %w", err)
	}

	return nil
}

func (e *AsynqEnqueuer) EnqueueRetryPost(ctx context.Context, publicationID, postID uuid.UUID) error {
	payload, err := json.Marshal(model.RetryPostPayload{PublicationID: publicationID, PostID: postID})
	if err != nil {
		return fmt.Errorf("marshal retry payload: %w", err)
	}

	task := asynq.NewTask(shared.TypeRetryPost, payload)
	_, err = e.client.EnqueueContext(ctx, task,
		asynq.Queue(shared.QueueDispatch),
		asynq.MaxRetry(3),
		asynq.Timeout(2*time.Minute),
	)
	if err != nil {
		return fmt.Errorf("enqueue retry post: %w", err)
	}

	return nil
}

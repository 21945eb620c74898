package service

import (
	"context"

	"github.com/google/uuid"

	"publisher-backend/internal/domains/publication/model"
)

// PublishService drives the snapshot-and-publish pipeline: freezing
// snapshots, claiming due publications, dispatching posts and reconciling
// partial failure.
type PublishService interface {
	// Management surface
	CreatePublication(ctx context.Context, req model.CreatePublicationRequest) (*model.Publication, error)
	Schedule(ctx context.Context, id uuid.UUID, req model.SchedulePublicationRequest) (*model.PublicationStatusView, error)
	PublishNow(ctx context.Context, id uuid.UUID) (*model.PublicationStatusView, error)
	RetryPost(ctx context.Context, publicationID, postID uuid.UUID) error
	GetStatus(ctx context.Context, id uuid.UUID) (*model.PublicationStatusView, error)

	// Worker surface
	Dispatch(ctx context.Context, publicationID uuid.UUID) error
	DispatchSinglePost(ctx context.Context, publicationID, postID uuid.UUID) error
	ProcessDue(ctx context.Context, limit int) (int, error)
	ExpireStale(ctx context.Context, limit int) (int, error)
}

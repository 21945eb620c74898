package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"publisher-backend/internal/domains/publication/model"
)

// PublicationRepository is the persistence contract for the publication
// aggregate. Status transitions are optimistic: they only apply when the row
// still holds the expected current status.
type PublicationRepository interface {
	Create(ctx context.Context, pub *model.Publication) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Publication, error)

	// TransitionStatus moves id from one status to another, optionally
	// setting the dispatch time. Returns ErrConcurrentUpdate when the row
	// is no longer in the expected status.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to model.PublicationStatus, scheduledAt *time.Time) error

	// SetAggregateStatus records the derived outcome after processing.
	SetAggregateStatus(ctx context.Context, id uuid.UUID, status model.PublicationStatus) error

	// ListDueIDs returns SCHEDULED or READY publications whose dispatch
	// time has arrived, oldest first.
	ListDueIDs(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error)

	// ExpireStale marks SCHEDULED publications whose dispatch time passed
	// the grace window as EXPIRED, returning how many rows changed.
	ExpireStale(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

// PostRepository persists per-channel posts and their frozen snapshots.
type PostRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Post, error)
	ListByPublication(ctx context.Context, publicationID uuid.UUID) ([]model.Post, error)

	// SaveSnapshot stores a freshly built snapshot and resets the post to
	// PENDING. The snapshot column is written whole; snapshots are never
	// edited in place.
	SaveSnapshot(ctx context.Context, postID uuid.UUID, snapshot *model.PostingSnapshot) error

	// RecordOutcome stores the delivery result for one post, bumping the
	// attempt counter.
	RecordOutcome(ctx context.Context, postID uuid.UUID, status model.PostStatus, errorDetail *string) error

	// MarkPending re-arms a failed post for an individual retry.
	MarkPending(ctx context.Context, postID uuid.UUID) error
}

// MediaRepository reads media references attached to a publication.
type MediaRepository interface {
	ListByPublication(ctx context.Context, publicationID uuid.UUID) ([]model.Media, error)
}

// TemplateRepository reads project templates for snapshot resolution.
type TemplateRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Template, error)
	ListVariations(ctx context.Context, templateID uuid.UUID) ([]model.TemplateVariation, error)
	CountByProject(ctx context.Context, projectID uuid.UUID) (int, error)
}

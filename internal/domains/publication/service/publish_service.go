package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	channelRepo "publisher-backend/internal/domains/channel/repository"
	"publisher-backend/internal/domains/publication/gateway"
	"publisher-backend/internal/domains/publication/model"
	"publisher-backend/internal/domains/publication/repository"
	"publisher-backend/internal/infrastructure/lock"
	"publisher-backend/internal/infrastructure/queue"
	"publisher-backend/internal/platform"
	"publisher-backend/pkg/logger"
)

// Config tunes the pipeline. LockTTL must exceed worst-case single-job
// processing time or a second worker can steal a lock from a live one.
type Config struct {
	LockTTL             time.Duration
	DispatchConcurrency int
	ExpiryGrace         time.Duration
	DueScanLimit        int
}

func (c Config) withDefaults() Config {
	if c.LockTTL == 0 {
		c.LockTTL = 10 * time.Minute
	}
	if c.DispatchConcurrency <= 0 {
		c.DispatchConcurrency = 5
	}
	if c.ExpiryGrace == 0 {
		c.ExpiryGrace = time.Hour
	}
	if c.DueScanLimit <= 0 {
		c.DueScanLimit = 100
	}
	return c
}

type publishService struct {
	publications repository.PublicationRepository
	posts        repository.PostRepository
	media        repository.MediaRepository
	channels     channelRepo.ChannelRepository
	resolver     *TemplateResolver
	formatters   *platform.Registry
	gateway      gateway.SocialGateway
	locks        lock.Service
	enqueuer     queue.Enqueuer
	mediaURLs    platform.MediaURLResolver
	config       Config
}

// NewPublishService wires the pipeline orchestrator.
func NewPublishService(
	publications repository.PublicationRepository,
	posts repository.PostRepository,
	media repository.MediaRepository,
	channels channelRepo.ChannelRepository,
	resolver *TemplateResolver,
	formatters *platform.Registry,
	socialGateway gateway.SocialGateway,
	locks lock.Service,
	enqueuer queue.Enqueuer,
	mediaURLs platform.MediaURLResolver,
	config Config,
) PublishService {
	return &publishService{
		publications: publications,
		posts:        posts,
		media:        media,
		channels:     channels,
		resolver:     resolver,
		formatters:   formatters,
		gateway:      socialGateway,
		locks:        locks,
		enqueuer:     enqueuer,
		mediaURLs:    mediaURLs,
		config:       config.withDefaults(),
	}
}

// ================================================
// MANAGEMENT SURFACE
// ================================================

func (s *publishService) CreatePublication(ctx context.Context, req model.CreatePublicationRequest) (*model.Publication, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	pub := &model.Publication{
		ProjectID:       req.ProjectID,
		Title:           req.Title,
		Content:         req.Content,
		Tags:            req.Tags,
		AuthorComment:   req.AuthorComment,
		PostType:        req.PostType,
		Language:        req.Language,
		AuthorSignature: req.AuthorSignature,
		Status:          model.StatusDraft,
		MediaIDs:        req.MediaIDs,
	}

	for _, channelID := range req.ChannelIDs {
		if _, err := s.channels.GetByID(ctx, channelID); err != nil {
			return nil, err
		}
		pub.Posts = append(pub.Posts, model.Post{
			ChannelID: channelID,
			Status:    model.PostStatusPending,
		})
	}

	if err := s.publications.Create(ctx, pub); err != nil {
		return nil, err
	}

	logger.Info("publication created", map[string]interface{}{
		"publication_id": pub.ID.String(),
		"posts":          len(pub.Posts),
	})

	return pub, nil
}

// Schedule freezes a snapshot per post and moves the publication to READY
// or SCHEDULED. Re-scheduling a not-yet-dispatched publication rebuilds the
// snapshots: the old ones are superseded, never edited.
func (s *publishService) Schedule(ctx context.Context, id uuid.UUID, req model.SchedulePublicationRequest) (*model.PublicationStatusView, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	pub, err := s.publications.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch pub.Status {
	case model.StatusDraft, model.StatusReady, model.StatusScheduled:
	default:
		return nil, model.ErrInvalidTransition
	}

	if err := s.buildSnapshots(ctx, pub, req.PreferredTemplateID); err != nil {
		return nil, err
	}

	target := model.StatusReady
	if req.ScheduledAt != nil {
		target = model.StatusScheduled
	}

	// The transition always runs, even when the status does not change:
	// re-scheduling a SCHEDULED publication must persist the new time.
	if err := s.publications.TransitionStatus(ctx, id, pub.Status, target, req.ScheduledAt); err != nil {
		return nil, err
	}

	if target == model.StatusReady {
		if err := s.enqueuer.EnqueueDispatch(ctx, id); err != nil {
			return nil, err
		}
	}

	return s.GetStatus(ctx, id)
}

func (s *publishService) PublishNow(ctx context.Context, id uuid.UUID) (*model.PublicationStatusView, error) {
	return s.Schedule(ctx, id, model.SchedulePublicationRequest{})
}

// RetryPost re-arms a single failed post of a PARTIAL publication and
// enqueues its retry, leaving published siblings untouched.
func (s *publishService) RetryPost(ctx context.Context, publicationID, postID uuid.UUID) error {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post.PublicationID != publicationID {
		return model.ErrPostNotFound
	}

	if err := s.posts.MarkPending(ctx, postID); err != nil {
		return err
	}

	return s.enqueuer.EnqueueRetryPost(ctx, publicationID, postID)
}

func (s *publishService) GetStatus(ctx context.Context, id uuid.UUID) (*model.PublicationStatusView, error) {
	pub, err := s.publications.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	view := model.NewPublicationStatusView(pub)
	return &view, nil
}

// ================================================
// WORKER SURFACE
// ================================================

// Dispatch claims a due publication and delivers all pending posts. Lock
// contention is not an error: another worker holds the publication, this
// cycle is skipped.
func (s *publishService) Dispatch(ctx context.Context, publicationID uuid.UUID) error {
	lockKey := "publication:" + publicationID.String()

	token := s.locks.AcquireLock(ctx, lockKey, s.config.LockTTL)
	if token == "" {
		logger.Info("publication already in flight, skipping", map[string]interface{}{
			"publication_id": publicationID.String(),
		})
		return nil
	}
	defer s.locks.ReleaseLock(ctx, lockKey, token)

	pub, err := s.publications.GetByID(ctx, publicationID)
	if err != nil {
		return err
	}

	switch pub.Status {
	case model.StatusReady, model.StatusScheduled:
	case model.StatusProcessing:
		// A crashed worker may have left the row in PROCESSING; holding
		// the lock we are the only live processor, so resume.
	default:
		logger.Info("publication not dispatchable, skipping", map[string]interface{}{
			"publication_id": publicationID.String(),
			"status":         string(pub.Status),
		})
		return nil
	}

	if pub.Status != model.StatusProcessing {
		if err := s.publications.TransitionStatus(ctx, publicationID, pub.Status, model.StatusProcessing, nil); err != nil {
			if errors.Is(err, model.ErrConcurrentUpdate) {
				return nil
			}
			return err
		}
	}

	s.dispatchPosts(ctx, pub)

	return s.finalize(ctx, publicationID)
}

// DispatchSinglePost delivers one re-armed post under the publication lock
// and recomputes the aggregate outcome.
func (s *publishService) DispatchSinglePost(ctx context.Context, publicationID, postID uuid.UUID) error {
	lockKey := "publication:" + publicationID.String()

	token := s.locks.AcquireLock(ctx, lockKey, s.config.LockTTL)
	if token == "" {
		return fmt.Errorf("publication %s is locked, retry later", publicationID)
	}
	defer s.locks.ReleaseLock(ctx, lockKey, token)

	pub, err := s.publications.GetByID(ctx, publicationID)
	if err != nil {
		return err
	}

	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post.Status != model.PostStatusPending {
		return nil
	}

	s.deliverPost(ctx, pub, post)

	return s.finalize(ctx, publicationID)
}

func (s *publishService) ProcessDue(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = s.config.DueScanLimit
	}

	ids, err := s.publications.ListDueIDs(ctx, time.Now().UTC(), limit)
	if err != nil {
		return 0, err
	}

	enqueued := 0
	for _, id := range ids {
		if err := s.enqueuer.EnqueueDispatch(ctx, id); err != nil {
			logger.Error("failed to enqueue due publication", err)
			continue
		}
		enqueued++
	}

	return enqueued, nil
}

func (s *publishService) ExpireStale(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = s.config.DueScanLimit
	}

	cutoff := time.Now().UTC().Add(-s.config.ExpiryGrace)
	return s.publications.ExpireStale(ctx, cutoff, limit)
}

// ================================================
// INTERNALS
// ================================================

func (s *publishService) buildSnapshots(ctx context.Context, pub *model.Publication, preferredTemplateID *uuid.UUID) error {
	mediaItems, err := s.media.ListByPublication(ctx, pub.ID)
	if err != nil {
		return err
	}

	for i := range pub.Posts {
		post := &pub.Posts[i]

		channel, err := s.channels.GetByID(ctx, post.ChannelID)
		if err != nil {
			return err
		}

		resolution, err := s.resolver.Resolve(ctx, pub.ProjectID, channel, preferredTemplateID, post.ContentOverride != nil)
		if err != nil {
			return err
		}

		snapshot, err := BuildSnapshot(pub, post, channel, resolution, mediaItems)
		if err != nil {
			return err
		}

		if err := s.posts.SaveSnapshot(ctx, post.ID, snapshot); err != nil {
			return err
		}
		post.Snapshot = snapshot
		post.Status = model.PostStatusPending
	}

	return nil
}

// dispatchPosts delivers pending posts concurrently, bounded by the
// configured concurrency. Each post's outcome is independent.
func (s *publishService) dispatchPosts(ctx context.Context, pub *model.Publication) {
	sem := make(chan struct{}, s.config.DispatchConcurrency)
	var wg sync.WaitGroup

	for i := range pub.Posts {
		post := &pub.Posts[i]
		if post.Status != model.PostStatusPending {
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(post *model.Post) {
			defer wg.Done()
			defer func() { <-sem }()
			s.deliverPost(ctx, pub, post)
		}(post)
	}

	wg.Wait()
}

// deliverPost formats and delivers one post and records its outcome.
// Failures never propagate: they land in the post row as error detail.
func (s *publishService) deliverPost(ctx context.Context, pub *model.Publication, post *model.Post) {
	err := s.tryDeliver(ctx, pub, post)
	if err == nil {
		post.Status = model.PostStatusPublished
		if recErr := s.posts.RecordOutcome(ctx, post.ID, model.PostStatusPublished, nil); recErr != nil {
			logger.Error("failed to record post success", recErr)
		}
		return
	}

	detail := err.Error()
	post.Status = model.PostStatusFailed
	post.ErrorDetail = &detail
	if recErr := s.posts.RecordOutcome(ctx, post.ID, model.PostStatusFailed, &detail); recErr != nil {
		logger.Error("failed to record post failure", recErr)
	}

	logger.Error("post delivery failed", err)
}

func (s *publishService) tryDeliver(ctx context.Context, pub *model.Publication, post *model.Post) error {
	if post.Snapshot == nil {
		return model.NewPermanentError(model.ErrCodeNothingToPublish, "post has no snapshot", model.ErrNothingToPublish)
	}

	channel, err := s.channels.GetByID(ctx, post.ChannelID)
	if err != nil {
		return err
	}

	formatter := s.formatters.ForPlatform(channel.Platform)
	request, err := formatter.Format(ctx, platform.FormatParams{
		Publication:     pub,
		Post:            post,
		Channel:         channel,
		Snapshot:        post.Snapshot,
		APIKey:          channel.APIKeyRef,
		TargetChannelID: channel.ExternalID,
		Resolver:        s.mediaURLs,
	})
	if err != nil {
		return err
	}

	result, err := s.gateway.Publish(ctx, request)
	if err != nil {
		return err
	}

	logger.Info("post delivered", map[string]interface{}{
		"post_id":    post.ID.String(),
		"request_id": result.RequestID,
	})

	return nil
}

// finalize re-reads the posts and stores the aggregate outcome.
func (s *publishService) finalize(ctx context.Context, publicationID uuid.UUID) error {
	posts, err := s.posts.ListByPublication(ctx, publicationID)
	if err != nil {
		return err
	}

	status := model.AggregateStatus(posts)
	if err := s.publications.SetAggregateStatus(ctx, publicationID, status); err != nil {
		return err
	}

	logger.Info("publication finalized", map[string]interface{}{
		"publication_id": publicationID.String(),
		"status":         string(status),
	})

	return nil
}

package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	channelModel "publisher-backend/internal/domains/channel/model"
	"publisher-backend/internal/domains/publication/gateway"
	"publisher-backend/internal/domains/publication/model"
	"publisher-backend/internal/infrastructure/lock"
	"publisher-backend/internal/platform"
)

// ================================================
// IN-MEMORY FIXTURES
// ================================================

// memStore backs every repository interface with maps so pipeline tests run
// without Postgres.
type memStore struct {
	mu           sync.Mutex
	publications map[uuid.UUID]*model.Publication
	posts        map[uuid.UUID]*model.Post
	media        map[uuid.UUID][]model.Media
	mediaItems   map[uuid.UUID]model.Media
	channels     map[uuid.UUID]*channelModel.Channel
}

func newMemStore() *memStore {
	return &memStore{
		publications: make(map[uuid.UUID]*model.Publication),
		posts:        make(map[uuid.UUID]*model.Post),
		media:        make(map[uuid.UUID][]model.Media),
		mediaItems:   make(map[uuid.UUID]model.Media),
		channels:     make(map[uuid.UUID]*channelModel.Channel),
	}
}

func (s *memStore) Create(_ context.Context, pub *model.Publication) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if pub.ID == uuid.Nil {
		pub.ID = uuid.New()
	}
	for i, mediaID := range pub.MediaIDs {
		item, ok := s.mediaItems[mediaID]
		if !ok {
			return model.ErrMediaNotFound
		}
		item.Order = i
		s.media[pub.ID] = append(s.media[pub.ID], item)
	}
	now := time.Now().UTC()
	pub.CreatedAt = now
	pub.UpdatedAt = now
	for i := range pub.Posts {
		post := &pub.Posts[i]
		if post.ID == uuid.Nil {
			post.ID = uuid.New()
		}
		post.PublicationID = pub.ID
		post.CreatedAt = now
		post.UpdatedAt = now
		clone := *post
		s.posts[post.ID] = &clone
	}
	stored := *pub
	stored.Posts = nil
	s.publications[pub.ID] = &stored
	return nil
}

func (s *memStore) GetByID(_ context.Context, id uuid.UUID) (*model.Publication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.publications[id]
	if !ok {
		return nil, model.ErrPublicationNotFound
	}
	pub := *stored
	pub.Posts = s.postsOf(id)
	return &pub, nil
}

func (s *memStore) TransitionStatus(_ context.Context, id uuid.UUID, from, to model.PublicationStatus, scheduledAt *time.Time) error {
	// Same legality check as the Postgres repository, so illegal moves fail
	// here the way they would in production.
	if !from.CanTransitionTo(to) {
		return model.ErrInvalidTransition
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.publications[id]
	if !ok {
		return model.ErrPublicationNotFound
	}
	if stored.Status != from {
		return model.ErrConcurrentUpdate
	}
	stored.Status = to
	if to == model.StatusReady {
		stored.ScheduledAt = scheduledAt
	} else if scheduledAt != nil {
		stored.ScheduledAt = scheduledAt
	}
	stored.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *memStore) SetAggregateStatus(_ context.Context, id uuid.UUID, status model.PublicationStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.publications[id]
	if !ok {
		return model.ErrPublicationNotFound
	}
	stored.Status = status
	stored.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *memStore) ListDueIDs(_ context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []uuid.UUID
	for id, pub := range s.publications {
		if len(ids) >= limit {
			break
		}
		switch pub.Status {
		case model.StatusReady:
			ids = append(ids, id)
		case model.StatusScheduled:
			if pub.ScheduledAt != nil && !pub.ScheduledAt.After(now) {
				ids = append(ids, id)
			}
		}
	}
	return ids, nil
}

func (s *memStore) ExpireStale(_ context.Context, cutoff time.Time, limit int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expired := 0
	for _, pub := range s.publications {
		if expired >= limit {
			break
		}
		if pub.Status == model.StatusScheduled && pub.ScheduledAt != nil && pub.ScheduledAt.Before(cutoff) {
			pub.Status = model.StatusExpired
			expired++
		}
	}
	return expired, nil
}

func (s *memStore) postsOf(publicationID uuid.UUID) []model.Post {
	var out []model.Post
	for _, post := range s.posts {
		if post.PublicationID == publicationID {
			out = append(out, *post)
		}
	}
	return out
}

func (s *memStore) GetPostByID(_ context.Context, id uuid.UUID) (*model.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[id]
	if !ok {
		return nil, model.ErrPostNotFound
	}
	clone := *post
	return &clone, nil
}

func (s *memStore) ListByPublication(_ context.Context, publicationID uuid.UUID) ([]model.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.postsOf(publicationID), nil
}

func (s *memStore) SaveSnapshot(_ context.Context, postID uuid.UUID, snapshot *model.PostingSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[postID]
	if !ok {
		return model.ErrPostNotFound
	}
	post.Snapshot = snapshot
	post.Status = model.PostStatusPending
	post.ErrorDetail = nil
	post.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *memStore) RecordOutcome(_ context.Context, postID uuid.UUID, status model.PostStatus, errorDetail *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[postID]
	if !ok {
		return model.ErrPostNotFound
	}
	post.Status = status
	post.ErrorDetail = errorDetail
	post.Attempts++
	post.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *memStore) MarkPending(_ context.Context, postID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[postID]
	if !ok {
		return model.ErrPostNotFound
	}
	if post.Status != model.PostStatusFailed {
		return model.ErrPostNotRetryable
	}
	post.Status = model.PostStatusPending
	post.ErrorDetail = nil
	post.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *memStore) ListMediaByPublication(_ context.Context, publicationID uuid.UUID) ([]model.Media, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.media[publicationID], nil
}

func (s *memStore) GetChannelByID(_ context.Context, id uuid.UUID) (*channelModel.Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	channel, ok := s.channels[id]
	if !ok {
		return nil, model.ErrChannelNotFound
	}
	clone := *channel
	return &clone, nil
}

func (s *memStore) ListChannelsByProject(_ context.Context, projectID uuid.UUID) ([]channelModel.Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []channelModel.Channel
	for _, channel := range s.channels {
		if channel.ProjectID == projectID {
			out = append(out, *channel)
		}
	}
	return out, nil
}

// Interface adapters so one store serves every repository dependency.

type pubRepoAdapter struct{ *memStore }

type postRepoAdapter struct{ *memStore }

func (a postRepoAdapter) GetByID(ctx context.Context, id uuid.UUID) (*model.Post, error) {
	return a.GetPostByID(ctx, id)
}

type mediaRepoAdapter struct{ *memStore }

func (a mediaRepoAdapter) ListByPublication(ctx context.Context, publicationID uuid.UUID) ([]model.Media, error) {
	return a.ListMediaByPublication(ctx, publicationID)
}

type channelRepoAdapter struct{ *memStore }

func (a channelRepoAdapter) GetByID(ctx context.Context, id uuid.UUID) (*channelModel.Channel, error) {
	return a.GetChannelByID(ctx, id)
}

func (a channelRepoAdapter) ListByProject(ctx context.Context, projectID uuid.UUID) ([]channelModel.Channel, error) {
	return a.ListChannelsByProject(ctx, projectID)
}

// fakeGateway records publish requests and fails channels on demand.
type fakeGateway struct {
	mu       sync.Mutex
	requests []*platform.PublishRequest
	failing  map[string]error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{failing: make(map[string]error)}
}

func (g *fakeGateway) failChannel(channelID string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failing[channelID] = err
}

func (g *fakeGateway) Publish(_ context.Context, req *platform.PublishRequest) (*gateway.PublishResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.requests = append(g.requests, req)
	if err, ok := g.failing[req.ChannelID]; ok {
		return nil, err
	}
	return &gateway.PublishResult{RequestID: "req-" + req.IdempotencyKey, Delivered: true}, nil
}

func (g *fakeGateway) sent() []*platform.PublishRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*platform.PublishRequest, len(g.requests))
	copy(out, g.requests)
	return out
}

type fakeEnqueuer struct {
	mu         sync.Mutex
	dispatched []uuid.UUID
	retries    [][2]uuid.UUID
}

func (e *fakeEnqueuer) EnqueueDispatch(_ context.Context, publicationID uuid.UUID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dispatched = append(e.dispatched, publicationID)
	return nil
}

func (e *fakeEnqueuer) EnqueueRetryPost(_ context.Context, publicationID, postID uuid.UUID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.retries = append(e.retries, [2]uuid.UUID{publicationID, postID})
	return nil
}

type fakeURLResolver struct{}

func (fakeURLResolver) ResolveURL(_ context.Context, media model.SnapshotMedia) (string, error) {
	return "https://cdn.test/" + media.StoragePath, nil
}

func newTestService(store *memStore, gw *fakeGateway, enq *fakeEnqueuer) PublishService {
	return NewPublishService(
		pubRepoAdapter{store},
		postRepoAdapter{store},
		mediaRepoAdapter{store},
		channelRepoAdapter{store},
		NewTemplateResolver(newFakeTemplateRepo()),
		platform.NewRegistry(),
		gw,
		lock.NewMemoryLockService(),
		enq,
		fakeURLResolver{},
		Config{DispatchConcurrency: 2},
	)
}

func seedPublication(t *testing.T, store *memStore, svc PublishService, channelIDs ...uuid.UUID) *model.Publication {
	t.Helper()

	pub, err := svc.CreatePublication(context.Background(), model.CreatePublicationRequest{
		ProjectID:  uuid.New(),
		Title:      "Launch",
		Content:    "The rollout starts **today**",
		Tags:       "launch, rollout",
		ChannelIDs: channelIDs,
	})
	require.NoError(t, err)
	return pub
}

func addMediaItem(store *memStore, mediaType, storagePath string) model.Media {
	item := model.Media{
		ID:          uuid.New(),
		Type:        mediaType,
		StorageType: "minio",
		StoragePath: storagePath,
		CreatedAt:   time.Now().UTC(),
	}
	store.mediaItems[item.ID] = item
	return item
}

func addChannel(store *memStore, platformName channelModel.Platform) *channelModel.Channel {
	channel := &channelModel.Channel{
		ID:         uuid.New(),
		Platform:   platformName,
		ExternalID: "chan-" + uuid.NewString()[:8],
		APIKeyRef:  "key-ref",
	}
	store.channels[channel.ID] = channel
	return channel
}

// ================================================
// TESTS
// ================================================

func TestPublishNowDeliversAllPosts(t *testing.T) {
	store := newMemStore()
	gw := newFakeGateway()
	enq := &fakeEnqueuer{}
	svc := newTestService(store, gw, enq)

	tg := addChannel(store, channelModel.PlatformTelegram)
	vk := addChannel(store, channelModel.PlatformVK)
	pub := seedPublication(t, store, svc, tg.ID, vk.ID)

	view, err := svc.PublishNow(context.Background(), pub.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusReady, view.Status)
	require.Len(t, enq.dispatched, 1)

	require.NoError(t, svc.Dispatch(context.Background(), pub.ID))

	view, err = svc.GetStatus(context.Background(), pub.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPublished, view.Status)
	for _, post := range view.Posts {
		assert.Equal(t, model.PostStatusPublished, post.Status)
		assert.Equal(t, 1, post.Attempts)
	}
	assert.Len(t, gw.sent(), 2)
}

func TestDispatchPartialWhenOneChannelFails(t *testing.T) {
	store := newMemStore()
	gw := newFakeGateway()
	enq := &fakeEnqueuer{}
	svc := newTestService(store, gw, enq)

	ok1 := addChannel(store, channelModel.PlatformTelegram)
	ok2 := addChannel(store, channelModel.PlatformVK)
	bad := addChannel(store, channelModel.PlatformVK)
	gw.failChannel(bad.ExternalID, model.NewTransientError(model.ErrCodeGatewayUnavailable, "gateway timeout", nil))

	pub := seedPublication(t, store, svc, ok1.ID, ok2.ID, bad.ID)

	_, err := svc.PublishNow(context.Background(), pub.ID)
	require.NoError(t, err)
	require.NoError(t, svc.Dispatch(context.Background(), pub.ID))

	view, err := svc.GetStatus(context.Background(), pub.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPartial, view.Status)

	var failed *model.PostStatusView
	published := 0
	for i := range view.Posts {
		switch view.Posts[i].Status {
		case model.PostStatusPublished:
			published++
		case model.PostStatusFailed:
			failed = &view.Posts[i]
		}
	}
	assert.Equal(t, 2, published)
	require.NotNil(t, failed)
	require.NotNil(t, failed.ErrorDetail)
	assert.Contains(t, *failed.ErrorDetail, "gateway timeout")
}

func TestRetryFailedPostOnly(t *testing.T) {
	store := newMemStore()
	gw := newFakeGateway()
	enq := &fakeEnqueuer{}
	svc := newTestService(store, gw, enq)

	good := addChannel(store, channelModel.PlatformTelegram)
	flaky := addChannel(store, channelModel.PlatformVK)
	gw.failChannel(flaky.ExternalID, model.NewTransientError(model.ErrCodeGatewayUnavailable, "read timeout", nil))

	pub := seedPublication(t, store, svc, good.ID, flaky.ID)
	_, err := svc.PublishNow(context.Background(), pub.ID)
	require.NoError(t, err)
	require.NoError(t, svc.Dispatch(context.Background(), pub.ID))

	view, err := svc.GetStatus(context.Background(), pub.ID)
	require.NoError(t, err)
	require.Equal(t, model.StatusPartial, view.Status)

	var failedID, publishedID uuid.UUID
	for _, post := range view.Posts {
		if post.Status == model.PostStatusFailed {
			failedID = post.ID
		} else {
			publishedID = post.ID
		}
	}

	// The published sibling is not retryable.
	err = svc.RetryPost(context.Background(), pub.ID, publishedID)
	assert.ErrorIs(t, err, model.ErrPostNotRetryable)

	firstSent := len(gw.sent())

	// The channel recovers; the failed post is re-armed and redelivered.
	gw.mu.Lock()
	delete(gw.failing, flaky.ExternalID)
	gw.mu.Unlock()

	require.NoError(t, svc.RetryPost(context.Background(), pub.ID, failedID))
	require.Len(t, enq.retries, 1)
	require.NoError(t, svc.DispatchSinglePost(context.Background(), pub.ID, failedID))

	view, err = svc.GetStatus(context.Background(), pub.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPublished, view.Status)

	// Only the failed post went back out; the published one was untouched.
	assert.Equal(t, firstSent+1, len(gw.sent()))
}

func TestDispatchSkipsWhenLocked(t *testing.T) {
	store := newMemStore()
	gw := newFakeGateway()
	enq := &fakeEnqueuer{}
	locks := lock.NewMemoryLockService()

	svc := NewPublishService(
		pubRepoAdapter{store},
		postRepoAdapter{store},
		mediaRepoAdapter{store},
		channelRepoAdapter{store},
		NewTemplateResolver(newFakeTemplateRepo()),
		platform.NewRegistry(),
		gw,
		locks,
		enq,
		fakeURLResolver{},
		Config{},
	)

	channel := addChannel(store, channelModel.PlatformTelegram)
	pub := seedPublication(t, store, svc, channel.ID)
	_, err := svc.PublishNow(context.Background(), pub.ID)
	require.NoError(t, err)

	token := locks.AcquireLock(context.Background(), "publication:"+pub.ID.String(), time.Minute)
	require.NotEmpty(t, token)

	require.NoError(t, svc.Dispatch(context.Background(), pub.ID))
	assert.Empty(t, gw.sent())

	locks.ReleaseLock(context.Background(), "publication:"+pub.ID.String(), token)
	require.NoError(t, svc.Dispatch(context.Background(), pub.ID))
	assert.Len(t, gw.sent(), 1)
}

func TestDispatchIgnoresTerminalPublication(t *testing.T) {
	store := newMemStore()
	gw := newFakeGateway()
	svc := newTestService(store, gw, &fakeEnqueuer{})

	channel := addChannel(store, channelModel.PlatformTelegram)
	pub := seedPublication(t, store, svc, channel.ID)
	_, err := svc.PublishNow(context.Background(), pub.ID)
	require.NoError(t, err)
	require.NoError(t, svc.Dispatch(context.Background(), pub.ID))
	require.Len(t, gw.sent(), 1)

	// Redelivering a PUBLISHED publication is a no-op.
	require.NoError(t, svc.Dispatch(context.Background(), pub.ID))
	assert.Len(t, gw.sent(), 1)
}

func TestScheduleRebuildsSnapshots(t *testing.T) {
	store := newMemStore()
	gw := newFakeGateway()
	enq := &fakeEnqueuer{}
	svc := newTestService(store, gw, enq)

	channel := addChannel(store, channelModel.PlatformTelegram)
	pub := seedPublication(t, store, svc, channel.ID)

	at := time.Now().UTC().Add(time.Hour)
	view, err := svc.Schedule(context.Background(), pub.ID, model.SchedulePublicationRequest{ScheduledAt: &at})
	require.NoError(t, err)
	assert.Equal(t, model.StatusScheduled, view.Status)
	assert.Empty(t, enq.dispatched)

	posts, err := postRepoAdapter{store}.ListByPublication(context.Background(), pub.ID)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	require.NotNil(t, posts[0].Snapshot)
	firstBody := posts[0].Snapshot.Body

	// Editing before dispatch and re-scheduling supersedes the snapshot.
	store.mu.Lock()
	store.publications[pub.ID].Content = "Changed copy"
	store.mu.Unlock()

	view, err = svc.Schedule(context.Background(), pub.ID, model.SchedulePublicationRequest{ScheduledAt: &at})
	require.NoError(t, err)
	assert.Equal(t, model.StatusScheduled, view.Status)

	posts, err = postRepoAdapter{store}.ListByPublication(context.Background(), pub.ID)
	require.NoError(t, err)
	require.NotNil(t, posts[0].Snapshot)
	assert.NotEqual(t, firstBody, posts[0].Snapshot.Body)
	assert.Contains(t, posts[0].Snapshot.Body, "Changed copy")
}

func TestCreatePublicationAttachesMedia(t *testing.T) {
	store := newMemStore()
	gw := newFakeGateway()
	svc := newTestService(store, gw, &fakeEnqueuer{})

	channel := addChannel(store, channelModel.PlatformTelegram)
	banner := addMediaItem(store, model.MediaTypePhoto, "uploads/banner.png")
	clip := addMediaItem(store, model.MediaTypeVideo, "uploads/clip.mp4")

	// A media-only publication: no text, the attachments carry it.
	pub, err := svc.CreatePublication(context.Background(), model.CreatePublicationRequest{
		ProjectID:  uuid.New(),
		ChannelIDs: []uuid.UUID{channel.ID},
		MediaIDs:   []uuid.UUID{banner.ID, clip.ID},
	})
	require.NoError(t, err)

	_, err = svc.PublishNow(context.Background(), pub.ID)
	require.NoError(t, err)
	require.NoError(t, svc.Dispatch(context.Background(), pub.ID))

	sent := gw.sent()
	require.Len(t, sent, 1)
	require.Len(t, sent[0].Media, 2)
	assert.Equal(t, "https://cdn.test/uploads/banner.png", sent[0].Media[0].URL)
	assert.Equal(t, "https://cdn.test/uploads/clip.mp4", sent[0].Media[1].URL)

	view, err := svc.GetStatus(context.Background(), pub.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPublished, view.Status)
}

func TestCreatePublicationRejectsUnknownMedia(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, newFakeGateway(), &fakeEnqueuer{})

	channel := addChannel(store, channelModel.PlatformTelegram)

	_, err := svc.CreatePublication(context.Background(), model.CreatePublicationRequest{
		ProjectID:  uuid.New(),
		ChannelIDs: []uuid.UUID{channel.ID},
		MediaIDs:   []uuid.UUID{uuid.New()},
	})
	assert.ErrorIs(t, err, model.ErrMediaNotFound)
}

func TestRescheduleUpdatesDispatchTime(t *testing.T) {
	store := newMemStore()
	gw := newFakeGateway()
	enq := &fakeEnqueuer{}
	svc := newTestService(store, gw, enq)

	channel := addChannel(store, channelModel.PlatformTelegram)
	pub := seedPublication(t, store, svc, channel.ID)

	first := time.Now().UTC().Add(time.Hour)
	view, err := svc.Schedule(context.Background(), pub.ID, model.SchedulePublicationRequest{ScheduledAt: &first})
	require.NoError(t, err)
	require.Equal(t, model.StatusScheduled, view.Status)

	// Pushing the dispatch time out must land in the stored row, not just
	// in the response.
	later := time.Now().UTC().Add(48 * time.Hour)
	view, err = svc.Schedule(context.Background(), pub.ID, model.SchedulePublicationRequest{ScheduledAt: &later})
	require.NoError(t, err)
	assert.Equal(t, model.StatusScheduled, view.Status)
	require.NotNil(t, view.ScheduledAt)
	assert.True(t, view.ScheduledAt.Equal(later))

	stored, err := pubRepoAdapter{store}.GetByID(context.Background(), pub.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ScheduledAt)
	assert.True(t, stored.ScheduledAt.Equal(later))

	count, err := svc.ProcessDue(context.Background(), 0)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, enq.dispatched)
}

func TestPublishNowOnScheduledPublication(t *testing.T) {
	store := newMemStore()
	gw := newFakeGateway()
	enq := &fakeEnqueuer{}
	svc := newTestService(store, gw, enq)

	channel := addChannel(store, channelModel.PlatformTelegram)
	pub := seedPublication(t, store, svc, channel.ID)

	at := time.Now().UTC().Add(2 * time.Hour)
	_, err := svc.Schedule(context.Background(), pub.ID, model.SchedulePublicationRequest{ScheduledAt: &at})
	require.NoError(t, err)

	// Publishing ahead of the scheduled time moves the row to READY and
	// enqueues an immediate dispatch.
	view, err := svc.PublishNow(context.Background(), pub.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusReady, view.Status)
	assert.Nil(t, view.ScheduledAt)
	require.Len(t, enq.dispatched, 1)
	assert.Equal(t, pub.ID, enq.dispatched[0])

	require.NoError(t, svc.Dispatch(context.Background(), pub.ID))

	view, err = svc.GetStatus(context.Background(), pub.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPublished, view.Status)
}

func TestScheduleAddsTimeToReadyPublication(t *testing.T) {
	store := newMemStore()
	gw := newFakeGateway()
	enq := &fakeEnqueuer{}
	svc := newTestService(store, gw, enq)

	channel := addChannel(store, channelModel.PlatformTelegram)
	pub := seedPublication(t, store, svc, channel.ID)

	_, err := svc.Schedule(context.Background(), pub.ID, model.SchedulePublicationRequest{})
	require.NoError(t, err)

	at := time.Now().UTC().Add(time.Hour)
	view, err := svc.Schedule(context.Background(), pub.ID, model.SchedulePublicationRequest{ScheduledAt: &at})
	require.NoError(t, err)
	assert.Equal(t, model.StatusScheduled, view.Status)
	require.NotNil(t, view.ScheduledAt)
	assert.True(t, view.ScheduledAt.Equal(at))
}

func TestProcessDueEnqueuesScheduledPublications(t *testing.T) {
	store := newMemStore()
	gw := newFakeGateway()
	enq := &fakeEnqueuer{}
	svc := newTestService(store, gw, enq)

	channel := addChannel(store, channelModel.PlatformTelegram)
	due := seedPublication(t, store, svc, channel.ID)
	future := seedPublication(t, store, svc, channel.ID)

	soon := time.Now().UTC().Add(time.Minute)
	_, err := svc.Schedule(context.Background(), due.ID, model.SchedulePublicationRequest{ScheduledAt: &soon})
	require.NoError(t, err)
	later := time.Now().UTC().Add(time.Hour)
	_, err = svc.Schedule(context.Background(), future.ID, model.SchedulePublicationRequest{ScheduledAt: &later})
	require.NoError(t, err)

	// The first publication's dispatch time arrives.
	past := time.Now().UTC().Add(-time.Minute)
	store.mu.Lock()
	store.publications[due.ID].ScheduledAt = &past
	store.mu.Unlock()

	count, err := svc.ProcessDue(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	require.Len(t, enq.dispatched, 1)
	assert.Equal(t, due.ID, enq.dispatched[0])
}

func TestExpireStaleScheduledPublications(t *testing.T) {
	store := newMemStore()
	gw := newFakeGateway()
	svc := newTestService(store, gw, &fakeEnqueuer{})

	channel := addChannel(store, channelModel.PlatformTelegram)
	pub := seedPublication(t, store, svc, channel.ID)

	soon := time.Now().UTC().Add(time.Minute)
	_, err := svc.Schedule(context.Background(), pub.ID, model.SchedulePublicationRequest{ScheduledAt: &soon})
	require.NoError(t, err)

	// Nobody dispatched it and the grace window has long passed.
	stale := time.Now().UTC().Add(-3 * time.Hour)
	store.mu.Lock()
	store.publications[pub.ID].ScheduledAt = &stale
	store.mu.Unlock()

	count, err := svc.ExpireStale(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	view, err := svc.GetStatus(context.Background(), pub.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusExpired, view.Status)
}

func TestIdempotencyKeyStableAcrossRetry(t *testing.T) {
	store := newMemStore()
	gw := newFakeGateway()
	svc := newTestService(store, gw, &fakeEnqueuer{})

	flaky := addChannel(store, channelModel.PlatformTelegram)
	gw.failChannel(flaky.ExternalID, model.NewTransientError(model.ErrCodeGatewayUnavailable, "connection reset", nil))

	pub := seedPublication(t, store, svc, flaky.ID)
	_, err := svc.PublishNow(context.Background(), pub.ID)
	require.NoError(t, err)
	require.NoError(t, svc.Dispatch(context.Background(), pub.ID))

	sent := gw.sent()
	require.Len(t, sent, 1)
	firstKey := sent[0].IdempotencyKey
	assert.NotEmpty(t, firstKey)
}

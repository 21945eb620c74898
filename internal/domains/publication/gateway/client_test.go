package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	channelModel "publisher-backend/internal/domains/channel/model"
	"publisher-backend/internal/domains/publication/model"
	"publisher-backend/internal/platform"
)

func testRequest() *platform.PublishRequest {
	return &platform.PublishRequest{
		Platform:       channelModel.PlatformTelegram,
		ChannelID:      "@test",
		Body:           "hello",
		BodyFormat:     model.BodyFormatHTML,
		IdempotencyKey: "post-abc-1",
	}
}

func newTestClient(url string, attempts int) *Client {
	return NewClient(&Config{
		BaseURL:        url,
		MaxAttempts:    attempts,
		RetryBaseDelay: time.Millisecond,
	})
}

func TestPublishSuccess(t *testing.T) {
	var gotKey atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey.Store(r.Header.Get("Idempotency-Key"))
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"request_id":"req-1","delivered":true}`))
	}))
	defer srv.Close()

	result, err := newTestClient(srv.URL, 3).Publish(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Equal(t, "req-1", result.RequestID)
	assert.True(t, result.Delivered)
	assert.Equal(t, "post-abc-1", gotKey.Load())
}

func TestPublishRetriesTransientThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"request_id":"req-2","delivered":true}`))
	}))
	defer srv.Close()

	result, err := newTestClient(srv.URL, 3).Publish(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, "req-2", result.RequestID)
}

func TestPublishExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 2).Publish(context.Background(), testRequest())
	require.Error(t, err)

	assert.ErrorIs(t, err, model.ErrMaxRetriesExceeded)
	assert.Equal(t, int32(2), calls.Load())
}

func TestPublishPermanentErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`body too long`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 5).Publish(context.Background(), testRequest())
	require.Error(t, err)

	assert.Equal(t, int32(1), calls.Load())
	assert.False(t, model.IsTransient(err))
}

func TestPublishContextCancelledDuringBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(&Config{
		BaseURL:        srv.URL,
		MaxAttempts:    3,
		RetryBaseDelay: time.Minute,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Publish(ctx, testRequest())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestJitteredDelayWithinBounds(t *testing.T) {
	base := 100 * time.Millisecond
	for i := 0; i < 200; i++ {
		d := jitteredDelay(base)
		assert.GreaterOrEqual(t, d, 80*time.Millisecond)
		assert.LessOrEqual(t, d, 120*time.Millisecond)
	}
}

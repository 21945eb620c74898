package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"publisher-backend/internal/domains/publication/model"
	"publisher-backend/internal/platform"
	"publisher-backend/pkg/logger"
)

// =====================================================
// HTTP GATEWAY CLIENT
// =====================================================

// Config holds gateway connection and retry settings.
type Config struct {
	BaseURL        string
	APIToken       string
	Timeout        time.Duration
	MaxAttempts    int
	RetryBaseDelay time.Duration
}

// Client is the HTTP implementation of SocialGateway with jittered retries
// for transient failures.
type Client struct {
	config     *Config
	httpClient *http.Client
}

// NewClient creates the gateway HTTP client.
func NewClient(config *Config) *Client {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Publish sends the request, retrying transient failures with jittered
// backoff up to MaxAttempts. Validation failures are never retried.
func (c *Client) Publish(ctx context.Context, req *platform.PublishRequest) (*PublishResult, error) {
	maxAttempts := c.config.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, err := c.post(ctx, req)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !model.IsTransient(err) {
			return nil, err
		}

		if attempt < maxAttempts {
			delay := jitteredDelay(c.config.RetryBaseDelay)
			logger.Info("gateway publish retry", map[string]interface{}{
				"attempt":  attempt,
				"delay_ms": delay.Milliseconds(),
				"key":      req.IdempotencyKey,
			})
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return nil, fmt.Errorf("%w: %v", model.ErrMaxRetriesExceeded, lastErr)
}

func (c *Client) post(ctx context.Context, req *platform.PublishRequest) (*PublishResult, error) {
	bodyJSON, err := json.Marshal(req)
	if err != nil {
		return nil, model.NewPermanentError("MARSHAL_FAILED", "failed to marshal publish request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/v1/publish", bytes.NewReader(bodyJSON))
	if err != nil {
		return nil, model.NewPermanentError("BAD_REQUEST", "failed to build request", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Idempotency-Key", req.IdempotencyKey)
	if c.config.APIToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.config.APIToken)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		// Network-level failures are transient by definition.
		return nil, model.NewTransientError("NETWORK_ERROR", "gateway request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, model.NewTransientError("READ_FAILED", "failed to read gateway response", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var result PublishResult
		if err := json.Unmarshal(respBody, &result); err != nil {
			return nil, model.NewPermanentError("BAD_RESPONSE", "failed to decode gateway response", err)
		}
		return &result, nil

	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, model.NewTransientError(
			fmt.Sprintf("GATEWAY_%d", resp.StatusCode),
			string(respBody),
			nil,
		)

	default:
		return nil, model.NewPermanentError(
			fmt.Sprintf("GATEWAY_%d", resp.StatusCode),
			string(respBody),
			nil,
		)
	}
}

// jitteredDelay spreads retries across base ± 20% so a platform-wide outage
// does not produce a thundering herd of simultaneous retries.
func jitteredDelay(base time.Duration) time.Duration {
	if base <= 0 {
		base = 2 * time.Second
	}
	factor := 0.8 + 0.4*rand.Float64()
	return time.Duration(float64(base) * factor)
}

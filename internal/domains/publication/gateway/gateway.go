// Package gateway talks to the external social-posting gateway that performs
// the actual platform deliveries.
package gateway

import (
	"context"

	"publisher-backend/internal/platform"
)

// PublishResult is the gateway's acknowledgement of a delivery attempt.
type PublishResult struct {
	RequestID string `json:"request_id"`
	Delivered bool   `json:"delivered"`
}

// SocialGateway accepts a platform publish request and returns the gateway
// request id. Transient failures are retried by the client per the jitter
// policy; validation failures surface immediately.
type SocialGateway interface {
	Publish(ctx context.Context, req *platform.PublishRequest) (*PublishResult, error)
}

// Package platform converts frozen posting snapshots into wire-level publish
// requests, one strategy per social platform.
package platform

import (
	"context"
	"fmt"
	"time"

	channelModel "publisher-backend/internal/domains/channel/model"
	"publisher-backend/internal/domains/publication/model"
)

// MediaURLResolver turns a snapshot media reference into a retrievable URL.
// Injected so formatters stay decoupled from the storage backend.
type MediaURLResolver interface {
	ResolveURL(ctx context.Context, media model.SnapshotMedia) (string, error)
}

// MediaRef is the platform-facing shape of one media attachment.
type MediaRef struct {
	URL        string `json:"url"`
	Type       string `json:"type"`
	Order      int    `json:"order"`
	HasSpoiler bool   `json:"has_spoiler,omitempty"`
}

// PublishRequest is the payload handed to the social-posting gateway.
// Fields a platform does not use are left empty and omitted on the wire.
type PublishRequest struct {
	Platform       channelModel.Platform `json:"platform"`
	ChannelID      string                `json:"channel_id"`
	Auth           string                `json:"auth"`
	Title          string                `json:"title,omitempty"`
	Description    string                `json:"description,omitempty"`
	Body           string                `json:"body"`
	BodyFormat     model.BodyFormat      `json:"body_format"`
	Tags           []string              `json:"tags,omitempty"`
	Mode           string                `json:"mode,omitempty"`
	Media          []MediaRef            `json:"media,omitempty"`
	IdempotencyKey string                `json:"idempotency_key"`
	ScheduleAt     *time.Time            `json:"schedule_at,omitempty"`
}

// FormatParams bundles everything a strategy needs to build a request.
type FormatParams struct {
	Publication     *model.Publication
	Post            *model.Post
	Channel         *channelModel.Channel
	Snapshot        *model.PostingSnapshot
	APIKey          string
	TargetChannelID string
	Resolver        MediaURLResolver
}

// Formatter is implemented once per platform. Implementations hold no
// mutable state and are safe for concurrent use.
type Formatter interface {
	Format(ctx context.Context, params FormatParams) (*PublishRequest, error)
}

// IdempotencyKey derives the delivery deduplication key for a post.
// Retrying an unmodified post reuses the key; any edit that bumps
// UpdatedAt forces redelivery under a new key.
func IdempotencyKey(post *model.Post) string {
	return fmt.Sprintf("post-%s-%d", post.ID, post.UpdatedAt.UnixMilli())
}

// resolveMedia maps snapshot media to platform refs preserving snapshot order.
func resolveMedia(ctx context.Context, params FormatParams) ([]MediaRef, error) {
	if len(params.Snapshot.Media) == 0 {
		return nil, nil
	}

	refs := make([]MediaRef, 0, len(params.Snapshot.Media))
	for _, m := range params.Snapshot.Media {
		url, err := params.Resolver.ResolveURL(ctx, m)
		if err != nil {
			return nil, fmt.Errorf("resolve media %s: %w", m.MediaID, err)
		}
		refs = append(refs, MediaRef{
			URL:        url,
			Type:       m.Type,
			Order:      m.Order,
			HasSpoiler: m.HasSpoiler,
		})
	}
	return refs, nil
}

// ================================================
// REGISTRY
// ================================================

// Registry dispatches platform identifier to formatter. Unknown platforms
// fall back to the generic formatter.
type Registry struct {
	formatters map[channelModel.Platform]Formatter
	fallback   Formatter
}

// NewRegistry builds the default strategy set.
func NewRegistry() *Registry {
	generic := &DefaultFormatter{}
	return &Registry{
		formatters: map[channelModel.Platform]Formatter{
			channelModel.PlatformTelegram: &TelegramFormatter{},
			channelModel.PlatformDefault:  generic,
		},
		fallback: generic,
	}
}

// Register adds or replaces the strategy for a platform.
func (r *Registry) Register(platform channelModel.Platform, f Formatter) {
	r.formatters[platform] = f
}

// ForPlatform returns the strategy for a platform, falling back to generic.
func (r *Registry) ForPlatform(platform channelModel.Platform) Formatter {
	if f, ok := r.formatters[platform]; ok {
		return f
	}
	return r.fallback
}

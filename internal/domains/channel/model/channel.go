package model

import (
	"time"

	"github.com/google/uuid"
)

// Platform identifies the social platform a channel delivers to.
type Platform string

const (
	PlatformTelegram Platform = "telegram"
	PlatformVK       Platform = "vk"
	PlatformYouTube  Platform = "youtube"
	PlatformDefault  Platform = "default"
)

// Channel is a configured destination: platform plus credentials plus the
// platform-side identifier a post targets.
type Channel struct {
	ID                uuid.UUID  `json:"id"`
	ProjectID         uuid.UUID  `json:"project_id"`
	Name              string     `json:"name"`
	Platform          Platform   `json:"platform"`
	ExternalID        string     `json:"external_id"`
	APIKeyRef         string     `json:"api_key_ref"`
	DefaultTemplateID *uuid.UUID `json:"default_template_id,omitempty"`
	TagCase           string     `json:"tag_case"`
	Locale            string     `json:"locale"`
	IsActive          bool       `json:"is_active"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// WantsHTML reports whether the platform expects an HTML body. Telegram
// bodies are converted from Markdown; other platforms take text as-is.
func (c *Channel) WantsHTML() bool {
	return c.Platform == PlatformTelegram
}

package model

import (
	"time"

	"github.com/google/uuid"
)

// ================================================
// PUBLICATION AGGREGATE
// ================================================

// Publication is the aggregate root: user-authored content that fans out to
// one channel-specific Post per target channel. The publication stays
// editable in DRAFT; scheduling freezes each post into a PostingSnapshot.
type Publication struct {
	ID              uuid.UUID         `json:"id"`
	ProjectID       uuid.UUID         `json:"project_id"`
	Title           string            `json:"title"`
	Content         string            `json:"content"`
	Tags            string            `json:"tags"`
	AuthorComment   string            `json:"author_comment"`
	PostType        string            `json:"post_type"`
	Language        string            `json:"language"`
	AuthorSignature string            `json:"author_signature"`
	Status          PublicationStatus `json:"status"`
	ScheduledAt     *time.Time        `json:"scheduled_at,omitempty"`
	Posts           []Post            `json:"posts,omitempty"`
	// MediaIDs lists the attachments in display order. Consumed at create
	// time; reads go through the media repository instead.
	MediaIDs  []uuid.UUID `json:"media_ids,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Post is one channel-specific delivery unit. It carries its own status so a
// failing channel never blocks its siblings.
type Post struct {
	ID              uuid.UUID        `json:"id"`
	PublicationID   uuid.UUID        `json:"publication_id"`
	ChannelID       uuid.UUID        `json:"channel_id"`
	Status          PostStatus       `json:"status"`
	ContentOverride *string          `json:"content_override,omitempty"`
	Snapshot        *PostingSnapshot `json:"snapshot,omitempty"`
	ErrorDetail     *string          `json:"error_detail,omitempty"`
	Attempts        int              `json:"attempts"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// Media is an externally stored asset attached to a publication. Posts
// reference media, they never own copies.
type Media struct {
	ID          uuid.UUID `json:"id"`
	Type        string    `json:"type"`
	StorageType string    `json:"storage_type"`
	StoragePath string    `json:"storage_path"`
	Order       int       `json:"order"`
	HasSpoiler  bool      `json:"has_spoiler"`
	Meta        JSONB     `json:"meta,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Media types
const (
	MediaTypePhoto    = "photo"
	MediaTypeVideo    = "video"
	MediaTypeDocument = "document"
	MediaTypeAudio    = "audio"
)

// Post types
const (
	PostTypeDefault      = "default"
	PostTypeAnnouncement = "announcement"
)

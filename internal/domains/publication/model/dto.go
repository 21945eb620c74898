package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// ================================================
// REQUEST DTOs
// ================================================

// CreatePublicationRequest creates a DRAFT publication with one post per
// listed channel.
type CreatePublicationRequest struct {
	ProjectID       uuid.UUID   `json:"project_id"`
	Title           string      `json:"title"`
	Content         string      `json:"content"`
	Tags            string      `json:"tags"`
	AuthorComment   string      `json:"author_comment"`
	PostType        string      `json:"post_type"`
	Language        string      `json:"language"`
	AuthorSignature string      `json:"author_signature"`
	ChannelIDs      []uuid.UUID `json:"channel_ids"`
	MediaIDs        []uuid.UUID `json:"media_ids"`
}

func (r CreatePublicationRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ProjectID, validation.Required),
		validation.Field(&r.ChannelIDs, validation.Required, validation.Length(1, 32)),
		validation.Field(&r.Title, validation.Length(0, 512)),
		validation.Field(&r.Language, validation.Length(0, 8)),
		validation.Field(&r.PostType, validation.In("", PostTypeDefault, PostTypeAnnouncement)),
	)
}

// SchedulePublicationRequest freezes snapshots and moves the publication to
// READY (immediate pickup) or SCHEDULED (future dispatch time).
type SchedulePublicationRequest struct {
	ScheduledAt         *time.Time `json:"scheduled_at,omitempty"`
	PreferredTemplateID *uuid.UUID `json:"preferred_template_id,omitempty"`
}

func (r SchedulePublicationRequest) Validate() error {
	if r.ScheduledAt != nil && r.ScheduledAt.Before(time.Now()) {
		return validation.NewError("validation_scheduled_at_past", "scheduled_at must be in the future")
	}
	return nil
}

// ================================================
// RESPONSE DTOs
// ================================================

// PostStatusView exposes per-post outcome detail so a user can retry only
// failed channels.
type PostStatusView struct {
	ID          uuid.UUID  `json:"id"`
	ChannelID   uuid.UUID  `json:"channel_id"`
	Status      PostStatus `json:"status"`
	ErrorDetail *string    `json:"error_detail,omitempty"`
	Attempts    int        `json:"attempts"`
	Retryable   bool       `json:"retryable"`
}

// PublicationStatusView is the aggregate status plus per-post breakdown.
type PublicationStatusView struct {
	ID          uuid.UUID         `json:"id"`
	Status      PublicationStatus `json:"status"`
	ScheduledAt *time.Time        `json:"scheduled_at,omitempty"`
	Posts       []PostStatusView  `json:"posts"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// NewPublicationStatusView builds the status view from the aggregate.
func NewPublicationStatusView(pub *Publication) PublicationStatusView {
	view := PublicationStatusView{
		ID:          pub.ID,
		Status:      pub.Status,
		ScheduledAt: pub.ScheduledAt,
		UpdatedAt:   pub.UpdatedAt,
		Posts:       make([]PostStatusView, 0, len(pub.Posts)),
	}
	for _, post := range pub.Posts {
		view.Posts = append(view.Posts, PostStatusView{
			ID:          post.ID,
			ChannelID:   post.ChannelID,
			Status:      post.Status,
			ErrorDetail: post.ErrorDetail,
			Attempts:    post.Attempts,
			Retryable:   post.Status == PostStatusFailed,
		})
	}
	return view
}

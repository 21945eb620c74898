package platform

import (
	"context"

	"publisher-backend/internal/shared/tags"
)

// DefaultFormatter is the generic strategy used for platforms without a
// dedicated implementation. Unlike Telegram it carries title, description,
// tags and mode explicitly.
type DefaultFormatter struct{}

func (f *DefaultFormatter) Format(ctx context.Context, params FormatParams) (*PublishRequest, error) {
	media, err := resolveMedia(ctx, params)
	if err != nil {
		return nil, err
	}

	inputs := params.Snapshot.Meta.Inputs

	return &PublishRequest{
		Platform:    params.Channel.Platform,
		ChannelID:   params.TargetChannelID,
		Auth:        params.APIKey,
		Title:       inputs.Title,
		Description: inputs.AuthorComment,
		Body:        params.Snapshot.Body,
		BodyFormat:  params.Snapshot.BodyFormat,
		Tags: tags.ToArray(inputs.Tags, tags.Options{
			TagCase: tags.Case(params.Channel.TagCase),
		}),
		Mode:           inputs.PostType,
		Media:          media,
		IdempotencyKey: IdempotencyKey(params.Post),
		ScheduleAt:     params.Publication.ScheduledAt,
	}, nil
}

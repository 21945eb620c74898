package platform

import (
	"context"
	"unicode/utf8"

	channelModel "publisher-backend/internal/domains/channel/model"
	"publisher-backend/internal/domains/publication/model"
)

// Telegram message size limits. A media caption is capped far below a plain
// message body.
const (
	telegramMaxBodyLen    = 4096
	telegramMaxCaptionLen = 1024
)

// TelegramFormatter builds Telegram publish requests. Title, description,
// tags and mode are never sent: the snapshot body already embeds them.
type TelegramFormatter struct{}

func (f *TelegramFormatter) Format(ctx context.Context, params FormatParams) (*PublishRequest, error) {
	media, err := resolveMedia(ctx, params)
	if err != nil {
		return nil, err
	}

	limit := telegramMaxBodyLen
	if len(media) > 0 {
		limit = telegramMaxCaptionLen
	}
	if utf8.RuneCountInString(params.Snapshot.Body) > limit {
		return nil, model.ErrBodyTooLong
	}

	return &PublishRequest{
		Platform:       channelModel.PlatformTelegram,
		ChannelID:      params.TargetChannelID,
		Auth:           params.APIKey,
		Body:           params.Snapshot.Body,
		BodyFormat:     params.Snapshot.BodyFormat,
		Media:          media,
		IdempotencyKey: IdempotencyKey(params.Post),
		ScheduleAt:     params.Publication.ScheduledAt,
	}, nil
}

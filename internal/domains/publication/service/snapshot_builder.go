package service

import (
	"sort"
	"strings"
	"time"

	channelModel "publisher-backend/internal/domains/channel/model"
	"publisher-backend/internal/domains/publication/model"
	"publisher-backend/internal/markdown"
	"publisher-backend/internal/shared/tags"
)

// BuildSnapshot freezes a publication's content for one post into an
// immutable PostingSnapshot. The function is deterministic: the same
// inputs always produce the same body and media ordering, which is what
// makes retries idempotent.
func BuildSnapshot(
	pub *model.Publication,
	post *model.Post,
	channel *channelModel.Channel,
	resolution *model.TemplateResolutionResult,
	media []model.Media,
) (*model.PostingSnapshot, error) {
	content := pub.Content
	if post.ContentOverride != nil {
		content = *post.ContentOverride
	}

	inputs := model.SnapshotInputs{
		Title:           pub.Title,
		Content:         content,
		Tags:            pub.Tags,
		AuthorComment:   pub.AuthorComment,
		PostType:        pub.PostType,
		Language:        pub.Language,
		AuthorSignature: pub.AuthorSignature,
	}

	body := renderBody(inputs, resolution.Blocks, channel)
	snapshotMedia := freezeMedia(media)

	if strings.TrimSpace(body) == "" && len(snapshotMedia) == 0 {
		return nil, model.ErrNothingToPublish
	}

	bodyFormat := model.BodyFormatMarkdown
	if channel.WantsHTML() {
		body = markdown.Convert(body)
		bodyFormat = model.BodyFormatHTML
	}

	return &model.PostingSnapshot{
		Version:    model.SnapshotVersion,
		Body:       body,
		BodyFormat: bodyFormat,
		Media:      snapshotMedia,
		Meta: model.SnapshotMeta{
			Inputs: inputs,
			Template: model.TemplateMeta{
				TemplateID:     resolution.TemplateID,
				VariationID:    resolution.VariationID,
				Resolution:     resolution.Resolution,
				ManualOverride: resolution.ManualOverride,
			},
		},
		CreatedAt: time.Now().UTC(),
	}, nil
}

// renderBody assembles the textual body from template blocks in order,
// skipping blocks whose source field is empty.
func renderBody(inputs model.SnapshotInputs, blocks []model.TemplateBlockKind, channel *channelModel.Channel) string {
	parts := make([]string, 0, len(blocks))

	for _, block := range blocks {
		var part string
		switch block {
		case model.BlockTitle:
			part = inputs.Title
		case model.BlockContent:
			part = inputs.Content
		case model.BlockTags:
			part = tags.Format(inputs.Tags, tags.Options{TagCase: tags.Case(channel.TagCase)})
		case model.BlockAuthorComment:
			part = inputs.AuthorComment
		case model.BlockAuthorSignature:
			part = inputs.AuthorSignature
		}

		if strings.TrimSpace(part) != "" {
			parts = append(parts, strings.TrimSpace(part))
		}
	}

	return strings.Join(parts, "\n\n")
}

// freezeMedia copies media references into the snapshot in display order.
// The snapshot order is authoritative from here on.
func freezeMedia(media []model.Media) []model.SnapshotMedia {
	if len(media) == 0 {
		return nil
	}

	sorted := make([]model.Media, len(media))
	copy(sorted, media)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Order != sorted[j].Order {
			return sorted[i].Order < sorted[j].Order
		}
		return sorted[i].ID.String() < sorted[j].ID.String()
	})

	frozen := make([]model.SnapshotMedia, 0, len(sorted))
	for i, m := range sorted {
		frozen = append(frozen, model.SnapshotMedia{
			MediaID:     m.ID,
			Type:        m.Type,
			StorageType: m.StorageType,
			StoragePath: m.StoragePath,
			Order:       i,
			HasSpoiler:  m.HasSpoiler,
			Meta:        m.Meta,
		})
	}

	return frozen
}

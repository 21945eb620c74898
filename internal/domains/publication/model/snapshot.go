package model

import (
	"time"

	"github.com/google/uuid"
)

// ================================================
// POSTING SNAPSHOT
// ================================================

// SnapshotVersion is the current snapshot schema version. Consumers must
// tolerate older versions when reading persisted snapshots.
const SnapshotVersion = 1

// BodyFormat describes how a snapshot body is encoded.
type BodyFormat string

const (
	BodyFormatHTML     BodyFormat = "html"
	BodyFormatMarkdown BodyFormat = "markdown"
	BodyFormatText     BodyFormat = "text"
)

// TemplateResolution records why a particular template was used for a
// snapshot. Every snapshot states its resolution rule explicitly so a
// "wrong template used" incident is debuggable from the snapshot alone.
type TemplateResolution string

const (
	ResolutionPreferredTemplateChannelDefault TemplateResolution = "preferred_template_channel_default"
	ResolutionPreferredTemplateFirstVariation TemplateResolution = "preferred_template_first_variation"
	ResolutionChannelDefault                  TemplateResolution = "channel_default"
	ResolutionFallbackDefaultBlocks           TemplateResolution = "fallback_default_blocks"
	ResolutionMissingProjectTemplateFallback  TemplateResolution = "missing_project_template_fallback"
)

// Valid reports whether r is one of the defined resolution rules.
func (r TemplateResolution) Valid() bool {
	switch r {
	case ResolutionPreferredTemplateChannelDefault,
		ResolutionPreferredTemplateFirstVariation,
		ResolutionChannelDefault,
		ResolutionFallbackDefaultBlocks,
		ResolutionMissingProjectTemplateFallback:
		return true
	}
	return false
}

// PostingSnapshot is the immutable, fully resolved payload a post is
// delivered from. Once built it is never mutated; if the source publication
// changes before dispatch a new snapshot supersedes it.
type PostingSnapshot struct {
	Version    int             `json:"version"`
	Body       string          `json:"body"`
	BodyFormat BodyFormat      `json:"body_format"`
	Media      []SnapshotMedia `json:"media,omitempty"`
	Meta       SnapshotMeta    `json:"meta"`
	CreatedAt  time.Time       `json:"created_at"`
}

// SnapshotMedia references externally stored media. Order here is the
// authoritative display order, independent of insertion order in the source.
type SnapshotMedia struct {
	MediaID     uuid.UUID `json:"media_id"`
	Type        string    `json:"type"`
	StorageType string    `json:"storage_type"`
	StoragePath string    `json:"storage_path"`
	Order       int       `json:"order"`
	HasSpoiler  bool      `json:"has_spoiler"`
	Meta        JSONB     `json:"meta,omitempty"`
}

// SnapshotMeta carries audit provenance for a snapshot.
type SnapshotMeta struct {
	Inputs   SnapshotInputs `json:"inputs"`
	Template TemplateMeta   `json:"template"`
}

// SnapshotInputs is a frozen copy of the source fields the body was built
// from, kept for debugging without re-reading mutable publication state.
type SnapshotInputs struct {
	Title           string `json:"title"`
	Content         string `json:"content"`
	Tags            string `json:"tags"`
	AuthorComment   string `json:"author_comment"`
	PostType        string `json:"post_type"`
	Language        string `json:"language"`
	AuthorSignature string `json:"author_signature"`
}

// TemplateMeta records which template/variation produced the body and under
// which resolution rule.
type TemplateMeta struct {
	TemplateID     *uuid.UUID         `json:"template_id,omitempty"`
	VariationID    *uuid.UUID         `json:"variation_id,omitempty"`
	Resolution     TemplateResolution `json:"resolution"`
	ManualOverride bool               `json:"manual_override"`
}

// ================================================
// TEMPLATES
// ================================================

// TemplateBlockKind names a body building block within a template.
type TemplateBlockKind string

const (
	BlockTitle           TemplateBlockKind = "title"
	BlockContent         TemplateBlockKind = "content"
	BlockTags            TemplateBlockKind = "tags"
	BlockAuthorComment   TemplateBlockKind = "author_comment"
	BlockAuthorSignature TemplateBlockKind = "author_signature"
)

// Template is an ordered list of body blocks a project configures per
// channel or as a project-wide preferred template.
type Template struct {
	ID        uuid.UUID           `json:"id"`
	ProjectID uuid.UUID           `json:"project_id"`
	Name      string              `json:"name"`
	Blocks    []TemplateBlockKind `json:"blocks"`
}

// TemplateVariation is a per-channel override of a template's block order.
type TemplateVariation struct {
	ID         uuid.UUID           `json:"id"`
	TemplateID uuid.UUID           `json:"template_id"`
	ChannelID  *uuid.UUID          `json:"channel_id,omitempty"`
	Blocks     []TemplateBlockKind `json:"blocks"`
}

// TemplateResolutionResult is the resolver's verdict handed to the snapshot
// builder: which blocks to render and why they were picked.
type TemplateResolutionResult struct {
	TemplateID     *uuid.UUID
	VariationID    *uuid.UUID
	Blocks         []TemplateBlockKind
	Resolution     TemplateResolution
	ManualOverride bool
}

// DefaultBlocks is the block order used when no template applies.
var DefaultBlocks = []TemplateBlockKind{
	BlockTitle,
	BlockContent,
	BlockTags,
	BlockAuthorSignature,
}

package model

// ================================================
// STATUS STATE MACHINE
// ================================================

// PublicationStatus is the aggregate status derived from a publication's posts.
type PublicationStatus string

const (
	StatusDraft      PublicationStatus = "DRAFT"
	StatusReady      PublicationStatus = "READY"
	StatusScheduled  PublicationStatus = "SCHEDULED"
	StatusProcessing PublicationStatus = "PROCESSING"
	StatusPublished  PublicationStatus = "PUBLISHED"
	StatusPartial    PublicationStatus = "PARTIAL"
	StatusFailed     PublicationStatus = "FAILED"
	StatusExpired    PublicationStatus = "EXPIRED"
)

// PostStatus is the per-channel delivery outcome of a single post.
type PostStatus string

const (
	PostStatusPending   PostStatus = "PENDING"
	PostStatusFailed    PostStatus = "FAILED"
	PostStatusPublished PostStatus = "PUBLISHED"
)

// transitions lists the legal moves of the publication state machine.
// READY and SCHEDULED stay re-schedulable until a worker claims them, so
// both directions between the two are legal, and a same-status move is how
// a SCHEDULED publication persists a new dispatch time.
var transitions = map[PublicationStatus][]PublicationStatus{
	StatusDraft:      {StatusReady, StatusScheduled},
	StatusReady:      {StatusProcessing, StatusDraft, StatusScheduled, StatusReady},
	StatusScheduled:  {StatusProcessing, StatusExpired, StatusDraft, StatusReady, StatusScheduled},
	StatusProcessing: {StatusPublished, StatusPartial, StatusFailed},
	// PARTIAL is terminal but actionable: retrying failed posts re-enters
	// processing without touching already published siblings.
	StatusPartial: {StatusProcessing},
}

// CanTransitionTo reports whether moving from s to next is legal.
func (s PublicationStatus) CanTransitionTo(next PublicationStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no scheduler action remains for this status.
func (s PublicationStatus) IsTerminal() bool {
	switch s {
	case StatusPublished, StatusFailed, StatusExpired:
		return true
	}
	return false
}

// AggregateStatus derives the publication outcome from its posts after a
// processing run. All published wins, all failed loses, a mix is PARTIAL.
func AggregateStatus(posts []Post) PublicationStatus {
	if len(posts) == 0 {
		return StatusFailed
	}

	published := 0
	failed := 0
	for _, p := range posts {
		switch p.Status {
		case PostStatusPublished:
			published++
		case PostStatusFailed:
			failed++
		}
	}

	switch {
	case published == len(posts):
		return StatusPublished
	case failed == len(posts):
		return StatusFailed
	case published > 0:
		return StatusPartial
	default:
		return StatusFailed
	}
}

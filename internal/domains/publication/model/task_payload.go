package model

import "github.com/google/uuid"

// DispatchPublicationPayload drives one dispatch task per due publication.
type DispatchPublicationPayload struct {
	PublicationID uuid.UUID `json:"publication_id"`
}

// RetryPostPayload retries a single failed post of a PARTIAL publication.
type RetryPostPayload struct {
	PublicationID uuid.UUID `json:"publication_id"`
	PostID        uuid.UUID `json:"post_id"`
}

// ProcessDuePayload bounds one due-scan run.
type ProcessDuePayload struct {
	Limit int `json:"limit"`
}

// ExpireStalePayload bounds one expiry sweep.
type ExpireStalePayload struct {
	Limit int `json:"limit"`
}

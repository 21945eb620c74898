package model

import (
	"errors"
	"fmt"
)

// ================================================
// DOMAIN-SPECIFIC ERRORS
// ================================================

// Publication errors
var (
	ErrPublicationNotFound  = errors.New("publication not found")
	ErrPostNotFound         = errors.New("post not found")
	ErrChannelNotFound      = errors.New("channel not found")
	ErrMediaNotFound        = errors.New("media not found")
	ErrTemplateNotFound     = errors.New("template not found")
	ErrInvalidTransition    = errors.New("invalid publication status transition")
	ErrPublicationImmutable = errors.New("publication is no longer editable")
	ErrConcurrentUpdate     = errors.New("publication was modified concurrently")
	ErrInvalidJSONB         = errors.New("invalid JSONB data")
)

// Snapshot / formatting errors (validation class: never retried)
var (
	ErrNothingToPublish = errors.New("nothing to publish: no content and no media")
	ErrBodyTooLong      = errors.New("body exceeds platform length limit")
	ErrPostNotRetryable = errors.New("post is not in a retryable state")
)

// Delivery errors
var (
	ErrGatewayUnavailable = errors.New("posting gateway unavailable")
	ErrMaxRetriesExceeded = errors.New("maximum delivery attempts exceeded")
)

// ================================================
// ERROR CODES (for API responses)
// ================================================

const (
	ErrCodePublicationNotFound = "PUBLICATION_NOT_FOUND"
	ErrCodePostNotFound        = "POST_NOT_FOUND"
	ErrCodeMediaNotFound       = "MEDIA_NOT_FOUND"
	ErrCodeInvalidTransition   = "INVALID_TRANSITION"
	ErrCodeNothingToPublish    = "NOTHING_TO_PUBLISH"
	ErrCodeBodyTooLong         = "BODY_TOO_LONG"
	ErrCodePostNotRetryable    = "POST_NOT_RETRYABLE"
	ErrCodeValidationFailed    = "VALIDATION_FAILED"
	ErrCodeGatewayUnavailable  = "GATEWAY_UNAVAILABLE"
)

// ================================================
// DELIVERY ERROR TYPE
// ================================================

// DeliveryError wraps a gateway failure with its retry class. The scheduler
// retries transient failures with jitter and fails validation errors
// immediately.
type DeliveryError struct {
	Code      string
	Message   string
	Transient bool
	Err       error
}

func (e *DeliveryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// NewTransientError marks a failure as retryable.
func NewTransientError(code, message string, err error) *DeliveryError {
	return &DeliveryError{Code: code, Message: message, Transient: true, Err: err}
}

// NewPermanentError marks a failure as non-retryable.
func NewPermanentError(code, message string, err error) *DeliveryError {
	return &DeliveryError{Code: code, Message: message, Transient: false, Err: err}
}

// IsTransient reports whether err should be retried.
func IsTransient(err error) bool {
	var de *DeliveryError
	if errors.As(err, &de) {
		return de.Transient
	}
	return false
}

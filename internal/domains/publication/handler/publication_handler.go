package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"publisher-backend/internal/domains/publication/model"
	"publisher-backend/internal/domains/publication/service"
	"publisher-backend/internal/shared/response"
)

type PublicationHandler struct {
	publishService service.PublishService
}

func NewPublicationHandler(publishService service.PublishService) *PublicationHandler {
	return &PublicationHandler{publishService: publishService}
}

// CreatePublication creates a DRAFT publication with one post per channel.
// POST /api/v1/publications
func (h *PublicationHandler) CreatePublication(c *gin.Context) {
	var req model.CreatePublicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	pub, err := h.publishService.CreatePublication(c.Request.Context(), req)
	if err != nil {
		statusCode, errCode := mapPublicationError(err)
		response.ErrorResponse(c, statusCode, errCode, err.Error())
		return
	}

	response.Success(c, http.StatusCreated, pub)
}

// Schedule freezes snapshots and arms the publication for dispatch.
// POST /api/v1/publications/:id/schedule
func (h *PublicationHandler) Schedule(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "INVALID_PUBLICATION_ID", "Invalid publication ID")
		return
	}

	// Both fields are optional; a bodyless request means immediate pickup.
	var req model.SchedulePublicationRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.ErrorResponse(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	view, err := h.publishService.Schedule(c.Request.Context(), id, req)
	if err != nil {
		statusCode, errCode := mapPublicationError(err)
		response.ErrorResponse(c, statusCode, errCode, err.Error())
		return
	}

	response.Success(c, http.StatusOK, view)
}

// PublishNow snapshots and enqueues the publication for immediate dispatch.
// POST /api/v1/publications/:id/publish
func (h *PublicationHandler) PublishNow(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "INVALID_PUBLICATION_ID", "Invalid publication ID")
		return
	}

	view, err := h.publishService.PublishNow(c.Request.Context(), id)
	if err != nil {
		statusCode, errCode := mapPublicationError(err)
		response.ErrorResponse(c, statusCode, errCode, err.Error())
		return
	}

	response.Success(c, http.StatusAccepted, view)
}

// RetryPost re-arms one failed post for redelivery.
// POST /api/v1/publications/:id/posts/:post_id/retry
func (h *PublicationHandler) RetryPost(c *gin.Context) {
	publicationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "INVALID_PUBLICATION_ID", "Invalid publication ID")
		return
	}

	postID, err := uuid.Parse(c.Param("post_id"))
	if err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "INVALID_POST_ID", "Invalid post ID")
		return
	}

	if err := h.publishService.RetryPost(c.Request.Context(), publicationID, postID); err != nil {
		statusCode, errCode := mapPublicationError(err)
		response.ErrorResponse(c, statusCode, errCode, err.Error())
		return
	}

	response.Success(c, http.StatusAccepted, gin.H{
		"publication_id": publicationID,
		"post_id":        postID,
		"status":         "retry_enqueued",
	})
}

// GetStatus returns the aggregate status plus the per-post breakdown.
// GET /api/v1/publications/:id
func (h *PublicationHandler) GetStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "INVALID_PUBLICATION_ID", "Invalid publication ID")
		return
	}

	view, err := h.publishService.GetStatus(c.Request.Context(), id)
	if err != nil {
		statusCode, errCode := mapPublicationError(err)
		response.ErrorResponse(c, statusCode, errCode, err.Error())
		return
	}

	response.Success(c, http.StatusOK, view)
}

// mapPublicationError maps service errors to HTTP status and API error code.
func mapPublicationError(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrPublicationNotFound):
		return http.StatusNotFound, model.ErrCodePublicationNotFound
	case errors.Is(err, model.ErrPostNotFound):
		return http.StatusNotFound, model.ErrCodePostNotFound
	case errors.Is(err, model.ErrChannelNotFound):
		return http.StatusNotFound, "CHANNEL_NOT_FOUND"
	case errors.Is(err, model.ErrMediaNotFound):
		return http.StatusNotFound, model.ErrCodeMediaNotFound
	case errors.Is(err, model.ErrInvalidTransition):
		return http.StatusConflict, model.ErrCodeInvalidTransition
	case errors.Is(err, model.ErrConcurrentUpdate):
		return http.StatusConflict, model.ErrCodeInvalidTransition
	case errors.Is(err, model.ErrPostNotRetryable):
		return http.StatusConflict, model.ErrCodePostNotRetryable
	case errors.Is(err, model.ErrNothingToPublish):
		return http.StatusUnprocessableEntity, model.ErrCodeNothingToPublish
	case errors.Is(err, model.ErrBodyTooLong):
		return http.StatusUnprocessableEntity, model.ErrCodeBodyTooLong
	}

	var vErr validation.Errors
	if errors.As(err, &vErr) {
		return http.StatusBadRequest, model.ErrCodeValidationFailed
	}
	var vSingle validation.Error
	if errors.As(err, &vSingle) {
		return http.StatusBadRequest, model.ErrCodeValidationFailed
	}

	return http.StatusInternalServerError, "INTERNAL_ERROR"
}

package repository

import (
	"context"

	"github.com/google/uuid"

	"publisher-backend/internal/domains/channel/model"
)

// ChannelRepository reads configured delivery destinations.
type ChannelRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Channel, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]model.Channel, error)
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"publisher-backend/internal/domains/channel/model"
	pubModel "publisher-backend/internal/domains/publication/model"
)

type channelRepository struct {
	db *pgxpool.Pool
}

func NewChannelRepository(db *pgxpool.Pool) ChannelRepository {
	return &channelRepository{db: db}
}

const channelColumns = `
	id, project_id, name, platform, external_id, api_key_ref,
	default_template_id, tag_case, locale, is_active, created_at, updated_at
`

func (r *channelRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Channel, error) {
	query := `SELECT ` + channelColumns + ` FROM channels WHERE id = $1`

	var ch model.Channel
	err := r.db.QueryRow(ctx, query, id).Scan(
		&ch.ID, &ch.ProjectID, &ch.Name, &ch.Platform, &ch.ExternalID, &ch.APIKeyRef,
		&ch.DefaultTemplateID, &ch.TagCase, &ch.Locale, &ch.IsActive, &ch.CreatedAt, &ch.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pubModel.ErrChannelNotFound
		}
		return nil, fmt.Errorf("get channel: %w", err)
	}

	return &ch, nil
}

func (r *channelRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]model.Channel, error) {
	query := `SELECT ` + channelColumns + ` FROM channels WHERE project_id = $1 AND is_active ORDER BY name`

	rows, err := r.db.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("list project channels: %w", err)
	}
	defer rows.Close()

	var channels []model.Channel
	for rows.Next() {
		var ch model.Channel
		if err := rows.Scan(
			&ch.ID, &ch.ProjectID, &ch.Name, &ch.Platform, &ch.ExternalID, &ch.APIKeyRef,
			&ch.DefaultTemplateID, &ch.TagCase, &ch.Locale, &ch.IsActive, &ch.CreatedAt, &ch.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan channel: %w", err)
		}
		channels = append(channels, ch)
	}

	return channels, rows.Err()
}

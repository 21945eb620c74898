package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"publisher-backend/internal/domains/publication/model"
	"publisher-backend/pkg/database"
)

// ================================================
// PUBLICATION REPOSITORY IMPLEMENTATION
// ================================================

type publicationRepository struct {
	db *pgxpool.Pool
}

func NewPublicationRepository(db *pgxpool.Pool) PublicationRepository {
	return &publicationRepository{db: db}
}

// Create inserts the publication and its posts in one transaction.
func (r *publicationRepository) Create(ctx context.Context, pub *model.Publication) error {
	if pub.ID == uuid.Nil {
		pub.ID = uuid.New()
	}
	if pub.Status == "" {
		pub.Status = model.StatusDraft
	}

	return database.WithTransaction(ctx, r.db, func(tx pgx.Tx) error {
		query := `
			INSERT INTO publications (
				id, project_id, title, content, tags, author_comment,
				post_type, language, author_signature, status, scheduled_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING created_at, updated_at
		`

		err := tx.QueryRow(ctx, query,
			pub.ID, pub.ProjectID, pub.Title, pub.Content, pub.Tags, pub.AuthorComment,
			pub.PostType, pub.Language, pub.AuthorSignature, pub.Status, pub.ScheduledAt,
		).Scan(&pub.CreatedAt, &pub.UpdatedAt)
		if err != nil {
			return fmt.Errorf("create publication: %w", err)
		}

		for i := range pub.Posts {
			post := &pub.Posts[i]
			if post.ID == uuid.Nil {
				post.ID = uuid.New()
			}
			post.PublicationID = pub.ID
			if post.Status == "" {
				post.Status = model.PostStatusPending
			}

			err := tx.QueryRow(ctx, `
				INSERT INTO posts (id, publication_id, channel_id, status, content_override)
				VALUES ($1, $2, $3, $4, $5)
				RETURNING created_at, updated_at
			`, post.ID, post.PublicationID, post.ChannelID, post.Status, post.ContentOverride,
			).Scan(&post.CreatedAt, &post.UpdatedAt)
			if err != nil {
				return fmt.Errorf("create post: %w", err)
			}
		}

		// The INSERT..SELECT validates the media id: no media row, no
		// attachment, and the whole create rolls back.
		for i, mediaID := range pub.MediaIDs {
			tag, err := tx.Exec(ctx, `
				INSERT INTO publication_media (publication_id, media_id, display_order, has_spoiler)
				SELECT $1, id, $2, FALSE FROM media WHERE id = $3
			`, pub.ID, i, mediaID)
			if err != nil {
				return fmt.Errorf("attach media: %w", err)
			}
			if tag.RowsAffected() == 0 {
				return model.ErrMediaNotFound
			}
		}

		return nil
	})
}

// GetByID loads the publication with its posts.
func (r *publicationRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Publication, error) {
	query := `
		SELECT id, project_id, title, content, tags, author_comment,
		       post_type, language, author_signature, status, scheduled_at,
		       created_at, updated_at
		FROM publications
		WHERE id = $1
	`

	var pub model.Publication
	err := r.db.QueryRow(ctx, query, id).Scan(
		&pub.ID, &pub.ProjectID, &pub.Title, &pub.Content, &pub.Tags, &pub.AuthorComment,
		&pub.PostType, &pub.Language, &pub.AuthorSignature, &pub.Status, &pub.ScheduledAt,
		&pub.CreatedAt, &pub.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrPublicationNotFound
		}
		return nil, fmt.Errorf("get publication: %w", err)
	}

	posts, err := scanPosts(ctx, r.db, pub.ID)
	if err != nil {
		return nil, err
	}
	pub.Posts = posts

	return &pub, nil
}

func (r *publicationRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to model.PublicationStatus, scheduledAt *time.Time) error {
	if !from.CanTransitionTo(to) {
		return model.ErrInvalidTransition
	}

	// READY means immediate pickup, so a pending dispatch time is discarded
	// instead of carried along.
	query := `
		UPDATE publications
		SET status = $1, scheduled_at = COALESCE($2, scheduled_at), updated_at = NOW()
		WHERE id = $3 AND status = $4
	`
	if to == model.StatusReady {
		query = `
			UPDATE publications
			SET status = $1, scheduled_at = $2, updated_at = NOW()
			WHERE id = $3 AND status = $4
		`
	}

	tag, err := r.db.Exec(ctx, query, to, scheduledAt, id, from)
	if err != nil {
		return fmt.Errorf("transition publication status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrConcurrentUpdate
	}

	return nil
}

func (r *publicationRepository) SetAggregateStatus(ctx context.Context, id uuid.UUID, status model.PublicationStatus) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE publications SET status = $1, updated_at = NOW() WHERE id = $2
	`, status, id)
	if err != nil {
		return fmt.Errorf("set aggregate status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrPublicationNotFound
	}

	return nil
}

func (r *publicationRepository) ListDueIDs(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	query := `
		SELECT id
		FROM publications
		WHERE (status = $1 AND scheduled_at <= $2) OR status = $3
		ORDER BY scheduled_at NULLS FIRST
		LIMIT $4
	`

	rows, err := r.db.Query(ctx, query, model.StatusScheduled, now, model.StatusReady, limit)
	if err != nil {
		return nil, fmt.Errorf("list due publications: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan due publication id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

func (r *publicationRepository) ExpireStale(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	query := `
		UPDATE publications
		SET status = $1, updated_at = NOW()
		WHERE id IN (
			SELECT id FROM publications
			WHERE status = $2 AND scheduled_at < $3
			ORDER BY scheduled_at
			LIMIT $4
		)
	`

	tag, err := r.db.Exec(ctx, query, model.StatusExpired, model.StatusScheduled, cutoff, limit)
	if err != nil {
		return 0, fmt.Errorf("expire stale publications: %w", err)
	}

	return int(tag.RowsAffected()), nil
}

// ================================================
// POST REPOSITORY IMPLEMENTATION
// ================================================

type postRepository struct {
	db *pgxpool.Pool
}

func NewPostRepository(db *pgxpool.Pool) PostRepository {
	return &postRepository{db: db}
}

const postColumns = `
	id, publication_id, channel_id, status, content_override,
	snapshot, error_detail, attempts, created_at, updated_at
`

func (r *postRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`

	post, err := scanPost(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrPostNotFound
		}
		return nil, fmt.Errorf("get post: %w", err)
	}

	return post, nil
}

func (r *postRepository) ListByPublication(ctx context.Context, publicationID uuid.UUID) ([]model.Post, error) {
	return scanPosts(ctx, r.db, publicationID)
}

func (r *postRepository) SaveSnapshot(ctx context.Context, postID uuid.UUID, snapshot *model.PostingSnapshot) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE posts
		SET snapshot = $1, status = $2, error_detail = NULL, updated_at = NOW()
		WHERE id = $3
	`, raw, model.PostStatusPending, postID)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrPostNotFound
	}

	return nil
}

func (r *postRepository) RecordOutcome(ctx context.Context, postID uuid.UUID, status model.PostStatus, errorDetail *string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE posts
		SET status = $1, error_detail = $2, attempts = attempts + 1, updated_at = NOW()
		WHERE id = $3
	`, status, errorDetail, postID)
	if err != nil {
		return fmt.Errorf("record post outcome: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrPostNotFound
	}

	return nil
}

func (r *postRepository) MarkPending(ctx context.Context, postID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE posts
		SET status = $1, error_detail = NULL, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`, model.PostStatusPending, postID, model.PostStatusFailed)
	if err != nil {
		return fmt.Errorf("mark post pending: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrPostNotRetryable
	}

	return nil
}

// ================================================
// MEDIA REPOSITORY IMPLEMENTATION
// ================================================

type mediaRepository struct {
	db *pgxpool.Pool
}

func NewMediaRepository(db *pgxpool.Pool) MediaRepository {
	return &mediaRepository{db: db}
}

// ListByPublication returns media ordered by display order then id, so the
// snapshot media order is deterministic across rebuilds.
func (r *mediaRepository) ListByPublication(ctx context.Context, publicationID uuid.UUID) ([]model.Media, error) {
	query := `
		SELECT m.id, m.type, m.storage_type, m.storage_path,
		       pm.display_order, pm.has_spoiler, m.meta, m.created_at
		FROM media m
		JOIN publication_media pm ON pm.media_id = m.id
		WHERE pm.publication_id = $1
		ORDER BY pm.display_order, m.id
	`

	rows, err := r.db.Query(ctx, query, publicationID)
	if err != nil {
		return nil, fmt.Errorf("list publication media: %w", err)
	}
	defer rows.Close()

	var items []model.Media
	for rows.Next() {
		var m model.Media
		if err := rows.Scan(
			&m.ID, &m.Type, &m.StorageType, &m.StoragePath,
			&m.Order, &m.HasSpoiler, &m.Meta, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan media: %w", err)
		}
		items = append(items, m)
	}

	return items, rows.Err()
}

// ================================================
// TEMPLATE REPOSITORY IMPLEMENTATION
// ================================================

type templateRepository struct {
	db *pgxpool.Pool
}

func NewTemplateRepository(db *pgxpool.Pool) TemplateRepository {
	return &templateRepository{db: db}
}

func (r *templateRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Template, error) {
	var t model.Template
	var blocks []string

	err := r.db.QueryRow(ctx, `
		SELECT id, project_id, name, blocks FROM templates WHERE id = $1
	`, id).Scan(&t.ID, &t.ProjectID, &t.Name, &blocks)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrTemplateNotFound
		}
		return nil, fmt.Errorf("get template: %w", err)
	}

	t.Blocks = toBlockKinds(blocks)
	return &t, nil
}

func (r *templateRepository) ListVariations(ctx context.Context, templateID uuid.UUID) ([]model.TemplateVariation, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, template_id, channel_id, blocks
		FROM template_variations
		WHERE template_id = $1
		ORDER BY created_at, id
	`, templateID)
	if err != nil {
		return nil, fmt.Errorf("list template variations: %w", err)
	}
	defer rows.Close()

	var items []model.TemplateVariation
	for rows.Next() {
		var v model.TemplateVariation
		var blocks []string
		if err := rows.Scan(&v.ID, &v.TemplateID, &v.ChannelID, &blocks); err != nil {
			return nil, fmt.Errorf("scan template variation: %w", err)
		}
		v.Blocks = toBlockKinds(blocks)
		items = append(items, v)
	}

	return items, rows.Err()
}

func (r *templateRepository) CountByProject(ctx context.Context, projectID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM templates WHERE project_id = $1
	`, projectID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count project templates: %w", err)
	}

	return count, nil
}

// ================================================
// SCAN HELPERS
// ================================================

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*model.Post, error) {
	var post model.Post
	var raw []byte

	err := row.Scan(
		&post.ID, &post.PublicationID, &post.ChannelID, &post.Status, &post.ContentOverride,
		&raw, &post.ErrorDetail, &post.Attempts, &post.CreatedAt, &post.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(raw) > 0 {
		var snapshot model.PostingSnapshot
		if err := json.Unmarshal(raw, &snapshot); err != nil {
			return nil, fmt.Errorf("unmarshal snapshot: %w", err)
		}
		post.Snapshot = &snapshot
	}

	return &post, nil
}

func scanPosts(ctx context.Context, db *pgxpool.Pool, publicationID uuid.UUID) ([]model.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE publication_id = $1 ORDER BY created_at, id`

	rows, err := db.Query(ctx, query, publicationID)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var posts []model.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, *post)
	}

	return posts, rows.Err()
}

func toBlockKinds(raw []string) []model.TemplateBlockKind {
	kinds := make([]model.TemplateBlockKind, 0, len(raw))
	for _, b := range raw {
		kinds = append(kinds, model.TemplateBlockKind(b))
	}
	return kinds
}

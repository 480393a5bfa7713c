package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/viewtube/backend/internal/db"
	"github.com/viewtube/backend/internal/models"
)

// PostgresCommentRepository provides PostgreSQL-backed persistence for comments.
type PostgresCommentRepository struct {
	pool db.Pool
}

// NewPostgresCommentRepository constructs a comment repository backed by PostgreSQL.
func NewPostgresCommentRepository(pool db.Pool) *PostgresCommentRepository {
	return &PostgresCommentRepository{pool: pool}
}

// Create persists a new comment. A missing parent video surfaces as ErrNotFound.
func (r *PostgresCommentRepository) Create(ctx context.Context, comment models.Comment) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO comments (id, video_id, owner_id, content, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, comment.ID, comment.VideoID, comment.OwnerID, comment.Content, comment.CreatedAt, comment.UpdatedAt)
	if err != nil {
		if mapped := translatePgError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("insert comment: %w", err)
	}

	return nil
}

// ListForVideo returns a page of comments for the video, newest first, with
// each comment's owner projected to public fields and an isOwner flag for the
// viewer.
func (r *PostgresCommentRepository) ListForVideo(ctx context.Context, videoID, viewerID string, page models.Page) ([]models.CommentView, int, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var total int
	if err := conn.QueryRow(ctx, `
        SELECT COUNT(*) FROM comments WHERE video_id = $1
    `, videoID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count comments: %w", err)
	}

	rows, err := conn.Query(ctx, `
        SELECT c.id, c.video_id, u.id, u.username, u.full_name, u.avatar_url,
               c.content, c.owner_id = $2,
               (SELECT COUNT(*) FROM likes l WHERE l.comment_id = c.id),
               c.created_at, c.updated_at
        FROM comments c
        JOIN users u ON u.id = c.owner_id
        WHERE c.video_id = $1
        ORDER BY c.created_at DESC
        LIMIT $3 OFFSET $4
    `, videoID, viewerID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	var views []models.CommentView
	for rows.Next() {
		var view models.CommentView
		if err := rows.Scan(&view.ID, &view.VideoID, &view.Owner.ID, &view.Owner.Username,
			&view.Owner.FullName, &view.Owner.Avatar, &view.Content, &view.IsOwner,
			&view.LikeCount, &view.CreatedAt, &view.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan comment: %w", err)
		}
		views = append(views, view)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate comments: %w", err)
	}

	return views, total, nil
}

// UpdateContent rewrites the owner's comment and returns the updated record.
// A non-owner caller observes ErrNotFound.
func (r *PostgresCommentRepository) UpdateContent(ctx context.Context, id, ownerID, content string) (models.Comment, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Comment{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        UPDATE comments
        SET content = $3, updated_at = $4
        WHERE id = $1 AND owner_id = $2
        RETURNING id, video_id, owner_id, content, created_at, updated_at
    `, id, ownerID, content, time.Now().UTC())

	var comment models.Comment
	if err := row.Scan(&comment.ID, &comment.VideoID, &comment.OwnerID, &comment.Content,
		&comment.CreatedAt, &comment.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return models.Comment{}, ErrNotFound
		}
		return models.Comment{}, fmt.Errorf("update comment: %w", err)
	}

	return comment, nil
}

// Delete removes the owner's comment.
func (r *PostgresCommentRepository) Delete(ctx context.Context, id, ownerID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM comments WHERE id = $1 AND owner_id = $2
    `, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

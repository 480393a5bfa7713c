package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/viewtube/backend/internal/db"
	"github.com/viewtube/backend/internal/models"
)

// PostgresTweetRepository provides PostgreSQL-backed persistence for tweets.
type PostgresTweetRepository struct {
	pool db.Pool
}

// NewPostgresTweetRepository constructs a tweet repository backed by PostgreSQL.
func NewPostgresTweetRepository(pool db.Pool) *PostgresTweetRepository {
	return &PostgresTweetRepository{pool: pool}
}

// Create persists a new tweet.
func (r *PostgresTweetRepository) Create(ctx context.Context, tweet models.Tweet) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO tweets (id, owner_id, content, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5)
    `, tweet.ID, tweet.OwnerID, tweet.Content, tweet.CreatedAt, tweet.UpdatedAt)
	if err != nil {
		if mapped := translatePgError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("insert tweet: %w", err)
	}

	return nil
}

// ListForUser returns a page of a user's tweets, newest first.
func (r *PostgresTweetRepository) ListForUser(ctx context.Context, userID string, page models.Page) ([]models.TweetView, int, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var total int
	if err := conn.QueryRow(ctx, `
        SELECT COUNT(*) FROM tweets WHERE owner_id = $1
    `, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count tweets: %w", err)
	}

	rows, err := conn.Query(ctx, `
        SELECT t.id, u.id, u.username, u.full_name, u.avatar_url, t.content,
               (SELECT COUNT(*) FROM likes l WHERE l.tweet_id = t.id),
               t.created_at, t.updated_at
        FROM tweets t
        JOIN users u ON u.id = t.owner_id
        WHERE t.owner_id = $1
        ORDER BY t.created_at DESC
        LIMIT $2 OFFSET $3
    `, userID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("query tweets: %w", err)
	}
	defer rows.Close()

	var views []models.TweetView
	for rows.Next() {
		var view models.TweetView
		if err := rows.Scan(&view.ID, &view.Owner.ID, &view.Owner.Username, &view.Owner.FullName,
			&view.Owner.Avatar, &view.Content, &view.LikeCount, &view.CreatedAt, &view.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan tweet: %w", err)
		}
		views = append(views, view)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate tweets: %w", err)
	}

	return views, total, nil
}

// UpdateContent rewrites the owner's tweet and returns the updated record.
func (r *PostgresTweetRepository) UpdateContent(ctx context.Context, id, ownerID, content string) (models.Tweet, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Tweet{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        UPDATE tweets
        SET content = $3, updated_at = $4
        WHERE id = $1 AND owner_id = $2
        RETURNING id, owner_id, content, created_at, updated_at
    `, id, ownerID, content, time.Now().UTC())

	var tweet models.Tweet
	if err := row.Scan(&tweet.ID, &tweet.OwnerID, &tweet.Content, &tweet.CreatedAt, &tweet.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return models.Tweet{}, ErrNotFound
		}
		return models.Tweet{}, fmt.Errorf("update tweet: %w", err)
	}

	return tweet, nil
}

// Delete removes the owner's tweet.
func (r *PostgresTweetRepository) Delete(ctx context.Context, id, ownerID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM tweets WHERE id = $1 AND owner_id = $2
    `, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete tweet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

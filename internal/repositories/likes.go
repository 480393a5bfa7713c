package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/viewtube/backend/internal/db"
	"github.com/viewtube/backend/internal/models"
)

// LikeTarget names the entity kinds a like can attach to.
type LikeTarget string

const (
	LikeTargetVideo   LikeTarget = "video"
	LikeTargetComment LikeTarget = "comment"
	LikeTargetTweet   LikeTarget = "tweet"
)

func (t LikeTarget) column() string {
	switch t {
	case LikeTargetVideo:
		return "video_id"
	case LikeTargetComment:
		return "comment_id"
	case LikeTargetTweet:
		return "tweet_id"
	}
	return ""
}

// PostgresLikeRepository provides PostgreSQL-backed persistence for likes.
type PostgresLikeRepository struct {
	pool db.Pool
}

// NewPostgresLikeRepository constructs a like repository backed by PostgreSQL.
func NewPostgresLikeRepository(pool db.Pool) *PostgresLikeRepository {
	return &PostgresLikeRepository{pool: pool}
}

// Toggle flips the like state for (user, target) and reports the new state.
// The insert relies on the UNIQUE (user, target) constraint: when a
// concurrent request wins the insert, this one observes the conflict and
// deletes instead, so the at-most-one-row invariant always holds.
func (r *PostgresLikeRepository) Toggle(ctx context.Context, userID string, target LikeTarget, targetID string) (bool, error) {
	column := target.column()
	if column == "" {
		return false, fmt.Errorf("unknown like target %q", target)
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        INSERT INTO likes (id, user_id, `+column+`, created_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (user_id, `+column+`) DO NOTHING
    `, uuid.NewString(), userID, targetID, time.Now().UTC())
	if err != nil {
		if mapped := translatePgError(err); mapped != nil {
			return false, mapped
		}
		return false, fmt.Errorf("insert like: %w", err)
	}

	if tag.RowsAffected() > 0 {
		return true, nil
	}

	if _, err := conn.Exec(ctx, `
        DELETE FROM likes WHERE user_id = $1 AND `+column+` = $2
    `, userID, targetID); err != nil {
		return false, fmt.Errorf("delete like: %w", err)
	}

	return false, nil
}

// Exists reports whether the user currently likes the target. Useful for tests.
func (r *PostgresLikeRepository) Exists(ctx context.Context, userID string, target LikeTarget, targetID string) (bool, error) {
	column := target.column()
	if column == "" {
		return false, fmt.Errorf("unknown like target %q", target)
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var exists bool
	if err := conn.QueryRow(ctx, `
        SELECT EXISTS (SELECT 1 FROM likes WHERE user_id = $1 AND `+column+` = $2)
    `, userID, targetID).Scan(&exists); err != nil {
		return false, fmt.Errorf("select like: %w", err)
	}

	return exists, nil
}

// LikedVideos returns a page of the videos the user has liked, most recently
// liked first, with owner projections.
func (r *PostgresLikeRepository) LikedVideos(ctx context.Context, userID string, page models.Page) ([]models.VideoView, int, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var total int
	if err := conn.QueryRow(ctx, `
        SELECT COUNT(*) FROM likes WHERE user_id = $1 AND video_id IS NOT NULL
    `, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count liked videos: %w", err)
	}

	rows, err := conn.Query(ctx, `
        SELECT `+videoViewColumns(`$1`)+`
        FROM likes lk
        JOIN videos v ON v.id = lk.video_id
        JOIN users u ON u.id = v.owner_id
        WHERE lk.user_id = $1
        ORDER BY lk.created_at DESC
        LIMIT $2 OFFSET $3
    `, userID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("query liked videos: %w", err)
	}
	defer rows.Close()

	views, err := collectVideoViews(rows)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

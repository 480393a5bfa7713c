package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/viewtube/backend/internal/auth"
	"github.com/viewtube/backend/internal/db"
	"github.com/viewtube/backend/internal/models"
)

const userColumns = `
        id, username, email, full_name, password_hash,
        avatar_url, avatar_key, cover_image_url, cover_image_key,
        COALESCE(refresh_token, ''), created_at, updated_at`

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
// It doubles as the auth token store: the active refresh token lives on the
// user row so a conditional UPDATE can compare-and-swap it.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// Create persists a new user record.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO users (id, username, email, full_name, password_hash,
                           avatar_url, avatar_key, cover_image_url, cover_image_key,
                           created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `, user.ID, user.Username, user.Email, user.FullName, user.Password,
		user.AvatarURL, user.AvatarKey, user.CoverImageURL, user.CoverImageKey,
		user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if mapped := translatePgError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// FindByID fetches a user by primary key.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// FindByIdentifier fetches a user by username or email.
func (r *PostgresUserRepository) FindByIdentifier(ctx context.Context, identifier string) (models.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1 OR email = $1`, identifier)
}

func (r *PostgresUserRepository) findOne(ctx context.Context, query string, args ...any) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	return scanUser(conn.QueryRow(ctx, query, args...))
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.FullName, &user.Password,
		&user.AvatarURL, &user.AvatarKey, &user.CoverImageURL, &user.CoverImageKey,
		&user.RefreshToken, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("scan user: %w", err)
	}
	return user, nil
}

// UpdateDetails modifies the mutable profile fields and returns the updated record.
func (r *PostgresUserRepository) UpdateDetails(ctx context.Context, id, fullName, email string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        UPDATE users
        SET full_name = $2, email = $3, updated_at = $4
        WHERE id = $1
        RETURNING `+userColumns, id, fullName, email, time.Now().UTC())

	user, err := scanUser(row)
	if err != nil {
		if mapped := translatePgError(err); mapped != nil {
			return models.User{}, mapped
		}
		return models.User{}, err
	}
	return user, nil
}

// UpdatePassword replaces the stored password hash.
func (r *PostgresUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1
    `, id, passwordHash, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateAvatar swaps the avatar media reference and returns the updated record.
func (r *PostgresUserRepository) UpdateAvatar(ctx context.Context, id, url, key string) (models.User, error) {
	return r.updateMedia(ctx, `
        UPDATE users SET avatar_url = $2, avatar_key = $3, updated_at = $4
        WHERE id = $1 RETURNING `+userColumns, id, url, key)
}

// UpdateCoverImage swaps the cover image media reference and returns the updated record.
func (r *PostgresUserRepository) UpdateCoverImage(ctx context.Context, id, url, key string) (models.User, error) {
	return r.updateMedia(ctx, `
        UPDATE users SET cover_image_url = $2, cover_image_key = $3, updated_at = $4
        WHERE id = $1 RETURNING `+userColumns, id, url, key)
}

func (r *PostgresUserRepository) updateMedia(ctx context.Context, query, id, url, key string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	return scanUser(conn.QueryRow(ctx, query, id, url, key, time.Now().UTC()))
}

// SetRefreshToken stores the active refresh token, superseding any prior value.
func (r *PostgresUserRepository) SetRefreshToken(ctx context.Context, userID, token string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users SET refresh_token = $2 WHERE id = $1
    `, userID, token)
	if err != nil {
		return fmt.Errorf("set refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SwapRefreshToken conditionally replaces the stored refresh token. The WHERE
// clause compares the presented token in the same statement as the write, so
// two concurrent rotations of one token cannot both succeed.
func (r *PostgresUserRepository) SwapRefreshToken(ctx context.Context, userID, presented, replacement string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users SET refresh_token = $3
        WHERE id = $1 AND refresh_token = $2
    `, userID, presented, replacement)
	if err != nil {
		return fmt.Errorf("swap refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrTokenStale
	}
	return nil
}

// ClearRefreshToken removes the stored refresh token for the user.
func (r *PostgresUserRepository) ClearRefreshToken(ctx context.Context, userID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `
        UPDATE users SET refresh_token = NULL WHERE id = $1
    `, userID); err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}
	return nil
}

// ChannelProfile assembles the denormalized channel page for a username,
// including subscriber aggregates relative to the viewer.
func (r *PostgresUserRepository) ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.ChannelProfile{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT u.id, u.username, u.full_name, u.email, u.avatar_url, u.cover_image_url,
               (SELECT COUNT(*) FROM subscriptions s WHERE s.channel_id = u.id),
               (SELECT COUNT(*) FROM subscriptions s WHERE s.subscriber_id = u.id),
               EXISTS (SELECT 1 FROM subscriptions s WHERE s.channel_id = u.id AND s.subscriber_id = $2)
        FROM users u
        WHERE u.username = $1
    `, username, viewerID)

	var profile models.ChannelProfile
	if err := row.Scan(&profile.ID, &profile.Username, &profile.FullName, &profile.Email,
		&profile.Avatar, &profile.CoverImage,
		&profile.SubscriberCount, &profile.SubscribedTo, &profile.IsSubscribed); err != nil {
		if err == pgx.ErrNoRows {
			return models.ChannelProfile{}, ErrNotFound
		}
		return models.ChannelProfile{}, fmt.Errorf("select channel profile: %w", err)
	}

	return profile, nil
}

// RecordWatch upserts a watch-history row, bumping the watched timestamp when
// the video was seen before.
func (r *PostgresUserRepository) RecordWatch(ctx context.Context, userID, videoID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO watch_history (user_id, video_id, watched_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (user_id, video_id)
        DO UPDATE SET watched_at = EXCLUDED.watched_at
    `, userID, videoID, time.Now().UTC())
	if err != nil {
		if mapped := translatePgError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("record watch: %w", err)
	}
	return nil
}

// WatchHistory returns the viewer's watched videos, most recent first, with
// each video's owner projected to public fields.
func (r *PostgresUserRepository) WatchHistory(ctx context.Context, userID string, page models.Page) ([]models.VideoView, int, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var total int
	if err := conn.QueryRow(ctx, `
        SELECT COUNT(*) FROM watch_history WHERE user_id = $1
    `, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count watch history: %w", err)
	}

	rows, err := conn.Query(ctx, `
        SELECT `+videoViewColumns(`$1`)+`
        FROM watch_history wh
        JOIN videos v ON v.id = wh.video_id
        JOIN users u ON u.id = v.owner_id
        WHERE wh.user_id = $1
        ORDER BY wh.watched_at DESC
        LIMIT $2 OFFSET $3
    `, userID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("query watch history: %w", err)
	}
	defer rows.Close()

	views, err := collectVideoViews(rows)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

var _ auth.TokenStore = (*PostgresUserRepository)(nil)
var _ auth.CredentialStore = (*PostgresUserRepository)(nil)

package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/viewtube/backend/internal/db"
	"github.com/viewtube/backend/internal/models"
)

// ErrSelfSubscription is returned when a user tries to subscribe to their
// own channel.
var ErrSelfSubscription = fmt.Errorf("cannot subscribe to own channel")

// PostgresSubscriptionRepository provides PostgreSQL-backed persistence for
// channel subscriptions.
type PostgresSubscriptionRepository struct {
	pool db.Pool
}

// NewPostgresSubscriptionRepository constructs a subscription repository
// backed by PostgreSQL.
func NewPostgresSubscriptionRepository(pool db.Pool) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{pool: pool}
}

// Toggle flips the subscriber's subscription to the channel and reports the
// resulting state. The pair uniqueness constraint makes concurrent toggles
// settle on at most one row.
func (r *PostgresSubscriptionRepository) Toggle(ctx context.Context, subscriberID, channelID string) (bool, error) {
	if subscriberID == channelID {
		return false, ErrSelfSubscription
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        INSERT INTO subscriptions (id, subscriber_id, channel_id, created_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (subscriber_id, channel_id) DO NOTHING
    `, uuid.NewString(), subscriberID, channelID, time.Now().UTC())
	if err != nil {
		if mapped := translatePgError(err); mapped != nil {
			return false, mapped
		}
		return false, fmt.Errorf("insert subscription: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}

	if _, err := conn.Exec(ctx, `
        DELETE FROM subscriptions WHERE subscriber_id = $1 AND channel_id = $2
    `, subscriberID, channelID); err != nil {
		return false, fmt.Errorf("delete subscription: %w", err)
	}
	return false, nil
}

// Subscribers lists the public profiles of users subscribed to the channel,
// most recent first.
func (r *PostgresSubscriptionRepository) Subscribers(ctx context.Context, channelID string, page models.Page) ([]models.PublicProfile, models.PageMeta, error) {
	return r.listProfiles(ctx, `
        SELECT u.id, u.username, u.full_name, u.avatar_url
        FROM subscriptions s
        JOIN users u ON u.id = s.subscriber_id
        WHERE s.channel_id = $1
        ORDER BY s.created_at DESC
        LIMIT $2 OFFSET $3
    `, `
        SELECT COUNT(*) FROM subscriptions WHERE channel_id = $1
    `, channelID, page)
}

// SubscribedChannels lists the public profiles of channels the user is
// subscribed to, most recent first.
func (r *PostgresSubscriptionRepository) SubscribedChannels(ctx context.Context, subscriberID string, page models.Page) ([]models.PublicProfile, models.PageMeta, error) {
	return r.listProfiles(ctx, `
        SELECT u.id, u.username, u.full_name, u.avatar_url
        FROM subscriptions s
        JOIN users u ON u.id = s.channel_id
        WHERE s.subscriber_id = $1
        ORDER BY s.created_at DESC
        LIMIT $2 OFFSET $3
    `, `
        SELECT COUNT(*) FROM subscriptions WHERE subscriber_id = $1
    `, subscriberID, page)
}

func (r *PostgresSubscriptionRepository) listProfiles(ctx context.Context, listQuery, countQuery, userID string, page models.Page) ([]models.PublicProfile, models.PageMeta, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, models.PageMeta{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var total int
	if err := conn.QueryRow(ctx, countQuery, userID).Scan(&total); err != nil {
		return nil, models.PageMeta{}, fmt.Errorf("count subscriptions: %w", err)
	}

	rows, err := conn.Query(ctx, listQuery, userID, page.Limit, page.Offset())
	if err != nil {
		return nil, models.PageMeta{}, fmt.Errorf("query subscriptions: %w", err)
	}
	defer rows.Close()

	var profiles []models.PublicProfile
	for rows.Next() {
		var profile models.PublicProfile
		if err := rows.Scan(&profile.ID, &profile.Username, &profile.FullName, &profile.Avatar); err != nil {
			return nil, models.PageMeta{}, fmt.Errorf("scan subscriber: %w", err)
		}
		profiles = append(profiles, profile)
	}
	if err := rows.Err(); err != nil {
		return nil, models.PageMeta{}, fmt.Errorf("iterate subscriptions: %w", err)
	}

	return profiles, models.NewPageMeta(page, total), nil
}

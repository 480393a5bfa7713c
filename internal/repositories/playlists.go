package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/viewtube/backend/internal/db"
	"github.com/viewtube/backend/internal/models"
)

// PostgresPlaylistRepository provides PostgreSQL-backed persistence for playlists.
type PostgresPlaylistRepository struct {
	pool db.Pool
}

// NewPostgresPlaylistRepository constructs a playlist repository backed by PostgreSQL.
func NewPostgresPlaylistRepository(pool db.Pool) *PostgresPlaylistRepository {
	return &PostgresPlaylistRepository{pool: pool}
}

// Create persists a new playlist. A duplicate name for the same owner
// surfaces as ErrConflict.
func (r *PostgresPlaylistRepository) Create(ctx context.Context, playlist models.Playlist) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO playlists (id, owner_id, name, description, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, playlist.ID, playlist.OwnerID, playlist.Name, playlist.Description, playlist.CreatedAt, playlist.UpdatedAt)
	if err != nil {
		if mapped := translatePgError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("insert playlist: %w", err)
	}

	return nil
}

// FindByID fetches a playlist row.
func (r *PostgresPlaylistRepository) FindByID(ctx context.Context, id string) (models.Playlist, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	return scanPlaylist(conn.QueryRow(ctx, `
        SELECT id, owner_id, name, description, created_at, updated_at
        FROM playlists WHERE id = $1
    `, id))
}

func scanPlaylist(row pgx.Row) (models.Playlist, error) {
	var playlist models.Playlist
	if err := row.Scan(&playlist.ID, &playlist.OwnerID, &playlist.Name, &playlist.Description,
		&playlist.CreatedAt, &playlist.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return models.Playlist{}, ErrNotFound
		}
		return models.Playlist{}, fmt.Errorf("scan playlist: %w", err)
	}
	return playlist, nil
}

// ListForUser returns all playlists owned by the user, newest first.
func (r *PostgresPlaylistRepository) ListForUser(ctx context.Context, userID string) ([]models.Playlist, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, owner_id, name, description, created_at, updated_at
        FROM playlists
        WHERE owner_id = $1
        ORDER BY created_at DESC
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("query playlists: %w", err)
	}
	defer rows.Close()

	var playlists []models.Playlist
	for rows.Next() {
		playlist, err := scanPlaylist(rows)
		if err != nil {
			return nil, err
		}
		playlists = append(playlists, playlist)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate playlists: %w", err)
	}

	return playlists, nil
}

// GetView fetches a playlist with its resolved video entries in position
// order, each carrying the video owner's public profile.
func (r *PostgresPlaylistRepository) GetView(ctx context.Context, id, viewerID string) (models.PlaylistView, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.PlaylistView{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT p.id, o.id, o.username, o.full_name, o.avatar_url,
               p.name, p.description, p.created_at, p.updated_at
        FROM playlists p
        JOIN users o ON o.id = p.owner_id
        WHERE p.id = $1
    `, id)

	var view models.PlaylistView
	if err := row.Scan(&view.ID, &view.Owner.ID, &view.Owner.Username, &view.Owner.FullName,
		&view.Owner.Avatar, &view.Name, &view.Description, &view.CreatedAt, &view.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return models.PlaylistView{}, ErrNotFound
		}
		return models.PlaylistView{}, fmt.Errorf("select playlist: %w", err)
	}

	rows, err := conn.Query(ctx, `
        SELECT `+videoViewColumns(`$2`)+`
        FROM playlist_videos pv
        JOIN videos v ON v.id = pv.video_id
        JOIN users u ON u.id = v.owner_id
        WHERE pv.playlist_id = $1
        ORDER BY pv.position
    `, id, viewerID)
	if err != nil {
		return models.PlaylistView{}, fmt.Errorf("query playlist videos: %w", err)
	}
	defer rows.Close()

	videos, err := collectVideoViews(rows)
	if err != nil {
		return models.PlaylistView{}, err
	}
	view.Videos = videos

	return view, nil
}

// AddVideo appends a video to the owner's playlist. The position assignment
// and insert run in one transaction so concurrent appends cannot collide.
func (r *PostgresPlaylistRepository) AddVideo(ctx context.Context, playlistID, ownerID, videoID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tx, err := conn.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("begin add video transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var owned bool
	if err := tx.QueryRow(ctx, `
        SELECT EXISTS (SELECT 1 FROM playlists WHERE id = $1 AND owner_id = $2)
    `, playlistID, ownerID).Scan(&owned); err != nil {
		return fmt.Errorf("check playlist owner: %w", err)
	}
	if !owned {
		return ErrNotFound
	}

	_, err = tx.Exec(ctx, `
        INSERT INTO playlist_videos (playlist_id, video_id, position, added_at)
        SELECT $1, $2, COALESCE(MAX(position) + 1, 0), $3
        FROM playlist_videos
        WHERE playlist_id = $1
    `, playlistID, videoID, time.Now().UTC())
	if err != nil {
		if mapped := translatePgError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("insert playlist video: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit add video: %w", err)
	}
	return nil
}

// RemoveVideo removes every occurrence of the video from the owner's playlist.
func (r *PostgresPlaylistRepository) RemoveVideo(ctx context.Context, playlistID, ownerID, videoID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM playlist_videos pv
        USING playlists p
        WHERE pv.playlist_id = p.id
          AND p.id = $1 AND p.owner_id = $2 AND pv.video_id = $3
    `, playlistID, ownerID, videoID)
	if err != nil {
		return fmt.Errorf("delete playlist video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateDetails renames the owner's playlist. A clash with another playlist
// of the same owner surfaces as ErrConflict.
func (r *PostgresPlaylistRepository) UpdateDetails(ctx context.Context, id, ownerID, name, description string) (models.Playlist, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        UPDATE playlists
        SET name = $3, description = $4, updated_at = $5
        WHERE id = $1 AND owner_id = $2
        RETURNING id, owner_id, name, description, created_at, updated_at
    `, id, ownerID, name, description, time.Now().UTC())

	var playlist models.Playlist
	if err := row.Scan(&playlist.ID, &playlist.OwnerID, &playlist.Name, &playlist.Description,
		&playlist.CreatedAt, &playlist.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return models.Playlist{}, ErrNotFound
		}
		if mapped := translatePgError(err); mapped != nil {
			return models.Playlist{}, mapped
		}
		return models.Playlist{}, fmt.Errorf("update playlist: %w", err)
	}
	return playlist, nil
}

// Delete removes the owner's playlist and its entries.
func (r *PostgresPlaylistRepository) Delete(ctx context.Context, id, ownerID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM playlists WHERE id = $1 AND owner_id = $2
    `, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete playlist: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

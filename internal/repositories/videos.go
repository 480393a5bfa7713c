package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/viewtube/backend/internal/db"
	"github.com/viewtube/backend/internal/models"
)

// videoViewColumns renders the select list for a VideoView. The caller
// provides the placeholder holding the viewer id (used for the isLiked flag)
// and must join videos as v and users as u.
func videoViewColumns(viewerPlaceholder string) string {
	return `
        v.id, u.id, u.username, u.full_name, u.avatar_url,
        v.video_url, v.thumbnail_url, v.title, v.description,
        v.duration, v.is_published,
        (SELECT COUNT(*) FROM likes l WHERE l.video_id = v.id),
        EXISTS (SELECT 1 FROM likes l WHERE l.video_id = v.id AND l.user_id = ` + viewerPlaceholder + `),
        v.created_at`
}

func scanVideoView(row pgx.Row) (models.VideoView, error) {
	var view models.VideoView
	err := row.Scan(&view.ID, &view.Owner.ID, &view.Owner.Username, &view.Owner.FullName, &view.Owner.Avatar,
		&view.VideoURL, &view.ThumbnailURL, &view.Title, &view.Description,
		&view.Duration, &view.IsPublished, &view.LikeCount, &view.IsLiked, &view.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return models.VideoView{}, ErrNotFound
		}
		return models.VideoView{}, fmt.Errorf("scan video view: %w", err)
	}
	return view, nil
}

func collectVideoViews(rows pgx.Rows) ([]models.VideoView, error) {
	var views []models.VideoView
	for rows.Next() {
		view, err := scanVideoView(rows)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate video views: %w", err)
	}
	return views, nil
}

// VideoQuery narrows and orders a video listing.
type VideoQuery struct {
	Search        string
	OwnerID       string
	ViewerID      string
	SortBy        string
	SortAscending bool
	OnlyPublished bool
	Page          models.Page
}

var videoSortColumns = map[string]string{
	"createdAt": "v.created_at",
	"duration":  "v.duration",
	"title":     "v.title",
}

// PostgresVideoRepository provides PostgreSQL-backed persistence for videos.
type PostgresVideoRepository struct {
	pool db.Pool
}

// NewPostgresVideoRepository constructs a video repository backed by PostgreSQL.
func NewPostgresVideoRepository(pool db.Pool) *PostgresVideoRepository {
	return &PostgresVideoRepository{pool: pool}
}

// Create stores a new video record.
func (r *PostgresVideoRepository) Create(ctx context.Context, video models.Video) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO videos (id, owner_id, video_url, video_key, thumbnail_url, thumbnail_key,
                            title, description, duration, is_published, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
    `, video.ID, video.OwnerID, video.VideoURL, video.VideoKey, video.ThumbnailURL, video.ThumbnailKey,
		video.Title, video.Description, video.Duration, video.IsPublished, video.CreatedAt, video.UpdatedAt)
	if err != nil {
		if mapped := translatePgError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("insert video: %w", err)
	}

	return nil
}

// FindByID fetches the raw video row, including storage keys.
func (r *PostgresVideoRepository) FindByID(ctx context.Context, id string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, owner_id, video_url, video_key, thumbnail_url, thumbnail_key,
               title, description, duration, is_published, created_at, updated_at
        FROM videos
        WHERE id = $1
    `, id)

	var video models.Video
	if err := row.Scan(&video.ID, &video.OwnerID, &video.VideoURL, &video.VideoKey,
		&video.ThumbnailURL, &video.ThumbnailKey, &video.Title, &video.Description,
		&video.Duration, &video.IsPublished, &video.CreatedAt, &video.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("select video: %w", err)
	}

	return video, nil
}

// GetView fetches a video joined with its owner's public profile and the
// viewer-relative engagement aggregates.
func (r *PostgresVideoRepository) GetView(ctx context.Context, id, viewerID string) (models.VideoView, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.VideoView{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT `+videoViewColumns(`$2`)+`
        FROM videos v
        JOIN users u ON u.id = v.owner_id
        WHERE v.id = $1
    `, id, viewerID)

	return scanVideoView(row)
}

// List returns a page of videos matching the query plus the total match count.
func (r *PostgresVideoRepository) List(ctx context.Context, q VideoQuery) ([]models.VideoView, int, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var (
		where      []string
		filterArgs []any
	)

	if q.OnlyPublished {
		where = append(where, "v.is_published")
	}
	if q.Search != "" {
		filterArgs = append(filterArgs, "%"+q.Search+"%")
		p := fmt.Sprintf("$%d", len(filterArgs))
		where = append(where, fmt.Sprintf("(v.title ILIKE %s OR v.description ILIKE %s)", p, p))
	}
	if q.OwnerID != "" {
		filterArgs = append(filterArgs, q.OwnerID)
		where = append(where, fmt.Sprintf("v.owner_id = $%d", len(filterArgs)))
	}

	filter := ""
	if len(where) > 0 {
		filter = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM videos v`+filter, filterArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count videos: %w", err)
	}

	orderCol, ok := videoSortColumns[q.SortBy]
	if !ok {
		orderCol = "v.created_at"
	}
	direction := "DESC"
	if q.SortAscending {
		direction = "ASC"
	}

	viewer := fmt.Sprintf("$%d", len(filterArgs)+1)
	limit := fmt.Sprintf("$%d", len(filterArgs)+2)
	offset := fmt.Sprintf("$%d", len(filterArgs)+3)

	args := append(append([]any{}, filterArgs...), q.ViewerID, q.Page.Limit, q.Page.Offset())
	query := `
        SELECT ` + videoViewColumns(viewer) + `
        FROM videos v
        JOIN users u ON u.id = v.owner_id` + filter + `
        ORDER BY ` + orderCol + ` ` + direction + `
        LIMIT ` + limit + ` OFFSET ` + offset

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()

	views, err := collectVideoViews(rows)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

// UpdateDetails modifies title, description and thumbnail for the owner's
// video. Empty thumbnail values keep the stored ones. A non-owner caller
// observes ErrNotFound.
func (r *PostgresVideoRepository) UpdateDetails(ctx context.Context, id, ownerID, title, description, thumbnailURL, thumbnailKey string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        UPDATE videos
        SET title = $3, description = $4,
            thumbnail_url = COALESCE(NULLIF($5, ''), thumbnail_url),
            thumbnail_key = COALESCE(NULLIF($6, ''), thumbnail_key),
            updated_at = $7
        WHERE id = $1 AND owner_id = $2
        RETURNING id, owner_id, video_url, video_key, thumbnail_url, thumbnail_key,
                  title, description, duration, is_published, created_at, updated_at
    `, id, ownerID, title, description, thumbnailURL, thumbnailKey, time.Now().UTC())

	var video models.Video
	if err := row.Scan(&video.ID, &video.OwnerID, &video.VideoURL, &video.VideoKey,
		&video.ThumbnailURL, &video.ThumbnailKey, &video.Title, &video.Description,
		&video.Duration, &video.IsPublished, &video.CreatedAt, &video.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("update video: %w", err)
	}

	return video, nil
}

// Delete removes the owner's video. Likes, comments, playlist entries and
// watch-history rows cascade at the storage layer.
func (r *PostgresVideoRepository) Delete(ctx context.Context, id, ownerID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM videos WHERE id = $1 AND owner_id = $2
    `, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// TogglePublish flips the publish flag for the owner's video and reports the
// new state.
func (r *PostgresVideoRepository) TogglePublish(ctx context.Context, id, ownerID string) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        UPDATE videos
        SET is_published = NOT is_published, updated_at = $3
        WHERE id = $1 AND owner_id = $2
        RETURNING is_published
    `, id, ownerID, time.Now().UTC())

	var published bool
	if err := row.Scan(&published); err != nil {
		if err == pgx.ErrNoRows {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("toggle publish: %w", err)
	}

	return published, nil
}

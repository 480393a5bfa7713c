package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/viewtube/backend/internal/logging"
	"github.com/viewtube/backend/internal/media"
	"github.com/viewtube/backend/internal/models"
	"github.com/viewtube/backend/internal/repositories"
)

// VideoHandler implements video publishing and browsing endpoints.
type VideoHandler struct {
	Videos  VideoStore
	Users   UserStore
	Media   MediaService
	TempDir string
	NowFunc func() time.Time
}

// List handles GET /api/v1/videos requests. Supports free-text search over
// title and description, an owner filter, sorting, and pagination.
func (h VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	page, err := parsePage(r)
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	query := repositories.VideoQuery{
		Search:        strings.TrimSpace(r.URL.Query().Get("query")),
		OwnerID:       strings.TrimSpace(r.URL.Query().Get("userId")),
		ViewerID:      caller.ID,
		SortBy:        r.URL.Query().Get("sortBy"),
		SortAscending: strings.EqualFold(r.URL.Query().Get("sortType"), "asc"),
		OnlyPublished: true,
		Page:          page,
	}

	videos, total, err := h.Videos.List(ctx, query)
	if err != nil {
		respondFailure(ctx, w, err, "failed to list videos")
		return
	}

	respondData(ctx, w, http.StatusOK, pagedData{
		Items: videos,
		Meta:  models.NewPageMeta(page, total),
	}, "videos")
}

// Publish handles POST /api/v1/videos multipart requests. The video file and
// thumbnail are staged locally, probed and uploaded, then the record is
// created.
func (h VideoHandler) Publish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "expected multipart form data")
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	description := strings.TrimSpace(r.FormValue("description"))
	if title == "" {
		respondError(ctx, w, http.StatusBadRequest, "title is required")
		return
	}

	videoPath, err := h.stageUpload(r, "videoFile")
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, "video file is required")
		return
	}

	videoAsset, err := h.Media.Upload(ctx, videoPath, media.KindVideo)
	if err != nil {
		logger.Error("upload video", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to store video")
		return
	}

	thumbPath, err := h.stageUpload(r, "thumbnail")
	if err != nil {
		h.Media.Delete(ctx, videoAsset.Key)
		respondError(ctx, w, http.StatusBadRequest, "thumbnail is required")
		return
	}

	thumbAsset, err := h.Media.Upload(ctx, thumbPath, media.KindThumbnail)
	if err != nil {
		h.Media.Delete(ctx, videoAsset.Key)
		logger.Error("upload thumbnail", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to store thumbnail")
		return
	}

	now := h.now()
	video := models.Video{
		ID:           uuid.NewString(),
		OwnerID:      caller.ID,
		VideoURL:     videoAsset.URL,
		VideoKey:     videoAsset.Key,
		ThumbnailURL: thumbAsset.URL,
		ThumbnailKey: thumbAsset.Key,
		Title:        title,
		Description:  description,
		Duration:     videoAsset.Duration,
		IsPublished:  true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.Videos.Create(ctx, video); err != nil {
		h.Media.Delete(ctx, videoAsset.Key)
		h.Media.Delete(ctx, thumbAsset.Key)
		respondFailure(ctx, w, err, "failed to publish video")
		return
	}

	view, err := h.Videos.GetView(ctx, video.ID, caller.ID)
	if err != nil {
		respondFailure(ctx, w, err, "failed to load published video")
		return
	}

	respondData(ctx, w, http.StatusCreated, view, "video published")
}

// Get handles GET /api/v1/videos/{videoId} requests and records the view in
// the caller's watch history.
func (h VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	videoID := chi.URLParam(r, "videoId")
	view, err := h.Videos.GetView(ctx, videoID, caller.ID)
	if err != nil {
		respondFailure(ctx, w, err, "failed to load video")
		return
	}

	if err := h.Users.RecordWatch(ctx, caller.ID, videoID); err != nil {
		// History is an enrichment; the video still renders without it.
		logging.FromContext(ctx).Warn("record watch history", "videoId", videoID, "error", err)
	}

	respondData(ctx, w, http.StatusOK, view, "video")
}

// Update handles PATCH /api/v1/videos/{videoId} requests. Title and
// description come as form fields; a replacement thumbnail is optional.
func (h VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	videoID := chi.URLParam(r, "videoId")

	var title, description string
	var thumbAsset media.Asset

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
			respondError(ctx, w, http.StatusBadRequest, "malformed multipart form data")
			return
		}
		title = strings.TrimSpace(r.FormValue("title"))
		description = strings.TrimSpace(r.FormValue("description"))

		if thumbPath, err := h.stageUpload(r, "thumbnail"); err == nil {
			thumbAsset, err = h.Media.Upload(ctx, thumbPath, media.KindThumbnail)
			if err != nil {
				logging.FromContext(ctx).Error("upload thumbnail", "error", err)
				respondError(ctx, w, http.StatusInternalServerError, "failed to store thumbnail")
				return
			}
		}
	} else {
		var req struct {
			Title       string `json:"title"`
			Description string `json:"description"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(ctx, w, http.StatusBadRequest, "invalid request body")
			return
		}
		title = strings.TrimSpace(req.Title)
		description = strings.TrimSpace(req.Description)
	}

	if title == "" && description == "" && thumbAsset.Key == "" {
		respondError(ctx, w, http.StatusBadRequest, "nothing to update")
		return
	}

	previous, err := h.Videos.FindByID(ctx, videoID)
	if err != nil {
		h.Media.Delete(ctx, thumbAsset.Key)
		respondFailure(ctx, w, err, "failed to update video")
		return
	}
	if title == "" {
		title = previous.Title
	}
	if description == "" {
		description = previous.Description
	}

	updated, err := h.Videos.UpdateDetails(ctx, videoID, caller.ID, title, description, thumbAsset.URL, thumbAsset.Key)
	if err != nil {
		h.Media.Delete(ctx, thumbAsset.Key)
		respondFailure(ctx, w, err, "failed to update video")
		return
	}

	if thumbAsset.Key != "" && previous.ThumbnailKey != "" {
		h.Media.Delete(ctx, previous.ThumbnailKey)
	}

	view, err := h.Videos.GetView(ctx, updated.ID, caller.ID)
	if err != nil {
		respondFailure(ctx, w, err, "failed to load updated video")
		return
	}

	respondData(ctx, w, http.StatusOK, view, "video updated")
}

// Delete handles DELETE /api/v1/videos/{videoId} requests. Likes, comments,
// and playlist entries cascade in the database; remote media removal is best
// effort.
func (h VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	videoID := chi.URLParam(r, "videoId")

	video, err := h.Videos.FindByID(ctx, videoID)
	if err != nil {
		respondFailure(ctx, w, err, "failed to delete video")
		return
	}

	if err := h.Videos.Delete(ctx, videoID, caller.ID); err != nil {
		respondFailure(ctx, w, err, "failed to delete video")
		return
	}

	h.Media.Delete(ctx, video.VideoKey)
	h.Media.Delete(ctx, video.ThumbnailKey)

	respondData(ctx, w, http.StatusOK, nil, "video deleted")
}

// TogglePublish handles PATCH /api/v1/videos/toggle/publish/{videoId}.
func (h VideoHandler) TogglePublish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	videoID := chi.URLParam(r, "videoId")
	published, err := h.Videos.TogglePublish(ctx, videoID, caller.ID)
	if err != nil {
		respondFailure(ctx, w, err, "failed to toggle publish status")
		return
	}

	respondData(ctx, w, http.StatusOK, map[string]bool{"isPublished": published}, "publish status toggled")
}

func (h VideoHandler) stageUpload(r *http.Request, field string) (string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return "", err
	}
	defer file.Close()

	return stageFile(file, header, h.TempDir)
}

func (h VideoHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

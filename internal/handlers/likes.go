package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/viewtube/backend/internal/models"
	"github.com/viewtube/backend/internal/repositories"
)

// LikeHandler implements like toggling across videos, comments and tweets.
type LikeHandler struct {
	Likes LikeStore
}

// ToggleVideo handles POST /api/v1/likes/toggle/v/{videoId} requests.
func (h LikeHandler) ToggleVideo(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, repositories.LikeTargetVideo, chi.URLParam(r, "videoId"))
}

// ToggleComment handles POST /api/v1/likes/toggle/c/{commentId} requests.
func (h LikeHandler) ToggleComment(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, repositories.LikeTargetComment, chi.URLParam(r, "commentId"))
}

// ToggleTweet handles POST /api/v1/likes/toggle/t/{tweetId} requests.
func (h LikeHandler) ToggleTweet(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, repositories.LikeTargetTweet, chi.URLParam(r, "tweetId"))
}

func (h LikeHandler) toggle(w http.ResponseWriter, r *http.Request, target repositories.LikeTarget, targetID string) {
	ctx := r.Context()
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	liked, err := h.Likes.Toggle(ctx, caller.ID, target, targetID)
	if err != nil {
		respondFailure(ctx, w, err, "failed to toggle like")
		return
	}

	message := "unliked"
	if liked {
		message = "liked"
	}
	respondData(ctx, w, http.StatusOK, map[string]bool{"isLiked": liked}, message)
}

// Videos handles GET /api/v1/likes/videos requests.
func (h LikeHandler) Videos(w http.ResponseWriter, r *http.Request) {
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

	videos, total, err := h.Likes.LikedVideos(ctx, caller.ID, page)
	if err != nil {
		respondFailure(ctx, w, err, "failed to list liked videos")
		return
	}

	respondData(ctx, w, http.StatusOK, pagedData{
		Items: videos,
		Meta:  models.NewPageMeta(page, total),
	}, "liked videos")
}

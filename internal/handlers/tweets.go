package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/viewtube/backend/internal/models"
)

// TweetHandler implements short-post endpoints.
type TweetHandler struct {
	Tweets  TweetStore
	NowFunc func() time.Time
}

// Create handles POST /api/v1/tweets requests.
func (h TweetHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	content, ok := decodeContent(w, r)
	if !ok {
		return
	}

	now := h.now()
	tweet := models.Tweet{
		ID:        uuid.NewString(),
		OwnerID:   caller.ID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.Tweets.Create(ctx, tweet); err != nil {
		respondFailure(ctx, w, err, "failed to create tweet")
		return
	}

	respondData(ctx, w, http.StatusCreated, tweet.ID, "tweet created")
}

// ListForUser handles GET /api/v1/tweets/user/{userId} requests.
func (h TweetHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := identity(w, r); !ok {
		return
	}

	page, err := parsePage(r)
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	tweets, total, err := h.Tweets.ListForUser(ctx, chi.URLParam(r, "userId"), page)
	if err != nil {
		respondFailure(ctx, w, err, "failed to list tweets")
		return
	}

	respondData(ctx, w, http.StatusOK, pagedData{
		Items: tweets,
		Meta:  models.NewPageMeta(page, total),
	}, "tweets")
}

// Update handles PATCH /api/v1/tweets/{tweetId} requests.
func (h TweetHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	content, ok := decodeContent(w, r)
	if !ok {
		return
	}

	tweet, err := h.Tweets.UpdateContent(ctx, chi.URLParam(r, "tweetId"), caller.ID, content)
	if err != nil {
		respondFailure(ctx, w, err, "failed to update tweet")
		return
	}

	respondData(ctx, w, http.StatusOK, tweet.ID, "tweet updated")
}

// Delete handles DELETE /api/v1/tweets/{tweetId} requests.
func (h TweetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	if err := h.Tweets.Delete(ctx, chi.URLParam(r, "tweetId"), caller.ID); err != nil {
		respondFailure(ctx, w, err, "failed to delete tweet")
		return
	}

	respondData(ctx, w, http.StatusOK, nil, "tweet deleted")
}

func (h TweetHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

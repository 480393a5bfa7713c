package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/viewtube/backend/internal/models"
)

// CommentHandler implements video comment endpoints.
type CommentHandler struct {
	Comments CommentStore
	NowFunc  func() time.Time
}

// List handles GET /api/v1/comments/{videoId} requests.
func (h CommentHandler) List(w http.ResponseWriter, r *http.Request) {
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

	videoID := chi.URLParam(r, "videoId")
	comments, total, err := h.Comments.ListForVideo(ctx, videoID, caller.ID, page)
	if err != nil {
		respondFailure(ctx, w, err, "failed to list comments")
		return
	}

	respondData(ctx, w, http.StatusOK, pagedData{
		Items: comments,
		Meta:  models.NewPageMeta(page, total),
	}, "comments")
}

// Add handles POST /api/v1/comments/{videoId} requests.
func (h CommentHandler) Add(w http.ResponseWriter, r *http.Request) {
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
	comment := models.Comment{
		ID:        uuid.NewString(),
		VideoID:   chi.URLParam(r, "videoId"),
		OwnerID:   caller.ID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.Comments.Create(ctx, comment); err != nil {
		respondFailure(ctx, w, err, "failed to add comment")
		return
	}

	respondData(ctx, w, http.StatusCreated, comment.ID, "comment added")
}

// Update handles PATCH /api/v1/comments/c/{commentId} requests.
func (h CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	content, ok := decodeContent(w, r)
	if !ok {
		return
	}

	comment, err := h.Comments.UpdateContent(ctx, chi.URLParam(r, "commentId"), caller.ID, content)
	if err != nil {
		respondFailure(ctx, w, err, "failed to update comment")
		return
	}

	respondData(ctx, w, http.StatusOK, comment.ID, "comment updated")
}

// Delete handles DELETE /api/v1/comments/c/{commentId} requests.
func (h CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	if err := h.Comments.Delete(ctx, chi.URLParam(r, "commentId"), caller.ID); err != nil {
		respondFailure(ctx, w, err, "failed to delete comment")
		return
	}

	respondData(ctx, w, http.StatusOK, nil, "comment deleted")
}

// decodeContent reads the {"content": ...} body shared by comment and tweet
// writes, rejecting empty payloads.
func decodeContent(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(r.Context(), w, http.StatusBadRequest, "invalid request body")
		return "", false
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		respondError(r.Context(), w, http.StatusBadRequest, "content is required")
		return "", false
	}
	return content, true
}

func (h CommentHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

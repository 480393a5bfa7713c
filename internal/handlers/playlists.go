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

// PlaylistHandler implements playlist endpoints.
type PlaylistHandler struct {
	Playlists PlaylistStore
	NowFunc   func() time.Time
}

// Create handles POST /api/v1/playlists requests.
func (h PlaylistHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		respondError(ctx, w, http.StatusBadRequest, "name is required")
		return
	}

	now := h.now()
	playlist := models.Playlist{
		ID:          uuid.NewString(),
		OwnerID:     caller.ID,
		Name:        req.Name,
		Description: strings.TrimSpace(req.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.Playlists.Create(ctx, playlist); err != nil {
		respondFailure(ctx, w, err, "failed to create playlist")
		return
	}

	respondData(ctx, w, http.StatusCreated, playlist.ID, "playlist created")
}

// Get handles GET /api/v1/playlists/{playlistId} requests.
func (h PlaylistHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	view, err := h.Playlists.GetView(ctx, chi.URLParam(r, "playlistId"), caller.ID)
	if err != nil {
		respondFailure(ctx, w, err, "failed to load playlist")
		return
	}

	respondData(ctx, w, http.StatusOK, view, "playlist")
}

// ListForUser handles GET /api/v1/playlists/user/{userId} requests.
func (h PlaylistHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := identity(w, r); !ok {
		return
	}

	playlists, err := h.Playlists.ListForUser(ctx, chi.URLParam(r, "userId"))
	if err != nil {
		respondFailure(ctx, w, err, "failed to list playlists")
		return
	}

	respondData(ctx, w, http.StatusOK, playlists, "playlists")
}

// AddVideo handles PATCH /api/v1/playlists/add/{videoId}/{playlistId}.
func (h PlaylistHandler) AddVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	err := h.Playlists.AddVideo(ctx, chi.URLParam(r, "playlistId"), caller.ID, chi.URLParam(r, "videoId"))
	if err != nil {
		respondFailure(ctx, w, err, "failed to add video to playlist")
		return
	}

	respondData(ctx, w, http.StatusOK, nil, "video added to playlist")
}

// RemoveVideo handles PATCH /api/v1/playlists/remove/{videoId}/{playlistId}.
func (h PlaylistHandler) RemoveVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	err := h.Playlists.RemoveVideo(ctx, chi.URLParam(r, "playlistId"), caller.ID, chi.URLParam(r, "videoId"))
	if err != nil {
		respondFailure(ctx, w, err, "failed to remove video from playlist")
		return
	}

	respondData(ctx, w, http.StatusOK, nil, "video removed from playlist")
}

// Update handles PATCH /api/v1/playlists/{playlistId} requests.
func (h PlaylistHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		respondError(ctx, w, http.StatusBadRequest, "name is required")
		return
	}

	playlist, err := h.Playlists.UpdateDetails(ctx, chi.URLParam(r, "playlistId"), caller.ID,
		req.Name, strings.TrimSpace(req.Description))
	if err != nil {
		respondFailure(ctx, w, err, "failed to update playlist")
		return
	}

	respondData(ctx, w, http.StatusOK, playlist.ID, "playlist updated")
}

// Delete handles DELETE /api/v1/playlists/{playlistId} requests.
func (h PlaylistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	if err := h.Playlists.Delete(ctx, chi.URLParam(r, "playlistId"), caller.ID); err != nil {
		respondFailure(ctx, w, err, "failed to delete playlist")
		return
	}

	respondData(ctx, w, http.StatusOK, nil, "playlist deleted")
}

func (h PlaylistHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

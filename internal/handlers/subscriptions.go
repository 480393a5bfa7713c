package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// SubscriptionHandler implements channel subscription endpoints.
type SubscriptionHandler struct {
	Subscriptions SubscriptionStore
}

// Toggle handles POST /api/v1/subscriptions/c/{channelId} requests.
func (h SubscriptionHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	subscribed, err := h.Subscriptions.Toggle(ctx, caller.ID, chi.URLParam(r, "channelId"))
	if err != nil {
		respondFailure(ctx, w, err, "failed to toggle subscription")
		return
	}

	message := "unsubscribed"
	if subscribed {
		message = "subscribed"
	}
	respondData(ctx, w, http.StatusOK, map[string]bool{"isSubscribed": subscribed}, message)
}

// Subscribers handles GET /api/v1/subscriptions/c/{channelId} requests.
func (h SubscriptionHandler) Subscribers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := identity(w, r); !ok {
		return
	}

	page, err := parsePage(r)
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	profiles, meta, err := h.Subscriptions.Subscribers(ctx, chi.URLParam(r, "channelId"), page)
	if err != nil {
		respondFailure(ctx, w, err, "failed to list subscribers")
		return
	}

	respondData(ctx, w, http.StatusOK, pagedData{Items: profiles, Meta: meta}, "subscribers")
}

// SubscribedChannels handles GET /api/v1/subscriptions/u/{subscriberId}.
func (h SubscriptionHandler) SubscribedChannels(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := identity(w, r); !ok {
		return
	}

	page, err := parsePage(r)
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	profiles, meta, err := h.Subscriptions.SubscribedChannels(ctx, chi.URLParam(r, "subscriberId"), page)
	if err != nil {
		respondFailure(ctx, w, err, "failed to list subscribed channels")
		return
	}

	respondData(ctx, w, http.StatusOK, pagedData{Items: profiles, Meta: meta}, "subscribed channels")
}

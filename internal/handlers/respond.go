package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/viewtube/backend/internal/auth"
	"github.com/viewtube/backend/internal/logging"
	"github.com/viewtube/backend/internal/repositories"
)

// successEnvelope is the uniform shape of every successful response body.
type successEnvelope struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

// errorEnvelope is the uniform shape of every failed response body. Errors
// carries field-level validation detail when present.
type errorEnvelope struct {
	StatusCode int      `json:"statusCode"`
	Message    string   `json:"message"`
	Success    bool     `json:"success"`
	Errors     []string `json:"errors"`
}

func respondData(ctx context.Context, w http.ResponseWriter, status int, data any, message string) {
	writeJSON(ctx, w, status, successEnvelope{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    true,
	})
}

func respondError(ctx context.Context, w http.ResponseWriter, status int, message string, details ...string) {
	if details == nil {
		details = []string{}
	}
	writeJSON(ctx, w, status, errorEnvelope{
		StatusCode: status,
		Message:    message,
		Success:    false,
		Errors:     details,
	})
}

// respondFailure funnels an operation error into the envelope taxonomy.
// Unrecognized errors collapse to a 500 with the fallback message so internals
// never leak to clients.
func respondFailure(ctx context.Context, w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		respondError(ctx, w, http.StatusNotFound, "resource not found")
	case errors.Is(err, repositories.ErrConflict):
		respondError(ctx, w, http.StatusConflict, "resource already exists")
	case errors.Is(err, repositories.ErrSelfSubscription):
		respondError(ctx, w, http.StatusBadRequest, "cannot subscribe to your own channel")
	case errors.Is(err, auth.ErrInvalidCredentials):
		respondError(ctx, w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrTokenExpired), errors.Is(err, auth.ErrTokenStale):
		respondError(ctx, w, http.StatusUnauthorized, "invalid or expired token")
	default:
		logging.FromContext(ctx).Error("request failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, fallback)
	}
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
		return
	}

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status)
	case status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", status)
	}
}

package handlers

import (
	"net/http"
	"strings"

	"github.com/viewtube/backend/internal/auth"
	"github.com/viewtube/backend/internal/logging"
)

const accessTokenCookie = "accessToken"
const refreshTokenCookie = "refreshToken"

// RequireAuth verifies the caller's access token, loads the account it names,
// and attaches the identity to the request context. The token is read from
// the accessToken cookie or an Authorization bearer header. Expired tokens
// are rejected outright; refreshing is an explicit client call.
func RequireAuth(users UserStore, verifier AccessVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token := bearerToken(r)
			if token == "" {
				respondError(ctx, w, http.StatusUnauthorized, "authentication required")
				return
			}

			userID, err := verifier.VerifyAccess(token)
			if err != nil {
				respondError(ctx, w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			user, err := users.FindByID(ctx, userID)
			if err != nil {
				logging.FromContext(ctx).Warn("token subject not found", "userId", userID)
				respondError(ctx, w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			ctx = auth.WithIdentity(ctx, auth.IdentityOf(user))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	if cookie, err := r.Cookie(accessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}

// identity returns the authenticated caller or writes a 401. Handlers behind
// RequireAuth use it to read the identity without re-checking presence.
func identity(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		respondError(r.Context(), w, http.StatusUnauthorized, "authentication required")
	}
	return id, ok
}

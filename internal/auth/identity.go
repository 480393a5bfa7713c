package auth

import (
	"context"

	"github.com/viewtube/backend/internal/models"
)

// Identity is the authenticated caller attached to a request context. The
// projection excludes credential and refresh-token fields.
type Identity struct {
	ID         string
	Username   string
	Email      string
	FullName   string
	Avatar     string
	CoverImage string
}

type identityKey struct{}

// WithIdentity stores the authenticated identity on the context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the authenticated identity, if any.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// IdentityOf builds the request identity from a stored user record.
func IdentityOf(user models.User) Identity {
	return Identity{
		ID:         user.ID,
		Username:   user.Username,
		Email:      user.Email,
		FullName:   user.FullName,
		Avatar:     user.AvatarURL,
		CoverImage: user.CoverImageURL,
	}
}

package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/viewtube/backend/internal/logging"
	"github.com/viewtube/backend/internal/models"
)

var (
	// ErrInvalidCredentials indicates an unknown identifier or a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrTokenStale indicates a refresh token that passed verification but no
	// longer matches the stored value: it was superseded by a rotation,
	// explicitly revoked, or the user no longer exists.
	ErrTokenStale = errors.New("refresh token superseded or revoked")
)

// TokenStore persists the single active refresh token for each user.
//
// Swap must be an atomic conditional write: the new token replaces the old one
// only if the stored value still equals the presented one. That comparison is
// the actual revocation mechanism; it also keeps concurrent rotations of the
// same token from both succeeding.
type TokenStore interface {
	SetRefreshToken(ctx context.Context, userID, token string) error
	SwapRefreshToken(ctx context.Context, userID, presented, replacement string) error
	ClearRefreshToken(ctx context.Context, userID string) error
}

// CredentialStore resolves login identifiers to stored user records.
type CredentialStore interface {
	FindByIdentifier(ctx context.Context, identifier string) (models.User, error)
}

// Service manages the credential and session-token lifecycle.
type Service struct {
	signer *TokenSigner
	tokens TokenStore
	users  CredentialStore
}

// NewService constructs the credential and token service.
func NewService(signer *TokenSigner, tokens TokenStore, users CredentialStore) *Service {
	if signer == nil {
		panic("auth: token signer must not be nil")
	}
	if tokens == nil {
		panic("auth: token store must not be nil")
	}
	return &Service{signer: signer, tokens: tokens, users: users}
}

// Signer exposes the underlying token signer for request verification.
func (s *Service) Signer() *TokenSigner { return s.signer }

// Authenticate verifies a username-or-email identifier and password pair.
// Lookup misses and password mismatches are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, identifier, password string) (models.User, error) {
	if identifier == "" || password == "" {
		return models.User{}, ErrInvalidCredentials
	}
	if s.users == nil {
		return models.User{}, errors.New("auth: credential store not configured")
	}

	user, err := s.users.FindByIdentifier(ctx, identifier)
	if err != nil {
		return models.User{}, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return models.User{}, ErrInvalidCredentials
	}

	return user, nil
}

// Issue signs a new access/refresh pair and persists the refresh token on the
// user record, implicitly invalidating any previously issued refresh token.
func (s *Service) Issue(ctx context.Context, userID string) (models.TokenPair, error) {
	pair, err := s.signPair(userID)
	if err != nil {
		return models.TokenPair{}, err
	}

	if err := s.tokens.SetRefreshToken(ctx, userID, pair.RefreshToken); err != nil {
		return models.TokenPair{}, fmt.Errorf("persist refresh token: %w", err)
	}

	return pair, nil
}

// Rotate exchanges a presented refresh token for a new pair. The swap against
// the stored token is conditional, so a stale or reused token fails even when
// its signature and expiry would otherwise still pass.
func (s *Service) Rotate(ctx context.Context, presented string) (models.TokenPair, error) {
	ctx, span := logging.StartSpan(ctx, "auth.rotate")
	defer span.End()

	if presented == "" {
		return models.TokenPair{}, ErrInvalidToken
	}

	userID, err := s.signer.VerifyRefresh(presented)
	if err != nil {
		return models.TokenPair{}, err
	}

	pair, err := s.signPair(userID)
	if err != nil {
		return models.TokenPair{}, err
	}

	if err := s.tokens.SwapRefreshToken(ctx, userID, presented, pair.RefreshToken); err != nil {
		return models.TokenPair{}, err
	}

	return pair, nil
}

// Revoke clears the stored refresh token so later rotation attempts fail.
func (s *Service) Revoke(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}
	return s.tokens.ClearRefreshToken(ctx, userID)
}

func (s *Service) signPair(userID string) (models.TokenPair, error) {
	access, accessExp, err := s.signer.SignAccess(userID)
	if err != nil {
		return models.TokenPair{}, err
	}

	refresh, refreshExp, err := s.signer.SignRefresh(userID)
	if err != nil {
		return models.TokenPair{}, err
	}

	return models.TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}
